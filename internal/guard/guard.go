// Package guard decides which screen a session may see.
package guard

import "github.com/sandeepkv93/todotui/internal/auth"

type Route int

const (
	// Checking is shown while the session is still being resolved, so a
	// restored session never flashes the login screen.
	Checking Route = iota
	Authenticated
	Unauthenticated
)

func (r Route) String() string {
	switch r {
	case Checking:
		return "checking"
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Evaluate maps a session to a route using only its loading flag and user.
func Evaluate(s auth.Session) Route {
	switch {
	case s.Authenticated():
		return Authenticated
	case s.IsLoading:
		return Checking
	default:
		return Unauthenticated
	}
}
