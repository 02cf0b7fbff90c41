package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sandeepkv93/todotui/internal/model"
)

// Session is a read-only snapshot of the authentication state. User and
// AccessToken are both set or both empty, except while IsLoading.
type Session struct {
	User        *model.User
	AccessToken string
	IsLoading   bool
	Error       string
	// ExpiresAt is the access token's exp claim, zero when the token does
	// not carry one. Display only: the adapter learns about expiry from 401s.
	ExpiresAt time.Time
}

func (s Session) Authenticated() bool {
	return s.User != nil && s.AccessToken != ""
}

func (s Session) UserID() int64 {
	if s.User == nil {
		return 0
	}
	return s.User.ID
}

func (s Session) clone() Session {
	out := s
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	return out
}

// accessExpiry reads the exp claim without verifying the signature; the
// client has no key and the value is only shown to the user.
func accessExpiry(token string) time.Time {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
