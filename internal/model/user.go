package model

import (
	"errors"
	"strings"
)

var (
	ErrUsernameRequired = errors.New("model: username is required")
	ErrPasswordRequired = errors.New("model: password is required")
	ErrEmailRequired    = errors.New("model: email is required")
	ErrPasswordMismatch = errors.New("model: password fields didn't match")
	ErrPasswordTooShort = errors.New("model: password must be at least 8 characters long")
)

const MinPasswordLength = 8

type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (u User) Validate() error {
	if u.ID == 0 {
		return errors.New("model: user id is required")
	}
	if strings.TrimSpace(u.Username) == "" {
		return ErrUsernameRequired
	}
	return nil
}

func (u User) DisplayName() string {
	full := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if full == "" {
		return u.Username
	}
	return full
}

// TokenPair is replaced as a unit: a refresh never keeps the old access token.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

func (p TokenPair) Complete() bool {
	return strings.TrimSpace(p.Access) != "" && strings.TrimSpace(p.Refresh) != ""
}

// AuthResult is the data payload of the login and registration endpoints.
type AuthResult struct {
	User   User      `json:"user"`
	Tokens TokenPair `json:"tokens"`
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Username) == "" {
		return ErrUsernameRequired
	}
	if c.Password == "" {
		return ErrPasswordRequired
	}
	return nil
}

type RegistrationData struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
}

// Validate mirrors the server's registration checks so obvious mistakes are
// reported without a round trip.
func (r RegistrationData) Validate() error {
	if strings.TrimSpace(r.Username) == "" {
		return ErrUsernameRequired
	}
	if strings.TrimSpace(r.Email) == "" {
		return ErrEmailRequired
	}
	if r.Password == "" {
		return ErrPasswordRequired
	}
	if r.Password != r.Password2 {
		return ErrPasswordMismatch
	}
	if len(r.Password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}
