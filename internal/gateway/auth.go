package gateway

import (
	"context"
	"net/http"

	"github.com/sandeepkv93/todotui/internal/apiclient"
	"github.com/sandeepkv93/todotui/internal/model"
)

const (
	loginPath    = "/token/"
	registerPath = "/register/"
	logoutPath   = "/logout/"
)

type Auth struct {
	api Doer
}

func NewAuth(api Doer) *Auth {
	return &Auth{api: api}
}

func (g *Auth) Login(ctx context.Context, creds model.Credentials) (model.AuthResult, error) {
	var out model.AuthResult
	err := g.api.Do(ctx, apiclient.Request{Method: http.MethodPost, Path: loginPath, Body: creds, Public: true}, &out)
	return out, err
}

func (g *Auth) Register(ctx context.Context, data model.RegistrationData) (model.AuthResult, error) {
	var out model.AuthResult
	err := g.api.Do(ctx, apiclient.Request{Method: http.MethodPost, Path: registerPath, Body: data, Public: true}, &out)
	return out, err
}

// Logout blacklists the refresh token server side. It is authenticated, so
// it goes through the normal refresh cycle.
func (g *Auth) Logout(ctx context.Context, refreshToken string) error {
	return g.api.Do(ctx, apiclient.Request{Method: http.MethodPost, Path: logoutPath, Body: map[string]string{"refresh": refreshToken}}, nil)
}
