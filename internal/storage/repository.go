package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("storage: not found")

// CredentialStore persists the session triple. Save and Clear always act on
// all three fields together.
type CredentialStore interface {
	LoadCredentials(ctx context.Context) (Credentials, error)
	SaveCredentials(ctx context.Context, in Credentials) error
	ClearCredentials(ctx context.Context) error
}

type SettingStore interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}
