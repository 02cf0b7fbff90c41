// Package auth owns the session: it is the only writer of the current user
// and tokens, hydrates them from the credential store at startup and keeps
// the persisted copy in step with memory.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/sandeepkv93/todotui/internal/apiclient"
	"github.com/sandeepkv93/todotui/internal/model"
	"github.com/sandeepkv93/todotui/internal/storage"
)

const (
	loginFallback    = "Failed to log in."
	registerFallback = "Failed to register."
	saveFallback     = "Failed to save session."
	expiredMessage   = "Your session has expired. Please log in again."
)

var ErrNoSession = errors.New("auth: no active session")

// Remote is the auth half of the API.
type Remote interface {
	Login(ctx context.Context, creds model.Credentials) (model.AuthResult, error)
	Register(ctx context.Context, data model.RegistrationData) (model.AuthResult, error)
	Logout(ctx context.Context, refreshToken string) error
}

type Store struct {
	mu       sync.RWMutex
	session  Session
	refresh  string
	userJSON string
	hydrated bool

	creds    storage.CredentialStore
	settings storage.SettingStore
	remote   Remote
	logger   *slog.Logger
}

type Option func(*Store)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSettings enables remembering the last username that logged in.
func WithSettings(settings storage.SettingStore) Option {
	return func(s *Store) { s.settings = settings }
}

// NewStore returns a store in the checking state (IsLoading until Hydrate).
func NewStore(creds storage.CredentialStore, remote Remote, opts ...Option) *Store {
	s := &Store{
		session: Session{IsLoading: true},
		creds:   creds,
		remote:  remote,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.clone()
}

// Hydrate restores the persisted session. Any load or decode failure clears
// the stored credentials and leaves the session unauthenticated. Only the
// first call has an effect.
func (s *Store) Hydrate(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hydrated {
		return
	}
	s.hydrated = true

	stored, err := s.creds.LoadCredentials(ctx)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("load credentials failed", "err", err)
			s.clearPersistedLocked(ctx)
		}
		s.resetLocked("")
		return
	}

	user, err := decodeUser(stored.UserJSON)
	if err != nil || stored.AccessToken == "" || stored.RefreshToken == "" {
		s.logger.Warn("discarding malformed stored session", "err", err)
		s.clearPersistedLocked(ctx)
		s.resetLocked("")
		return
	}

	s.session = Session{
		User:        &user,
		AccessToken: stored.AccessToken,
		ExpiresAt:   accessExpiry(stored.AccessToken),
	}
	s.refresh = stored.RefreshToken
	s.userJSON = stored.UserJSON
	s.logger.Info("session restored", "user", user.Username)
}

// Login authenticates against the API. On failure the readable message is
// stored in Session.Error and the error is returned so callers can react.
func (s *Store) Login(ctx context.Context, username, password string) error {
	creds := model.Credentials{Username: strings.TrimSpace(username), Password: password}
	if err := creds.Validate(); err != nil {
		s.fail(clientMessage(err))
		return err
	}

	s.begin()
	result, err := s.remote.Login(ctx, creds)
	if err != nil {
		s.fail(apiclient.Message(err, loginFallback))
		return fmt.Errorf("login: %w", err)
	}
	if err := s.establish(ctx, result); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	s.rememberUsername(ctx, result.User.Username)
	return nil
}

func (s *Store) Register(ctx context.Context, data model.RegistrationData) error {
	data.Username = strings.TrimSpace(data.Username)
	data.Email = strings.TrimSpace(data.Email)
	if err := data.Validate(); err != nil {
		s.fail(clientMessage(err))
		return err
	}

	s.begin()
	result, err := s.remote.Register(ctx, data)
	if err != nil {
		s.fail(apiclient.Message(err, registerFallback))
		return fmt.Errorf("register: %w", err)
	}
	if err := s.establish(ctx, result); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	s.rememberUsername(ctx, result.User.Username)
	return nil
}

// Logout tells the server to blacklist the refresh token, then tears the
// local session down whether or not that call succeeded.
func (s *Store) Logout(ctx context.Context) {
	if refresh := s.RefreshToken(); refresh != "" {
		if err := s.remote.Logout(ctx, refresh); err != nil {
			s.logger.Warn("logout request failed", "err", err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearPersistedLocked(ctx)
	s.resetLocked("")
	s.logger.Info("logged out")
}

// LastUsername returns the username of the most recent successful login.
func (s *Store) LastUsername(ctx context.Context) string {
	if s.settings == nil {
		return ""
	}
	name, err := s.settings.GetSetting(ctx, storage.SettingLastUsername)
	if err != nil {
		return ""
	}
	return name
}

// ClearError drops a stale message, e.g. when switching between the login
// and registration screens.
func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.Error = ""
}

func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.AccessToken
}

func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refresh
}

// Rotate installs a refreshed token pair. Both tokens are persisted with the
// user before memory changes, so the replayed request and any later reload
// see the same pair.
func (s *Store) Rotate(ctx context.Context, pair model.TokenPair) error {
	if !pair.Complete() {
		return errors.New("auth: incomplete token pair")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session.User == nil || s.userJSON == "" {
		return ErrNoSession
	}
	if err := s.creds.SaveCredentials(ctx, storage.Credentials{
		AccessToken:  pair.Access,
		RefreshToken: pair.Refresh,
		UserJSON:     s.userJSON,
	}); err != nil {
		return fmt.Errorf("persist rotated tokens: %w", err)
	}
	s.session.AccessToken = pair.Access
	s.session.ExpiresAt = accessExpiry(pair.Access)
	s.refresh = pair.Refresh
	return nil
}

// Expire ends the session after an unrecoverable auth failure.
func (s *Store) Expire(ctx context.Context, reason error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger.Warn("session expired", "reason", reason)
	s.clearPersistedLocked(ctx)
	s.resetLocked(expiredMessage)
}

func (s *Store) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.IsLoading = true
	s.session.Error = ""
}

func (s *Store) fail(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.IsLoading = false
	s.session.Error = message
}

func (s *Store) establish(ctx context.Context, result model.AuthResult) error {
	if err := result.User.Validate(); err != nil {
		s.fail(saveFallback)
		return err
	}
	if !result.Tokens.Complete() {
		s.fail(saveFallback)
		return errors.New("auth: response without token pair")
	}
	raw, err := json.Marshal(result.User)
	if err != nil {
		s.fail(saveFallback)
		return fmt.Errorf("encode user: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.creds.SaveCredentials(ctx, storage.Credentials{
		AccessToken:  result.Tokens.Access,
		RefreshToken: result.Tokens.Refresh,
		UserJSON:     string(raw),
	}); err != nil {
		s.session.IsLoading = false
		s.session.Error = saveFallback
		return fmt.Errorf("persist session: %w", err)
	}
	user := result.User
	s.session = Session{
		User:        &user,
		AccessToken: result.Tokens.Access,
		ExpiresAt:   accessExpiry(result.Tokens.Access),
	}
	s.refresh = result.Tokens.Refresh
	s.userJSON = string(raw)
	s.logger.Info("session established", "user", user.Username)
	return nil
}

func (s *Store) rememberUsername(ctx context.Context, username string) {
	if s.settings == nil || username == "" {
		return
	}
	if err := s.settings.SetSetting(ctx, storage.SettingLastUsername, username); err != nil {
		s.logger.Warn("remember username failed", "err", err)
	}
}

func (s *Store) clearPersistedLocked(ctx context.Context) {
	if err := s.creds.ClearCredentials(ctx); err != nil {
		s.logger.Error("clear credentials failed", "err", err)
	}
}

func (s *Store) resetLocked(message string) {
	s.session = Session{Error: message}
	s.refresh = ""
	s.userJSON = ""
}

func decodeUser(raw string) (model.User, error) {
	var user model.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return model.User{}, fmt.Errorf("decode user: %w", err)
	}
	if err := user.Validate(); err != nil {
		return model.User{}, err
	}
	return user, nil
}

func clientMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), "model: ")
	r, size := utf8.DecodeRuneInString(msg)
	if r == utf8.RuneError {
		return msg
	}
	return string(unicode.ToUpper(r)) + msg[size:]
}
