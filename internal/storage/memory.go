package storage

import (
	"context"
	"sync"
)

// MemoryStore keeps credentials in process memory. It is used when no
// database path is configured and in tests of packages above storage.
type MemoryStore struct {
	mu       sync.Mutex
	creds    *Credentials
	settings map[string]string
	SaveErr  error
	ClearErr error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{settings: make(map[string]string)}
}

func (s *MemoryStore) LoadCredentials(context.Context) (Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creds == nil {
		return Credentials{}, ErrNotFound
	}
	return *s.creds, nil
}

func (s *MemoryStore) SaveCredentials(_ context.Context, in Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	c := in
	s.creds = &c
	return nil
}

func (s *MemoryStore) ClearCredentials(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ClearErr != nil {
		return s.ClearErr
	}
	s.creds = nil
	return nil
}

func (s *MemoryStore) GetSetting(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.settings[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (s *MemoryStore) SetSetting(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = value
	return nil
}
