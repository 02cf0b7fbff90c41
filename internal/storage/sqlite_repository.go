package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteTimeLayout = time.RFC3339Nano

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(db *sql.DB) (*SQLiteRepository, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	return &SQLiteRepository{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// OpenSQLite opens (or creates) the credential database at path and applies
// pending migrations.
func OpenSQLite(path string) (*SQLiteRepository, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("storage: empty database path")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := MigrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	repo, err := NewSQLiteRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) LoadCredentials(ctx context.Context) (Credentials, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT access_token, refresh_token, user_json, saved_at
		FROM credentials WHERE id = 1`)
	var out Credentials
	var saved string
	if err := row.Scan(&out.AccessToken, &out.RefreshToken, &out.UserJSON, &saved); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Credentials{}, ErrNotFound
		}
		return Credentials{}, err
	}
	savedAt, err := time.Parse(sqliteTimeLayout, saved)
	if err != nil {
		return Credentials{}, fmt.Errorf("parse saved_at: %w", err)
	}
	out.SavedAt = savedAt
	return out, nil
}

// SaveCredentials replaces the stored triple in a single statement, so a
// reader never observes a new access token next to an old refresh token.
func (r *SQLiteRepository) SaveCredentials(ctx context.Context, in Credentials) error {
	if in.AccessToken == "" || in.RefreshToken == "" || in.UserJSON == "" {
		return errors.New("storage: credentials must carry access token, refresh token and user")
	}
	savedAt := in.SavedAt
	if savedAt.IsZero() {
		savedAt = r.now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO credentials (id, access_token, refresh_token, user_json, saved_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			user_json = excluded.user_json,
			saved_at = excluded.saved_at`,
		in.AccessToken, in.RefreshToken, in.UserJSON, savedAt.UTC().Format(sqliteTimeLayout),
	)
	return err
}

func (r *SQLiteRepository) ClearCredentials(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM credentials`)
	return err
}

func (r *SQLiteRepository) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return value, err
}

func (r *SQLiteRepository) SetSetting(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}
