// Package config resolves runtime settings. Later sources win: defaults,
// then an optional YAML file, then TODOTUI_* environment variables. Flags
// are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	APIBaseURL      string
	RequestTimeout  time.Duration
	SearchDebounce  time.Duration
	CredentialsPath string
	LogFile         string
	LogLevel        slog.Level
}

func Default() Config {
	return Config{
		APIBaseURL:      "http://127.0.0.1:8000/api",
		RequestTimeout:  10 * time.Second,
		SearchDebounce:  300 * time.Millisecond,
		CredentialsPath: ".todotui.db",
		LogFile:         "todotui.log",
		LogLevel:        slog.LevelInfo,
	}
}

// fileConfig is the YAML shape. Durations are strings such as "10s".
type fileConfig struct {
	APIBaseURL      *string `yaml:"api_base_url"`
	RequestTimeout  *string `yaml:"request_timeout"`
	SearchDebounce  *string `yaml:"search_debounce"`
	CredentialsPath *string `yaml:"credentials_path"`
	LogFile         *string `yaml:"log_file"`
	LogLevel        *string `yaml:"log_level"`
}

// LoadFile overlays the YAML file at path onto base. Keys missing from the
// file keep the base value.
func LoadFile(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read config: %w", err)
	}
	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return base, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg := base
	var errs []error
	if file.APIBaseURL != nil {
		cfg.APIBaseURL = strings.TrimSpace(*file.APIBaseURL)
	}
	if file.RequestTimeout != nil {
		d, err := time.ParseDuration(*file.RequestTimeout)
		if err != nil {
			errs = append(errs, fmt.Errorf("request_timeout: %w", err))
		} else {
			cfg.RequestTimeout = d
		}
	}
	if file.SearchDebounce != nil {
		d, err := time.ParseDuration(*file.SearchDebounce)
		if err != nil {
			errs = append(errs, fmt.Errorf("search_debounce: %w", err))
		} else {
			cfg.SearchDebounce = d
		}
	}
	if file.CredentialsPath != nil {
		cfg.CredentialsPath = *file.CredentialsPath
	}
	if file.LogFile != nil {
		cfg.LogFile = *file.LogFile
	}
	if file.LogLevel != nil {
		level, err := ParseLevel(*file.LogLevel)
		if err != nil {
			errs = append(errs, fmt.Errorf("log_level: %w", err))
		} else {
			cfg.LogLevel = level
		}
	}
	if len(errs) > 0 {
		return base, fmt.Errorf("config %s: %w", path, errors.Join(errs...))
	}
	return cfg, nil
}

// FromEnv overlays TODOTUI_* variables onto base. Malformed values are
// ignored.
func FromEnv(base Config) Config {
	cfg := base
	if v, ok := getEnvString("TODOTUI_API_BASE_URL"); ok {
		cfg.APIBaseURL = v
	}
	if v, ok := getEnvDuration("TODOTUI_REQUEST_TIMEOUT"); ok && v > 0 {
		cfg.RequestTimeout = v
	}
	if v, ok := getEnvDuration("TODOTUI_SEARCH_DEBOUNCE"); ok && v >= 0 {
		cfg.SearchDebounce = v
	}
	if v, ok := os.LookupEnv("TODOTUI_CREDENTIALS_PATH"); ok {
		cfg.CredentialsPath = strings.TrimSpace(v)
	}
	if v, ok := os.LookupEnv("TODOTUI_LOG_FILE"); ok {
		cfg.LogFile = strings.TrimSpace(v)
	}
	if v, ok := getEnvString("TODOTUI_LOG_LEVEL"); ok {
		if level, err := ParseLevel(v); err == nil {
			cfg.LogLevel = level
		}
	}
	return cfg
}

func (c Config) Validate() error {
	var errs []error
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("api base url must be an http(s) URL: %q", c.APIBaseURL))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("request timeout must be positive"))
	}
	if c.SearchDebounce < 0 {
		errs = append(errs, fmt.Errorf("search debounce must not be negative"))
	}
	return errors.Join(errs...)
}

func ParseLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(raw))); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}

func getEnvString(name string) (string, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	return raw, raw != ""
}

// getEnvDuration accepts Go durations ("750ms") or bare milliseconds.
func getEnvDuration(name string) (time.Duration, bool) {
	raw, ok := getEnvString(name)
	if !ok {
		return 0, false
	}
	if ms, err := strconv.Atoi(raw); err == nil {
		return time.Duration(ms) * time.Millisecond, true
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, false
	}
	return d, true
}
