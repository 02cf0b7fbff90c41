package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/todotui/internal/apiclient"
	"github.com/sandeepkv93/todotui/internal/auth"
	"github.com/sandeepkv93/todotui/internal/config"
	"github.com/sandeepkv93/todotui/internal/gateway"
	"github.com/sandeepkv93/todotui/internal/storage"
	"github.com/sandeepkv93/todotui/internal/update"
	"github.com/spf13/pflag"
)

var version = "dev"

type sessionStore interface {
	storage.CredentialStore
	storage.SettingStore
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "todotui failed: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var (
		configPath  string
		apiURL      string
		dbPath      string
		logFile     string
		logLevel    string
		showVersion bool
	)
	flagSet := pflag.NewFlagSet("todotui", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", os.Getenv("TODOTUI_CONFIG"), "path to a YAML config file")
	flagSet.StringVar(&apiURL, "api", "", "task API base URL (default http://127.0.0.1:8000/api)")
	flagSet.StringVar(&dbPath, "db", "", "credential database path; empty keeps the session in memory")
	flagSet.StringVar(&logFile, "log-file", "", "write JSON logs to this file; \"-\" disables logging")
	flagSet.StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	flagSet.BoolVar(&showVersion, "version", false, "print version and exit")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if showVersion {
		fmt.Println("todotui", version)
		return nil
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected argument: %s", rest[0])
	}

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.LoadFile(configPath, cfg)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	cfg = config.FromEnv(cfg)
	if apiURL != "" {
		cfg.APIBaseURL = apiURL
	}
	if flagSet.Changed("db") {
		cfg.CredentialsPath = dbPath
	}
	if logFile != "" {
		cfg.LogFile = logFile
	}
	if logLevel != "" {
		level, err := config.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("--log-level: %w", err)
		}
		cfg.LogLevel = level
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, closeLog, err := openLogger(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer closeLog()

	store, closeStore, err := openStore(cfg.CredentialsPath)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := apiclient.New(cfg.APIBaseURL,
		apiclient.WithTimeout(cfg.RequestTimeout),
		apiclient.WithLogger(logger.With("component", "apiclient")),
	)
	session := auth.NewStore(store, gateway.NewAuth(client),
		auth.WithSettings(store),
		auth.WithLogger(logger.With("component", "auth")),
	)
	client.UseTokens(session)

	logger.Info("starting", "version", version, "api", client.BaseURL(), "credentials", cfg.CredentialsPath)
	model := update.NewModel(update.Deps{
		Context:     ctx,
		Session:     session,
		Tasks:       gateway.NewTasks(client),
		SearchDelay: cfg.SearchDebounce,
		Logger:      logger.With("component", "ui"),
	})
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

// openLogger writes JSON records to path. The terminal belongs to the UI, so
// logs never go to stdout or stderr.
func openLogger(path string, level slog.Level) (*slog.Logger, func(), error) {
	if path == "" || path == "-" {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return newLogger(f, level), func() { _ = f.Close() }, nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func openStore(path string) (sessionStore, func(), error) {
	if path == "" {
		return storage.NewMemoryStore(), func() {}, nil
	}
	repo, err := storage.OpenSQLite(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open credential store: %w", err)
	}
	return repo, func() { _ = repo.Close() }, nil
}
