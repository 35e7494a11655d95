package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/rundown-app/rundown/internal/app"
	"github.com/rundown-app/rundown/internal/backend"
	"github.com/rundown-app/rundown/internal/lockfile"
	"github.com/rundown-app/rundown/internal/store"
	"github.com/rundown-app/rundown/internal/tui"
	"github.com/rundown-app/rundown/internal/util"
)

const (
	// DefaultBackendURL is the RunDown backend the client talks to.
	DefaultBackendURL = "http://localhost:5000"
	// DefaultDBFileName is the SQLite database filename in the state directory.
	DefaultDBFileName = "rundown.db"
)

// Config holds environment configuration.
type Config struct {
	BackendURL string
	StateDir   string
	DBDSN      string
	Debug      bool
}

// Flags holds command line flag values.
type Flags struct {
	backendURL *string
	stateDir   *string
	dbDSN      *string
	debug      *bool
}

func main() {
	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)
	initializeLogger(*flags.debug)

	lock, err := lockfile.Acquire(*flags.stateDir)
	if err != nil {
		slog.Error("Failed to lock state directory", "error", err)
		os.Exit(1)
	}
	defer lock.Release()

	st, err := openStore(flags)
	if err != nil {
		slog.Error("Failed to open state store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	client, err := backend.NewClient(*flags.backendURL)
	if err != nil {
		slog.Error("Failed to create backend client", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting RunDown client", "backend_url", *flags.backendURL, "state_dir", *flags.stateDir)
	redirect, err := tui.Run(app.New(client, st))
	if err != nil {
		slog.Error("RunDown client failed", "error", err)
		os.Exit(1)
	}
	if redirect != "" {
		slog.Info("Session invalid, login required", "redirect", redirect)
		os.Exit(2)
	}
	slog.Info("RunDown client exited")
}

func initializeLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	// Logs go to stderr; stdout belongs to the terminal UI.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and
// an optional .env file.
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	config := Config{
		BackendURL: util.GetEnvDefault("RUNDOWN_BACKEND_URL", DefaultBackendURL),
		StateDir:   os.Getenv("RUNDOWN_STATE_DIR"),
		DBDSN:      util.GetEnvDefault("RUNDOWN_DB_DSN", os.Getenv("DATABASE_URL")),
		Debug:      util.ParseBoolEnv("RUNDOWN_DEBUG", false),
	}

	if config.StateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		config.StateDir = filepath.Join(home, ".local", "share", "rundown")
	}
	if config.DBDSN == "" {
		config.DBDSN = filepath.Join(config.StateDir, DefaultDBFileName)
	}
	return config
}

// parseCommandLineFlags parses command line arguments with environment
// defaults.
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		backendURL: flag.String("backend-url", config.BackendURL, "RunDown backend URL (overrides $RUNDOWN_BACKEND_URL)"),
		stateDir:   flag.String("state-dir", config.StateDir, "state directory for client data (overrides $RUNDOWN_STATE_DIR)"),
		dbDSN:      flag.String("db-dsn", config.DBDSN, "database DSN for client state (overrides $RUNDOWN_DB_DSN or $DATABASE_URL)"),
		debug:      flag.Bool("debug", config.Debug, "enable debug logging (overrides $RUNDOWN_DEBUG)"),
	}
	flag.Parse()

	// A custom state dir moves the default SQLite file with it.
	if *flags.dbDSN == config.DBDSN && config.DBDSN == filepath.Join(config.StateDir, DefaultDBFileName) && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
	}
	return flags
}

func openStore(flags Flags) (store.Store, error) {
	if store.DetectDSNType(*flags.dbDSN) == "postgres" {
		slog.Debug("Using PostgreSQL state store", "dsn_set", true)
		return store.NewPostgresStore(store.WithPostgresDSN(*flags.dbDSN))
	}
	slog.Debug("Using SQLite state store", "db_path", *flags.dbDSN)
	return store.NewSQLiteStore(store.WithDSN(*flags.dbDSN))
}
