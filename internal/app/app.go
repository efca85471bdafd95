package app

import (
	"fmt"
	"path/filepath"

	"relaymark/internal/directory"
	"relaymark/internal/paths"
	"relaymark/internal/storage"
	"relaymark/internal/storage/sqlite"
)

// App represents the application context
type App struct {
	Storage   storage.Storage
	Directory *directory.Manager
	Config    *Config
}

// Config represents application configuration
type Config struct {
	DBPath string
	APIURL string
}

// New creates a new application instance
func New() (*App, error) {
	return NewWithConfig(&Config{})
}

// NewWithConfig creates a new application instance with explicit settings.
func NewWithConfig(cfg *Config) (*App, error) {
	dataDir, err := paths.DataDir()
	if err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if _, err := paths.ConfigDir(); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(dataDir, "relaymark.db")
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	client := directory.NewClient(directory.ClientConfig{APIURL: cfg.APIURL})

	return &App{
		Storage:   store,
		Directory: directory.NewManager(store, client),
		Config:    cfg,
	}, nil
}

// Close closes the application and releases resources
func (a *App) Close() error {
	if a.Storage != nil {
		return a.Storage.Close()
	}
	return nil
}
