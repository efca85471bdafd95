package storage

import (
	"context"

	"relaymark/internal/storage/models"
)

// Storage defines the interface for data persistence
type Storage interface {
	// Relay operations
	ReplaceRelays(ctx context.Context, relays []*models.Relay) error
	GetAllRelays(ctx context.Context, filter RelayFilter) ([]*models.Relay, error)
	GetRelayByHostname(ctx context.Context, hostname string) (*models.Relay, error)
	CountRelays(ctx context.Context) (int, error)

	// Probe result operations
	RecordProbe(ctx context.Context, result *models.ProbeResult) error
	GetLatestProbe(ctx context.Context, hostname string) (*models.ProbeResult, error)
	GetProbeHistory(ctx context.Context, hostname string, limit int) ([]*models.ProbeResult, error)

	// Settings operations
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	GetAllSettings(ctx context.Context) (map[string]string, error)

	// Transactions
	BeginTx(ctx context.Context) (Transaction, error)

	// Close closes the storage connection
	Close() error
}

// RelayFilter represents filters for querying relays
type RelayFilter struct {
	Type        *string
	Active      *bool
	CountryCode *string
	SearchTerm  string // Search in hostname, city, country
}

// Transaction represents a database transaction
type Transaction interface {
	Commit() error
	Rollback() error
	Storage
}
