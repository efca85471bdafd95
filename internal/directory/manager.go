package directory

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"relaymark/internal/storage"
	"relaymark/internal/storage/models"
)

// settingLastSync records when the directory cache was last refreshed.
const settingLastSync = "directory_last_sync"

// Manager keeps the local relay cache in sync with the remote directory.
type Manager struct {
	storage storage.Storage
	client  *Client
}

// NewManager creates a new directory manager
func NewManager(store storage.Storage, client *Client) *Manager {
	if client == nil {
		client = NewClient(ClientConfig{})
	}
	return &Manager{
		storage: store,
		client:  client,
	}
}

// SyncResult represents the result of a directory sync
type SyncResult struct {
	Total    int // entries in the remote directory
	Stored   int // entries written to the cache
	SyncedAt time.Time
}

// Sync fetches the remote directory and replaces the local cache inside a
// transaction.
func (m *Manager) Sync(ctx context.Context) (*SyncResult, error) {
	relays, err := m.client.FetchRelays(ctx)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{
		Total:    len(relays),
		SyncedAt: time.Now(),
	}

	tx, err := m.storage.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := tx.ReplaceRelays(ctx, relays); err != nil {
		return nil, fmt.Errorf("failed to store relays: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit sync: %w", err)
	}

	result.Stored = len(relays)

	m.storage.SetSetting(ctx, settingLastSync, strconv.FormatInt(result.SyncedAt.Unix(), 10))

	return result, nil
}

// Candidates returns probe candidates matching the filter. The directory is
// refreshed first so relay membership and active status are current; cached
// serves the local cache instead, syncing only when it is empty. When a
// refresh fails but a previous sync is cached, the cache is served rather
// than failing the run; the error propagates only when no usable cache
// exists.
func (m *Manager) Candidates(ctx context.Context, filter Filter, cached bool) ([]*models.Relay, error) {
	if cached {
		count, err := m.storage.CountRelays(ctx)
		if err == nil && count > 0 {
			return m.cached(ctx, filter)
		}
	}

	if _, err := m.Sync(ctx); err != nil {
		if count, countErr := m.storage.CountRelays(ctx); countErr == nil && count > 0 {
			log.Printf("Directory refresh failed, serving cached relays: %v", err)
			return m.cached(ctx, filter)
		}
		return nil, err
	}
	return m.cached(ctx, filter)
}

func (m *Manager) cached(ctx context.Context, filter Filter) ([]*models.Relay, error) {
	storageFilter := storage.RelayFilter{}
	if filter.Type != "" {
		storageFilter.Type = &filter.Type
	}
	if filter.ActiveOnly {
		active := true
		storageFilter.Active = &active
	}
	if filter.CountryCode != "" {
		storageFilter.CountryCode = &filter.CountryCode
	}
	return m.storage.GetAllRelays(ctx, storageFilter)
}

// LastSync returns when the cache was last refreshed, or zero time if never.
func (m *Manager) LastSync(ctx context.Context) time.Time {
	val, err := m.storage.GetSetting(ctx, settingLastSync)
	if err != nil {
		return time.Time{}
	}
	unix, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(unix, 0)
}
