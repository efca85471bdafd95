package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"relaymark/internal/storage"
	"relaymark/internal/storage/models"
	pkgerrors "relaymark/pkg/errors"
)

// dbHandle is the common interface between *sql.DB and *sql.Tx.
type dbHandle interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// DB implements the Storage interface using SQLite
type DB struct {
	db *sql.DB
}

// New creates a new SQLite storage instance
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	store := &DB{db: db}

	// Run migrations
	if err := runMigrations(store); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) handle() dbHandle { return d.db }

// BeginTx starts a new transaction
func (d *DB) BeginTx(ctx context.Context) (storage.Transaction, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx}, nil
}

// Tx implements the Transaction interface
type Tx struct {
	tx *sql.Tx
}

func (t *Tx) Commit() error    { return t.tx.Commit() }
func (t *Tx) Rollback() error  { return t.tx.Rollback() }
func (t *Tx) handle() dbHandle { return t.tx }

func (t *Tx) BeginTx(ctx context.Context) (storage.Transaction, error) {
	return nil, fmt.Errorf("nested transactions not supported")
}

func (t *Tx) Close() error { return nil }

// ─── Relay operations ───────────────────────────────────────────────────────

const relayColumns = `hostname, type, active, country_name, country_code, city_name, city_code,
       provider, owned, ipv4_addr_in, ipv6_addr_in, load, network_port_speed,
       stboot, multihop_port, socks_name, created_at, updated_at`

func (d *DB) ReplaceRelays(ctx context.Context, relays []*models.Relay) error {
	return replaceRelays(ctx, d.handle(), relays)
}
func (t *Tx) ReplaceRelays(ctx context.Context, relays []*models.Relay) error {
	return replaceRelays(ctx, t.handle(), relays)
}

func replaceRelays(ctx context.Context, h dbHandle, relays []*models.Relay) error {
	if _, err := h.ExecContext(ctx, `DELETE FROM relays`); err != nil {
		return fmt.Errorf("failed to clear relays: %w", err)
	}
	query := `
		INSERT INTO relays (hostname, type, active, country_name, country_code, city_name, city_code,
		                    provider, owned, ipv4_addr_in, ipv6_addr_in, load, network_port_speed,
		                    stboot, multihop_port, socks_name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, r := range relays {
		_, err := h.ExecContext(ctx, query,
			r.Hostname, r.Type, r.Active, r.CountryName, r.CountryCode, r.CityName, r.CityCode,
			r.Provider, r.Owned, r.IPv4AddrIn, r.IPv6AddrIn, r.Load, r.NetworkPortSpeed,
			r.Stboot, r.MultihopPort, r.SocksName,
		)
		if err != nil {
			return fmt.Errorf("failed to insert relay '%s': %w", r.Hostname, err)
		}
	}
	return nil
}

func (d *DB) GetAllRelays(ctx context.Context, filter storage.RelayFilter) ([]*models.Relay, error) {
	return getAllRelays(ctx, d.handle(), filter)
}
func (t *Tx) GetAllRelays(ctx context.Context, filter storage.RelayFilter) ([]*models.Relay, error) {
	return getAllRelays(ctx, t.handle(), filter)
}

func getAllRelays(ctx context.Context, h dbHandle, filter storage.RelayFilter) ([]*models.Relay, error) {
	query := `SELECT ` + relayColumns + ` FROM relays`
	var conditions []string
	var args []interface{}

	if filter.Type != nil {
		conditions = append(conditions, "type = ?")
		args = append(args, *filter.Type)
	}
	if filter.Active != nil {
		conditions = append(conditions, "active = ?")
		args = append(args, *filter.Active)
	}
	if filter.CountryCode != nil {
		conditions = append(conditions, "country_code = ? COLLATE NOCASE")
		args = append(args, *filter.CountryCode)
	}
	if filter.SearchTerm != "" {
		conditions = append(conditions, "(hostname LIKE ? OR city_name LIKE ? OR country_name LIKE ?)")
		term := "%" + filter.SearchTerm + "%"
		args = append(args, term, term, term)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY hostname ASC"

	rows, err := h.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var relays []*models.Relay
	for rows.Next() {
		relay, err := scanRelay(rows)
		if err != nil {
			return nil, err
		}
		relays = append(relays, relay)
	}
	return relays, rows.Err()
}

func (d *DB) GetRelayByHostname(ctx context.Context, hostname string) (*models.Relay, error) {
	return getRelayByHostname(ctx, d.handle(), hostname)
}
func (t *Tx) GetRelayByHostname(ctx context.Context, hostname string) (*models.Relay, error) {
	return getRelayByHostname(ctx, t.handle(), hostname)
}

func getRelayByHostname(ctx context.Context, h dbHandle, hostname string) (*models.Relay, error) {
	query := `SELECT ` + relayColumns + ` FROM relays WHERE hostname = ?`
	relay, err := scanRelay(h.QueryRowContext(ctx, query, hostname))
	if err == sql.ErrNoRows {
		return nil, pkgerrors.ErrRelayNotFound
	}
	if err != nil {
		return nil, err
	}
	return relay, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRelay(s scanner) (*models.Relay, error) {
	relay := &models.Relay{}
	var ipv6, socksName sql.NullString
	err := s.Scan(
		&relay.Hostname, &relay.Type, &relay.Active,
		&relay.CountryName, &relay.CountryCode, &relay.CityName, &relay.CityCode,
		&relay.Provider, &relay.Owned, &relay.IPv4AddrIn, &ipv6,
		&relay.Load, &relay.NetworkPortSpeed, &relay.Stboot, &relay.MultihopPort, &socksName,
		&relay.CreatedAt, &relay.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	relay.IPv6AddrIn = ipv6.String
	relay.SocksName = socksName.String
	return relay, nil
}

func (d *DB) CountRelays(ctx context.Context) (int, error) {
	return countRelays(ctx, d.handle())
}
func (t *Tx) CountRelays(ctx context.Context) (int, error) {
	return countRelays(ctx, t.handle())
}

func countRelays(ctx context.Context, h dbHandle) (int, error) {
	var count int
	err := h.QueryRowContext(ctx, `SELECT COUNT(*) FROM relays`).Scan(&count)
	return count, err
}

// ─── Probe result operations ────────────────────────────────────────────────

func (d *DB) RecordProbe(ctx context.Context, result *models.ProbeResult) error {
	return recordProbe(ctx, d.handle(), result)
}
func (t *Tx) RecordProbe(ctx context.Context, result *models.ProbeResult) error {
	return recordProbe(ctx, t.handle(), result)
}

func recordProbe(ctx context.Context, h dbHandle, result *models.ProbeResult) error {
	query := `
		INSERT INTO probe_results (hostname, latency_ms, success, error_message, samples, probed_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	probedAt := result.ProbedAt
	if probedAt.IsZero() {
		probedAt = time.Now()
	}
	res, err := h.ExecContext(ctx, query,
		result.Hostname, result.LatencyMS, result.Success, result.ErrorMessage,
		result.Samples, probedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record probe: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	result.ID = id
	return nil
}

func (d *DB) GetLatestProbe(ctx context.Context, hostname string) (*models.ProbeResult, error) {
	return getLatestProbe(ctx, d.handle(), hostname)
}
func (t *Tx) GetLatestProbe(ctx context.Context, hostname string) (*models.ProbeResult, error) {
	return getLatestProbe(ctx, t.handle(), hostname)
}

func getLatestProbe(ctx context.Context, h dbHandle, hostname string) (*models.ProbeResult, error) {
	query := `
		SELECT id, hostname, latency_ms, success, error_message, samples, probed_at
		FROM probe_results WHERE hostname = ?
		ORDER BY probed_at DESC LIMIT 1
	`
	result := &models.ProbeResult{}
	var latency sql.NullFloat64
	var errMsg sql.NullString
	err := h.QueryRowContext(ctx, query, hostname).Scan(
		&result.ID, &result.Hostname, &latency, &result.Success,
		&errMsg, &result.Samples, &result.ProbedAt,
	)
	if err == sql.ErrNoRows {
		return nil, pkgerrors.ErrNoProbeData
	}
	if err != nil {
		return nil, err
	}
	if latency.Valid {
		result.LatencyMS = &latency.Float64
	}
	result.ErrorMessage = errMsg.String
	return result, nil
}

func (d *DB) GetProbeHistory(ctx context.Context, hostname string, limit int) ([]*models.ProbeResult, error) {
	return getProbeHistory(ctx, d.handle(), hostname, limit)
}
func (t *Tx) GetProbeHistory(ctx context.Context, hostname string, limit int) ([]*models.ProbeResult, error) {
	return getProbeHistory(ctx, t.handle(), hostname, limit)
}

func getProbeHistory(ctx context.Context, h dbHandle, hostname string, limit int) ([]*models.ProbeResult, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT id, hostname, latency_ms, success, error_message, samples, probed_at
		FROM probe_results WHERE hostname = ?
		ORDER BY probed_at DESC LIMIT ?
	`
	rows, err := h.QueryContext(ctx, query, hostname, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*models.ProbeResult
	for rows.Next() {
		result := &models.ProbeResult{}
		var latency sql.NullFloat64
		var errMsg sql.NullString
		err := rows.Scan(
			&result.ID, &result.Hostname, &latency, &result.Success,
			&errMsg, &result.Samples, &result.ProbedAt,
		)
		if err != nil {
			return nil, err
		}
		if latency.Valid {
			result.LatencyMS = &latency.Float64
		}
		result.ErrorMessage = errMsg.String
		results = append(results, result)
	}
	return results, rows.Err()
}

// ─── Settings operations ────────────────────────────────────────────────────

func (d *DB) GetSetting(ctx context.Context, key string) (string, error) {
	return getSetting(ctx, d.handle(), key)
}
func (t *Tx) GetSetting(ctx context.Context, key string) (string, error) {
	return getSetting(ctx, t.handle(), key)
}

func getSetting(ctx context.Context, h dbHandle, key string) (string, error) {
	var value string
	err := h.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("setting not found: %s", key)
	}
	return value, err
}

func (d *DB) SetSetting(ctx context.Context, key, value string) error {
	return setSetting(ctx, d.handle(), key, value)
}
func (t *Tx) SetSetting(ctx context.Context, key, value string) error {
	return setSetting(ctx, t.handle(), key, value)
}

func setSetting(ctx context.Context, h dbHandle, key, value string) error {
	query := `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`
	_, err := h.ExecContext(ctx, query, key, value)
	return err
}

func (d *DB) GetAllSettings(ctx context.Context) (map[string]string, error) {
	return getAllSettings(ctx, d.handle())
}
func (t *Tx) GetAllSettings(ctx context.Context) (map[string]string, error) {
	return getAllSettings(ctx, t.handle())
}

func getAllSettings(ctx context.Context, h dbHandle) (map[string]string, error) {
	rows, err := h.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		settings[key] = value
	}
	return settings, rows.Err()
}
