package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"relaymark/internal/storage"
	"relaymark/internal/storage/models"
	pkgerrors "relaymark/pkg/errors"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "relaymark.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleRelays() []*models.Relay {
	return []*models.Relay{
		{
			Hostname: "se-sto-wg-001", Type: models.TypeWireGuard, Active: true,
			CountryName: "Sweden", CountryCode: "se", CityName: "Stockholm", CityCode: "sto",
			Provider: "31173", Owned: true, IPv4AddrIn: "185.213.154.68",
			IPv6AddrIn: "2a03:1b20::1", Load: 12, NetworkPortSpeed: 10,
			Stboot: true, MultihopPort: 3100, SocksName: "se-sto-wg-001.socks5",
		},
		{
			Hostname: "de-fra-wg-001", Type: models.TypeWireGuard, Active: true,
			CountryName: "Germany", CountryCode: "de", CityName: "Frankfurt",
			IPv4AddrIn: "146.70.112.2", NetworkPortSpeed: 1,
		},
		{
			Hostname: "us-nyc-ovpn-001", Type: models.TypeOpenVPN, Active: false,
			CountryName: "USA", CountryCode: "us", IPv4AddrIn: "143.244.44.1",
		},
	}
}

func TestReplaceAndQueryRelays(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.ReplaceRelays(ctx, sampleRelays()); err != nil {
		t.Fatalf("ReplaceRelays failed: %v", err)
	}

	count, err := db.CountRelays(ctx)
	if err != nil || count != 3 {
		t.Fatalf("CountRelays = %d, %v; want 3", count, err)
	}

	relay, err := db.GetRelayByHostname(ctx, "se-sto-wg-001")
	if err != nil {
		t.Fatalf("GetRelayByHostname failed: %v", err)
	}
	if relay.CityName != "Stockholm" || !relay.Owned || relay.MultihopPort != 3100 {
		t.Errorf("relay fields not round-tripped: %+v", relay)
	}
	if relay.IPv6AddrIn != "2a03:1b20::1" || relay.SocksName != "se-sto-wg-001.socks5" {
		t.Errorf("nullable fields not round-tripped: %+v", relay)
	}

	// Replace drops old entries.
	if err := db.ReplaceRelays(ctx, sampleRelays()[:1]); err != nil {
		t.Fatalf("ReplaceRelays failed: %v", err)
	}
	if count, _ = db.CountRelays(ctx); count != 1 {
		t.Errorf("CountRelays after replace = %d, want 1", count)
	}

	if _, err := db.GetRelayByHostname(ctx, "de-fra-wg-001"); !errors.Is(err, pkgerrors.ErrRelayNotFound) {
		t.Errorf("err = %v, want ErrRelayNotFound", err)
	}
}

func TestGetAllRelaysFilter(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.ReplaceRelays(ctx, sampleRelays()); err != nil {
		t.Fatalf("ReplaceRelays failed: %v", err)
	}

	wireguard := models.TypeWireGuard
	active := true
	relays, err := db.GetAllRelays(ctx, storage.RelayFilter{Type: &wireguard, Active: &active})
	if err != nil {
		t.Fatalf("GetAllRelays failed: %v", err)
	}
	if len(relays) != 2 {
		t.Errorf("got %d relays, want 2", len(relays))
	}

	country := "SE"
	relays, err = db.GetAllRelays(ctx, storage.RelayFilter{CountryCode: &country})
	if err != nil {
		t.Fatalf("GetAllRelays failed: %v", err)
	}
	if len(relays) != 1 || relays[0].Hostname != "se-sto-wg-001" {
		t.Errorf("country filter returned %d relays", len(relays))
	}

	relays, err = db.GetAllRelays(ctx, storage.RelayFilter{SearchTerm: "Frankfurt"})
	if err != nil {
		t.Fatalf("GetAllRelays failed: %v", err)
	}
	if len(relays) != 1 || relays[0].Hostname != "de-fra-wg-001" {
		t.Errorf("search returned %d relays", len(relays))
	}
}

func TestProbeResults(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	latency := 23.45
	results := []*models.ProbeResult{
		{Hostname: "se-sto-wg-001", Success: false, ErrorMessage: "connection refused", Samples: 3,
			ProbedAt: time.Now().Add(-time.Hour)},
		{Hostname: "se-sto-wg-001", LatencyMS: &latency, Success: true, Samples: 3,
			ProbedAt: time.Now()},
	}
	for _, r := range results {
		if err := db.RecordProbe(ctx, r); err != nil {
			t.Fatalf("RecordProbe failed: %v", err)
		}
		if r.ID == 0 {
			t.Error("RecordProbe did not set ID")
		}
	}

	latest, err := db.GetLatestProbe(ctx, "se-sto-wg-001")
	if err != nil {
		t.Fatalf("GetLatestProbe failed: %v", err)
	}
	if !latest.Success || latest.LatencyMS == nil || *latest.LatencyMS != 23.45 {
		t.Errorf("latest probe = %+v, want success with 23.45 ms", latest)
	}

	history, err := db.GetProbeHistory(ctx, "se-sto-wg-001", 10)
	if err != nil {
		t.Fatalf("GetProbeHistory failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("got %d history entries, want 2", len(history))
	}
	if history[0].Success == false {
		t.Error("history not ordered newest first")
	}
	if history[1].LatencyMS != nil {
		t.Error("failed probe must have nil latency")
	}

	if _, err := db.GetLatestProbe(ctx, "unknown"); !errors.Is(err, pkgerrors.ErrNoProbeData) {
		t.Errorf("err = %v, want ErrNoProbeData", err)
	}
}

func TestSettings(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	// Defaults are seeded by migrations.
	if val, err := db.GetSetting(ctx, "probe_workers"); err != nil || val != "10" {
		t.Errorf("probe_workers = %q, %v; want \"10\"", val, err)
	}

	if err := db.SetSetting(ctx, "probe_workers", "25"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}
	if val, _ := db.GetSetting(ctx, "probe_workers"); val != "25" {
		t.Errorf("probe_workers after update = %q, want \"25\"", val)
	}

	settings, err := db.GetAllSettings(ctx)
	if err != nil {
		t.Fatalf("GetAllSettings failed: %v", err)
	}
	if settings["probe_samples"] != "3" {
		t.Errorf("probe_samples = %q, want \"3\"", settings["probe_samples"])
	}
}

func TestTransactionRollback(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.ReplaceRelays(ctx, sampleRelays()); err != nil {
		t.Fatalf("ReplaceRelays failed: %v", err)
	}

	tx, err := db.BeginTx(ctx)
	if err != nil {
		t.Fatalf("BeginTx failed: %v", err)
	}
	if err := tx.ReplaceRelays(ctx, nil); err != nil {
		t.Fatalf("ReplaceRelays in tx failed: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}

	count, err := db.CountRelays(ctx)
	if err != nil || count != 3 {
		t.Errorf("CountRelays after rollback = %d, %v; want 3", count, err)
	}
}
