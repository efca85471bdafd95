package directory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"relaymark/internal/storage/sqlite"
)

func newTestManager(t *testing.T, apiURL string) *Manager {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "relaymark.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	client := NewClient(ClientConfig{
		APIURL:  apiURL,
		Fetcher: FetcherConfig{UserAgent: "test"},
	})
	return NewManager(store, client)
}

func TestManagerSync(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testDirectory))
	}))
	defer server.Close()

	mgr := newTestManager(t, server.URL)
	ctx := context.Background()

	result, err := mgr.Sync(ctx)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if result.Total != 4 || result.Stored != 4 {
		t.Errorf("SyncResult = %d/%d, want 4/4", result.Total, result.Stored)
	}

	// Cached candidates honor the filter.
	relays, err := mgr.Candidates(ctx, DefaultFilter(), true)
	if err != nil {
		t.Fatalf("Candidates failed: %v", err)
	}
	if len(relays) != 2 {
		t.Errorf("got %d candidates, want 2 active wireguard relays", len(relays))
	}

	if mgr.LastSync(ctx).IsZero() {
		t.Error("LastSync not recorded")
	}
}

func TestManagerCandidatesRefetchesByDefault(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(testDirectory))
	}))
	defer server.Close()

	mgr := newTestManager(t, server.URL)
	ctx := context.Background()

	// Every default run refreshes the directory, warm cache or not.
	for i := 1; i <= 3; i++ {
		if _, err := mgr.Candidates(ctx, DefaultFilter(), false); err != nil {
			t.Fatalf("Candidates failed: %v", err)
		}
		if got := atomic.LoadInt32(&hits); got != int32(i) {
			t.Fatalf("server hit %d times after %d runs, want %d", got, i, i)
		}
	}
}

func TestManagerCandidatesCached(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(testDirectory))
	}))
	defer server.Close()

	mgr := newTestManager(t, server.URL)
	ctx := context.Background()

	// Empty cache forces a sync even in cached mode.
	if _, err := mgr.Candidates(ctx, DefaultFilter(), true); err != nil {
		t.Fatalf("Candidates failed: %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("server hit %d times, want 1", got)
	}

	// Warm cache is served locally.
	if _, err := mgr.Candidates(ctx, DefaultFilter(), true); err != nil {
		t.Fatalf("Candidates failed: %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("server hit %d times with warm cache, want 1", got)
	}
}

func TestManagerCandidatesFallsBackToCache(t *testing.T) {
	var fail atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			http.Error(w, "unavailable", http.StatusBadGateway)
			return
		}
		w.Write([]byte(testDirectory))
	}))
	defer server.Close()

	mgr := newTestManager(t, server.URL)
	ctx := context.Background()

	if _, err := mgr.Sync(ctx); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	// A failed refresh with a populated cache serves cached relays.
	fail.Store(true)
	relays, err := mgr.Candidates(ctx, DefaultFilter(), false)
	if err != nil {
		t.Fatalf("Candidates must fall back to the cache: %v", err)
	}
	if len(relays) != 2 {
		t.Errorf("got %d cached candidates, want 2", len(relays))
	}
}

func TestManagerCandidatesDirectoryDownNoCache(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	mgr := newTestManager(t, server.URL)

	// No cache to fall back to: the failure is fatal.
	if _, err := mgr.Candidates(context.Background(), DefaultFilter(), false); err == nil {
		t.Fatal("expected error when directory is unavailable and cache is empty")
	}
}

func TestManagerSyncDirectoryDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	mgr := NewManager(nil, NewClient(ClientConfig{
		APIURL:  server.URL,
		Fetcher: FetcherConfig{UserAgent: "test"},
	}))

	if _, err := mgr.Sync(context.Background()); err == nil {
		t.Fatal("expected error when directory is unavailable")
	}
}
