package directory

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "relaymark/pkg/errors"
)

const testDirectory = `[
  {"hostname": "se-sto-wg-001", "type": "wireguard", "active": true,
   "country_name": "Sweden", "country_code": "se", "city_name": "Stockholm", "city_code": "sto",
   "provider": "31173", "owned": true, "ipv4_addr_in": "185.213.154.68",
   "ipv6_addr_in": "2a03:1b20:1:f011::a01f", "network_port_speed": 10, "stboot": true,
   "multihop_port": 3100, "socks_name": "se-sto-wg-001.socks5"},
  {"hostname": "se-sto-wg-002", "type": "wireguard", "active": false,
   "country_name": "Sweden", "country_code": "se", "ipv4_addr_in": "185.213.154.69"},
  {"hostname": "se-sto-ovpn-001", "type": "openvpn", "active": true,
   "country_name": "Sweden", "country_code": "se", "ipv4_addr_in": "185.213.154.70"},
  {"hostname": "de-fra-wg-001", "type": "wireguard", "active": true,
   "country_name": "Germany", "country_code": "de", "city_name": "Frankfurt",
   "ipv4_addr_in": "146.70.112.2", "network_port_speed": 1}
]`

func TestFetchRelays(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Accept header = %q, want application/json", got)
		}
		w.Write([]byte(testDirectory))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{APIURL: server.URL})
	relays, err := client.FetchRelays(context.Background())
	if err != nil {
		t.Fatalf("FetchRelays failed: %v", err)
	}
	if len(relays) != 4 {
		t.Fatalf("got %d relays, want 4", len(relays))
	}

	first := relays[0]
	if first.Hostname != "se-sto-wg-001" || first.IPv4AddrIn != "185.213.154.68" {
		t.Errorf("unexpected first relay: %+v", first)
	}
	if !first.Owned || !first.Stboot || first.NetworkPortSpeed != 10 {
		t.Errorf("metadata not decoded: %+v", first)
	}
	if !first.HasIPv6() || !first.HasSocks() || !first.HasMultihop() {
		t.Errorf("capability flags not decoded: %+v", first)
	}
}

func TestFetchRelaysServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{APIURL: server.URL})
	_, err := client.FetchRelays(context.Background())
	if err == nil {
		t.Fatal("expected error for non-200 response")
	}

	var dirErr *pkgerrors.DirectoryError
	if !errors.As(err, &dirErr) {
		t.Errorf("error type = %T, want *DirectoryError", err)
	}
	if !errors.Is(err, pkgerrors.ErrDirectoryFetchFailed) {
		t.Errorf("err = %v, want ErrDirectoryFetchFailed in chain", err)
	}
}

func TestFetchRelaysMalformedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not": "a list"}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{APIURL: server.URL})
	if _, err := client.FetchRelays(context.Background()); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestFetchRelaysEmptyDirectory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{APIURL: server.URL})
	_, err := client.FetchRelays(context.Background())
	if !errors.Is(err, pkgerrors.ErrDirectoryEmpty) {
		t.Errorf("err = %v, want ErrDirectoryEmpty", err)
	}
}
