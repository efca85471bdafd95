package directory

import (
	"context"
	"encoding/json"
	"fmt"

	"relaymark/internal/storage/models"
	pkgerrors "relaymark/pkg/errors"
)

// DefaultAPIURL is the public Mullvad relay directory endpoint.
const DefaultAPIURL = "https://api.mullvad.net/www/relays/all/"

// Client fetches and decodes the relay directory.
type Client struct {
	fetcher *Fetcher
	apiURL  string
}

// ClientConfig represents client configuration
type ClientConfig struct {
	APIURL  string
	Fetcher FetcherConfig
}

// NewClient creates a new directory client
func NewClient(config ClientConfig) *Client {
	if config.APIURL == "" {
		config.APIURL = DefaultAPIURL
	}
	if config.Fetcher == (FetcherConfig{}) {
		config.Fetcher = DefaultFetcherConfig()
	}
	return &Client{
		fetcher: NewFetcher(config.Fetcher),
		apiURL:  config.APIURL,
	}
}

// FetchRelays retrieves the full relay directory. Any failure here is fatal
// for a run: without a directory there are no candidates to probe.
func (c *Client) FetchRelays(ctx context.Context) ([]*models.Relay, error) {
	content, err := c.fetcher.Fetch(ctx, c.apiURL)
	if err != nil {
		return nil, &pkgerrors.DirectoryError{
			URL: c.apiURL,
			Err: fmt.Errorf("%w: %w", pkgerrors.ErrDirectoryFetchFailed, err),
		}
	}

	var relays []*models.Relay
	if err := json.Unmarshal(content, &relays); err != nil {
		return nil, &pkgerrors.DirectoryError{
			URL: c.apiURL,
			Err: fmt.Errorf("failed to decode directory: %w", err),
		}
	}

	if len(relays) == 0 {
		return nil, &pkgerrors.DirectoryError{URL: c.apiURL, Err: pkgerrors.ErrDirectoryEmpty}
	}

	return relays, nil
}

// Filter selects which directory entries become probe candidates.
type Filter struct {
	Type        string // relay type, empty = any
	ActiveOnly  bool
	CountryCode string
}

// DefaultFilter keeps only active WireGuard relays.
func DefaultFilter() Filter {
	return Filter{
		Type:       models.TypeWireGuard,
		ActiveOnly: true,
	}
}
