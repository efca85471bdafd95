package errors

import (
	"errors"
	"fmt"
)

// Common error types
var (
	// Directory errors
	ErrDirectoryEmpty       = errors.New("relay directory is empty")
	ErrDirectoryFetchFailed = errors.New("failed to fetch relay directory")
	ErrRelayNotFound        = errors.New("relay not found")

	// Probe errors
	ErrNoAddress    = errors.New("relay has no usable address")
	ErrProbeTimeout = errors.New("probe timed out")

	// Storage errors
	ErrNoProbeData = errors.New("no probe data available")
)

// DirectoryError represents a failure to obtain the relay directory.
// Directory failures are fatal: without a candidate list there is nothing
// to probe.
type DirectoryError struct {
	URL string
	Err error
}

func (e *DirectoryError) Error() string {
	return fmt.Sprintf("directory '%s': %v", e.URL, e.Err)
}

func (e *DirectoryError) Unwrap() error {
	return e.Err
}

// ProbeError represents a network failure while probing a single relay.
// Probe failures are always local to one relay and never abort a batch.
type ProbeError struct {
	Hostname string
	Address  string
	Port     int
	Err      error
}

func (e *ProbeError) Error() string {
	if e.Hostname != "" {
		return fmt.Sprintf("probe '%s' (%s:%d): %v", e.Hostname, e.Address, e.Port, e.Err)
	}
	return fmt.Sprintf("probe (%s:%d): %v", e.Address, e.Port, e.Err)
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}
