package probe

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"
)

// Strategy defines how a single timed connection attempt is performed
// against a relay address.
type Strategy interface {
	// Name returns the strategy identifier ("tcp").
	Name() string
	// Probe performs one connection attempt and returns the elapsed
	// wall-clock time in milliseconds.
	Probe(ctx context.Context, address string, port int) (elapsedMS float64, err error)
}

// TCPStrategy measures latency via a TCP handshake to address:port.
// Fast, low overhead - only verifies network reachability without speaking
// any VPN protocol.
type TCPStrategy struct{}

func (s *TCPStrategy) Name() string { return "tcp" }

func (s *TCPStrategy) Probe(ctx context.Context, address string, port int) (float64, error) {
	addr := net.JoinHostPort(address, strconv.Itoa(port))

	start := time.Now()
	dialer := net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return 0, fmt.Errorf("tcp handshake failed: %w", err)
	}
	elapsed := time.Since(start)
	conn.Close()

	return float64(elapsed) / float64(time.Millisecond), nil
}

// NewStrategy creates a Strategy by name. Valid names: "tcp".
func NewStrategy(name string) (Strategy, error) {
	switch name {
	case "tcp", "":
		return &TCPStrategy{}, nil
	default:
		return nil, fmt.Errorf("unknown probe strategy: %s (available: tcp)", name)
	}
}
