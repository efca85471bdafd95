package models

import "time"

// ProbeResult represents one recorded probe of a relay.
type ProbeResult struct {
	ID           int64     `json:"id"`
	Hostname     string    `json:"hostname"`
	LatencyMS    *float64  `json:"latency_ms,omitempty"` // NULL if failed
	Success      bool      `json:"success"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Samples      int       `json:"samples"`
	ProbedAt     time.Time `json:"probed_at"`
}
