package tui

import "relaymark/internal/probe"

// Probe lifecycle messages.

type probeProgressMsg struct {
	outcome *probe.Outcome
	current int
	total   int
}

type probeDoneMsg struct {
	batch *probe.BatchResult
}
