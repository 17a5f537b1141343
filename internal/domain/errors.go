package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency. The core packages
// (table, detector) never return these: reconciliation failure is a dropped
// claim, not a Go error. These belong to the collaborator packages.

var (
	// Config errors
	ErrPingTooSlow    = errors.New("ping timeout must be shorter than the period timeout")
	ErrNoBindPort     = errors.New("bind port must be set")
	ErrInvalidSeed    = errors.New("seed address could not be parsed as host:port")

	// Transport errors
	ErrTransportClosed = errors.New("transport is closed")
	ErrFrameTooLarge   = errors.New("encoded frame exceeds maximum datagram size")
	ErrDecodeFailed    = errors.New("datagram could not be decoded")
)
