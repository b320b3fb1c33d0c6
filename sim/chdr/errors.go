package chdr

import "errors"

// Error categories for packet operations. Individual failures wrap one of
// these sentinels, so callers can classify with errors.Is while still seeing
// the detailed message.
var (
	// ErrValidation: caller-supplied structured data disagrees with the
	// declared lengths (e.g. an explicit byte length that doesn't cover the
	// data words).
	ErrValidation = errors.New("chdr: validation failed")
	// ErrTypeMismatch: a typed read was invoked on a packet whose header
	// type tag doesn't match.
	ErrTypeMismatch = errors.New("chdr: packet type mismatch")
	// ErrInsufficientPayload: a typed read needs more payload words than the
	// packet holds.
	ErrInsufficientPayload = errors.New("chdr: insufficient payload")
	// ErrFraming: wire reconstruction ended in the wrong state (truncated or
	// malformed word stream).
	ErrFraming = errors.New("chdr: framing error")
	// ErrConfiguration: invalid bus width or stall configuration; not
	// recoverable by retrying the operation.
	ErrConfiguration = errors.New("chdr: invalid configuration")
)
