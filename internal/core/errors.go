// Package core defines sentinel errors.
package core

import "errors"

// Sentinel errors. Callers classify failures with errors.Is; details are
// attached by wrapping with fmt.Errorf("%w: ...").
var (
	// Frame synthesis errors (programmer/config errors, never retried)
	ErrInvalidAddress      = errors.New("pcapsmith: invalid address")
	ErrUnknownEthertype    = errors.New("pcapsmith: unknown ethertype")
	ErrFrameTooSmall       = errors.New("pcapsmith: requested frame size too small")
	ErrInvalidFragmentSize = errors.New("pcapsmith: invalid fragment payload size")
	ErrLinkSpeedRequired   = errors.New("pcapsmith: link speed required")

	// Capture container errors
	ErrIO              = errors.New("pcapsmith: capture file I/O failed")
	ErrCaptureNotFound = errors.New("pcapsmith: capture file not found")

	// Dissector errors
	ErrDissectorUnavailable = errors.New("pcapsmith: dissector unavailable")
	ErrDissectorTimeout     = errors.New("pcapsmith: dissector timed out")

	// Analysis violations (always identify the offending frame and rule)
	ErrCountMismatch    = errors.New("pcapsmith: frame count mismatch")
	ErrSizeViolation    = errors.New("pcapsmith: frame size violation")
	ErrTimingViolation  = errors.New("pcapsmith: frame timing violation")
	ErrPayloadViolation = errors.New("pcapsmith: payload violation")
	ErrAddressViolation = errors.New("pcapsmith: MAC address violation")
	ErrVlanViolation    = errors.New("pcapsmith: VLAN violation")
	ErrMatchNotFound    = errors.New("pcapsmith: expected frame not found")

	// Configuration errors
	ErrConfigInvalid = errors.New("pcapsmith: invalid configuration")
)
