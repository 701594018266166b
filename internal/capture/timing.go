// Package capture owns the on-disk capture container and frame pacing.
package capture

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"icc.tech/pcapsmith/internal/core"
)

type timingKind int

const (
	timingNone timingKind = iota
	timingDelta
	timingIFG
)

// TimingDirective selects how the timestamp of a frame is derived from its
// predecessor. The zero value means "no directive": back-to-back by
// serialization time when a link speed is known, otherwise a zero delta.
type TimingDirective struct {
	kind     timingKind
	deltaNs  int64
	ifgBytes int
}

// ExplicitDelta places the frame exactly ns nanoseconds after its predecessor.
func ExplicitDelta(ns int64) TimingDirective {
	return TimingDirective{kind: timingDelta, deltaNs: ns}
}

// InterFrameGap places the frame after the predecessor's serialization time
// plus an idle gap of the given byte-equivalents at the link rate.
func InterFrameGap(bytes int) TimingDirective {
	return TimingDirective{kind: timingIFG, ifgBytes: bytes}
}

// next computes the timestamp for a frame that follows a frame of
// prevLenBytes sent at prevTs. linkBps may be 0 when unknown.
func (d TimingDirective) next(prevTs int64, prevLenBytes int, linkBps float64) (int64, error) {
	switch d.kind {
	case timingDelta:
		return prevTs + d.deltaNs, nil
	case timingIFG:
		if linkBps <= 0 {
			return 0, fmt.Errorf("%w: inter-frame gap of %d bytes needs a link speed",
				core.ErrLinkSpeedRequired, d.ifgBytes)
		}
		bits := float64(prevLenBytes*8 + d.ifgBytes*8)
		return prevTs + int64(math.Round(bits/linkBps*1e9)), nil
	default:
		if linkBps > 0 {
			bits := float64(prevLenBytes * 8)
			return prevTs + int64(math.Round(bits/linkBps*1e9)), nil
		}
		return prevTs, nil
	}
}

// ParseLinkSpeed parses a link rate in bits per second. Accepts plain
// numbers and the usual suffixed forms: "10M", "100M", "1G", "2.5G", "10k".
func ParseLinkSpeed(s string) (float64, error) {
	v := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	if v == "" {
		return 0, fmt.Errorf("%w: empty link speed", core.ErrConfigInvalid)
	}
	mult := 1.0
	switch v[len(v)-1] {
	case 'g':
		mult, v = 1e9, v[:len(v)-1]
	case 'm':
		mult, v = 1e6, v[:len(v)-1]
	case 'k':
		mult, v = 1e3, v[:len(v)-1]
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: bad link speed %q", core.ErrConfigInvalid, s)
	}
	return n * mult, nil
}
