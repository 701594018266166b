package analyze

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"icc.tech/pcapsmith/internal/core"
	"icc.tech/pcapsmith/internal/metrics"
)

// FrameReader supplies the parsed frame list for a capture; the concrete
// implementation lives in internal/dissect.
type FrameReader interface {
	ReadFrames(ctx context.Context, path, filter string) ([]core.ParsedFrame, error)
}

// Analyzer validates captures read through a FrameReader.
type Analyzer struct {
	frames FrameReader
}

// New returns an Analyzer over the given frame reader.
func New(frames FrameReader) *Analyzer {
	return &Analyzer{frames: frames}
}

// SizeCheck bounds every frame's length. Eq and Min/Max may be combined.
type SizeCheck struct {
	Eq  *int `yaml:"eq,omitempty"`
	Min *int `yaml:"min,omitempty"`
	Max *int `yaml:"max,omitempty"`
}

// DeltaCheck constrains consecutive-frame time deltas (n-1 deltas for n
// frames). Exactly one mode applies: Eq, Min/Max bounds, or PerPair.
type DeltaCheck struct {
	Eq      *int64  `yaml:"eq,omitempty"`
	Min     *int64  `yaml:"min,omitempty"`
	Max     *int64  `yaml:"max,omitempty"`
	PerPair []int64 `yaml:"per_pair,omitempty"`
}

// MACExpect checks frame addressing, case-insensitive. Empty fields are
// wildcards.
type MACExpect struct {
	Src string `yaml:"src,omitempty"`
	Dst string `yaml:"dst,omitempty"`
}

// VLANExpect checks the reconstructed VLAN stack of every frame: all IDs
// must be present in the frame's tag set and, when given, Priority must
// appear among the frame's PCP values.
type VLANExpect struct {
	IDs      IDList `yaml:"id,omitempty"`
	Priority *uint8 `yaml:"priority,omitempty"`
}

// Checks bundles every invariant rule of one analysis call. Nil members are
// skipped.
type Checks struct {
	ExpectCount *int             `yaml:"expect_count,omitempty"`
	FrameSize   *SizeCheck       `yaml:"frame_size,omitempty"`
	TimeDeltaNs *DeltaCheck      `yaml:"time_delta_ns,omitempty"`
	Payload     []PayloadPattern `yaml:"payload_patterns,omitempty"`
	MAC         *MACExpect       `yaml:"expect_mac,omitempty"`
	VLAN        *VLANExpect      `yaml:"vlan_expect,omitempty"`
}

func violation(rule string, err error) error {
	metrics.CheckViolationsTotal.WithLabelValues(rule).Inc()
	return err
}

// AnalyzeInvariants reads the capture (optionally filtered) and applies
// every configured rule, fail-fast: the first violation is returned and
// identifies the offending frame number and rule.
func (a *Analyzer) AnalyzeInvariants(ctx context.Context, path, filter string, checks Checks) error {
	frames, err := a.frames.ReadFrames(ctx, path, filter)
	if err != nil {
		return err
	}
	slog.Debug("invariant analysis", "path", path, "filter", filter, "frames", len(frames))

	if checks.ExpectCount != nil && len(frames) != *checks.ExpectCount {
		return violation("count", fmt.Errorf("%w: expected %d frames after filter, got %d",
			core.ErrCountMismatch, *checks.ExpectCount, len(frames)))
	}
	if err := checkFrameSizes(frames, checks.FrameSize); err != nil {
		return violation("size", err)
	}
	if err := checkTimeDeltas(frames, checks.TimeDeltaNs); err != nil {
		return violation("timing", err)
	}
	if err := checkPayloads(frames, checks.Payload); err != nil {
		return violation("payload", err)
	}
	if err := checkMACs(frames, checks.MAC); err != nil {
		return violation("mac", err)
	}
	if err := checkVLANs(frames, checks.VLAN); err != nil {
		return violation("vlan", err)
	}
	slog.Info("invariant analysis passed", "path", path, "filter", filter, "frames", len(frames))
	return nil
}

func checkFrameSizes(frames []core.ParsedFrame, check *SizeCheck) error {
	if check == nil {
		return nil
	}
	for _, f := range frames {
		if check.Eq != nil && f.FrameLen != *check.Eq {
			return fmt.Errorf("%w: frame %d length %d != %d",
				core.ErrSizeViolation, f.FrameNumber, f.FrameLen, *check.Eq)
		}
		if check.Min != nil && f.FrameLen < *check.Min {
			return fmt.Errorf("%w: frame %d length %d < min %d",
				core.ErrSizeViolation, f.FrameNumber, f.FrameLen, *check.Min)
		}
		if check.Max != nil && f.FrameLen > *check.Max {
			return fmt.Errorf("%w: frame %d length %d > max %d",
				core.ErrSizeViolation, f.FrameNumber, f.FrameLen, *check.Max)
		}
	}
	return nil
}

func checkTimeDeltas(frames []core.ParsedFrame, check *DeltaCheck) error {
	if check == nil || len(frames) < 2 {
		return nil
	}
	deltas := make([]int64, 0, len(frames)-1)
	for i := 1; i < len(frames); i++ {
		deltas = append(deltas, frames[i].TimestampNs-frames[i-1].TimestampNs)
	}
	slog.Debug("time deltas", "deltas_ns", deltas)

	switch {
	case check.Eq != nil:
		for i, d := range deltas {
			if d != *check.Eq {
				return fmt.Errorf("%w: delta %d->%d is %dns, want %dns",
					core.ErrTimingViolation, i+1, i+2, d, *check.Eq)
			}
		}
	case check.Min != nil || check.Max != nil:
		for i, d := range deltas {
			if check.Min != nil && d < *check.Min {
				return fmt.Errorf("%w: delta %d->%d is %dns < min %dns",
					core.ErrTimingViolation, i+1, i+2, d, *check.Min)
			}
			if check.Max != nil && d > *check.Max {
				return fmt.Errorf("%w: delta %d->%d is %dns > max %dns",
					core.ErrTimingViolation, i+1, i+2, d, *check.Max)
			}
		}
	case check.PerPair != nil:
		if len(check.PerPair) != len(deltas) {
			return fmt.Errorf("%w: per_pair has %d entries, capture yields %d deltas",
				core.ErrTimingViolation, len(check.PerPair), len(deltas))
		}
		for i, d := range deltas {
			if d != check.PerPair[i] {
				return fmt.Errorf("%w: delta %d->%d is %dns, want %dns",
					core.ErrTimingViolation, i+1, i+2, d, check.PerPair[i])
			}
		}
	}
	return nil
}

func checkPayloads(frames []core.ParsedFrame, patterns []PayloadPattern) error {
	if len(patterns) == 0 {
		return nil
	}
	matcher, err := compilePatterns(patterns)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrPayloadViolation, err)
	}
	for _, f := range frames {
		if reason, ok := matcher.match(f.Payload); !ok {
			return fmt.Errorf("%w: frame %d: %s", core.ErrPayloadViolation, f.FrameNumber, reason)
		}
	}
	return nil
}

func checkMACs(frames []core.ParsedFrame, expect *MACExpect) error {
	if expect == nil {
		return nil
	}
	for _, f := range frames {
		if expect.Src != "" && !strings.EqualFold(f.EthSrc, expect.Src) {
			return fmt.Errorf("%w: frame %d eth.src %s != %s",
				core.ErrAddressViolation, f.FrameNumber, f.EthSrc, expect.Src)
		}
		if expect.Dst != "" && !strings.EqualFold(f.EthDst, expect.Dst) {
			return fmt.Errorf("%w: frame %d eth.dst %s != %s",
				core.ErrAddressViolation, f.FrameNumber, f.EthDst, expect.Dst)
		}
	}
	return nil
}

func checkVLANs(frames []core.ParsedFrame, expect *VLANExpect) error {
	if expect == nil {
		return nil
	}
	for _, f := range frames {
		ids := f.VLANIDs()
		for _, want := range expect.IDs {
			if !containsID(ids, want) {
				return fmt.Errorf("%w: frame %d missing VLAN id %d, got %v",
					core.ErrVlanViolation, f.FrameNumber, want, ids)
			}
		}
		if expect.Priority != nil {
			prios := f.VLANPriorities()
			if !containsPrio(prios, *expect.Priority) {
				return fmt.Errorf("%w: frame %d VLAN priority %d not in %v",
					core.ErrVlanViolation, f.FrameNumber, *expect.Priority, prios)
			}
		}
	}
	return nil
}

func containsID(ids []uint16, want uint16) bool {
	for _, id := range ids {
		if id == want {
			return true
		}
	}
	return false
}

func containsPrio(prios []uint8, want uint8) bool {
	for _, p := range prios {
		if p == want {
			return true
		}
	}
	return false
}
