package analyze

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"icc.tech/pcapsmith/internal/core"
)

// Criterion is one expected-frame match rule. Unset fields are wildcards; at
// least one field must be set.
type Criterion struct {
	Len     *int             `yaml:"len,omitempty"`
	Src     string           `yaml:"src,omitempty"`
	Dst     string           `yaml:"dst,omitempty"`
	Payload []PayloadPattern `yaml:"payload_patterns,omitempty"`
}

// IsZero reports whether no match field is set.
func (c Criterion) IsZero() bool {
	return c.Len == nil && c.Src == "" && c.Dst == "" && len(c.Payload) == 0
}

type compiledCriterion struct {
	Criterion
	matcher *payloadMatcher
}

func compileCriteria(expected []Criterion) ([]compiledCriterion, error) {
	out := make([]compiledCriterion, 0, len(expected))
	for i, c := range expected {
		m, err := compilePatterns(c.Payload)
		if err != nil {
			return nil, fmt.Errorf("criterion %d: %w", i+1, err)
		}
		out = append(out, compiledCriterion{Criterion: c, matcher: m})
	}
	return out, nil
}

// satisfies returns a reason describing the first failing predicate, or
// ok=true when the frame satisfies every set field.
func (c *compiledCriterion) satisfies(f *core.ParsedFrame) (reason string, ok bool) {
	if c.Len != nil && f.FrameLen != *c.Len {
		return fmt.Sprintf("len %d != %d", f.FrameLen, *c.Len), false
	}
	if c.Src != "" && !strings.EqualFold(f.EthSrc, c.Src) {
		return fmt.Sprintf("eth.src %s != %s", f.EthSrc, c.Src), false
	}
	if c.Dst != "" && !strings.EqualFold(f.EthDst, c.Dst) {
		return fmt.Sprintf("eth.dst %s != %s", f.EthDst, c.Dst), false
	}
	return c.matcher.match(f.Payload)
}

// MatchFrames reads the capture and validates it against an expected frame
// list. With ordered=true, expected[i] is checked against frames[i] (a
// prefix match is allowed when fewer expectations than frames exist). With
// ordered=false, each expectation greedily claims the first remaining frame
// in capture order that satisfies it; this is deliberately first-fit, not a
// globally optimal assignment.
//
// On success the full parsed frame list is returned for further inspection.
func (a *Analyzer) MatchFrames(ctx context.Context, path, filter string,
	expected []Criterion, ordered bool, expectCount *int) ([]core.ParsedFrame, error) {

	frames, err := a.frames.ReadFrames(ctx, path, filter)
	if err != nil {
		return nil, err
	}
	if expectCount != nil && len(frames) != *expectCount {
		return nil, violation("count", fmt.Errorf("%w: expected %d frames, got %d",
			core.ErrCountMismatch, *expectCount, len(frames)))
	}
	if len(expected) == 0 {
		return frames, nil
	}

	criteria, err := compileCriteria(expected)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrMatchNotFound, err)
	}

	if ordered {
		if err := matchOrdered(frames, criteria); err != nil {
			return nil, violation("match", err)
		}
	} else {
		if err := matchUnordered(frames, criteria); err != nil {
			return nil, violation("match", err)
		}
	}
	slog.Info("expected-frame match passed",
		"path", path, "expected", len(expected), "ordered", ordered)
	return frames, nil
}

func matchOrdered(frames []core.ParsedFrame, criteria []compiledCriterion) error {
	if len(criteria) > len(frames) {
		return fmt.Errorf("%w: expected %d frames (ordered), got %d",
			core.ErrCountMismatch, len(criteria), len(frames))
	}
	for i := range criteria {
		if reason, ok := criteria[i].satisfies(&frames[i]); !ok {
			return fmt.Errorf("%w: frame %d does not satisfy expectation %d: %s",
				core.ErrMatchNotFound, frames[i].FrameNumber, i+1, reason)
		}
	}
	return nil
}

// maxReportedCandidates caps how many failed candidates an unordered-match
// error lists.
const maxReportedCandidates = 4

func matchUnordered(frames []core.ParsedFrame, criteria []compiledCriterion) error {
	remaining := make([]core.ParsedFrame, len(frames))
	copy(remaining, frames)

	for ei := range criteria {
		hit := -1
		var reasons []string
		for i := range remaining {
			reason, ok := criteria[ei].satisfies(&remaining[i])
			if ok {
				hit = i
				break
			}
			if len(reasons) < maxReportedCandidates {
				reasons = append(reasons, fmt.Sprintf("frame %d: %s", remaining[i].FrameNumber, reason))
			}
		}
		if hit < 0 {
			return fmt.Errorf("%w: expectation %d unmatched among %d candidates (%s)",
				core.ErrMatchNotFound, ei+1, len(remaining), strings.Join(reasons, "; "))
		}
		remaining = append(remaining[:hit], remaining[hit+1:]...)
	}
	return nil
}
