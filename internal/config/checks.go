package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"icc.tech/pcapsmith/internal/analyze"
	"icc.tech/pcapsmith/internal/core"
)

// CheckFile is one analysis file: a display filter plus invariant rules
// and/or an expected-frame list.
type CheckFile struct {
	Filter string `yaml:"filter"`

	// Invariant rules (analyze command)
	ExpectCount *int                     `yaml:"expect_count"`
	FrameSize   *analyze.SizeCheck       `yaml:"frame_size"`
	TimeDeltaNs *analyze.DeltaCheck      `yaml:"time_delta_ns"`
	Payload     []analyze.PayloadPattern `yaml:"payload_patterns"`
	MAC         *analyze.MACExpect       `yaml:"expect_mac"`
	VLAN        *analyze.VLANExpect      `yaml:"vlan_expect"`

	// Expected-frame matching (match command)
	ExpectedFrames []analyze.Criterion `yaml:"expected_frames"`
	Ordered        *bool               `yaml:"ordered"` // default true
}

// LoadCheckFile reads and validates an analysis file.
func LoadCheckFile(path string) (*CheckFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read check file %s: %w", path, err)
	}
	return ParseCheckFile(data)
}

// ParseCheckFile parses and validates analysis file bytes.
func ParseCheckFile(data []byte) (*CheckFile, error) {
	var c CheckFile
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrConfigInvalid, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects empty patterns and criteria without any predicate.
func (c *CheckFile) Validate() error {
	for i, p := range c.Payload {
		if p.IsZero() {
			return fmt.Errorf("%w: payload pattern %d sets no predicate", core.ErrConfigInvalid, i+1)
		}
	}
	for i, crit := range c.ExpectedFrames {
		if crit.IsZero() {
			return fmt.Errorf("%w: expected frame %d sets no criterion", core.ErrConfigInvalid, i+1)
		}
		for j, p := range crit.Payload {
			if p.IsZero() {
				return fmt.Errorf("%w: expected frame %d pattern %d sets no predicate",
					core.ErrConfigInvalid, i+1, j+1)
			}
		}
	}
	if d := c.TimeDeltaNs; d != nil {
		modes := 0
		if d.Eq != nil {
			modes++
		}
		if d.Min != nil || d.Max != nil {
			modes++
		}
		if d.PerPair != nil {
			modes++
		}
		if modes > 1 {
			return fmt.Errorf("%w: time_delta_ns mixes eq, min/max and per_pair modes",
				core.ErrConfigInvalid)
		}
	}
	return nil
}

// Checks assembles the invariant rule set for the analyzer.
func (c *CheckFile) Checks() analyze.Checks {
	return analyze.Checks{
		ExpectCount: c.ExpectCount,
		FrameSize:   c.FrameSize,
		TimeDeltaNs: c.TimeDeltaNs,
		Payload:     c.Payload,
		MAC:         c.MAC,
		VLAN:        c.VLAN,
	}
}

// IsOrdered reports the matching mode, defaulting to ordered.
func (c *CheckFile) IsOrdered() bool {
	return c.Ordered == nil || *c.Ordered
}
