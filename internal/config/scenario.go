package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"icc.tech/pcapsmith/internal/capture"
	"icc.tech/pcapsmith/internal/core"
)

// Scenario is one synthesis file: an ordered list of frame entries appended
// to a capture in a single call.
type Scenario struct {
	StartTimeNs int64        `yaml:"start_time_ns"`
	LinkSpeed   string       `yaml:"link_speed"` // "1G", "100M", raw bps; optional
	Frames      []FrameEntry `yaml:"frames"`
}

// FrameEntry mirrors capture.FrameSpec in file form.
type FrameEntry struct {
	DstMAC    string `yaml:"dst_mac"`
	SrcMAC    string `yaml:"src_mac"`
	EtherType string `yaml:"ethertype"`

	PayloadHex   string `yaml:"payload_hex"`
	PayloadASCII string `yaml:"payload_ascii"`
	PayloadLen   *int   `yaml:"payload_len"`

	TotalSizeIncludingFCS int    `yaml:"total_size_including_fcs"`
	FCSXorMask            uint32 `yaml:"fcs_xormask"`

	DeltaNs   *int64 `yaml:"delta_ns"`
	IFGBytes  *int   `yaml:"ifg_bytes"`
	LinkSpeed string `yaml:"link_speed"`

	IPv4 *IPv4Entry `yaml:"ipv4"`
}

// IPv4Entry mirrors capture.IPv4Spec in file form.
type IPv4Entry struct {
	Src      string `yaml:"src"`
	Dst      string `yaml:"dst"`
	Protocol uint8  `yaml:"protocol"`

	PayloadHex   string `yaml:"payload_hex"`
	PayloadASCII string `yaml:"payload_ascii"`
	PayloadLen   *int   `yaml:"payload_len"`

	Identification uint16 `yaml:"identification"`
	DF             bool   `yaml:"df"`
	MF             bool   `yaml:"mf"`
	FragOffset     uint16 `yaml:"frag_offset_units8"`
	TTL            uint8  `yaml:"ttl"`
	TOS            uint8  `yaml:"tos"`

	AutoFragmentPayloadSize int `yaml:"auto_fragment_payload_size"`
}

// LoadScenario reads and validates a scenario file. YAML and JSON both parse
// (JSON is a YAML subset).
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file %s: %w", path, err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario bytes.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrConfigInvalid, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks structural rules that do not depend on frame realization.
func (s *Scenario) Validate() error {
	if len(s.Frames) == 0 {
		return fmt.Errorf("%w: scenario has no frames", core.ErrConfigInvalid)
	}
	for i, f := range s.Frames {
		at := func(format string, args ...any) error {
			return fmt.Errorf("%w: frame %d: %s", core.ErrConfigInvalid, i+1,
				fmt.Sprintf(format, args...))
		}
		if f.DeltaNs != nil && f.IFGBytes != nil {
			return at("delta_ns and ifg_bytes are mutually exclusive")
		}
		if err := validatePayloadFields(f.PayloadHex, f.PayloadASCII, f.PayloadLen); err != nil {
			return at("%v", err)
		}
		if f.IPv4 != nil {
			if f.IPv4.Src == "" || f.IPv4.Dst == "" {
				return at("ipv4 requires src and dst")
			}
			if err := validatePayloadFields(f.IPv4.PayloadHex, f.IPv4.PayloadASCII, f.IPv4.PayloadLen); err != nil {
				return at("ipv4: %v", err)
			}
			if f.EtherType != "" {
				return at("ethertype cannot be combined with ipv4 (fixed to 0x0800)")
			}
		}
	}
	return nil
}

func validatePayloadFields(hexStr, ascii string, length *int) error {
	set := 0
	if hexStr != "" {
		set++
	}
	if ascii != "" {
		set++
	}
	if length != nil {
		set++
		if *length < 0 {
			return fmt.Errorf("payload_len must be >= 0")
		}
	}
	if set > 1 {
		return fmt.Errorf("payload_hex, payload_ascii and payload_len are mutually exclusive")
	}
	return nil
}

func decodePayload(hexStr, ascii string) ([]byte, error) {
	if hexStr != "" {
		clean := strings.NewReplacer(":", "", "-", "", " ", "").Replace(hexStr)
		b, err := hex.DecodeString(clean)
		if err != nil {
			return nil, fmt.Errorf("%w: bad payload hex: %v", core.ErrConfigInvalid, err)
		}
		return b, nil
	}
	if ascii != "" {
		return []byte(ascii), nil
	}
	return nil, nil
}

// FrameSpecs converts the scenario into writer inputs plus the scenario's
// default link speed in bits per second (0 when unset).
func (s *Scenario) FrameSpecs() ([]capture.FrameSpec, float64, error) {
	var defaultSpeed float64
	if s.LinkSpeed != "" {
		var err error
		if defaultSpeed, err = capture.ParseLinkSpeed(s.LinkSpeed); err != nil {
			return nil, 0, err
		}
	}

	specs := make([]capture.FrameSpec, 0, len(s.Frames))
	for i, f := range s.Frames {
		payload, err := decodePayload(f.PayloadHex, f.PayloadASCII)
		if err != nil {
			return nil, 0, fmt.Errorf("frame %d: %w", i+1, err)
		}
		spec := capture.FrameSpec{
			DstMAC:                f.DstMAC,
			SrcMAC:                f.SrcMAC,
			EtherType:             f.EtherType,
			Payload:               payload,
			PayloadLen:            f.PayloadLen,
			TotalSizeIncludingFCS: f.TotalSizeIncludingFCS,
			FCSXorMask:            f.FCSXorMask,
		}
		switch {
		case f.DeltaNs != nil:
			spec.Timing = capture.ExplicitDelta(*f.DeltaNs)
		case f.IFGBytes != nil:
			spec.Timing = capture.InterFrameGap(*f.IFGBytes)
		}
		if f.LinkSpeed != "" {
			if spec.LinkSpeed, err = capture.ParseLinkSpeed(f.LinkSpeed); err != nil {
				return nil, 0, fmt.Errorf("frame %d: %w", i+1, err)
			}
		}
		if f.IPv4 != nil {
			ipPayload, err := decodePayload(f.IPv4.PayloadHex, f.IPv4.PayloadASCII)
			if err != nil {
				return nil, 0, fmt.Errorf("frame %d: ipv4: %w", i+1, err)
			}
			spec.IPv4 = &capture.IPv4Spec{
				Src:                     f.IPv4.Src,
				Dst:                     f.IPv4.Dst,
				Protocol:                f.IPv4.Protocol,
				Payload:                 ipPayload,
				PayloadLen:              f.IPv4.PayloadLen,
				Identification:          f.IPv4.Identification,
				DF:                      f.IPv4.DF,
				MF:                      f.IPv4.MF,
				FragOffset:              f.IPv4.FragOffset,
				TTL:                     f.IPv4.TTL,
				TOS:                     f.IPv4.TOS,
				AutoFragmentPayloadSize: f.IPv4.AutoFragmentPayloadSize,
			}
		}
		specs = append(specs, spec)
	}
	return specs, defaultSpeed, nil
}
