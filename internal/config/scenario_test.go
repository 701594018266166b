package config

import (
	"errors"
	"testing"

	"icc.tech/pcapsmith/internal/core"
)

func TestParseValidScenario(t *testing.T) {
	scenarioYAML := `
start_time_ns: 1700000000000000000
link_speed: 1G
frames:
  - dst_mac: "02:00:00:00:00:01"
    src_mac: "02:00:00:00:00:02"
    ethertype: arp
    payload_hex: "de:ad:be:ef"
    total_size_including_fcs: 64
  - payload_ascii: "hello"
    ifg_bytes: 12
  - delta_ns: 1000
    ipv4:
      src: 10.0.0.1
      dst: 10.0.0.2
      payload_len: 64
      auto_fragment_payload_size: 16
`
	s, err := ParseScenario([]byte(scenarioYAML))
	if err != nil {
		t.Fatalf("Failed to parse scenario: %v", err)
	}

	if s.StartTimeNs != 1700000000000000000 {
		t.Errorf("Expected start_time_ns 1700000000000000000, got %d", s.StartTimeNs)
	}
	if s.LinkSpeed != "1G" {
		t.Errorf("Expected link_speed 1G, got %s", s.LinkSpeed)
	}
	if len(s.Frames) != 3 {
		t.Fatalf("Expected 3 frames, got %d", len(s.Frames))
	}
	if s.Frames[0].EtherType != "arp" {
		t.Errorf("Expected ethertype arp, got %s", s.Frames[0].EtherType)
	}
	if s.Frames[1].IFGBytes == nil || *s.Frames[1].IFGBytes != 12 {
		t.Errorf("Expected ifg_bytes 12, got %v", s.Frames[1].IFGBytes)
	}
	if s.Frames[2].IPv4 == nil || s.Frames[2].IPv4.AutoFragmentPayloadSize != 16 {
		t.Error("Expected ipv4 auto_fragment_payload_size 16")
	}
}

func TestScenarioValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no frames", `frames: []`},
		{"delta and ifg", `
frames:
  - delta_ns: 100
    ifg_bytes: 12
`},
		{"hex and ascii payload", `
frames:
  - payload_hex: "00"
    payload_ascii: "x"
`},
		{"negative payload_len", `
frames:
  - payload_len: -1
`},
		{"ipv4 without dst", `
frames:
  - ipv4:
      src: 10.0.0.1
`},
		{"ethertype with ipv4", `
frames:
  - ethertype: arp
    ipv4:
      src: 10.0.0.1
      dst: 10.0.0.2
`},
		{"not yaml", `{{{`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseScenario([]byte(tc.yaml)); !errors.Is(err, core.ErrConfigInvalid) {
				t.Errorf("Expected ErrConfigInvalid, got %v", err)
			}
		})
	}
}

func TestFrameSpecsConversion(t *testing.T) {
	scenarioYAML := `
link_speed: 100M
frames:
  - payload_hex: "cafe"
    delta_ns: 42
    fcs_xormask: 1
  - payload_len: 32
    link_speed: 1G
`
	s, err := ParseScenario([]byte(scenarioYAML))
	if err != nil {
		t.Fatalf("Failed to parse scenario: %v", err)
	}
	specs, speed, err := s.FrameSpecs()
	if err != nil {
		t.Fatalf("FrameSpecs failed: %v", err)
	}
	if speed != 1e8 {
		t.Errorf("Expected default link speed 1e8, got %v", speed)
	}
	if len(specs) != 2 {
		t.Fatalf("Expected 2 specs, got %d", len(specs))
	}
	if string(specs[0].Payload) != "\xca\xfe" {
		t.Errorf("Expected payload cafe, got % x", specs[0].Payload)
	}
	if specs[0].FCSXorMask != 1 {
		t.Errorf("Expected fcs_xormask 1, got %d", specs[0].FCSXorMask)
	}
	if specs[1].LinkSpeed != 1e9 {
		t.Errorf("Expected per-frame link speed 1e9, got %v", specs[1].LinkSpeed)
	}
	if specs[1].PayloadLen == nil || *specs[1].PayloadLen != 32 {
		t.Errorf("Expected payload_len 32, got %v", specs[1].PayloadLen)
	}
}

func TestFrameSpecsBadHex(t *testing.T) {
	s := &Scenario{Frames: []FrameEntry{{PayloadHex: "zz"}}}
	if _, _, err := s.FrameSpecs(); !errors.Is(err, core.ErrConfigInvalid) {
		t.Errorf("Expected ErrConfigInvalid for bad hex, got %v", err)
	}
}

func TestFrameSpecsBadLinkSpeed(t *testing.T) {
	s := &Scenario{LinkSpeed: "warp9", Frames: []FrameEntry{{}}}
	if _, _, err := s.FrameSpecs(); !errors.Is(err, core.ErrConfigInvalid) {
		t.Errorf("Expected ErrConfigInvalid for bad link speed, got %v", err)
	}
}
