package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"icc.tech/pcapsmith/internal/core"
)

// headerChecksumFolds verifies that the ones'-complement sum over the full
// header, checksum field included, folds to 0xFFFF.
func headerChecksumFolds(header []byte) bool {
	var sum uint32
	for i := 0; i < len(header); i += 2 {
		sum += uint32(binary.BigEndian.Uint16(header[i : i+2]))
	}
	for sum>>16 != 0 {
		sum = sum&0xFFFF + sum>>16
	}
	return sum == 0xFFFF
}

func TestBuildIPv4PacketHeader(t *testing.T) {
	payload := []byte("test payload")
	pkt, err := BuildIPv4Packet(IPv4Params{
		Src:            "192.168.1.10",
		Dst:            "192.168.1.20",
		Payload:        payload,
		Protocol:       17,
		Identification: 0x1234,
		TTL:            64,
		TOS:            0xB8,
	})
	if err != nil {
		t.Fatalf("BuildIPv4Packet failed: %v", err)
	}

	if len(pkt) != IPv4HeaderLen+len(payload) {
		t.Fatalf("Expected packet length %d, got %d", IPv4HeaderLen+len(payload), len(pkt))
	}
	if pkt[0] != 0x45 {
		t.Errorf("Expected version/IHL 0x45, got 0x%02x", pkt[0])
	}
	if pkt[1] != 0xB8 {
		t.Errorf("Expected TOS 0xB8, got 0x%02x", pkt[1])
	}
	if got := binary.BigEndian.Uint16(pkt[2:4]); got != uint16(len(pkt)) {
		t.Errorf("Expected total length %d, got %d", len(pkt), got)
	}
	if got := binary.BigEndian.Uint16(pkt[4:6]); got != 0x1234 {
		t.Errorf("Expected identification 0x1234, got 0x%04x", got)
	}
	if pkt[8] != 64 {
		t.Errorf("Expected TTL 64, got %d", pkt[8])
	}
	if pkt[9] != 17 {
		t.Errorf("Expected protocol 17, got %d", pkt[9])
	}
	if !bytes.Equal(pkt[12:16], []byte{192, 168, 1, 10}) {
		t.Errorf("Expected src 192.168.1.10, got %v", pkt[12:16])
	}
	if !bytes.Equal(pkt[16:20], []byte{192, 168, 1, 20}) {
		t.Errorf("Expected dst 192.168.1.20, got %v", pkt[16:20])
	}
	if !headerChecksumFolds(pkt[:IPv4HeaderLen]) {
		t.Error("Header checksum does not fold to 0xFFFF")
	}
	if !bytes.Equal(pkt[IPv4HeaderLen:], payload) {
		t.Error("Payload not preserved after header")
	}
}

func TestBuildIPv4PacketFlags(t *testing.T) {
	pkt, err := BuildIPv4Packet(IPv4Params{
		Src:        "10.0.0.1",
		Dst:        "10.0.0.2",
		Protocol:   17,
		TTL:        64,
		MF:         true,
		FragOffset: 185, // units of 8
	})
	if err != nil {
		t.Fatalf("BuildIPv4Packet failed: %v", err)
	}
	flagsFrag := binary.BigEndian.Uint16(pkt[6:8])
	if flagsFrag>>13 != 0x1 {
		t.Errorf("Expected MF flag set, got flags %03b", flagsFrag>>13)
	}
	if flagsFrag&0x1FFF != 185 {
		t.Errorf("Expected fragment offset 185, got %d", flagsFrag&0x1FFF)
	}
}

func TestBuildIPv4PacketBadAddress(t *testing.T) {
	_, err := BuildIPv4Packet(IPv4Params{Src: "not-an-ip", Dst: "10.0.0.2", Protocol: 17, TTL: 64})
	if !errors.Is(err, core.ErrInvalidAddress) {
		t.Errorf("Expected ErrInvalidAddress for bad src, got %v", err)
	}
	_, err = BuildIPv4Packet(IPv4Params{Src: "10.0.0.1", Dst: "2001:db8::1", Protocol: 17, TTL: 64})
	if !errors.Is(err, core.ErrInvalidAddress) {
		t.Errorf("Expected ErrInvalidAddress for IPv6 dst, got %v", err)
	}
}

func TestFragmentIPv4(t *testing.T) {
	payload := make([]byte, 100)
	for i := range payload {
		payload[i] = byte(i)
	}
	packets, err := FragmentIPv4(FragmentParams{
		Src:             "10.0.0.1",
		Dst:             "10.0.0.2",
		FullPayload:     payload,
		Protocol:        17,
		FragPayloadSize: 32,
		Identification:  0xBEEF,
		TTL:             64,
	})
	if err != nil {
		t.Fatalf("FragmentIPv4 failed: %v", err)
	}
	// 100 bytes at 32 per fragment: 32+32+32+4.
	if len(packets) != 4 {
		t.Fatalf("Expected 4 fragments, got %d", len(packets))
	}

	var reassembled []byte
	wantOffsets := []uint16{0, 4, 8, 12}
	for i, pkt := range packets {
		flagsFrag := binary.BigEndian.Uint16(pkt[6:8])
		mf := flagsFrag>>13&0x1 == 1
		offset := flagsFrag & 0x1FFF

		last := i == len(packets)-1
		if mf == last {
			t.Errorf("Fragment %d: MF=%v, want %v", i, mf, !last)
		}
		if offset != wantOffsets[i] {
			t.Errorf("Fragment %d: offset %d, want %d", i, offset, wantOffsets[i])
		}
		if id := binary.BigEndian.Uint16(pkt[4:6]); id != 0xBEEF {
			t.Errorf("Fragment %d: identification 0x%04x, want 0xBEEF", i, id)
		}
		frag := pkt[IPv4HeaderLen:]
		if !last && len(frag)%8 != 0 {
			t.Errorf("Fragment %d: non-final payload length %d not a multiple of 8", i, len(frag))
		}
		reassembled = append(reassembled, frag...)
	}
	if !bytes.Equal(reassembled, payload) {
		t.Error("Reassembled fragments do not reproduce the original payload")
	}
}

func TestFragmentIPv4RoundsDown(t *testing.T) {
	// 30-byte chunks round down to 24 for non-final fragments.
	packets, err := FragmentIPv4(FragmentParams{
		Src:             "10.0.0.1",
		Dst:             "10.0.0.2",
		FullPayload:     make([]byte, 50),
		Protocol:        17,
		FragPayloadSize: 30,
		TTL:             64,
	})
	if err != nil {
		t.Fatalf("FragmentIPv4 failed: %v", err)
	}
	// First chunk rounds 30 down to 24; the 26 remaining bytes fit the
	// final fragment, which is exempt from the multiple-of-8 rule.
	if len(packets) != 2 {
		t.Fatalf("Expected 2 fragments, got %d", len(packets))
	}
	if got := len(packets[0]) - IPv4HeaderLen; got != 24 {
		t.Errorf("Expected first fragment payload 24, got %d", got)
	}
	if got := len(packets[1]) - IPv4HeaderLen; got != 26 {
		t.Errorf("Expected last fragment payload 26, got %d", got)
	}
	if flagsFrag := binary.BigEndian.Uint16(packets[1][6:8]); flagsFrag>>13&0x1 != 0 {
		t.Error("Final fragment must clear MF after rounding")
	}
}

func TestFragmentIPv4SingleFragment(t *testing.T) {
	packets, err := FragmentIPv4(FragmentParams{
		Src:             "10.0.0.1",
		Dst:             "10.0.0.2",
		FullPayload:     []byte("short"),
		Protocol:        17,
		FragPayloadSize: 1400,
		TTL:             64,
	})
	if err != nil {
		t.Fatalf("FragmentIPv4 failed: %v", err)
	}
	if len(packets) != 1 {
		t.Fatalf("Expected 1 fragment, got %d", len(packets))
	}
	flagsFrag := binary.BigEndian.Uint16(packets[0][6:8])
	if flagsFrag>>13&0x1 != 0 {
		t.Error("Single fragment must not set MF")
	}
}

func TestFragmentIPv4InvalidSize(t *testing.T) {
	for _, size := range []int{0, -8} {
		_, err := FragmentIPv4(FragmentParams{
			Src:             "10.0.0.1",
			Dst:             "10.0.0.2",
			FullPayload:     []byte("x"),
			Protocol:        17,
			FragPayloadSize: size,
			TTL:             64,
		})
		if !errors.Is(err, core.ErrInvalidFragmentSize) {
			t.Errorf("FragPayloadSize=%d: expected ErrInvalidFragmentSize, got %v", size, err)
		}
	}
}
