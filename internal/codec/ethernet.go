// Package codec builds Ethernet frames and IPv4 packets for capture synthesis.
package codec

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"net"
	"strconv"
	"strings"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"icc.tech/pcapsmith/internal/core"
)

const (
	// EthernetHeaderLen is the length of an untagged Ethernet II header.
	EthernetHeaderLen = 14
	// EthernetFCSLen is the length of the frame check sequence trailer.
	EthernetFCSLen = 4
)

// etherTypeNames maps well-known symbolic names to EtherType values.
var etherTypeNames = map[string]layers.EthernetType{
	"ipv4":            layers.EthernetTypeIPv4,
	"arp":             layers.EthernetTypeARP,
	"wakeonlan":       0x0842,
	"vlan":            layers.EthernetTypeDot1Q,
	"ipv6":            layers.EthernetTypeIPv6,
	"mpls_uc":         layers.EthernetTypeMPLSUnicast,
	"mpls_mc":         layers.EthernetTypeMPLSMulticast,
	"pppoe_discovery": layers.EthernetTypePPPoEDiscovery,
	"pppoe_session":   layers.EthernetTypePPPoESession,
	"lldp":            0x88B5,
	"homeplug":        0x887B,
	"profinet":        0x8892,
}

// ParseMAC parses a MAC address in colon or hyphen hex notation.
// The address must resolve to exactly 6 octets.
func ParseMAC(s string) (net.HardwareAddr, error) {
	hw, err := net.ParseMAC(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%w: bad MAC %q: %v", core.ErrInvalidAddress, s, err)
	}
	if len(hw) != 6 {
		return nil, fmt.Errorf("%w: MAC %q is not 6 octets", core.ErrInvalidAddress, s)
	}
	return hw, nil
}

// ResolveEtherType resolves an ethertype given as a symbolic name ("ipv4",
// "arp", ...), a hex literal ("0x88b6") or a decimal number.
func ResolveEtherType(s string) (layers.EthernetType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return 0, fmt.Errorf("%w: empty ethertype", core.ErrUnknownEthertype)
	}
	if et, ok := etherTypeNames[name]; ok {
		return et, nil
	}
	if v, err := strconv.ParseUint(name, 0, 16); err == nil {
		return layers.EthernetType(v), nil
	}
	return 0, fmt.Errorf("%w: %q", core.ErrUnknownEthertype, s)
}

// EthernetParams describes one Ethernet frame to build.
type EthernetParams struct {
	DstMAC    string
	SrcMAC    string
	EtherType layers.EthernetType
	Payload   []byte

	// TotalSizeIncludingFCS, when > 0, zero-pads the payload so that
	// header+payload+FCS equals this many bytes.
	TotalSizeIncludingFCS int

	// FCSXorMask is XORed into the computed CRC-32. Zero yields a valid
	// frame; any other value synthesizes a corrupted FCS for negative tests.
	FCSXorMask uint32
}

// BuildEthernetFrame serializes an Ethernet frame including its FCS trailer.
func BuildEthernetFrame(p EthernetParams) ([]byte, error) {
	dst, err := ParseMAC(p.DstMAC)
	if err != nil {
		return nil, err
	}
	src, err := ParseMAC(p.SrcMAC)
	if err != nil {
		return nil, err
	}

	eth := &layers.Ethernet{
		DstMAC:       dst,
		SrcMAC:       src,
		EthernetType: p.EtherType,
	}
	buf := gopacket.NewSerializeBuffer()
	// No FixLengths: the 60-byte minimum padding gopacket would apply must
	// not interfere with explicit size control.
	opts := gopacket.SerializeOptions{}
	if err := gopacket.SerializeLayers(buf, opts, eth, gopacket.Payload(p.Payload)); err != nil {
		return nil, fmt.Errorf("serializing ethernet frame: %w", err)
	}

	frame := append([]byte(nil), buf.Bytes()...)
	if p.TotalSizeIncludingFCS > 0 {
		minLen := len(frame) + EthernetFCSLen
		if p.TotalSizeIncludingFCS < minLen {
			return nil, fmt.Errorf("%w: requested %d bytes, need at least %d",
				core.ErrFrameTooSmall, p.TotalSizeIncludingFCS, minLen)
		}
		pad := p.TotalSizeIncludingFCS - EthernetFCSLen - len(frame)
		frame = append(frame, make([]byte, pad)...)
	}

	// Ethernet FCS: CRC-32 (IEEE polynomial), transmitted LSB first.
	fcs := crc32.ChecksumIEEE(frame) ^ p.FCSXorMask
	return binary.LittleEndian.AppendUint32(frame, fcs), nil
}
