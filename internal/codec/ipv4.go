package codec

import (
	"fmt"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"icc.tech/pcapsmith/internal/core"
)

// IPv4HeaderLen is the fixed header length; options are not supported.
const IPv4HeaderLen = 20

// fragmentUnit is the IPv4 fragment-offset granularity in bytes.
const fragmentUnit = 8

// IPv4Params describes one IPv4 packet to build.
type IPv4Params struct {
	Src      string
	Dst      string
	Payload  []byte
	Protocol uint8

	Identification uint16
	DF             bool
	MF             bool
	FragOffset     uint16 // units of 8 bytes
	TTL            uint8
	TOS            uint8
}

func parseIPv4Addr(s string) (net.IP, error) {
	ip := net.ParseIP(s)
	if ip == nil || ip.To4() == nil {
		return nil, fmt.Errorf("%w: bad IPv4 address %q", core.ErrInvalidAddress, s)
	}
	return ip.To4(), nil
}

// BuildIPv4Packet serializes a 20-byte IPv4 header plus payload. The header
// checksum is computed over the header with the checksum field zeroed and
// folded with ones'-complement carry-around.
func BuildIPv4Packet(p IPv4Params) ([]byte, error) {
	src, err := parseIPv4Addr(p.Src)
	if err != nil {
		return nil, err
	}
	dst, err := parseIPv4Addr(p.Dst)
	if err != nil {
		return nil, err
	}

	var flags layers.IPv4Flag
	if p.DF {
		flags |= layers.IPv4DontFragment
	}
	if p.MF {
		flags |= layers.IPv4MoreFragments
	}
	ip := &layers.IPv4{
		Version:    4,
		IHL:        5,
		TOS:        p.TOS,
		Id:         p.Identification,
		Flags:      flags,
		FragOffset: p.FragOffset & 0x1FFF,
		TTL:        p.TTL,
		Protocol:   layers.IPProtocol(p.Protocol),
		SrcIP:      src,
		DstIP:      dst,
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, ip, gopacket.Payload(p.Payload)); err != nil {
		return nil, fmt.Errorf("serializing ipv4 packet: %w", err)
	}
	return append([]byte(nil), buf.Bytes()...), nil
}

// FragmentParams describes an IPv4 datagram to fragment automatically.
type FragmentParams struct {
	Src             string
	Dst             string
	FullPayload     []byte
	Protocol        uint8
	FragPayloadSize int
	Identification  uint16
	TTL             uint8
	TOS             uint8
}

// FragmentIPv4 splits FullPayload into IPv4 fragments. Every fragment except
// the last carries a payload length that is a multiple of 8 bytes and has MF
// set; the fragment offset accumulates the running byte offset / 8.
func FragmentIPv4(p FragmentParams) ([][]byte, error) {
	if p.FragPayloadSize <= 0 {
		return nil, fmt.Errorf("%w: %d", core.ErrInvalidFragmentSize, p.FragPayloadSize)
	}

	var packets [][]byte
	total := len(p.FullPayload)
	offset := 0
	for offset < total {
		remaining := total - offset
		fragLen := p.FragPayloadSize
		if remaining < fragLen {
			fragLen = remaining
		}
		more := offset+fragLen < total
		if more && fragLen%fragmentUnit != 0 {
			fragLen = fragLen / fragmentUnit * fragmentUnit
			if fragLen == 0 {
				fragLen = fragmentUnit
				if remaining < fragLen {
					fragLen = remaining
				}
			}
			more = offset+fragLen < total
		}

		pkt, err := BuildIPv4Packet(IPv4Params{
			Src:            p.Src,
			Dst:            p.Dst,
			Payload:        p.FullPayload[offset : offset+fragLen],
			Protocol:       p.Protocol,
			Identification: p.Identification,
			MF:             more,
			FragOffset:     uint16(offset / fragmentUnit),
			TTL:            p.TTL,
			TOS:            p.TOS,
		})
		if err != nil {
			return nil, err
		}
		packets = append(packets, pkt)
		offset += fragLen
	}
	return packets, nil
}
