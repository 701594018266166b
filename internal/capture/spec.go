package capture

import (
	"crypto/rand"
	"fmt"

	"github.com/google/gopacket/layers"

	"icc.tech/pcapsmith/internal/codec"
	"icc.tech/pcapsmith/internal/core"
)

// Defaults applied when a spec leaves addressing unset, matching the
// broadcast/station defaults test authors expect for quick scenarios.
const (
	DefaultDstMAC = "ff:ff:ff:ff:ff:ff"
	DefaultSrcMAC = "00:11:22:33:44:55"
)

const (
	defaultIPProtocol = 17 // UDP
	defaultTTL        = 64
)

// FrameSpec is one logical frame to emit. A spec with IPv4 auto-fragmentation
// may expand into several physical frames.
type FrameSpec struct {
	DstMAC    string
	SrcMAC    string
	EtherType string // name, hex or decimal; empty means "ipv4"

	// Payload takes precedence; PayloadLen requests that many random bytes.
	Payload    []byte
	PayloadLen *int

	TotalSizeIncludingFCS int
	FCSXorMask            uint32

	Timing TimingDirective

	// LinkSpeed overrides the Append-level link speed for this spec's
	// frames. Bits per second; 0 means use the Append default.
	LinkSpeed float64

	IPv4 *IPv4Spec
}

// IPv4Spec embeds an IPv4 packet as the frame payload.
type IPv4Spec struct {
	Src      string
	Dst      string
	Protocol uint8 // 0 means UDP (17)

	Payload    []byte
	PayloadLen *int

	Identification uint16
	DF             bool
	MF             bool
	FragOffset     uint16 // units of 8 bytes
	TTL            uint8  // 0 means 64
	TOS            uint8

	// AutoFragmentPayloadSize > 0 splits the payload into fragments of at
	// most this many bytes, each wrapped in its own Ethernet frame.
	AutoFragmentPayloadSize int
}

func resolvePayload(explicit []byte, length *int) ([]byte, error) {
	if explicit != nil {
		return explicit, nil
	}
	if length == nil {
		return nil, nil
	}
	buf := make([]byte, *length)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generating random payload: %w", err)
	}
	return buf, nil
}

func (s *IPv4Spec) apply() (protocol, ttl uint8) {
	protocol = s.Protocol
	if protocol == 0 {
		protocol = defaultIPProtocol
	}
	ttl = s.TTL
	if ttl == 0 {
		ttl = defaultTTL
	}
	return protocol, ttl
}

// realize turns the spec into one or more physical frames.
func (s *FrameSpec) realize() ([][]byte, error) {
	dstMAC := s.DstMAC
	if dstMAC == "" {
		dstMAC = DefaultDstMAC
	}
	srcMAC := s.SrcMAC
	if srcMAC == "" {
		srcMAC = DefaultSrcMAC
	}

	if s.IPv4 != nil {
		return s.realizeIPv4(dstMAC, srcMAC)
	}

	etherName := s.EtherType
	if etherName == "" {
		etherName = "ipv4"
	}
	etherType, err := codec.ResolveEtherType(etherName)
	if err != nil {
		return nil, err
	}
	payload, err := resolvePayload(s.Payload, s.PayloadLen)
	if err != nil {
		return nil, err
	}
	frame, err := codec.BuildEthernetFrame(codec.EthernetParams{
		DstMAC:                dstMAC,
		SrcMAC:                srcMAC,
		EtherType:             etherType,
		Payload:               payload,
		TotalSizeIncludingFCS: s.TotalSizeIncludingFCS,
		FCSXorMask:            s.FCSXorMask,
	})
	if err != nil {
		return nil, err
	}
	return [][]byte{frame}, nil
}

func (s *FrameSpec) realizeIPv4(dstMAC, srcMAC string) ([][]byte, error) {
	ip := s.IPv4
	if ip.Src == "" || ip.Dst == "" {
		return nil, fmt.Errorf("%w: ipv4 spec requires src and dst addresses",
			core.ErrInvalidAddress)
	}
	payload, err := resolvePayload(ip.Payload, ip.PayloadLen)
	if err != nil {
		return nil, err
	}
	protocol, ttl := ip.apply()

	var packets [][]byte
	if ip.AutoFragmentPayloadSize > 0 {
		packets, err = codec.FragmentIPv4(codec.FragmentParams{
			Src:             ip.Src,
			Dst:             ip.Dst,
			FullPayload:     payload,
			Protocol:        protocol,
			FragPayloadSize: ip.AutoFragmentPayloadSize,
			Identification:  ip.Identification,
			TTL:             ttl,
			TOS:             ip.TOS,
		})
	} else {
		var pkt []byte
		pkt, err = codec.BuildIPv4Packet(codec.IPv4Params{
			Src:            ip.Src,
			Dst:            ip.Dst,
			Payload:        payload,
			Protocol:       protocol,
			Identification: ip.Identification,
			DF:             ip.DF,
			MF:             ip.MF,
			FragOffset:     ip.FragOffset,
			TTL:            ttl,
			TOS:            ip.TOS,
		})
		packets = [][]byte{pkt}
	}
	if err != nil {
		return nil, err
	}

	frames := make([][]byte, 0, len(packets))
	for _, pkt := range packets {
		frame, err := codec.BuildEthernetFrame(codec.EthernetParams{
			DstMAC:                dstMAC,
			SrcMAC:                srcMAC,
			EtherType:             layers.EthernetTypeIPv4,
			Payload:               pkt,
			TotalSizeIncludingFCS: s.TotalSizeIncludingFCS,
			FCSXorMask:            s.FCSXorMask,
		})
		if err != nil {
			return nil, err
		}
		frames = append(frames, frame)
	}
	return frames, nil
}
