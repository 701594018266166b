// Package core defines core data structures with zero external dependencies.
package core

// VLANTag is one 802.1Q tag as reported by the dissector.
type VLANTag struct {
	ID       uint16
	Priority *uint8 // nil when the dissector did not report a PCP for this tag
}

// ParsedFrame is one frame read back from a capture file.
// Produced fresh on every read, never persisted.
type ParsedFrame struct {
	FrameNumber int    // 1-based, dissector ordering
	FrameLen    int    // length on the wire in bytes
	TimestampNs int64  // ns since the capture's epoch
	EthSrc      string // lowercase colon notation as emitted by the dissector
	EthDst      string
	VLANStack   []VLANTag // outermost first; empty for untagged frames
	Payload     []byte
}

// VLANIDs returns the IDs of all tags on the frame, outermost first.
func (f *ParsedFrame) VLANIDs() []uint16 {
	ids := make([]uint16, 0, len(f.VLANStack))
	for _, tag := range f.VLANStack {
		ids = append(ids, tag.ID)
	}
	return ids
}

// VLANPriorities returns the PCP values of all tags that carry one.
func (f *ParsedFrame) VLANPriorities() []uint8 {
	prios := make([]uint8, 0, len(f.VLANStack))
	for _, tag := range f.VLANStack {
		if tag.Priority != nil {
			prios = append(prios, *tag.Priority)
		}
	}
	return prios
}
