package dissect

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"icc.tech/pcapsmith/internal/core"
	"icc.tech/pcapsmith/internal/metrics"
)

// Dissection results are cached briefly so a sequence of analysis calls over
// the same unmodified capture dissects it once.
const (
	cacheTTL     = 30 * time.Second
	cacheCleanup = time.Minute
)

// FieldSource yields one row of extracted fields per frame.
type FieldSource interface {
	Fields(ctx context.Context, path, filter string) ([][]string, error)
}

// Reader reconstructs structured frames from dissector field rows.
type Reader struct {
	source FieldSource
	cache  *gocache.Cache
}

// NewReader returns a Reader over the given field source.
func NewReader(source FieldSource) *Reader {
	return &Reader{
		source: source,
		cache:  gocache.New(cacheTTL, cacheCleanup),
	}
}

// ReadFrames reads the capture at path, optionally filtered by a display
// filter expression, and returns the parsed frame list in dissector order.
func (r *Reader) ReadFrames(ctx context.Context, path, filter string) ([]core.ParsedFrame, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", core.ErrCaptureNotFound, path)
	}

	key := fmt.Sprintf("%s|%s|%d|%d", path, filter, fi.Size(), fi.ModTime().UnixNano())
	if cached, ok := r.cache.Get(key); ok {
		return cached.([]core.ParsedFrame), nil
	}

	rows, err := r.source.Fields(ctx, path, filter)
	if err != nil {
		return nil, err
	}
	frames := make([]core.ParsedFrame, 0, len(rows))
	for _, row := range rows {
		frames = append(frames, parseRow(row))
	}
	metrics.FramesReadTotal.Add(float64(len(frames)))
	slog.Debug("read capture", "path", path, "filter", filter, "frames", len(frames))

	r.cache.Set(key, frames, gocache.DefaultExpiration)
	return frames, nil
}

func column(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// parseRow converts one dissector row into a ParsedFrame. Dissector output
// is trusted but not guaranteed byte-perfect: malformed numeric or hex
// columns degrade to zero values rather than failing the read.
func parseRow(row []string) core.ParsedFrame {
	f := core.ParsedFrame{
		FrameNumber: atoi(column(row, 0)),
		FrameLen:    atoi(column(row, 1)),
		TimestampNs: epochToNs(column(row, 2)),
		EthSrc:      firstOccurrence(column(row, 3)),
		EthDst:      firstOccurrence(column(row, 4)),
		VLANStack:   parseVLANStack(column(row, 5), column(row, 6)),
		Payload:     decodePayloadHex(column(row, 7)),
	}
	return f
}

// firstOccurrence keeps the first entry of a comma-separated occurrence
// list; scalar columns pass through unchanged.
func firstOccurrence(s string) string {
	first, _, _ := strings.Cut(s, ",")
	return strings.TrimSpace(first)
}

func atoi(s string) int {
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return n
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return int(v)
	}
	return 0
}

// epochToNs converts tshark's float-seconds epoch to integer nanoseconds,
// truncating.
func epochToNs(s string) int64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return int64(v * 1e9)
}

// parseVLANStack zips the comma-separated occurrence lists of vlan.id and
// vlan.priority into the tag stack, in emission order.
func parseVLANStack(ids, prios string) []core.VLANTag {
	if strings.TrimSpace(ids) == "" {
		return nil
	}
	idParts := strings.Split(ids, ",")
	prioParts := []string{}
	if strings.TrimSpace(prios) != "" {
		prioParts = strings.Split(prios, ",")
	}

	var stack []core.VLANTag
	for i, raw := range idParts {
		id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 16)
		if err != nil {
			continue
		}
		tag := core.VLANTag{ID: uint16(id)}
		if i < len(prioParts) {
			if p, err := strconv.ParseUint(strings.TrimSpace(prioParts[i]), 10, 8); err == nil {
				prio := uint8(p)
				tag.Priority = &prio
			}
		}
		stack = append(stack, tag)
	}
	return stack
}

// decodePayloadHex decodes the payload hex column. Only the first occurrence
// is used when the dissector reports several data runs. Malformed hex yields
// an empty payload, never an error.
func decodePayloadHex(s string) []byte {
	s, _, _ = strings.Cut(strings.TrimSpace(s), ",")
	for _, sep := range []string{":", "-", " "} {
		s = strings.ReplaceAll(s, sep, "")
	}
	if s == "" {
		return nil
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil
	}
	return b
}
