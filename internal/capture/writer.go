package capture

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"icc.tech/pcapsmith/internal/core"
	"icc.tech/pcapsmith/internal/metrics"
)

// snapLen is the max capture length recorded in the global header.
const snapLen = 65535

// globalHeaderLen is the libpcap global header size in bytes.
const globalHeaderLen = 24

// OpenOrCreate writes the nanosecond-resolution libpcap global header
// (version 2.4, Ethernet link type) to path when the file is missing or
// empty. Calling it again on a non-empty file is a no-op.
func OpenOrCreate(path string) error {
	if fi, err := os.Stat(path); err == nil && fi.Size() > 0 {
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: creating %s: %v", core.ErrIO, dir, err)
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("%w: creating %s: %v", core.ErrIO, path, err)
	}
	defer f.Close()

	w := pcapgo.NewWriterNanos(f)
	if err := w.WriteFileHeader(snapLen, layers.LinkTypeEthernet); err != nil {
		return fmt.Errorf("%w: writing global header to %s: %v", core.ErrIO, path, err)
	}
	slog.Debug("wrote capture global header", "path", path, "linktype", layers.LinkTypeEthernet)
	return nil
}

// lastRecord returns the timestamp and length of the final record in the
// file. ok is false when the file holds no records.
func lastRecord(path string) (tsNs int64, length int, ok bool, err error) {
	fi, err := os.Stat(path)
	if err != nil || fi.Size() <= globalHeaderLen {
		return 0, 0, false, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, false, fmt.Errorf("%w: opening %s: %v", core.ErrIO, path, err)
	}
	defer f.Close()

	r, err := pcapgo.NewReader(f)
	if err != nil {
		return 0, 0, false, fmt.Errorf("%w: reading %s: %v", core.ErrIO, path, err)
	}
	for {
		_, ci, err := r.ReadPacketData()
		if err != nil {
			// Truncated trailing record: keep what was read so far.
			if !errors.Is(err, io.EOF) {
				slog.Debug("stopped scanning capture at malformed record", "path", path, "error", err)
			}
			return tsNs, length, ok, nil
		}
		tsNs = ci.Timestamp.UnixNano()
		length = ci.CaptureLength
		ok = true
	}
}

// Append realizes the given specs into physical frames and appends them to
// the capture at path, creating the file (with its global header) when
// needed. linkSpeed is in bits per second and may be 0 when no gap-based or
// serialization-based timing is used. It returns the timestamp of the last
// record written.
//
// Callers must serialize Append calls per path; the file is opened fresh and
// closed before returning.
func Append(path string, specs []FrameSpec, startTimeNs int64, linkSpeed float64) (int64, error) {
	if err := OpenOrCreate(path); err != nil {
		return 0, err
	}
	prevTs, prevLen, havePrev, err := lastRecord(path)
	if err != nil {
		return 0, err
	}
	slog.Debug("appending to capture",
		"path", path, "specs", len(specs), "have_prev", havePrev,
		"prev_ts_ns", prevTs, "prev_len", prevLen)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return 0, fmt.Errorf("%w: opening %s for append: %v", core.ErrIO, path, err)
	}
	defer f.Close()
	w := pcapgo.NewWriterNanos(f)

	var lastTs int64
	written := 0
	for i, spec := range specs {
		frames, err := spec.realize()
		if err != nil {
			return 0, fmt.Errorf("spec %d: %w", i+1, err)
		}
		speed := linkSpeed
		if spec.LinkSpeed > 0 {
			speed = spec.LinkSpeed
		}
		for _, frame := range frames {
			var ts int64
			if !havePrev {
				// First record of an empty file ignores the directive.
				ts = startTimeNs
			} else {
				ts, err = spec.Timing.next(prevTs, prevLen, speed)
				if err != nil {
					return 0, fmt.Errorf("spec %d: %w", i+1, err)
				}
			}
			ci := gopacket.CaptureInfo{
				Timestamp:     time.Unix(0, ts),
				CaptureLength: len(frame),
				Length:        len(frame),
			}
			if err := w.WritePacket(ci, frame); err != nil {
				return 0, fmt.Errorf("%w: appending record to %s: %v", core.ErrIO, path, err)
			}
			slog.Debug("appended record", "path", path, "ts_ns", ts, "len", len(frame))
			metrics.FramesWrittenTotal.Inc()
			metrics.BytesWrittenTotal.Add(float64(len(frame)))
			prevTs, prevLen, havePrev = ts, len(frame), true
			lastTs = ts
			written++
		}
	}
	slog.Info("capture append complete", "path", path, "frames", written, "last_ts_ns", lastTs)
	return lastTs, nil
}
