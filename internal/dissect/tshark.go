// Package dissect reads capture files back through an external dissector.
//
// The dissector itself is an opaque collaborator: pcapsmith runs tshark with
// a fixed field list and consumes its tab-separated output. Nothing in this
// package interprets packet bytes beyond what tshark reports.
package dissect

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"icc.tech/pcapsmith/internal/core"
	"icc.tech/pcapsmith/internal/metrics"
)

// DefaultTimeout bounds one dissector invocation.
const DefaultTimeout = 30 * time.Second

// fieldList is the fixed column order requested from tshark. VLAN columns
// are requested with occurrence=a so stacked tags arrive comma-separated.
var fieldList = []string{
	"frame.number",
	"frame.len",
	"frame.time_epoch",
	"eth.src",
	"eth.dst",
	"vlan.id",
	"vlan.priority",
	"data.data",
}

// Runner executes the dissector binary. Tests substitute a fake.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf
	err := cmd.Run()
	return out.Bytes(), errBuf.Bytes(), err
}

// Tshark invokes the tshark binary to extract per-frame fields.
type Tshark struct {
	binary  string
	timeout time.Duration
	runner  Runner
}

// NewTshark returns a dissector using the given binary name or path. Zero
// timeout selects DefaultTimeout.
func NewTshark(binary string, timeout time.Duration) *Tshark {
	if binary == "" {
		binary = "tshark"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Tshark{binary: binary, timeout: timeout, runner: execRunner{}}
}

// Fields runs the dissector over the capture at path and returns one row of
// tab-separated columns per frame matching the display filter.
func (t *Tshark) Fields(ctx context.Context, path, filter string) ([][]string, error) {
	args := []string{
		"-r", path,
		"-T", "fields",
		"-E", "header=n",
		"-E", "separator=\t",
		"-E", "occurrence=a",
	}
	for _, f := range fieldList {
		args = append(args, "-e", f)
	}
	if filter != "" {
		args = append(args, "-Y", filter)
	}

	runCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	slog.Debug("invoking dissector", "binary", t.binary, "path", path, "filter", filter)
	stdout, stderr, err := t.runner.Run(runCtx, t.binary, args...)
	if err != nil {
		metrics.DissectorRunsTotal.WithLabelValues("error").Inc()
		if runCtx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: after %s", core.ErrDissectorTimeout, t.timeout)
		}
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return nil, fmt.Errorf("%w: %v", core.ErrDissectorUnavailable, err)
		}
		return nil, fmt.Errorf("pcapsmith: dissector failed: %v: %s",
			err, strings.TrimSpace(string(stderr)))
	}
	metrics.DissectorRunsTotal.WithLabelValues("ok").Inc()

	var rows [][]string
	for _, line := range strings.Split(string(stdout), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, strings.Split(line, "\t"))
	}
	slog.Debug("dissector returned", "rows", len(rows))
	return rows, nil
}
