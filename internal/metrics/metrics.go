// Package metrics implements Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FramesWrittenTotal counts physical frames appended to capture files.
	FramesWrittenTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pcapsmith_frames_written_total",
			Help: "Total number of frames appended to capture files",
		},
	)

	// BytesWrittenTotal counts frame bytes appended to capture files.
	BytesWrittenTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pcapsmith_bytes_written_total",
			Help: "Total number of frame bytes appended to capture files",
		},
	)

	// DissectorRunsTotal counts external dissector invocations by outcome.
	DissectorRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pcapsmith_dissector_runs_total",
			Help: "Total number of external dissector invocations",
		},
		[]string{"status"},
	)

	// FramesReadTotal counts frames parsed back from capture files.
	FramesReadTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pcapsmith_frames_read_total",
			Help: "Total number of frames parsed from capture files",
		},
	)

	// CheckViolationsTotal counts analysis rule violations by rule.
	CheckViolationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pcapsmith_check_violations_total",
			Help: "Total number of analysis rule violations",
		},
		[]string{"rule"},
	)
)
