// Package metrics exposes prometheus instrumentation for the sync engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SyncCycles counts sync cycles by queue kind and outcome
	// (success, empty, error).
	SyncCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "farmasync_sync_cycles_total",
			Help: "Total sync cycles by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	// RowsLoaded counts warehouse rows included in submitted load jobs.
	RowsLoaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "farmasync_rows_loaded_total",
			Help: "Total rows included in submitted load jobs by table",
		},
		[]string{"table"},
	)

	// EntriesRetired counts queue entries deleted after a batch pass.
	EntriesRetired = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "farmasync_queue_entries_retired_total",
			Help: "Total sync queue entries retired by kind",
		},
		[]string{"kind"},
	)

	// TransformFailures counts records dropped from a batch by a transform
	// defect. Their queue entries still retire.
	TransformFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "farmasync_transform_failures_total",
			Help: "Total per-record transform failures by kind",
		},
		[]string{"kind"},
	)

	// EntriesEnqueued counts queue entries created by the observers.
	EntriesEnqueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "farmasync_queue_entries_enqueued_total",
			Help: "Total sync queue entries enqueued by kind",
		},
		[]string{"kind"},
	)
)
