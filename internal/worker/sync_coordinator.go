// Package worker hosts the background coordinators of the sync engine.
package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/HenryFroio/farmanossa-expo-demo-sub002/internal/metrics"
	"github.com/HenryFroio/farmanossa-expo-demo-sub002/internal/staging"
	"github.com/HenryFroio/farmanossa-expo-demo-sub002/internal/store"
	"github.com/HenryFroio/farmanossa-expo-demo-sub002/internal/types"
	"github.com/HenryFroio/farmanossa-expo-demo-sub002/internal/warehouse"
)

// SyncStore defines the store operations the coordinator needs.
type SyncStore interface {
	UnprocessedEntries(ctx context.Context, kind types.QueueKind, limit int) ([]types.QueueEntry, error)
	DeleteQueueEntries(ctx context.Context, ids []string) error
	GetOrder(ctx context.Context, id string) (*types.Order, error)
	GetDeliveryRun(ctx context.Context, id string) (*types.DeliveryRun, error)
}

// RowTransformer maps source records into warehouse rows.
type RowTransformer interface {
	OrderRow(ctx context.Context, o *types.Order) (types.OrderRow, error)
	RunRow(ctx context.Context, run *types.DeliveryRun) (types.RunRow, error)
}

// Config carries the coordinator's tunables.
type Config struct {
	Interval    time.Duration
	BatchSize   int
	OrdersTable string
	RunsTable   string
}

// SyncCoordinator periodically drains the sync queue in bounded batches:
// resolve referenced records, filter ineligible ones, transform, stage one
// NDJSON artifact, submit an append load job, retire the queue entries and
// remove the artifact.
//
// Delivery is at-least-once: any failure before load submission leaves the
// batch's entries unprocessed for the next tick. Overlapping cycles are not
// mutually excluded; they can at worst produce duplicate warehouse rows,
// never corrupt queue state.
type SyncCoordinator struct {
	store       SyncStore
	transformer RowTransformer
	stager      staging.ObjectStore
	loader      warehouse.Loader
	cfg         Config
}

// NewSyncCoordinator wires a coordinator from its dependencies.
func NewSyncCoordinator(s SyncStore, tr RowTransformer, stager staging.ObjectStore, loader warehouse.Loader, cfg Config) *SyncCoordinator {
	return &SyncCoordinator{
		store:       s,
		transformer: tr,
		stager:      stager,
		loader:      loader,
		cfg:         cfg,
	}
}

// Run starts the coordinator loop. Blocks until ctx is cancelled.
func (c *SyncCoordinator) Run(ctx context.Context) {
	slog.Info("worker started",
		"component", "worker",
		"worker", "sync-coordinator",
		"action", "worker_started",
		"interval", c.cfg.Interval.String(),
		"batch_size", c.cfg.BatchSize,
	)

	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	// Drain immediately on start, then on each tick
	c.drain(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopped",
				"component", "worker",
				"worker", "sync-coordinator",
				"action", "worker_stopped",
				"reason", "context_cancelled",
			)
			return
		case <-ticker.C:
			c.drain(ctx)
		}
	}
}

// drain runs one pass over both queue kinds. A failing kind does not stop the
// other; its entries simply wait for the next tick.
func (c *SyncCoordinator) drain(ctx context.Context) {
	if err := c.SyncOrders(ctx); err != nil && ctx.Err() == nil {
		slog.Error("order sync cycle failed",
			"component", "worker",
			"worker", "sync-coordinator",
			"action", "cycle_failed",
			"kind", string(types.KindOrder),
			"error", err,
		)
	}
	if err := c.SyncRuns(ctx); err != nil && ctx.Err() == nil {
		slog.Error("delivery run sync cycle failed",
			"component", "worker",
			"worker", "sync-coordinator",
			"action", "cycle_failed",
			"kind", string(types.KindDeliveryRun),
			"error", err,
		)
	}
}

// DrainOnce runs a single pass over both kinds and reports any failure.
// Used by the one-shot CLI path.
func (c *SyncCoordinator) DrainOnce(ctx context.Context) error {
	return errors.Join(c.SyncOrders(ctx), c.SyncRuns(ctx))
}

// SyncOrders drains one bounded batch of order queue entries.
func (c *SyncCoordinator) SyncOrders(ctx context.Context) error {
	entries, err := c.store.UnprocessedEntries(ctx, types.KindOrder, c.cfg.BatchSize)
	if err != nil {
		metrics.SyncCycles.WithLabelValues(string(types.KindOrder), "error").Inc()
		return fmt.Errorf("read queue: %w", err)
	}
	if len(entries) == 0 {
		metrics.SyncCycles.WithLabelValues(string(types.KindOrder), "empty").Inc()
		return nil
	}

	var rows [][]byte
	for _, entry := range entries {
		o, err := c.store.GetOrder(ctx, entry.ReferenceID)
		if errors.Is(err, store.ErrNotFound) {
			slog.Info("queued order no longer exists, entry will retire",
				"component", "worker",
				"action", "record_missing",
				"order_id", entry.ReferenceID,
			)
			continue
		}
		if err != nil {
			metrics.SyncCycles.WithLabelValues(string(types.KindOrder), "error").Inc()
			return fmt.Errorf("resolve order %s: %w", entry.ReferenceID, err)
		}
		if !o.Status.Terminal() {
			slog.Info("queued order not in terminal status, entry will retire",
				"component", "worker",
				"action", "record_ineligible",
				"order_id", o.ID,
				"status", string(o.Status),
			)
			continue
		}

		row, err := c.transformer.OrderRow(ctx, o)
		if err != nil {
			c.logTransformFailure(types.KindOrder, o.ID, err)
			continue
		}
		line, err := json.Marshal(row)
		if err != nil {
			c.logTransformFailure(types.KindOrder, o.ID, err)
			continue
		}
		rows = append(rows, line)
	}

	if err := c.stageAndLoad(ctx, types.KindOrder, c.cfg.OrdersTable, warehouse.OrderSchema(), rows, entries); err != nil {
		metrics.SyncCycles.WithLabelValues(string(types.KindOrder), "error").Inc()
		return err
	}
	metrics.SyncCycles.WithLabelValues(string(types.KindOrder), "success").Inc()
	return nil
}

// SyncRuns drains one bounded batch of delivery run queue entries.
func (c *SyncCoordinator) SyncRuns(ctx context.Context) error {
	entries, err := c.store.UnprocessedEntries(ctx, types.KindDeliveryRun, c.cfg.BatchSize)
	if err != nil {
		metrics.SyncCycles.WithLabelValues(string(types.KindDeliveryRun), "error").Inc()
		return fmt.Errorf("read queue: %w", err)
	}
	if len(entries) == 0 {
		metrics.SyncCycles.WithLabelValues(string(types.KindDeliveryRun), "empty").Inc()
		return nil
	}

	var rows [][]byte
	for _, entry := range entries {
		run, err := c.store.GetDeliveryRun(ctx, entry.ReferenceID)
		if errors.Is(err, store.ErrNotFound) {
			slog.Info("queued run no longer exists, entry will retire",
				"component", "worker",
				"action", "record_missing",
				"run_id", entry.ReferenceID,
			)
			continue
		}
		if err != nil {
			metrics.SyncCycles.WithLabelValues(string(types.KindDeliveryRun), "error").Inc()
			return fmt.Errorf("resolve run %s: %w", entry.ReferenceID, err)
		}
		if !run.Status.Terminal() {
			slog.Info("queued run not in terminal status, entry will retire",
				"component", "worker",
				"action", "record_ineligible",
				"run_id", run.ID,
				"status", string(run.Status),
			)
			continue
		}

		row, err := c.transformer.RunRow(ctx, run)
		if err != nil {
			c.logTransformFailure(types.KindDeliveryRun, run.ID, err)
			continue
		}
		line, err := json.Marshal(row)
		if err != nil {
			c.logTransformFailure(types.KindDeliveryRun, run.ID, err)
			continue
		}
		rows = append(rows, line)
	}

	if err := c.stageAndLoad(ctx, types.KindDeliveryRun, c.cfg.RunsTable, warehouse.RunSchema(), rows, entries); err != nil {
		metrics.SyncCycles.WithLabelValues(string(types.KindDeliveryRun), "error").Inc()
		return err
	}
	metrics.SyncCycles.WithLabelValues(string(types.KindDeliveryRun), "success").Inc()
	return nil
}

// stageAndLoad uploads the batch artifact, submits the load job and retires
// the batch's queue entries. With no rows (every record missing, ineligible
// or dropped) it skips staging and only retires.
//
// Retirement is decoupled from load success: it happens after submission
// acceptance and is never rolled back. A retirement failure leaves the
// entries for the next cycle, which may duplicate rows — accepted.
func (c *SyncCoordinator) stageAndLoad(ctx context.Context, kind types.QueueKind, table string, schema []warehouse.Column, rows [][]byte, entries []types.QueueEntry) error {
	if len(rows) > 0 {
		key := staging.BatchKey(table, time.Now())
		artifact := append(bytes.Join(rows, []byte("\n")), '\n')

		if err := c.stager.Put(ctx, key, artifact); err != nil {
			return fmt.Errorf("stage batch: %w", err)
		}

		job := warehouse.LoadJob{
			Table:        table,
			SourceObject: key,
			Format:       warehouse.FormatNDJSON,
			Mode:         warehouse.ModeAppend,
			Schema:       schema,
		}
		if err := c.loader.SubmitAppend(ctx, job); err != nil {
			return fmt.Errorf("submit load job: %w", err)
		}
		metrics.RowsLoaded.WithLabelValues(table).Add(float64(len(rows)))

		c.retire(ctx, kind, entries)

		// The load job holds no reference to the artifact beyond ingestion;
		// removal failures only leak a staging object.
		if err := c.stager.Remove(ctx, key); err != nil {
			slog.Warn("failed to remove staged artifact",
				"component", "worker",
				"action", "artifact_remove_failed",
				"object_key", key,
				"error", err,
			)
		}

		slog.Info("sync batch loaded",
			"component", "worker",
			"worker", "sync-coordinator",
			"action", "batch_loaded",
			"kind", string(kind),
			"table", table,
			"rows", len(rows),
			"entries", len(entries),
		)
		return nil
	}

	c.retire(ctx, kind, entries)
	slog.Info("sync batch had no eligible records",
		"component", "worker",
		"worker", "sync-coordinator",
		"action", "batch_empty",
		"kind", string(kind),
		"entries", len(entries),
	)
	return nil
}

// retire deletes the batch's queue entries. Failures are logged, not
// propagated: the entries will be reconsidered next cycle.
func (c *SyncCoordinator) retire(ctx context.Context, kind types.QueueKind, entries []types.QueueEntry) {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	if err := c.store.DeleteQueueEntries(ctx, ids); err != nil {
		slog.Warn("failed to retire queue entries, they will be retried",
			"component", "worker",
			"action", "retire_failed",
			"kind", string(kind),
			"entries", len(ids),
			"error", err,
		)
		return
	}
	metrics.EntriesRetired.WithLabelValues(string(kind)).Add(float64(len(ids)))
}

func (c *SyncCoordinator) logTransformFailure(kind types.QueueKind, id string, err error) {
	metrics.TransformFailures.WithLabelValues(string(kind)).Inc()
	slog.Warn("record transform failed, dropping from batch",
		"component", "worker",
		"action", "transform_failed",
		"kind", string(kind),
		"record_id", id,
		"error", err,
	)
}
