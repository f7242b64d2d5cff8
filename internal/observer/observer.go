// Package observer reacts to domain-record state transitions by appending
// sync-queue entries for records that reached a sync-eligible terminal state.
package observer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/HenryFroio/farmanossa-expo-demo-sub002/internal/metrics"
	"github.com/HenryFroio/farmanossa-expo-demo-sub002/internal/types"
)

// QueueStore is the slice of the store the observer needs.
type QueueStore interface {
	HasUnprocessedEntry(ctx context.Context, kind types.QueueKind, referenceID string) (bool, error)
	EnqueueSync(ctx context.Context, kind types.QueueKind, referenceID string) (*types.QueueEntry, error)
}

// StatusObserver enqueues sync work when a record enters a terminal state.
//
// The dedupe check and the insert are not atomic; a concurrent transition can
// produce a duplicate entry. That is accepted: retirement is idempotent and a
// duplicate at worst yields one duplicate warehouse row.
type StatusObserver struct {
	store QueueStore
}

// NewStatusObserver creates an observer writing to store.
func NewStatusObserver(store QueueStore) *StatusObserver {
	return &StatusObserver{store: store}
}

// OrderStatusChanged handles an order state transition. It returns true when
// a queue entry was created.
func (o *StatusObserver) OrderStatusChanged(ctx context.Context, orderID string, status types.OrderStatus) (bool, error) {
	if !status.Terminal() {
		return false, nil
	}
	return o.enqueue(ctx, types.KindOrder, orderID)
}

// RunStatusChanged handles a delivery run state transition. It returns true
// when a queue entry was created.
func (o *StatusObserver) RunStatusChanged(ctx context.Context, runID string, status types.RunStatus) (bool, error) {
	if !status.Terminal() {
		return false, nil
	}
	return o.enqueue(ctx, types.KindDeliveryRun, runID)
}

func (o *StatusObserver) enqueue(ctx context.Context, kind types.QueueKind, referenceID string) (bool, error) {
	exists, err := o.store.HasUnprocessedEntry(ctx, kind, referenceID)
	if err != nil {
		return false, fmt.Errorf("check queue entry: %w", err)
	}
	if exists {
		slog.Debug("sync entry already queued, skipping",
			"component", "observer",
			"action", "enqueue_skipped",
			"kind", string(kind),
			"reference_id", referenceID,
		)
		return false, nil
	}

	entry, err := o.store.EnqueueSync(ctx, kind, referenceID)
	if err != nil {
		return false, fmt.Errorf("enqueue sync entry: %w", err)
	}

	metrics.EntriesEnqueued.WithLabelValues(string(kind)).Inc()
	slog.Info("record queued for warehouse sync",
		"component", "observer",
		"action", "enqueued",
		"kind", string(kind),
		"reference_id", referenceID,
		"entry_id", entry.ID,
	)
	return true, nil
}
