package store

import (
	"context"
	"time"

	"github.com/HenryFroio/farmanossa-expo-demo-sub002/internal/types"
)

// Store defines the operational-store contract: source records, the vehicle
// registry, and the sync queue.
type Store interface {
	PutOrder(ctx context.Context, o *types.Order) error
	GetOrder(ctx context.Context, id string) (*types.Order, error)
	AppendOrderStatus(ctx context.Context, id string, status types.OrderStatus, at time.Time) error

	PutDeliveryRun(ctx context.Context, run *types.DeliveryRun) error
	GetDeliveryRun(ctx context.Context, id string) (*types.DeliveryRun, error)
	UpdateRunStatus(ctx context.Context, id string, status types.RunStatus, at time.Time) error

	PutMotorcycle(ctx context.Context, m *types.Motorcycle) error
	GetMotorcycle(ctx context.Context, id string) (*types.Motorcycle, error)

	EnqueueSync(ctx context.Context, kind types.QueueKind, referenceID string) (*types.QueueEntry, error)
	HasUnprocessedEntry(ctx context.Context, kind types.QueueKind, referenceID string) (bool, error)
	UnprocessedEntries(ctx context.Context, kind types.QueueKind, limit int) ([]types.QueueEntry, error)
	DeleteQueueEntries(ctx context.Context, ids []string) error
	QueueDepth(ctx context.Context, kind types.QueueKind) (int64, error)

	Close() error
}
