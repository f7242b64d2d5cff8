package types

import (
	"encoding/json"
	"strings"
	"time"
)

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending        OrderStatus = "pending"
	OrderPreparing      OrderStatus = "preparing"
	OrderOutForDelivery OrderStatus = "out_for_delivery"
	OrderDelivered      OrderStatus = "delivered"
	OrderCancelled      OrderStatus = "cancelled"
)

// Terminal reports whether the status makes an order sync-eligible.
func (s OrderStatus) Terminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

// Valid reports whether the status is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderPreparing, OrderOutForDelivery, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// RunStatus represents the lifecycle state of a delivery run.
type RunStatus string

const (
	RunActive    RunStatus = "active"
	RunCompleted RunStatus = "completed"
	RunCancelled RunStatus = "cancelled"
)

// Terminal reports whether the status makes a delivery run sync-eligible.
func (s RunStatus) Terminal() bool {
	return s == RunCompleted || s == RunCancelled
}

// Valid reports whether the status is a known run status.
func (s RunStatus) Valid() bool {
	switch s {
	case RunActive, RunCompleted, RunCancelled:
		return true
	}
	return false
}

// StatusEvent is one entry in an order's event history.
// Insertion order is meaningful; the history is append-only.
type StatusEvent struct {
	Status    OrderStatus `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
}

// ItemList normalizes the two shapes item data arrives in: a JSON array of
// strings, or a single comma-separated string from manually entered orders.
type ItemList []string

// UnmarshalJSON accepts either ["a","b"] or "a, b".
func (l *ItemList) UnmarshalJSON(data []byte) error {
	var items []string
	if err := json.Unmarshal(data, &items); err == nil {
		*l = items
		return nil
	}

	var joined string
	if err := json.Unmarshal(data, &joined); err != nil {
		return err
	}
	if strings.TrimSpace(joined) == "" {
		*l = ItemList{}
		return nil
	}
	parts := strings.Split(joined, ",")
	items = make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	*l = items
	return nil
}

// Order is a source record owned by the operational store. The sync engine
// reads it and never writes it back.
//
// CreatedAt, OrderDate and UpdatedAt are kept as the raw strings captured from
// the operational app; the transformer normalizes them.
type Order struct {
	ID              string        `json:"id"`
	Number          string        `json:"number,omitempty"`
	CustomerName    string        `json:"customer_name,omitempty"`
	CustomerPhone   string        `json:"customer_phone,omitempty"`
	Address         string        `json:"address,omitempty"`
	PharmacyUnitID  string        `json:"pharmacy_unit_id,omitempty"`
	DeliveryManID   string        `json:"delivery_man_id,omitempty"`
	DeliveryManName string        `json:"delivery_man_name,omitempty"`
	Status          OrderStatus   `json:"status"`
	Items           ItemList      `json:"items,omitempty"`
	Price           string        `json:"price,omitempty"`
	Rating          string        `json:"rating,omitempty"`
	ReviewComment   string        `json:"review_comment,omitempty"`
	ReviewDate      *time.Time    `json:"review_date,omitempty"`
	LicensePlate    string        `json:"license_plate,omitempty"`
	StatusHistory   []StatusEvent `json:"status_history,omitempty"`
	CreatedAt       string        `json:"created_at,omitempty"`
	OrderDate       string        `json:"order_date,omitempty"`
	UpdatedAt       string        `json:"updated_at,omitempty"`
}

// Checkpoint is one recorded position along a delivery run.
type Checkpoint struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}

// DeliveryRun is a source record for one deliveryman's run.
type DeliveryRun struct {
	ID             string       `json:"id"`
	DeliveryManID  string       `json:"delivery_man_id"`
	MotorcycleID   string       `json:"motorcycle_id,omitempty"`
	PharmacyUnitID string       `json:"pharmacy_unit_id"`
	OrderIDs       []string     `json:"order_ids"`
	StartTime      time.Time    `json:"start_time"`
	EndTime        *time.Time   `json:"end_time,omitempty"`
	TotalDistance  float64      `json:"total_distance"`
	Status         RunStatus    `json:"status"`
	Checkpoints    []Checkpoint `json:"checkpoints,omitempty"`
}

// Motorcycle is a vehicle registry entry.
type Motorcycle struct {
	ID    string `json:"id"`
	Plate string `json:"plate"`
}

// QueueKind distinguishes the record type a queue entry points at.
type QueueKind string

const (
	KindOrder       QueueKind = "order"
	KindDeliveryRun QueueKind = "delivery_run"
)

// QueueEntry is a durable pointer recording that a record became
// sync-eligible. Entries are never updated in place: they are created by an
// observer and deleted by the sync coordinator.
//
// Retries is carried in the schema but never incremented by current logic.
type QueueEntry struct {
	ID          string    `json:"id"`
	Kind        QueueKind `json:"kind"`
	ReferenceID string    `json:"reference_id"`
	QueuedAt    time.Time `json:"queued_at"`
	Processed   bool      `json:"processed"`
	Retries     int       `json:"retries"`
}

// OrderRow is the flattened warehouse projection of an order. Timestamps are
// RFC 3339 strings; items and status_history are opaque JSON text blobs, per
// the destination schema.
type OrderRow struct {
	OrderID             string  `json:"order_id"`
	OrderNumber         string  `json:"order_number,omitempty"`
	CustomerName        string  `json:"customer_name,omitempty"`
	CustomerPhone       string  `json:"customer_phone,omitempty"`
	Address             string  `json:"address,omitempty"`
	Region              string  `json:"region,omitempty"`
	PharmacyUnitID      string  `json:"pharmacy_unit_id,omitempty"`
	DeliveryMan         string  `json:"delivery_man,omitempty"`
	DeliveryManName     string  `json:"delivery_man_name,omitempty"`
	Status              string  `json:"status,omitempty"`
	PriceNumber         float64 `json:"price_number"`
	Rating              float64 `json:"rating"`
	DeliveryTimeMinutes float64 `json:"delivery_time_minutes"`
	ReviewComment       string  `json:"review_comment,omitempty"`
	ReviewDate          string  `json:"review_date,omitempty"`
	CreatedAt           string  `json:"created_at"`
	UpdatedAt           string  `json:"updated_at,omitempty"`
	Items               string  `json:"items,omitempty"`
	StatusHistory       string  `json:"status_history,omitempty"`
	ItemCount           int     `json:"item_count"`
	LicensePlate        string  `json:"license_plate,omitempty"`
}

// RunRow is the flattened warehouse projection of a delivery run.
type RunRow struct {
	RunID           string   `json:"run_id"`
	DeliverymanID   string   `json:"deliveryman_id"`
	MotorcycleID    string   `json:"motorcycle_id,omitempty"`
	PharmacyUnitID  string   `json:"pharmacy_unit_id"`
	OrderIDs        []string `json:"order_ids"`
	StartTime       string   `json:"start_time"`
	EndTime         string   `json:"end_time,omitempty"`
	TotalDistance   float64  `json:"total_distance"`
	Status          string   `json:"status"`
	CheckpointCount int      `json:"checkpoint_count"`
}

// StatusUpdateRequest is the body of a status transition call.
type StatusUpdateRequest struct {
	Status string `json:"status"`
}

// StatusUpdateResponse reports the applied transition and whether a sync
// queue entry was created for it.
type StatusUpdateResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Queued bool   `json:"queued"`
}

// UpsertResponse acknowledges a stored record.
type UpsertResponse struct {
	ID string `json:"id"`
}

// HealthResponse is the health check payload.
type HealthResponse struct {
	Status      string           `json:"status"`
	Version     string           `json:"version"`
	QueueDepths map[string]int64 `json:"queue_depths"`
}
