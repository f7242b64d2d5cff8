package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/HenryFroio/farmanossa-expo-demo-sub002/internal/types"
)

// PutOrder inserts or replaces an order record.
func (s *SQLiteStore) PutOrder(ctx context.Context, o *types.Order) error {
	if o == nil || o.ID == "" {
		return fmt.Errorf("order has no id")
	}

	items := o.Items
	if items == nil {
		items = types.ItemList{}
	}
	itemsJSON, err := json.Marshal([]string(items))
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}

	history := o.StatusHistory
	if history == nil {
		history = []types.StatusEvent{}
	}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("encode status history: %w", err)
	}

	var reviewDate sql.NullString
	if o.ReviewDate != nil {
		reviewDate = sql.NullString{String: o.ReviewDate.UTC().Format(time.RFC3339), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO orders (
			id, number, customer_name, customer_phone, address,
			pharmacy_unit_id, delivery_man_id, delivery_man_name, status,
			items, price, rating, review_comment, review_date, license_plate,
			status_history, created_at, order_date, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, o.ID, o.Number, o.CustomerName, o.CustomerPhone, o.Address,
		o.PharmacyUnitID, o.DeliveryManID, o.DeliveryManName, string(o.Status),
		string(itemsJSON), o.Price, o.Rating, o.ReviewComment, reviewDate, o.LicensePlate,
		string(historyJSON), o.CreatedAt, o.OrderDate, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// GetOrder retrieves an order by id.
func (s *SQLiteStore) GetOrder(ctx context.Context, id string) (*types.Order, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, number, customer_name, customer_phone, address,
		       pharmacy_unit_id, delivery_man_id, delivery_man_name, status,
		       items, price, rating, review_comment, review_date, license_plate,
		       status_history, created_at, order_date, updated_at
		FROM orders WHERE id = ?
	`, id)

	var o types.Order
	var status, itemsJSON, historyJSON string
	var reviewDate sql.NullString

	err := row.Scan(&o.ID, &o.Number, &o.CustomerName, &o.CustomerPhone, &o.Address,
		&o.PharmacyUnitID, &o.DeliveryManID, &o.DeliveryManName, &status,
		&itemsJSON, &o.Price, &o.Rating, &o.ReviewComment, &reviewDate, &o.LicensePlate,
		&historyJSON, &o.CreatedAt, &o.OrderDate, &o.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	o.Status = types.OrderStatus(status)
	if err := json.Unmarshal([]byte(itemsJSON), &o.Items); err != nil {
		return nil, fmt.Errorf("parse items: %w", err)
	}
	if err := json.Unmarshal([]byte(historyJSON), &o.StatusHistory); err != nil {
		return nil, fmt.Errorf("parse status history: %w", err)
	}
	if reviewDate.Valid {
		if t, err := time.Parse(time.RFC3339, reviewDate.String); err == nil {
			o.ReviewDate = &t
		}
	}

	return &o, nil
}

// AppendOrderStatus sets the order status and appends an event to its history.
// The history is append-only; existing events are never rewritten.
func (s *SQLiteStore) AppendOrderStatus(ctx context.Context, id string, status types.OrderStatus, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var historyJSON string
	err = tx.QueryRowContext(ctx, `SELECT status_history FROM orders WHERE id = ?`, id).Scan(&historyJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return fmt.Errorf("read status history: %w", err)
	}

	var history []types.StatusEvent
	if err := json.Unmarshal([]byte(historyJSON), &history); err != nil {
		return fmt.Errorf("parse status history: %w", err)
	}
	history = append(history, types.StatusEvent{Status: status, Timestamp: at.UTC()})

	updated, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("encode status history: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE orders SET status = ?, status_history = ?, updated_at = ? WHERE id = ?
	`, string(status), string(updated), at.UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	return tx.Commit()
}

// PutDeliveryRun inserts or replaces a delivery run record.
func (s *SQLiteStore) PutDeliveryRun(ctx context.Context, run *types.DeliveryRun) error {
	if run == nil || run.ID == "" {
		return fmt.Errorf("delivery run has no id")
	}

	orderIDs := run.OrderIDs
	if orderIDs == nil {
		orderIDs = []string{}
	}
	orderIDsJSON, err := json.Marshal(orderIDs)
	if err != nil {
		return fmt.Errorf("encode order ids: %w", err)
	}

	checkpoints := run.Checkpoints
	if checkpoints == nil {
		checkpoints = []types.Checkpoint{}
	}
	checkpointsJSON, err := json.Marshal(checkpoints)
	if err != nil {
		return fmt.Errorf("encode checkpoints: %w", err)
	}

	var endTime sql.NullString
	if run.EndTime != nil {
		endTime = sql.NullString{String: run.EndTime.UTC().Format(time.RFC3339), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO delivery_runs (
			id, delivery_man_id, motorcycle_id, pharmacy_unit_id, order_ids,
			start_time, end_time, total_distance, status, checkpoints
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.DeliveryManID, run.MotorcycleID, run.PharmacyUnitID, string(orderIDsJSON),
		run.StartTime.UTC().Format(time.RFC3339), endTime, run.TotalDistance,
		string(run.Status), string(checkpointsJSON))
	if err != nil {
		return fmt.Errorf("insert delivery run: %w", err)
	}
	return nil
}

// GetDeliveryRun retrieves a delivery run by id.
func (s *SQLiteStore) GetDeliveryRun(ctx context.Context, id string) (*types.DeliveryRun, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, delivery_man_id, motorcycle_id, pharmacy_unit_id, order_ids,
		       start_time, end_time, total_distance, status, checkpoints
		FROM delivery_runs WHERE id = ?
	`, id)

	var run types.DeliveryRun
	var status, orderIDsJSON, checkpointsJSON, startTime string
	var endTime sql.NullString

	err := row.Scan(&run.ID, &run.DeliveryManID, &run.MotorcycleID, &run.PharmacyUnitID,
		&orderIDsJSON, &startTime, &endTime, &run.TotalDistance, &status, &checkpointsJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan delivery run: %w", err)
	}

	run.Status = types.RunStatus(status)
	if err := json.Unmarshal([]byte(orderIDsJSON), &run.OrderIDs); err != nil {
		return nil, fmt.Errorf("parse order ids: %w", err)
	}
	if err := json.Unmarshal([]byte(checkpointsJSON), &run.Checkpoints); err != nil {
		return nil, fmt.Errorf("parse checkpoints: %w", err)
	}
	if t, err := time.Parse(time.RFC3339, startTime); err == nil {
		run.StartTime = t
	}
	if endTime.Valid {
		if t, err := time.Parse(time.RFC3339, endTime.String); err == nil {
			run.EndTime = &t
		}
	}

	return &run, nil
}

// UpdateRunStatus sets the run status. Terminal transitions also stamp the
// end time when it is not already set.
func (s *SQLiteStore) UpdateRunStatus(ctx context.Context, id string, status types.RunStatus, at time.Time) error {
	var result sql.Result
	var err error

	if status.Terminal() {
		result, err = s.db.ExecContext(ctx, `
			UPDATE delivery_runs
			SET status = ?, end_time = COALESCE(end_time, ?)
			WHERE id = ?
		`, string(status), at.UTC().Format(time.RFC3339), id)
	} else {
		result, err = s.db.ExecContext(ctx, `
			UPDATE delivery_runs SET status = ? WHERE id = ?
		`, string(status), id)
	}
	if err != nil {
		return fmt.Errorf("update run status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// PutMotorcycle inserts or replaces a vehicle registry entry.
func (s *SQLiteStore) PutMotorcycle(ctx context.Context, m *types.Motorcycle) error {
	if m == nil || m.ID == "" {
		return fmt.Errorf("motorcycle has no id")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO motorcycles (id, plate) VALUES (?, ?)
	`, m.ID, m.Plate)
	if err != nil {
		return fmt.Errorf("insert motorcycle: %w", err)
	}
	return nil
}

// GetMotorcycle retrieves a vehicle registry entry by id.
func (s *SQLiteStore) GetMotorcycle(ctx context.Context, id string) (*types.Motorcycle, error) {
	var m types.Motorcycle
	err := s.db.QueryRowContext(ctx, `SELECT id, plate FROM motorcycles WHERE id = ?`, id).
		Scan(&m.ID, &m.Plate)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan motorcycle: %w", err)
	}
	return &m, nil
}
