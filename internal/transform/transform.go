// Package transform maps source records into flattened warehouse rows,
// deriving region, delivery duration and canonical plate along the way.
package transform

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/HenryFroio/farmanossa-expo-demo-sub002/internal/gazetteer"
	"github.com/HenryFroio/farmanossa-expo-demo-sub002/internal/types"
)

// Transformer produces warehouse rows from source records. It is deterministic
// given the same record and registry state.
type Transformer struct {
	plates *PlateResolver
}

// NewTransformer creates a Transformer resolving plates through registry.
func NewTransformer(registry VehicleRegistry) *Transformer {
	return &Transformer{plates: NewPlateResolver(registry)}
}

// OrderRow maps an order into its warehouse row.
func (t *Transformer) OrderRow(ctx context.Context, o *types.Order) (types.OrderRow, error) {
	if o == nil || o.ID == "" {
		return types.OrderRow{}, fmt.Errorf("order has no id")
	}

	region, _ := gazetteer.Match(o.Address)

	itemsBlob, err := json.Marshal([]string(o.Items))
	if err != nil {
		return types.OrderRow{}, fmt.Errorf("encode items: %w", err)
	}
	historyBlob, err := json.Marshal(o.StatusHistory)
	if err != nil {
		return types.OrderRow{}, fmt.Errorf("encode status history: %w", err)
	}

	row := types.OrderRow{
		OrderID:             o.ID,
		OrderNumber:         o.Number,
		CustomerName:        o.CustomerName,
		CustomerPhone:       o.CustomerPhone,
		Address:             o.Address,
		Region:              region,
		PharmacyUnitID:      o.PharmacyUnitID,
		DeliveryMan:         o.DeliveryManID,
		DeliveryManName:     o.DeliveryManName,
		Status:              string(o.Status),
		PriceNumber:         parseNumber(o.Price),
		Rating:              parseNumber(o.Rating),
		DeliveryTimeMinutes: EstimateDurationMinutes(o.StatusHistory, types.OrderOutForDelivery, types.OrderDelivered),
		ReviewComment:       o.ReviewComment,
		CreatedAt:           normalizeTimestamp(o.CreatedAt, o.OrderDate),
		UpdatedAt:           normalizeTimestamp(o.UpdatedAt, ""),
		Items:               string(itemsBlob),
		StatusHistory:       string(historyBlob),
		ItemCount:           len(o.Items),
		LicensePlate:        t.plates.Resolve(ctx, o.LicensePlate),
	}
	if o.ReviewDate != nil {
		row.ReviewDate = o.ReviewDate.UTC().Format(time.RFC3339)
	}
	return row, nil
}

// RunRow maps a delivery run into its warehouse row.
func (t *Transformer) RunRow(ctx context.Context, run *types.DeliveryRun) (types.RunRow, error) {
	if run == nil || run.ID == "" {
		return types.RunRow{}, fmt.Errorf("delivery run has no id")
	}

	orderIDs := run.OrderIDs
	if orderIDs == nil {
		orderIDs = []string{}
	}

	row := types.RunRow{
		RunID:           run.ID,
		DeliverymanID:   run.DeliveryManID,
		MotorcycleID:    t.plates.Resolve(ctx, run.MotorcycleID),
		PharmacyUnitID:  run.PharmacyUnitID,
		OrderIDs:        orderIDs,
		StartTime:       run.StartTime.UTC().Format(time.RFC3339),
		TotalDistance:   run.TotalDistance,
		Status:          string(run.Status),
		CheckpointCount: len(run.Checkpoints),
	}
	if run.EndTime != nil {
		row.EndTime = run.EndTime.UTC().Format(time.RFC3339)
	}
	return row, nil
}

// parseNumber parses a loosely formatted numeric string, tolerating currency
// prefixes and comma decimal separators. Unparseable input yields zero, never
// an error.
func parseNumber(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", ".")
	// "1.234.56" style thousand separators collapse to the last dot
	if strings.Count(s, ".") > 1 {
		last := strings.LastIndex(s, ".")
		s = strings.ReplaceAll(s[:last], ".", "") + s[last:]
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// normalizeTimestamp parses primary into RFC 3339 UTC, falling back to
// secondary when primary is unparseable. Both failing yields empty.
func normalizeTimestamp(primary, secondary string) string {
	for _, raw := range []string{primary, secondary} {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		if t, err := dateparse.ParseAny(raw); err == nil {
			return t.UTC().Format(time.RFC3339)
		}
	}
	return ""
}
