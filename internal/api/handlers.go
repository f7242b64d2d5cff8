package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/HenryFroio/farmanossa-expo-demo-sub002/internal/observer"
	"github.com/HenryFroio/farmanossa-expo-demo-sub002/internal/store"
	"github.com/HenryFroio/farmanossa-expo-demo-sub002/internal/types"
	"github.com/HenryFroio/farmanossa-expo-demo-sub002/internal/validation"
)

var (
	orderStatusValues = []string{
		string(types.OrderPending),
		string(types.OrderPreparing),
		string(types.OrderOutForDelivery),
		string(types.OrderDelivered),
		string(types.OrderCancelled),
	}
	runStatusValues = []string{
		string(types.RunActive),
		string(types.RunCompleted),
		string(types.RunCancelled),
	}
)

// Handler implements the API handlers
type Handler struct {
	store    store.Store
	observer *observer.StatusObserver
	apiKey   string
	version  string
}

// NewHandler creates a new Handler with store.Store interface
func NewHandler(s store.Store, obs *observer.StatusObserver, apiKey, version string) *Handler {
	return &Handler{
		store:    s,
		observer: obs,
		apiKey:   apiKey,
		version:  version,
	}
}

// Health returns the health status with per-kind sync queue depths.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	depths := make(map[string]int64, 2)
	for _, kind := range []types.QueueKind{types.KindOrder, types.KindDeliveryRun} {
		depth, err := h.store.QueueDepth(r.Context(), kind)
		if err != nil {
			WriteProblem(w, r, http.StatusServiceUnavailable, "Store unreachable")
			return
		}
		depths[string(kind)] = depth
	}

	resp := types.HealthResponse{
		Status:      "healthy",
		Version:     h.version,
		QueueDepths: depths,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// UpsertOrder handles POST /api/v1/orders
func (h *Handler) UpsertOrder(w http.ResponseWriter, r *http.Request) {
	var o types.Order
	if err := json.NewDecoder(r.Body).Decode(&o); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	var c validation.Collector
	validation.ValidateIdentifier(&c, "id", o.ID)
	if o.Status != "" {
		c.Add(validation.ValidateEnum("status", string(o.Status), orderStatusValues))
	}
	if c.HasErrors() {
		WriteProblemWithErrors(w, r, "Order contains invalid fields", c.Errors())
		return
	}

	if err := h.store.PutOrder(r.Context(), &o); err != nil {
		slog.Error("order upsert failed", "component", "api", "order_id", o.ID, "error", err)
		MapStoreError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(types.UpsertResponse{ID: o.ID})
}

// UpdateOrderStatus handles POST /api/v1/orders/{id}/status. It persists the
// transition (status plus appended history event) and then invokes the status
// observer, which enqueues sync work for terminal transitions.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req types.StatusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	var c validation.Collector
	validation.ValidateIdentifier(&c, "id", id)
	c.Add(validation.ValidateEnum("status", req.Status, orderStatusValues))
	if c.HasErrors() {
		WriteProblemWithErrors(w, r, "Status transition contains invalid fields", c.Errors())
		return
	}

	status := types.OrderStatus(req.Status)
	if err := h.store.AppendOrderStatus(r.Context(), id, status, time.Now().UTC()); err != nil {
		MapStoreError(w, r, err)
		return
	}

	queued, err := h.observer.OrderStatusChanged(r.Context(), id, status)
	if err != nil {
		// Transition is persisted; only the sync enqueue failed.
		slog.Error("sync enqueue failed after order transition",
			"component", "api",
			"order_id", id,
			"status", req.Status,
			"error", err,
		)
		WriteProblem(w, r, http.StatusInternalServerError, "Transition stored but sync scheduling failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(types.StatusUpdateResponse{ID: id, Status: req.Status, Queued: queued})
}

// UpsertRun handles POST /api/v1/runs
func (h *Handler) UpsertRun(w http.ResponseWriter, r *http.Request) {
	var run types.DeliveryRun
	if err := json.NewDecoder(r.Body).Decode(&run); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	var c validation.Collector
	validation.ValidateIdentifier(&c, "id", run.ID)
	if run.Status != "" {
		c.Add(validation.ValidateEnum("status", string(run.Status), runStatusValues))
	}
	if c.HasErrors() {
		WriteProblemWithErrors(w, r, "Delivery run contains invalid fields", c.Errors())
		return
	}

	if err := h.store.PutDeliveryRun(r.Context(), &run); err != nil {
		slog.Error("run upsert failed", "component", "api", "run_id", run.ID, "error", err)
		MapStoreError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(types.UpsertResponse{ID: run.ID})
}

// UpdateRunStatus handles POST /api/v1/runs/{id}/status.
func (h *Handler) UpdateRunStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req types.StatusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	var c validation.Collector
	validation.ValidateIdentifier(&c, "id", id)
	c.Add(validation.ValidateEnum("status", req.Status, runStatusValues))
	if c.HasErrors() {
		WriteProblemWithErrors(w, r, "Status transition contains invalid fields", c.Errors())
		return
	}

	status := types.RunStatus(req.Status)
	if err := h.store.UpdateRunStatus(r.Context(), id, status, time.Now().UTC()); err != nil {
		MapStoreError(w, r, err)
		return
	}

	queued, err := h.observer.RunStatusChanged(r.Context(), id, status)
	if err != nil {
		slog.Error("sync enqueue failed after run transition",
			"component", "api",
			"run_id", id,
			"status", req.Status,
			"error", err,
		)
		WriteProblem(w, r, http.StatusInternalServerError, "Transition stored but sync scheduling failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(types.StatusUpdateResponse{ID: id, Status: req.Status, Queued: queued})
}

// UpsertMotorcycle handles POST /api/v1/motorcycles, seeding the vehicle
// registry used for license plate resolution.
func (h *Handler) UpsertMotorcycle(w http.ResponseWriter, r *http.Request) {
	var m types.Motorcycle
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	var c validation.Collector
	validation.ValidateIdentifier(&c, "id", m.ID)
	c.Add(validation.ValidateRequired("plate", m.Plate))
	if c.HasErrors() {
		WriteProblemWithErrors(w, r, "Motorcycle contains invalid fields", c.Errors())
		return
	}

	if err := h.store.PutMotorcycle(r.Context(), &m); err != nil {
		slog.Error("motorcycle upsert failed", "component", "api", "motorcycle_id", m.ID, "error", err)
		MapStoreError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(types.UpsertResponse{ID: m.ID})
}
