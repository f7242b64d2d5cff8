package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/HenryFroio/farmanossa-expo-demo-sub002/internal/observer"
	"github.com/HenryFroio/farmanossa-expo-demo-sub002/internal/store"
	"github.com/HenryFroio/farmanossa-expo-demo-sub002/internal/types"
)

const testAPIKey = "test-api-key"

// mockStore implements store.Store in memory for handler tests.
type mockStore struct {
	orders      map[string]*types.Order
	runs        map[string]*types.DeliveryRun
	motorcycles map[string]*types.Motorcycle
	queue       []types.QueueEntry

	depthErr error
}

func newMockStore() *mockStore {
	return &mockStore{
		orders:      make(map[string]*types.Order),
		runs:        make(map[string]*types.DeliveryRun),
		motorcycles: make(map[string]*types.Motorcycle),
	}
}

func (m *mockStore) PutOrder(ctx context.Context, o *types.Order) error {
	m.orders[o.ID] = o
	return nil
}

func (m *mockStore) GetOrder(ctx context.Context, id string) (*types.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return o, nil
}

func (m *mockStore) AppendOrderStatus(ctx context.Context, id string, status types.OrderStatus, at time.Time) error {
	o, ok := m.orders[id]
	if !ok {
		return store.ErrNotFound
	}
	o.Status = status
	o.StatusHistory = append(o.StatusHistory, types.StatusEvent{Status: status, Timestamp: at})
	return nil
}

func (m *mockStore) PutDeliveryRun(ctx context.Context, run *types.DeliveryRun) error {
	m.runs[run.ID] = run
	return nil
}

func (m *mockStore) GetDeliveryRun(ctx context.Context, id string) (*types.DeliveryRun, error) {
	run, ok := m.runs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return run, nil
}

func (m *mockStore) UpdateRunStatus(ctx context.Context, id string, status types.RunStatus, at time.Time) error {
	run, ok := m.runs[id]
	if !ok {
		return store.ErrNotFound
	}
	run.Status = status
	if status.Terminal() && run.EndTime == nil {
		run.EndTime = &at
	}
	return nil
}

func (m *mockStore) PutMotorcycle(ctx context.Context, moto *types.Motorcycle) error {
	m.motorcycles[moto.ID] = moto
	return nil
}

func (m *mockStore) GetMotorcycle(ctx context.Context, id string) (*types.Motorcycle, error) {
	moto, ok := m.motorcycles[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return moto, nil
}

func (m *mockStore) EnqueueSync(ctx context.Context, kind types.QueueKind, referenceID string) (*types.QueueEntry, error) {
	entry := types.QueueEntry{ID: "entry-1", Kind: kind, ReferenceID: referenceID, QueuedAt: time.Now().UTC()}
	m.queue = append(m.queue, entry)
	return &entry, nil
}

func (m *mockStore) HasUnprocessedEntry(ctx context.Context, kind types.QueueKind, referenceID string) (bool, error) {
	for _, e := range m.queue {
		if e.Kind == kind && e.ReferenceID == referenceID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockStore) UnprocessedEntries(ctx context.Context, kind types.QueueKind, limit int) ([]types.QueueEntry, error) {
	var out []types.QueueEntry
	for _, e := range m.queue {
		if e.Kind == kind && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockStore) DeleteQueueEntries(ctx context.Context, ids []string) error {
	return nil
}

func (m *mockStore) QueueDepth(ctx context.Context, kind types.QueueKind) (int64, error) {
	if m.depthErr != nil {
		return 0, m.depthErr
	}
	var n int64
	for _, e := range m.queue {
		if e.Kind == kind {
			n++
		}
	}
	return n, nil
}

func (m *mockStore) Close() error { return nil }

func newTestServer(t *testing.T, s *mockStore) *httptest.Server {
	t.Helper()
	h := NewHandler(s, observer.NewStatusObserver(s), testAPIKey, "test")
	srv := httptest.NewServer(NewRouter(h))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, body string, authed bool) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer "+testAPIKey)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func TestHealth_ReportsQueueDepths(t *testing.T) {
	s := newMockStore()
	s.queue = []types.QueueEntry{
		{ID: "e1", Kind: types.KindOrder, ReferenceID: "o1"},
		{ID: "e2", Kind: types.KindOrder, ReferenceID: "o2"},
		{ID: "e3", Kind: types.KindDeliveryRun, ReferenceID: "r1"},
	}
	srv := newTestServer(t, s)

	resp, err := http.Get(srv.URL + "/api/v1/health")
	if err != nil {
		t.Fatalf("GET /health failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var health types.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health.Status != "healthy" {
		t.Errorf("Status = %q, want healthy", health.Status)
	}
	if health.QueueDepths["order"] != 2 || health.QueueDepths["delivery_run"] != 1 {
		t.Errorf("QueueDepths = %v, want order:2 delivery_run:1", health.QueueDepths)
	}
}

func TestHealth_StoreUnreachable(t *testing.T) {
	s := newMockStore()
	s.depthErr = context.DeadlineExceeded
	srv := newTestServer(t, s)

	resp, err := http.Get(srv.URL + "/api/v1/health")
	if err != nil {
		t.Fatalf("GET /health failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}

func TestAuth_MissingOrWrongToken(t *testing.T) {
	srv := newTestServer(t, newMockStore())

	// No token
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/orders", `{"id":"o1"}`, false)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", resp.StatusCode)
	}

	// Wrong token
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/orders", strings.NewReader(`{"id":"o1"}`))
	req.Header.Set("Authorization", "Bearer wrong-key")
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusUnauthorized {
		t.Errorf("wrong token: status = %d, want 401", resp2.StatusCode)
	}
}

func TestUpsertOrder(t *testing.T) {
	s := newMockStore()
	srv := newTestServer(t, s)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/orders",
		`{"id":"order-1","status":"pending","customer_name":"Maria"}`, true)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if _, ok := s.orders["order-1"]; !ok {
		t.Error("order not stored")
	}
}

func TestUpsertOrder_Invalid(t *testing.T) {
	srv := newTestServer(t, newMockStore())

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing id", `{"status":"pending"}`, http.StatusUnprocessableEntity},
		{"unknown status", `{"id":"o1","status":"shipped"}`, http.StatusUnprocessableEntity},
		{"malformed json", `{"id":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/orders", tt.body, true)
			resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestUpdateOrderStatus_TerminalTransitionQueues(t *testing.T) {
	s := newMockStore()
	s.orders["order-1"] = &types.Order{ID: "order-1", Status: types.OrderOutForDelivery}
	srv := newTestServer(t, s)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/orders/order-1/status", `{"status":"delivered"}`, true)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var result types.StatusUpdateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !result.Queued {
		t.Error("terminal transition did not queue sync work")
	}

	o := s.orders["order-1"]
	if o.Status != types.OrderDelivered {
		t.Errorf("order status = %q, want delivered", o.Status)
	}
	if len(o.StatusHistory) != 1 || o.StatusHistory[0].Status != types.OrderDelivered {
		t.Errorf("status history = %v, want one delivered event", o.StatusHistory)
	}
	if len(s.queue) != 1 || s.queue[0].Kind != types.KindOrder || s.queue[0].ReferenceID != "order-1" {
		t.Errorf("queue = %v, want one order entry for order-1", s.queue)
	}
}

func TestUpdateOrderStatus_NonTerminalDoesNotQueue(t *testing.T) {
	s := newMockStore()
	s.orders["order-1"] = &types.Order{ID: "order-1", Status: types.OrderPending}
	srv := newTestServer(t, s)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/orders/order-1/status", `{"status":"preparing"}`, true)
	defer resp.Body.Close()

	var result types.StatusUpdateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Queued {
		t.Error("non-terminal transition queued sync work")
	}
	if len(s.queue) != 0 {
		t.Errorf("queue = %v, want empty", s.queue)
	}
}

func TestUpdateOrderStatus_UnknownOrder(t *testing.T) {
	srv := newTestServer(t, newMockStore())

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/orders/ghost/status", `{"status":"delivered"}`, true)
	resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestUpdateOrderStatus_InvalidStatus(t *testing.T) {
	s := newMockStore()
	s.orders["order-1"] = &types.Order{ID: "order-1", Status: types.OrderPending}
	srv := newTestServer(t, s)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/orders/order-1/status", `{"status":"lost"}`, true)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("Content-Type = %q, want application/problem+json", ct)
	}
}

func TestUpdateRunStatus_CompletedQueuesAndStampsEndTime(t *testing.T) {
	s := newMockStore()
	s.runs["run-1"] = &types.DeliveryRun{ID: "run-1", Status: types.RunActive, StartTime: time.Now().UTC()}
	srv := newTestServer(t, s)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/runs/run-1/status", `{"status":"completed"}`, true)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var result types.StatusUpdateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !result.Queued {
		t.Error("completed run did not queue sync work")
	}

	run := s.runs["run-1"]
	if run.Status != types.RunCompleted {
		t.Errorf("run status = %q, want completed", run.Status)
	}
	if run.EndTime == nil {
		t.Error("end time not stamped on terminal transition")
	}
}

func TestUpsertRunAndMotorcycle(t *testing.T) {
	s := newMockStore()
	srv := newTestServer(t, s)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/runs",
		`{"id":"run-1","delivery_man_id":"dm-1","pharmacy_unit_id":"unit-1","order_ids":["o1"],"status":"active","start_time":"2026-03-10T12:00:00Z"}`, true)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("run upsert status = %d, want 200", resp.StatusCode)
	}
	if _, ok := s.runs["run-1"]; !ok {
		t.Error("run not stored")
	}

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/v1/motorcycles", `{"id":"moto-1","plate":"ABC1D23"}`, true)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("motorcycle upsert status = %d, want 200", resp.StatusCode)
	}
	if _, ok := s.motorcycles["moto-1"]; !ok {
		t.Error("motorcycle not stored")
	}

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/v1/motorcycles", `{"id":"moto-2"}`, true)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("plateless motorcycle status = %d, want 422", resp.StatusCode)
	}
}

func TestMetricsEndpointIsPublic(t *testing.T) {
	srv := newTestServer(t, newMockStore())

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}
