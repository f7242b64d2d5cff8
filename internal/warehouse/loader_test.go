package warehouse

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func acceptedJob(t *testing.T, status int) (*httptest.Server, *LoadJob) {
	t.Helper()
	var received LoadJob
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/jobs/load" {
			t.Errorf("path = %q, want /v1/jobs/load", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &received); err != nil {
			t.Errorf("request body not valid JSON: %v", err)
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &received
}

func TestSubmitAppend_Accepted(t *testing.T) {
	srv, received := acceptedJob(t, http.StatusAccepted)
	loader := NewHTTPLoader(srv.URL, "secret")

	job := LoadJob{
		Table:        "orders",
		SourceObject: "staging/orders/x.ndjson",
		Format:       FormatNDJSON,
		Mode:         ModeAppend,
		Schema:       OrderSchema(),
	}
	if err := loader.SubmitAppend(context.Background(), job); err != nil {
		t.Fatalf("SubmitAppend failed: %v", err)
	}

	if received.Table != "orders" || received.Mode != ModeAppend {
		t.Errorf("received job = %+v", received)
	}
	if len(received.Schema) != len(OrderSchema()) {
		t.Errorf("schema has %d columns, want %d", len(received.Schema), len(OrderSchema()))
	}
}

func TestSubmitAppend_Rejected(t *testing.T) {
	srv, _ := acceptedJob(t, http.StatusBadRequest)
	loader := NewHTTPLoader(srv.URL, "")

	job := LoadJob{Table: "orders", SourceObject: "staging/orders/x.ndjson", Format: FormatNDJSON, Mode: ModeAppend}
	if err := loader.SubmitAppend(context.Background(), job); err == nil {
		t.Error("SubmitAppend with 400 response succeeded, want error")
	}
}

func TestSubmitAppend_MissingFields(t *testing.T) {
	loader := NewHTTPLoader("http://unused", "")

	if err := loader.SubmitAppend(context.Background(), LoadJob{SourceObject: "x"}); err == nil {
		t.Error("job without table accepted, want error")
	}
	if err := loader.SubmitAppend(context.Background(), LoadJob{Table: "orders"}); err == nil {
		t.Error("job without source object accepted, want error")
	}
}

func TestSchemas_RequiredColumns(t *testing.T) {
	orderRequired := map[string]bool{"order_id": true, "created_at": true}
	for _, col := range OrderSchema() {
		if orderRequired[col.Name] && col.Mode != "REQUIRED" {
			t.Errorf("orders column %s mode = %s, want REQUIRED", col.Name, col.Mode)
		}
	}

	runRequired := map[string]bool{
		"run_id": true, "deliveryman_id": true, "pharmacy_unit_id": true,
		"start_time": true, "total_distance": true, "status": true,
	}
	for _, col := range RunSchema() {
		if runRequired[col.Name] && col.Mode != "REQUIRED" {
			t.Errorf("runs column %s mode = %s, want REQUIRED", col.Name, col.Mode)
		}
	}

	// order_ids is the one repeated column
	for _, col := range RunSchema() {
		if col.Name == "order_ids" && col.Mode != "REPEATED" {
			t.Errorf("order_ids mode = %s, want REPEATED", col.Mode)
		}
	}
}
