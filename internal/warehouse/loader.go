// Package warehouse submits bulk append load jobs against the analytical
// store. The warehouse itself is a black box behind a REST load-job boundary;
// this package only knows how to describe a job and get it accepted.
package warehouse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Load formats and write modes. Append is the only mode the sync engine ever
// uses: the warehouse tables are append-only and duplicates are accepted.
const (
	FormatNDJSON = "NEWLINE_DELIMITED_JSON"
	ModeAppend   = "WRITE_APPEND"
)

// Column pins one destination column. Mode is REQUIRED, NULLABLE or REPEATED.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Mode string `json:"mode"`
}

// LoadJob describes one bulk load: which staged artifact feeds which table,
// with the full column schema declared so the warehouse never infers types
// from NDJSON content.
type LoadJob struct {
	Table        string   `json:"table"`
	SourceObject string   `json:"source_object"`
	Format       string   `json:"format"`
	Mode         string   `json:"mode"`
	Schema       []Column `json:"schema"`
}

// Loader submits load jobs.
//
// SubmitAppend is fire-and-forget past acceptance: it returns once the
// warehouse has accepted the job, and the job's eventual completion is
// deliberately never tracked or awaited by any caller.
type Loader interface {
	SubmitAppend(ctx context.Context, job LoadJob) error
}

// HTTPLoader submits load jobs to the warehouse's REST load endpoint.
type HTTPLoader struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// Compile-time interface check
var _ Loader = (*HTTPLoader)(nil)

// NewHTTPLoader creates a loader targeting baseURL.
func NewHTTPLoader(baseURL, apiKey string) *HTTPLoader {
	return &HTTPLoader{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// SubmitAppend posts the job and treats any 2xx as acceptance. The response
// body (job id, state) is intentionally discarded.
func (l *HTTPLoader) SubmitAppend(ctx context.Context, job LoadJob) error {
	if job.Table == "" || job.SourceObject == "" {
		return fmt.Errorf("load job missing table or source object")
	}

	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode load job: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/v1/jobs/load", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build load request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if l.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+l.apiKey)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("submit load job: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("load job rejected: status %d", resp.StatusCode)
	}
	return nil
}
