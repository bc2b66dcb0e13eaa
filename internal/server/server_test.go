package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/picforge/pkg/design"
	"github.com/matzehuels/picforge/pkg/gds"
	"github.com/matzehuels/picforge/pkg/observability"
	"github.com/matzehuels/picforge/pkg/pipeline"
	"github.com/matzehuels/picforge/pkg/tech"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(pipeline.NewRunner(nil, nil, nil), tech.Default(), nil).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestCells(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/api/v1/cells")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var cells []CellInfo
	if err := json.NewDecoder(resp.Body).Decode(&cells); err != nil {
		t.Fatal(err)
	}
	want := map[string]bool{
		design.CellGC:      false,
		design.CellYBranch: false,
		design.CellTaper:   false,
		design.CellSpiral:  false,
	}
	for _, c := range cells {
		if _, ok := want[c.Name]; ok {
			want[c.Name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("cell %s not listed", name)
		}
	}
}

func TestWaveguides(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/api/v1/waveguides")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var wgs []tech.Waveguide
	if err := json.NewDecoder(resp.Body).Decode(&wgs); err != nil {
		t.Fatal(err)
	}
	if len(wgs) != len(tech.Default().Waveguides) {
		t.Errorf("got %d waveguides, want %d", len(wgs), len(tech.Default().Waveguides))
	}
}

func TestBuild(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Post(srv.URL+"/api/v1/build", "application/json",
		strings.NewReader(`{"designer": "Alice"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var out BuildResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if _, err := uuid.Parse(out.RunID); err != nil {
		t.Errorf("run id %q: %v", out.RunID, err)
	}
	if out.RunID != resp.Header.Get(RequestIDHeader) {
		t.Errorf("run id %q differs from header", out.RunID)
	}
	if out.Top != "EBeam_Alice_MZI" || out.ErrorCount != 0 {
		t.Errorf("top = %q, errors = %d", out.Top, out.ErrorCount)
	}

	ly, err := gds.Read(bytes.NewReader(out.GDS), tech.Default())
	if err != nil {
		t.Fatalf("decode GDS: %v", err)
	}
	if _, ok := ly.Cell("EBeam_Alice_MZI"); !ok {
		t.Error("top cell missing from GDS")
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"malformed", `{"designer":`, http.StatusBadRequest, "INVALID_INPUT"},
		{"unknown field", `{"colour": "red"}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"bad export type", `{"export_type": "oasis"}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"old engine", `{"engine": "0.5.0"}`, http.StatusUnprocessableEntity, "VERSION_UNSUPPORTED"},
	}

	srv := newTestServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/api/v1/build", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			var out ErrorResponse
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				t.Fatal(err)
			}
			if out.Code != tt.code || out.Error == "" {
				t.Errorf("error = %+v, want code %s", out, tt.code)
			}
		})
	}
}

func TestRequestIDReused(t *testing.T) {
	srv := newTestServer(t)
	id := uuid.NewString()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/health", nil)
	req.Header.Set(RequestIDHeader, id)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(RequestIDHeader); got != id {
		t.Errorf("request id = %q, want %q", got, id)
	}

	req.Header.Set(RequestIDHeader, "not-a-uuid")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(RequestIDHeader); got == "not-a-uuid" {
		t.Error("invalid request id should be replaced")
	}
}

type recordingHooks struct {
	mu       sync.Mutex
	statuses []int
}

func (h *recordingHooks) OnRequest(context.Context, string, string) {}

func (h *recordingHooks) OnResponse(_ context.Context, _, _ string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.statuses = append(h.statuses, status)
}

func (h *recordingHooks) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.statuses)
}

func TestServerHooks(t *testing.T) {
	h := &recordingHooks{}
	observability.SetServerHooks(h)
	t.Cleanup(observability.Reset)

	srv := newTestServer(t)
	for _, path := range []string{"/api/v1/health", "/api/v1/missing"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
	}

	// The hook fires after the response is flushed.
	deadline := time.Now().Add(time.Second)
	for h.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.statuses) != 2 || h.statuses[0] != http.StatusOK || h.statuses[1] != http.StatusNotFound {
		t.Errorf("statuses = %v", h.statuses)
	}
}
