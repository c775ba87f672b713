package status

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
)

func TestHandleStatus_ReportsSource(t *testing.T) {
	src := NewSource(
		func() string { return "Polling" },
		func() uint64 { return 7 },
		func() (uint64, uint64) { return 3, 1 },
	)
	s := &Server{src: src}

	r := mux.NewRouter()
	r.HandleFunc("/status", s.handleStatus)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp response
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.State != "Polling" || resp.Revision != 7 || resp.BurstsOK != 3 || resp.BurstsFailed != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestHandleLogs_EmptyRingReturnsEmptyArray(t *testing.T) {
	s := &Server{}

	r := mux.NewRouter()
	r.HandleFunc("/logs", s.handleLogs)

	req := httptest.NewRequest(http.MethodGet, "/logs", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Body.String() != "[]\n" {
		t.Fatalf("expected empty json array for nil ring, got %q", w.Body.String())
	}
}
