// Package status exposes a small gorilla/mux-routed HTTP surface
// reporting poll loop and snapshot state, adapted from the teacher
// pack's metrics collector pattern but trimmed to two JSON endpoints:
// GET /status and GET /logs.
package status

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/tamzrod/modbusctl/internal/logging"
)

// Source supplies the values the status endpoint reports. *poll.Loop
// and *snapshot.Store satisfy the pieces of this directly; main wires
// them together.
type Source struct {
	State       func() string
	Revision    func() uint64
	BurstCounts func() (ok, failed uint64)
	startTime   time.Time
}

// NewSource records the process start time used to compute uptime.
func NewSource(state func() string, revision func() uint64, counts func() (uint64, uint64)) *Source {
	return &Source{State: state, Revision: revision, BurstCounts: counts, startTime: time.Now()}
}

type response struct {
	State        string  `json:"state"`
	Revision     uint64  `json:"revision"`
	UptimeSecs   float64 `json:"uptime"`
	BurstsOK     uint64  `json:"bursts_ok"`
	BurstsFailed uint64  `json:"bursts_failed"`
}

// Server is the optional HTTP surface started when metrics.enabled is
// set in config.
type Server struct {
	src  *Source
	ring *logging.Ring
	log  *zap.Logger
	srv  *http.Server
}

// New builds a Server bound to addr, not yet listening. ring may be nil,
// in which case GET /logs reports an empty list.
func New(addr string, src *Source, ring *logging.Ring, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{src: src, ring: ring, log: log}

	r := mux.NewRouter()
	r.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/logs", s.handleLogs).Methods(http.MethodGet)

	s.srv = &http.Server{Addr: addr, Handler: r}
	return s
}

// Start begins listening in a background goroutine. Errors after
// startup are logged, not returned, matching the teacher's fire-and-log
// metrics server pattern.
func (s *Server) Start() {
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("status server error", zap.Error(err))
		}
	}()
}

// Close stops the HTTP server.
func (s *Server) Close() error {
	return s.srv.Close()
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ok, failed := s.src.BurstCounts()
	resp := response{
		State:        s.src.State(),
		Revision:     s.src.Revision(),
		UptimeSecs:   time.Since(s.src.startTime).Seconds(),
		BurstsOK:     ok,
		BurstsFailed: failed,
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// handleLogs serves the most recent in-memory log records, for an
// external log viewer to tail without access to stdout.
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	records := []logging.Record{}
	if s.ring != nil {
		records = s.ring.Snapshot()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(records)
}
