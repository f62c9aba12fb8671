package cli

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthStatus is the /health payload.
type HealthStatus struct {
	Status     string    `json:"status"`
	Source     string    `json:"source,omitempty"`
	Dialect    string    `json:"dialect,omitempty"`
	LastIngest time.Time `json:"last_ingest"`
	Lines      int       `json:"lines"`
	Commands   int       `json:"commands"`
	LastError  string    `json:"last_error,omitempty"`
}

// healthState tracks the latest refresh of a watch session.
type healthState struct {
	mu     sync.Mutex
	status HealthStatus
}

func newHealthState(source string) *healthState {
	return &healthState{status: HealthStatus{Status: "starting", Source: source}}
}

func (h *healthState) record(snap snapshot, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err != nil {
		h.status.Status = "degraded"
		h.status.LastError = err.Error()
		return
	}
	h.status = HealthStatus{
		Status:     "up",
		Source:     snap.source,
		Dialect:    snap.result.Dialect.String(),
		LastIngest: time.Now().UTC(),
		Lines:      snap.result.Lines,
		Commands:   len(snap.result.Counts),
	}
}

func (h *healthState) Check() HealthStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

type ObservabilityServer struct {
	addr   string
	health *healthState
	server *http.Server
	ln     net.Listener
}

func NewObservabilityServer(addr string, health *healthState) *ObservabilityServer {
	return &ObservabilityServer{
		addr:   addr,
		health: health,
	}
}

func (s *ObservabilityServer) handler() http.Handler {
	mux := http.NewServeMux()

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status := s.health.Check()
		w.Header().Set("Content-Type", "application/json")
		if status.Status != "up" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(status)
	})
	return mux
}

// Start binds the address and serves in the background. Bind failures are
// returned.
func (s *ObservabilityServer) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.server = &http.Server{
		Handler:           s.handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	slog.Info("observability server starting", "addr", ln.Addr().String())

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("observability server failed", "error", err)
		}
	}()

	return nil
}

// Addr is the bound address, useful when started on port 0.
func (s *ObservabilityServer) Addr() string {
	if s.ln == nil {
		return s.addr
	}
	return s.ln.Addr().String()
}

func (s *ObservabilityServer) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
