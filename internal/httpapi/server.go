package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/http/pprof"
	"sync"
	"time"

	"github.com/you/fakechat/internal/core"
)

// Store is the archived-message backend, usually the SQLite sink.
type Store interface {
	CountMessages(ctx context.Context, filters Filters) (int64, error)
	ListMessages(ctx context.Context, filters Filters) ([]core.StoredEvent, error)
}

// Controller drives the live simulation behind the control endpoints.
type Controller interface {
	Start()
	Stop()
	Running() bool
	Clear()
	Recent(n int) []core.ChatEvent
	Viewers() int
}

type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	store      Store
	ctrl       Controller
	opts       Options
	metrics    *Metrics
	limiter    *ipRateLimiter
	cors       *corsPolicy

	mu      sync.Mutex
	clients map[chan core.StoredEvent]struct{}
	closed  bool
}

type Options struct {
	Addr            string
	CORSOrigins     []string
	RateLimitRPS    int
	RateLimitBurst  int
	EnableMetrics   bool
	EnableAccessLog bool
	EnablePprof     bool
	DisableGzip     bool
	Build           BuildInfo
	// ConfigSnapshot returns the effective configuration for /config.
	ConfigSnapshot func() map[string]any
	// Scenarios lists the selectable scenario presets for /scenarios.
	Scenarios []string
}

func New(store Store, ctrl Controller, opts Options) *Server {
	srv := &Server{
		store:   store,
		ctrl:    ctrl,
		opts:    opts,
		clients: make(map[chan core.StoredEvent]struct{}),
		limiter: newIPRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst),
		cors:    newCORSPolicy(opts.CORSOrigins),
	}
	if opts.EnableMetrics {
		srv.metrics = newMetrics()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", srv.wrap("/healthz", srv.handleHealthz))
	mux.HandleFunc("/info", srv.wrap("/info", srv.handleInfo))
	mux.HandleFunc("/config", srv.wrap("/config", srv.handleConfig))
	mux.HandleFunc("/scenarios", srv.wrap("/scenarios", srv.handleScenarios))
	mux.HandleFunc("/count", srv.wrap("/count", srv.handleCount))
	mux.HandleFunc("/messages", srv.wrap("/messages", srv.handleMessages))
	mux.HandleFunc("/recent", srv.wrap("/recent", srv.handleRecent))
	mux.HandleFunc("/stream", srv.wrap("/stream", srv.handleStream))
	mux.HandleFunc("/ws", srv.wrap("/ws", srv.handleWS))
	mux.HandleFunc("/sim/start", srv.wrap("/sim/start", srv.handleSimStart))
	mux.HandleFunc("/sim/stop", srv.wrap("/sim/stop", srv.handleSimStop))
	mux.HandleFunc("/sim/clear", srv.wrap("/sim/clear", srv.handleSimClear))
	mux.HandleFunc("/sim/status", srv.wrap("/sim/status", srv.handleSimStatus))
	if srv.metrics != nil {
		mux.Handle("/metrics", srv.metrics.Handler())
	}
	if opts.EnablePprof {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	srv.mux = mux
	srv.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return srv
}

// Mux exposes the underlying mux so callers can register extra routes
// before Start.
func (s *Server) Mux() *http.ServeMux { return s.mux }

// Metrics exposes the collectors for out-of-band observations (nil when
// metrics are disabled; all methods tolerate a nil receiver).
func (s *Server) Metrics() *Metrics { return s.metrics }

// wrap applies rate limiting, CORS, gzip and access metrics to a route.
func (s *Server) wrap(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if handled, status := s.cors.handlePreflight(w, r); handled {
			s.metrics.ObserveRequest(route, r.Method, status, 0)
			return
		}
		if !s.cors.applyHeaders(w, r) {
			http.Error(w, "origin not allowed", http.StatusForbidden)
			return
		}
		if !s.limiter.Allow(remoteIP(r)) {
			s.metrics.IncRateLimited()
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		rec := newResponseRecorder(w)
		start := time.Now()
		if !s.opts.DisableGzip {
			if gz, ok := maybeGzip(rec, r); ok {
				defer gz.Close()
			}
		}
		h(rec, r)
		dur := time.Since(start)
		s.metrics.ObserveRequest(route, r.Method, rec.Status(), dur)
		if s.opts.EnableAccessLog {
			log.Printf("http %s %s %d %dB %s", r.Method, r.URL.Path, rec.Status(), rec.Bytes(), dur)
		}
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	snapshot := map[string]any{}
	if s.opts.ConfigSnapshot != nil {
		snapshot = s.opts.ConfigSnapshot()
	}
	writeJSON(w, snapshot)
}

func (s *Server) handleScenarios(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{"scenarios": s.opts.Scenarios})
}

func (s *Server) handleCount(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "archive disabled", http.StatusNotFound)
		return
	}
	filters, err := FiltersFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	count, err := s.store.CountMessages(r.Context(), filters)
	if err != nil {
		http.Error(w, "count error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"count": count})
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "archive disabled", http.StatusNotFound)
		return
	}
	filters, err := FiltersFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	rows, err := s.store.ListMessages(r.Context(), filters)
	if err != nil {
		http.Error(w, "list error", http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []core.StoredEvent{}
	}
	writeJSON(w, rows)
}

// handleRecent serves the in-memory tail of the live session, no
// archive required.
func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	if s.ctrl == nil {
		http.Error(w, "simulator not attached", http.StatusNotFound)
		return
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := parsePositive(raw); err == nil {
			limit = n
		}
	}
	events := s.ctrl.Recent(limit)
	if events == nil {
		events = []core.ChatEvent{}
	}
	writeJSON(w, events)
}

func (s *Server) handleSimStart(w http.ResponseWriter, r *http.Request) {
	if !s.requireControl(w, r) {
		return
	}
	s.ctrl.Start()
	writeJSON(w, map[string]any{"running": s.ctrl.Running()})
}

func (s *Server) handleSimStop(w http.ResponseWriter, r *http.Request) {
	if !s.requireControl(w, r) {
		return
	}
	s.ctrl.Stop()
	writeJSON(w, map[string]any{"running": s.ctrl.Running()})
}

func (s *Server) handleSimClear(w http.ResponseWriter, r *http.Request) {
	if !s.requireControl(w, r) {
		return
	}
	s.ctrl.Clear()
	writeJSON(w, map[string]any{"cleared": true})
}

func (s *Server) handleSimStatus(w http.ResponseWriter, _ *http.Request) {
	if s.ctrl == nil {
		http.Error(w, "simulator not attached", http.StatusNotFound)
		return
	}
	s.metrics.SetViewers(s.ctrl.Viewers())
	writeJSON(w, map[string]any{
		"running": s.ctrl.Running(),
		"viewers": s.ctrl.Viewers(),
	})
}

func (s *Server) requireControl(w http.ResponseWriter, r *http.Request) bool {
	if s.ctrl == nil {
		http.Error(w, "simulator not attached", http.StatusNotFound)
		return false
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}

	filters, err := FiltersFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	filters = filters.CloneForStream()

	clientCh, err := s.register()
	if err != nil {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}
	defer s.unregister(clientCh)

	s.metrics.IncSSEClients(1)
	defer s.metrics.IncSSEClients(-1)

	fmt.Fprintf(w, ":ok\n\n")
	flusher.Flush()

	ticker := time.NewTicker(20 * time.Second)
	defer ticker.Stop()

	ctx := r.Context()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fmt.Fprintf(w, ":ping\n\n")
			flusher.Flush()
		case ev, ok := <-clientCh:
			if !ok {
				return
			}
			if !filters.Matches(ev) {
				continue
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", data)
			flusher.Flush()
			s.metrics.IncMessagesSent("sse")
		}
	}
}

func (s *Server) register() (chan core.StoredEvent, error) {
	clientCh := make(chan core.StoredEvent, 256)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.New("server closed")
	}
	s.clients[clientCh] = struct{}{}
	return clientCh, nil
}

func (s *Server) unregister(ch chan core.StoredEvent) {
	s.mu.Lock()
	delete(s.clients, ch)
	s.mu.Unlock()
}

// Broadcast fans an event out to every connected stream client. Slow
// clients drop events instead of blocking the producer.
func (s *Server) Broadcast(ev core.StoredEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for ch := range s.clients {
		select {
		case ch <- ev:
		default:
			s.metrics.IncBroadcastDrops("stream")
		}
	}
}

func (s *Server) Start() error {
	log.Printf("http api listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for ch := range s.clients {
		close(ch)
	}
	s.mu.Unlock()
	return s.httpServer.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(v)
}

func parsePositive(raw string) (int, error) {
	var n int
	if _, err := fmt.Sscanf(raw, "%d", &n); err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, errors.New("must be positive")
	}
	return n, nil
}
