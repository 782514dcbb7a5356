package demo

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/utkarsh5026/tangleview/pkg/metrics"
	"github.com/utkarsh5026/tangleview/pkg/tangle"
)

// MaxPerPage caps the page size a client may request.
const MaxPerPage = 1000

// HealthStatus is the data returned by GET /api/health.
const HealthStatus = "healthy"

// Server exposes a Feed over the blocks API.
type Server struct {
	feed    *Feed
	metrics bool
}

// ServerOption configures a Server
type ServerOption func(*Server)

// WithMetricsRoute also serves /metrics from the same listener
func WithMetricsRoute(on bool) ServerOption {
	return func(s *Server) {
		s.metrics = on
	}
}

// NewServer creates a server backed by feed
func NewServer(feed *Feed, opts ...ServerOption) *Server {
	s := &Server{feed: feed}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP handler with every route registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	route := func(pattern string, h http.HandlerFunc) {
		counter := metrics.DemoRequestsTotal.WithLabelValues(pattern)
		mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
			counter.Inc()
			h(w, r)
		})
	}

	route("GET /api/blocks", s.handleListBlocks)
	route("GET /api/blocks/{hash}", s.handleGetBlock)
	route("POST /api/blocks", s.handleCreateBlock)
	route("GET /api/health", s.handleHealth)
	if s.metrics {
		mux.Handle("GET /metrics", metrics.Handler())
	}
	return mux
}

func (s *Server) handleListBlocks(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid page")
		return
	}
	perPage, err := queryInt(r, "per_page", tangle.DefaultPerPage)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid per_page")
		return
	}
	perPage = min(perPage, MaxPerPage)

	writeJSON(w, http.StatusOK, s.feed.Page(page, perPage))
}

func (s *Server) handleGetBlock(w http.ResponseWriter, r *http.Request) {
	hash := r.PathValue("hash")
	block, ok := s.feed.Block(hash)
	if !ok {
		writeError(w, http.StatusNotFound, "block not found: "+hash)
		return
	}
	writeJSON(w, http.StatusOK, block)
}

func (s *Server) handleCreateBlock(w http.ResponseWriter, r *http.Request) {
	var reading tangle.SensorReading
	if err := json.NewDecoder(r.Body).Decode(&reading); err != nil {
		writeError(w, http.StatusBadRequest, "invalid sensor data: "+err.Error())
		return
	}

	block, err := s.feed.Add(r.Context(), reading)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, block)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthStatus)
}

// Serve listens on addr and grows the feed every interval until ctx is
// done. A non-positive interval serves a static feed.
func (s *Server) Serve(ctx context.Context, addr string, interval time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("demo: serving %d blocks on %s%s", s.feed.Len(), addr, tangle.APIPrefix)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if interval > 0 {
		g.Go(func() error {
			return s.feed.Run(ctx, interval)
		})
	}

	return g.Wait()
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errors.New("must be a positive integer")
	}
	return n, nil
}

func writeJSON[T any](w http.ResponseWriter, status int, data T) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(tangle.Response[T]{Success: true, Data: &data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(tangle.Response[struct{}]{Success: false, Error: msg})
}
