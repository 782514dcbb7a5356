// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fetch outcomes used as the result label
const (
	ResultOK     = "ok"
	ResultFailed = "failed"
)

var (
	FetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tangleview_fetch_total",
		Help: "Snapshot fetches by result",
	}, []string{"result"})

	FetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tangleview_fetch_duration_seconds",
		Help:    "Duration of snapshot fetches",
		Buckets: prometheus.DefBuckets,
	})

	MergeAddedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tangleview_merge_added_total",
		Help: "Nodes created by snapshot merges",
	})

	Nodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tangleview_nodes",
		Help: "Nodes currently in the layout",
	})

	Edges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tangleview_edges",
		Help: "Edges currently in the layout",
	})

	FrameSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tangleview_frame_seconds",
		Help:    "Time spent simulating and drawing one frame",
		Buckets: []float64{.001, .0025, .005, .01, .016, .025, .05, .1},
	})

	NudgesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tangleview_nudges_total",
		Help: "Fetches triggered by block events",
	})

	DemoBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tangleview_demo_blocks_total",
		Help: "Blocks generated by the demo feed",
	})

	DemoRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tangleview_demo_requests_total",
		Help: "Requests served by the demo feed by route",
	}, []string{"route"})
)

// ObserveFetch records one fetch outcome and its duration
func ObserveFetch(started time.Time, err error) {
	FetchDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		FetchTotal.WithLabelValues(ResultFailed).Inc()
		return
	}
	FetchTotal.WithLabelValues(ResultOK).Inc()
}

// ObserveLayout records the layout size after a merge
func ObserveLayout(added, nodes, edges int) {
	MergeAddedTotal.Add(float64(added))
	Nodes.Set(float64(nodes))
	Edges.Set(float64(edges))
}

// Handler returns the /metrics handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr until ctx is done. An empty addr does
// nothing.
func Serve(ctx context.Context, addr string) error {
	if addr == "" {
		<-ctx.Done()
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("metrics: serving on %s/metrics", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
