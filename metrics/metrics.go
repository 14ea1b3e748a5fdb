// Package metrics exposes benchmark results as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/weiihann/accelbench/harness"
)

// Recorder is a harness.Sink that keeps the latest value of every
// measurement in its own registry.
type Recorder struct {
	registry *prometheus.Registry

	Throughput     *prometheus.GaugeVec
	Latency        *prometheus.GaugeVec
	ResultsTotal   *prometheus.CounterVec
	IterationsLast *prometheus.GaugeVec
}

// NewRecorder creates and registers the benchmark metrics.
func NewRecorder() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.Throughput = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "accelbench_throughput_bytes_per_second",
			Help: "Last measured throughput per algorithm and data size",
		},
		[]string{"algorithm", "size"},
	)

	r.Latency = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "accelbench_latency_seconds",
			Help: "Last measured latency per algorithm and data size",
		},
		[]string{"algorithm", "size"},
	)

	r.ResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accelbench_results_total",
			Help: "Total number of reported results",
		},
		[]string{"algorithm", "kind"},
	)

	r.IterationsLast = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "accelbench_iterations",
			Help: "Iterations timed for the last result per algorithm",
		},
		[]string{"algorithm"},
	)

	r.registry.MustRegister(
		r.Throughput,
		r.Latency,
		r.ResultsTotal,
		r.IterationsLast,
	)

	return r
}

// Report records res.
func (r *Recorder) Report(_ context.Context, res harness.Result) error {
	size := strconv.Itoa(res.RequestedSize)

	if res.Kind == harness.KindThroughput {
		r.Throughput.WithLabelValues(res.Algorithm, size).Set(res.Throughput)
	} else {
		r.Latency.WithLabelValues(res.Algorithm, size).Set(res.Elapsed.Seconds())
	}

	r.ResultsTotal.WithLabelValues(res.Algorithm, res.Kind.String()).Inc()
	r.IterationsLast.WithLabelValues(res.Algorithm).Set(float64(res.Iterations))

	return nil
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (r *Recorder) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		logger.InfoContext(ctx, "serving metrics", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("serve metrics: %w", err)

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown metrics server: %w", err)
		}

		return nil
	}
}
