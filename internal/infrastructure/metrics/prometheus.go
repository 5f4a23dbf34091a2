// Package metrics exports console action and backend request metrics to
// Prometheus.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

// ExporterConfig holds configuration for the Prometheus exporter.
type ExporterConfig struct {
	// Addr is the listen address for the metrics endpoint.
	// Default: :9091
	Addr string

	// Path is the URL path for the metrics endpoint.
	// Default: /metrics
	Path string

	// Namespace prefixes every metric name.
	// Default: customer_console
	Namespace string

	// HistogramBuckets are the buckets for action duration.
	// Default: prometheus.DefBuckets
	HistogramBuckets []float64
}

// DefaultExporterConfig returns default configuration.
func DefaultExporterConfig() ExporterConfig {
	return ExporterConfig{
		Addr:             ":9091",
		Path:             "/metrics",
		Namespace:        "customer_console",
		HistogramBuckets: prometheus.DefBuckets,
	}
}

// Exporter records console metrics on a private registry and optionally
// serves them over HTTP.
//
// Thread Safety: Safe for concurrent use by multiple goroutines.
type Exporter struct {
	mu sync.RWMutex

	config   ExporterConfig
	registry *prometheus.Registry

	actionsTotal          *prometheus.CounterVec
	actionDurationSeconds *prometheus.HistogramVec
	backendRequestsTotal  *prometheus.CounterVec

	server *http.Server
	ln     net.Listener

	running   bool
	lastError error
}

// NewExporter creates a new exporter. Zero fields of config take defaults.
func NewExporter(config ExporterConfig) *Exporter {
	defaults := DefaultExporterConfig()
	if config.Addr == "" {
		config.Addr = defaults.Addr
	}
	if config.Path == "" {
		config.Path = defaults.Path
	}
	if config.Namespace == "" {
		config.Namespace = defaults.Namespace
	}
	if len(config.HistogramBuckets) == 0 {
		config.HistogramBuckets = defaults.HistogramBuckets
	}

	e := &Exporter{
		config:   config,
		registry: prometheus.NewRegistry(),
	}
	e.initMetrics()
	return e
}

func (e *Exporter) initMetrics() {
	e.actionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: e.config.Namespace,
			Name:      "actions_total",
			Help:      "Console actions by outcome (success, rejected, busy, failure).",
		},
		[]string{"action", "outcome"},
	)

	e.actionDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: e.config.Namespace,
			Name:      "action_duration_seconds",
			Help:      "Duration of console actions in seconds, backend calls included.",
			Buckets:   e.config.HistogramBuckets,
		},
		[]string{"action"},
	)

	e.backendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: e.config.Namespace,
			Name:      "backend_requests_total",
			Help:      "HTTP attempts against the customer backend. status is 0 for transport errors.",
		},
		[]string{"method", "status"},
	)

	e.registry.MustRegister(
		e.actionsTotal,
		e.actionDurationSeconds,
		e.backendRequestsTotal,
	)
}

// ObserveAction records one finished console action.
func (e *Exporter) ObserveAction(action, outcome string, duration time.Duration) {
	e.actionsTotal.WithLabelValues(action, outcome).Inc()
	e.actionDurationSeconds.WithLabelValues(action).Observe(duration.Seconds())
}

// ObserveRequest records one backend HTTP attempt.
func (e *Exporter) ObserveRequest(method string, status int, _ time.Duration) {
	e.backendRequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Start starts the HTTP server for the metrics endpoint.
func (e *Exporter) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return nil
	}

	ln, err := net.Listen("tcp", e.config.Addr)
	if err != nil {
		return fmt.Errorf("starting metrics exporter: %w", err)
	}
	e.ln = ln

	mux := http.NewServeMux()
	mux.Handle(e.config.Path, e.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	e.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := e.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.mu.Lock()
			e.lastError = err
			e.mu.Unlock()
		}
	}()

	e.running = true
	return nil
}

// Stop stops the HTTP server.
func (e *Exporter) Stop(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return nil
	}
	e.running = false

	if e.server != nil {
		return e.server.Shutdown(ctx)
	}
	return nil
}

// Address returns the URL of the metrics endpoint once started, using the
// bound port when Addr asked for an ephemeral one.
func (e *Exporter) Address() string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	addr := e.config.Addr
	if e.ln != nil {
		if tcp, ok := e.ln.Addr().(*net.TCPAddr); ok {
			addr = fmt.Sprintf("localhost:%d", tcp.Port)
		}
	}
	return "http://" + addr + e.config.Path
}

// IsRunning returns whether the exporter is running.
func (e *Exporter) IsRunning() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

// LastError returns the last error from the HTTP server, if any.
func (e *Exporter) LastError() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastError
}

// Gather collects all metrics from the registry.
func (e *Exporter) Gather() ([]*dto.MetricFamily, error) {
	return e.registry.Gather()
}
