package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the prometheus collectors for one engine. Each instance owns
// its registry so several engines (tests, the parity tool) can coexist.
// A nil *Metrics ignores every call.
type Metrics struct {
	reg *prometheus.Registry

	frameSeconds *prometheus.HistogramVec
	particles    prometheus.Gauge
	backend      *prometheus.GaugeVec
	switches     *prometheus.CounterVec
	emitted      prometheus.Counter
	overflow     prometheus.Gauge
}

// NewMetrics registers the engine collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		frameSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pbd_frame_seconds",
			Help:    "Wall time spent advancing one frame",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
		}, []string{"backend"}),
		particles: f.NewGauge(prometheus.GaugeOpts{
			Name: "pbd_particles",
			Help: "Number of live particles",
		}),
		backend: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pbd_backend_active",
			Help: "1 for the backend currently stepping the simulation",
		}, []string{"backend"}),
		switches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pbd_backend_switches_total",
			Help: "Backend switches, labeled by target backend",
		}, []string{"backend"}),
		emitted: f.NewCounter(prometheus.CounterOpts{
			Name: "pbd_particles_emitted_total",
			Help: "Particles appended by emission",
		}),
		overflow: f.NewGauge(prometheus.GaugeOpts{
			Name: "pbd_neighbor_overflow",
			Help: "Particles whose neighbor count exceeded the dense slot capacity last frame",
		}),
	}
}

// ObserveFrame records one advanced frame.
func (m *Metrics) ObserveFrame(backend string, d time.Duration, particles, overflow int) {
	if m == nil {
		return
	}
	m.frameSeconds.WithLabelValues(backend).Observe(d.Seconds())
	m.particles.Set(float64(particles))
	m.overflow.Set(float64(overflow))
}

// SetBackend marks backend as active and every other known backend as idle.
func (m *Metrics) SetBackend(active string, known ...string) {
	if m == nil {
		return
	}
	for _, b := range known {
		m.backend.WithLabelValues(b).Set(0)
	}
	m.backend.WithLabelValues(active).Set(1)
}

// CountSwitch increments the switch counter for target.
func (m *Metrics) CountSwitch(target string) {
	if m == nil {
		return
	}
	m.switches.WithLabelValues(target).Inc()
}

// CountEmitted adds n freshly emitted particles.
func (m *Metrics) CountEmitted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.emitted.Add(float64(n))
	m.particles.Add(float64(n))
}

// Registry exposes the underlying registry for gathering in tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

// NewMetricsServer serves m on addr under /metrics.
func NewMetricsServer(addr string, m *Metrics) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}
}
