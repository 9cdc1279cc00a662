package app

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Import results
const (
	importOK      = "ok"
	importInvalid = "invalid"
	importEmpty   = "empty"
)

// Metrics holds the service collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	EventsTotal prometheus.Gauge
	Mutations   *prometheus.CounterVec
	Imports     *prometheus.CounterVec
	Imported    prometheus.Counter
	Logins      *prometheus.CounterVec
}

// NewMetrics registers all collectors on a new registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		EventsTotal: f.NewGauge(prometheus.GaugeOpts{
			Name: "sagre_events_total",
			Help: "Number of events in the collection",
		}),
		Mutations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sagre_event_mutations_total",
			Help: "Event collection changes by operation",
		}, []string{"op"}),
		Imports: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sagre_imports_total",
			Help: "Bulk imports by result",
		}, []string{"result"}),
		Imported: f.NewCounter(prometheus.CounterOpts{
			Name: "sagre_imported_events_total",
			Help: "Events created by bulk imports",
		}),
		Logins: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sagre_logins_total",
			Help: "Login attempts by result",
		}, []string{"result"}),
	}
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
