package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics - prometheus collectors of chat server.
type Metrics struct {
	registry *prometheus.Registry

	sessionsOnline prometheus.Gauge
	logins         *prometheus.CounterVec
	broadcasts     prometheus.Counter
	deliveries     prometheus.Counter
	sessionsClosed *prometheus.CounterVec
	udpQueries     *prometheus.CounterVec
	rejected       *prometheus.CounterVec
}

// NewMetrics - builds collectors registered in their own prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		sessionsOnline: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "chatrelay",
			Name:      "sessions_online",
			Help:      "Number of logged in sessions.",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatrelay",
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		broadcasts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chatrelay",
			Name:      "broadcasts_total",
			Help:      "Accepted !send commands.",
		}),
		deliveries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chatrelay",
			Name:      "broadcast_deliveries_total",
			Help:      "Broadcast lines enqueued to recipients.",
		}),
		sessionsClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatrelay",
			Name:      "sessions_closed_total",
			Help:      "Finished sessions by reason.",
		}, []string{"reason"}),
		udpQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatrelay",
			Name:      "udp_queries_total",
			Help:      "Presence queries by command.",
		}, []string{"command"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatrelay",
			Name:      "admission_rejected_total",
			Help:      "Connections and datagrams refused by admission control.",
		}, []string{"listener"}),
	}
	m.registry.MustRegister(
		m.sessionsOnline,
		m.logins,
		m.broadcasts,
		m.deliveries,
		m.sessionsClosed,
		m.udpQueries,
		m.rejected,
	)
	return m
}

// Handler - HTTP handler exposing collected metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer - underlying prometheus registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}
