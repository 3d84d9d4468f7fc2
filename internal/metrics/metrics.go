// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Connections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "jam",
		Name:      "connections",
		Help:      "Currently open signal connections.",
	})

	Rooms = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "jam",
		Name:      "rooms",
		Help:      "Currently live rooms.",
	})

	Messages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jam",
		Name:      "messages_total",
		Help:      "Inbound client messages by type and outcome.",
	}, []string{"type", "outcome"})

	Deliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jam",
		Name:      "deliveries_total",
		Help:      "Outbound frames by kind and result (sent, dropped).",
	}, []string{"kind", "result"})
)

// Handler exposes Prometheus metrics at /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
