package updater

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ticks             prometheus.Counter
	reconcileDuration prometheus.Histogram
	autoIncidents     prometheus.Counter
	simLatency        prometheus.Gauge
	simTime           prometheus.Gauge
	jammingEdges      prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ticks: f.NewCounter(prometheus.CounterOpts{
			Namespace: "pathsync",
			Name:      "simulation_ticks_total",
			Help:      "The total number of simulation steps taken by the updater",
		}),
		reconcileDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pathsync",
			Name:      "reconcile_duration_seconds",
			Help:      "The duration of one weight reconciliation pass",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		autoIncidents: f.NewCounter(prometheus.CounterOpts{
			Namespace: "pathsync",
			Name:      "auto_incidents_total",
			Help:      "The total number of incidents raised by the congestion detector",
		}),
		simLatency: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "pathsync",
			Name:      "simulator_latency_ms",
			Help:      "Smoothed round trip of the simulator time query",
		}),
		simTime: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "pathsync",
			Name:      "simulation_time_seconds",
			Help:      "The current simulated time",
		}),
		jammingEdges: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "pathsync",
			Name:      "jamming_edges",
			Help:      "The number of edges accumulating congestion",
		}),
	}
}
