package pointring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rfratto/pointring/internal/metricsutil"
)

type metrics struct {
	metricsutil.Container

	nodes           prometheus.Gauge
	controlPoints   prometheus.Gauge
	collisionsTotal prometheus.Counter
	rebuildsTotal   prometheus.Counter
	lookupsTotal    *prometheus.CounterVec
}

var _ prometheus.Collector = (*metrics)(nil)

func newMetrics() *metrics {
	var m metrics

	m.nodes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pointring_nodes",
		Help: "Current number of node registrations in the ring",
	})
	m.controlPoints = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pointring_control_points",
		Help: "Current number of control points across all nodes in the ring",
	})
	m.collisionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pointring_allocation_collisions_total",
		Help: "Total number of control points allocated on a position that was already taken",
	})
	m.rebuildsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pointring_index_rebuilds_total",
		Help: "Total number of times the sorted control point index was rebuilt",
	})
	m.lookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pointring_lookups_total",
		Help: "Total number of key lookups. result will be one of: found or empty.",
	}, []string{"result"})

	m.Add(
		m.nodes,
		m.controlPoints,
		m.collisionsTotal,
		m.rebuildsTotal,
		m.lookupsTotal,
	)

	return &m
}
