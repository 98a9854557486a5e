package aggregator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	kindStatus  = "status"
	kindMetrics = "metrics"
)

var (
	instanceQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mesh_worker_instance_queries_total",
			Help: "Instance queries by kind and result (ok, unreachable, skipped)",
		},
		[]string{"kind", "result"},
	)

	fanoutDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mesh_worker_fanout_duration_seconds",
			Help:    "Wall time of one aggregate call",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"kind"},
	)
)
