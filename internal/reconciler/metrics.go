package reconciler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var reconcileTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "mesh_worker_reconcile_total",
		Help: "Store operations on Function resources by operation and result",
	},
	[]string{"operation", "result"},
)
