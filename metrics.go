package petstore

import "github.com/prometheus/client_golang/prometheus"

var OpCount = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "petstore",
	Subsystem: "store",
	Name:      "ops",
}, []string{"collection", "op", "result"})

var BatchCommands = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "petstore",
	Subsystem: "store",
	Name:      "batch_commands",
	Buckets:   []float64{1, 2, 4, 8, 16, 32},
}, []string{"collection", "op"})

// Metrics lists the store collectors for the embedding process to register.
func Metrics() []prometheus.Collector {
	return []prometheus.Collector{OpCount, BatchCommands}
}
