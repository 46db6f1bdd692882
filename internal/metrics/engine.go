package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Engine health metrics, updated by the health endpoint.
var (
	EngineUp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "esmodel",
			Name:      "engine_up",
			Help:      "1 when the search engine answered the last health ping",
		},
	)

	IndexPresent = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "esmodel",
			Name:      "index_present",
			Help:      "1 when a declared model index exists",
		},
		[]string{"index"},
	)
)

var registerEngineOnce sync.Once

// RegisterEngineMetrics registers the engine health metrics on the default registry.
func RegisterEngineMetrics() {
	registerEngineOnce.Do(func() {
		prometheus.MustRegister(EngineUp)
		prometheus.MustRegister(IndexPresent)
	})
}

// RecordHealth sets the engine gauge and one gauge per checked index.
func RecordHealth(engineUp bool, indexes map[string]bool) {
	EngineUp.Set(boolGauge(engineUp))
	for name, ok := range indexes {
		IndexPresent.WithLabelValues(name).Set(boolGauge(ok))
	}
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
