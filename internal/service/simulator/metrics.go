package simulator

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	metricsOnce    sync.Once
	transitions    *prometheus.CounterVec
	trainRequests  *prometheus.CounterVec
	entriesVisible prometheus.Gauge
)

func initMetrics() {
	metricsOnce.Do(func() {
		transitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "synthteams",
			Subsystem: "simulator",
			Name:      "transitions_total",
			Help:      "Log simulator transitions by event",
		}, []string{"event"})

		trainRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "synthteams",
			Subsystem: "simulator",
			Name:      "train_requests_total",
			Help:      "Manual training requests by result",
		}, []string{"result"})

		entriesVisible = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "synthteams",
			Subsystem: "simulator",
			Name:      "entries",
			Help:      "Entries currently held in the deployment log",
		})

		collectors := []prometheus.Collector{transitions, trainRequests, entriesVisible}
		for _, collector := range collectors {
			if err := prometheus.Register(collector); err != nil {
				if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
					switch v := are.ExistingCollector.(type) {
					case *prometheus.CounterVec:
						if collector == transitions {
							transitions = v
						} else if collector == trainRequests {
							trainRequests = v
						}
					case prometheus.Gauge:
						entriesVisible = v
					}
				}
			}
		}
	})
}

func recordTransition(event Event, entries int) {
	transitions.WithLabelValues(string(event)).Inc()
	entriesVisible.Set(float64(entries))
}

func recordTrain(result TrainResult, entries int) {
	trainRequests.WithLabelValues(string(result)).Inc()
	entriesVisible.Set(float64(entries))
}
