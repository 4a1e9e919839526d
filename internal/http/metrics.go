package httpx

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// siteMetrics groups the collectors exported under synthteams_site_*.
type siteMetrics struct {
	requests       *prometheus.CounterVec
	latency        *prometheus.HistogramVec
	quota          *prometheus.CounterVec
	streamClients  *prometheus.GaugeVec
	streamEvicted  *prometheus.CounterVec
	subscribeCodes *prometheus.CounterVec
}

var (
	metricsOnce sync.Once
	metrics     siteMetrics
)

func loadMetrics() *siteMetrics {
	metricsOnce.Do(func() {
		metrics = siteMetrics{
			requests: register(prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "synthteams",
				Subsystem: "site",
				Name:      "http_requests_total",
				Help:      "HTTP requests by route and status class",
			}, []string{"method", "route", "class"})),
			latency: register(prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "synthteams",
				Subsystem: "site",
				Name:      "http_request_duration_seconds",
				Help:      "Handler latency by route",
				Buckets:   prometheus.ExponentialBuckets(0.002, 2.5, 9),
			}, []string{"route"})),
			quota: register(prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "synthteams",
				Subsystem: "site",
				Name:      "quota_decisions_total",
				Help:      "Rate limit decisions per visitor action",
			}, []string{"action", "outcome"})),
			streamClients: register(prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "synthteams",
				Subsystem: "site",
				Name:      "stream_clients",
				Help:      "Connected live log clients by transport",
			}, []string{"transport"})),
			streamEvicted: register(prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "synthteams",
				Subsystem: "site",
				Name:      "stream_evictions_total",
				Help:      "Live log clients dropped because they fell behind",
			}, []string{"topic"})),
			subscribeCodes: register(prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "synthteams",
				Subsystem: "site",
				Name:      "subscribe_responses_total",
				Help:      "Subscribe responses by entry point and result",
			}, []string{"entry", "result"})),
		}
	})
	return &metrics
}

// register adds c to the default registry, reusing an identical collector
// when another router in the process registered it first.
func register[T prometheus.Collector](c T) T {
	if err := prometheus.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
	}
	return c
}

func statusClass(status int) string {
	return strconv.Itoa(status/100) + "xx"
}

func (m *siteMetrics) observeRequest(method, route string, status int, duration time.Duration) {
	m.requests.WithLabelValues(method, route, statusClass(status)).Inc()
	m.latency.WithLabelValues(route).Observe(duration.Seconds())
}

func (m *siteMetrics) observeQuota(action, outcome string) {
	m.quota.WithLabelValues(action, outcome).Inc()
}

func (m *siteMetrics) observeSubscribe(entry, result string) {
	m.subscribeCodes.WithLabelValues(entry, result).Inc()
}

func (m *siteMetrics) streamDelta(transport string, delta float64) {
	m.streamClients.WithLabelValues(transport).Add(delta)
}

// CountStreamEviction records a live log client dropped by the hub. It is
// meant for ws.WithEvictionHook.
func CountStreamEviction(topic string) {
	loadMetrics().streamEvicted.WithLabelValues(topic).Inc()
}
