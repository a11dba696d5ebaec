package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes counters/histograms for the proxy.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	tokenRefreshes  *prometheus.CounterVec
	gatherer        prometheus.Gatherer
}

// NewMetrics registers the proxy collectors with reg, or a fresh registry when reg is nil.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tekx",
			Subsystem: "proxy",
			Name:      "requests_total",
			Help:      "Total proxy requests",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tekx",
			Subsystem: "proxy",
			Name:      "request_duration_seconds",
			Help:      "Latency of proxy requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		tokenRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tekx",
			Subsystem: "tekmetric",
			Name:      "token_refresh_total",
			Help:      "Tekmetric client credential exchanges",
		}, []string{"outcome"}),
		gatherer: reg,
	}
	reg.MustRegister(m.requestsTotal, m.requestDuration, m.tokenRefreshes)
	return m
}

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveTokenRefresh matches the tekmetric refresh hook signature.
func (m *Metrics) ObserveTokenRefresh(err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.tokenRefreshes.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
