package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus instruments for the quote service.
type Metrics struct {
	UpstreamRequests *prometheus.CounterVec // labels: provider, status
	CacheServes      *prometheus.CounterVec // labels: state (fresh|refresh|stale)
	FetchDuration    prometheus.Summary
	LastPrice        prometheus.Gauge
}

// New registers the instruments on reg and returns them.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "btcquote",
			Name:      "upstream_requests_total",
			Help:      "Number of upstream fetches by provider and status",
		}, []string{"provider", "status"}),
		CacheServes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "btcquote",
			Name:      "cache_serves_total",
			Help:      "Number of quote responses served by cache state",
		}, []string{"state"}),
		FetchDuration: prometheus.NewSummary(prometheus.SummaryOpts{
			Namespace: "btcquote",
			Name:      "fetch_duration_seconds",
			Help:      "Time spent fetching from the upstream provider",
		}),
		LastPrice: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "btcquote",
			Name:      "btc_usd_price",
			Help:      "Last successfully served BTC price in USD",
		}),
	}
	reg.MustRegister(m.UpstreamRequests, m.CacheServes, m.FetchDuration, m.LastPrice)
	return m
}
