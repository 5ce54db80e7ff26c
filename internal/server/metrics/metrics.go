// Package metrics defines the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoginsTotal counts login attempts by outcome ("ok", "rejected", "error").
	LoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dealkeeper_logins_total",
		Help: "Total number of login attempts",
	}, []string{"result"})

	// RedemptionsTotal counts redemption attempts by outcome
	// ("ok", "limit", "not_found", "error").
	RedemptionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dealkeeper_redemptions_total",
		Help: "Total number of deal redemption attempts",
	}, []string{"result"})

	// HTTPRequestsTotal counts handled HTTP requests by method and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dealkeeper_http_requests_total",
		Help: "Total number of HTTP requests handled",
	}, []string{"method", "status"})
)
