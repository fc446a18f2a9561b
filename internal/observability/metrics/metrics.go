// Package metrics holds the process wide Prometheus collectors. Collectors
// are registered on the default registry so promhttp exposes them without
// extra wiring.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AccessDecisions counts access engine outcomes per ability.
	AccessDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shiplane",
		Subsystem: "access",
		Name:      "decisions_total",
		Help:      "Access decisions by ability and outcome.",
	}, []string{"ability", "outcome"})

	// ModuleToggles counts module enable and disable attempts.
	ModuleToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shiplane",
		Subsystem: "modules",
		Name:      "toggles_total",
		Help:      "Module toggle attempts by action and outcome.",
	}, []string{"action", "outcome"})

	// HTTPRequests counts requests by route and status class.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shiplane",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})
)
