package rates

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultBase     = "base"
	resultHit      = "cache_hit"
	resultFetch    = "fetch"
	resultFallback = "fallback"
)

var counterLookups = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "expense_tracker",
		Subsystem: "rates",
		Name:      "lookup_total",
	},
	[]string{"result"},
)

func observeLookup(result string) {
	counterLookups.WithLabelValues(result).Inc()
}
