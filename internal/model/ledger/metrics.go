package ledger

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var histogramMutationTime = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "expense_tracker",
		Subsystem: "ledger",
		Name:      "histogram_mutation_time_seconds",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
	},
	[]string{"op"},
)

func observeMutation(op string, start time.Time) {
	histogramMutationTime.
		WithLabelValues(op).
		Observe(time.Since(start).Seconds())
}
