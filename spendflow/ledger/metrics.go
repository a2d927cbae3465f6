package ledger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	commitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spendflow_commits_total",
		Help: "Commit attempts, labeled by kind and outcome",
	}, []string{"kind", "outcome"})

	commitDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "spendflow_commit_duration_seconds",
		Help:    "Latency distribution of commits",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"kind"})
)

const (
	outcomeCommitted = "committed"
	outcomeDenied    = "denied"
	outcomeError     = "error"
)

func observeCommit(kind, outcome string) {
	commitsTotal.WithLabelValues(kind, outcome).Inc()
}
