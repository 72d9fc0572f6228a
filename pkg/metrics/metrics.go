// Package metrics exposes Prometheus counters for template mutations. The CLI is short
// lived, so metrics are flushed to a node-exporter textfile rather than scraped.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jakechorley/ninebox-weightage/pkg/core/model"
)

// Mutation outcomes
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

var (
	// Registry holds every collector in this package
	Registry = prometheus.NewRegistry()

	// Mutations counts template mutations by operation and outcome
	Mutations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ninebox",
		Name:      "mutations_total",
		Help:      "Template mutations by operation and outcome.",
	}, []string{"operation", "outcome"})

	// MutationDuration times template mutations by operation
	MutationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ninebox",
		Name:      "mutation_duration_seconds",
		Help:      "Time spent loading, validating and saving a template mutation.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	// SyncedLines counts lines imported from OKR templates
	SyncedLines = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ninebox",
		Name:      "synced_lines_total",
		Help:      "Key result lines created by OKR template syncs.",
	})
)

func init() {
	Registry.MustRegister(Mutations, MutationDuration, SyncedLines)
}

// Outcome classifies a mutation error
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case model.IsValidationError(err):
		return OutcomeRejected
	default:
		return OutcomeError
	}
}

// Observe records the outcome and duration of a mutation
func Observe(operation string, err error, duration time.Duration) {
	if operation == "" {
		return
	}
	Mutations.WithLabelValues(operation, Outcome(err)).Inc()
	MutationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// AddSyncedLines counts lines created by a sync
func AddSyncedLines(n int) {
	if n > 0 {
		SyncedLines.Add(float64(n))
	}
}

// WriteTextfile writes every metric in the registry to path in text exposition format
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
