// Package telemetry exposes wait and workflow metrics through Prometheus
// and sets up OpenTelemetry tracing for the polling engine.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
	apperrors "github.com/olusolaa/cloud-lifecycle/internal/errors"
)

const defaultNamespace = "cloud_lifecycle"

// Metrics records polling and workflow telemetry on a private registry.
// It implements ports.WaitObserver.
type Metrics struct {
	registry *prometheus.Registry

	refreshes        *prometheus.CounterVec
	waits            *prometheus.CounterVec
	waitDuration     *prometheus.HistogramVec
	refreshesPerWait *prometheus.HistogramVec
	workflows        *prometheus.CounterVec
	workflowDuration *prometheus.HistogramVec
}

func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = defaultNamespace
	}
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		refreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "refreshes_total",
				Help:      "Resource refreshes issued by waits, by outcome.",
			},
			[]string{"kind", "result"},
		),
		waits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "waits_total",
				Help:      "Completed waits by outcome.",
			},
			[]string{"kind", "outcome"},
		),
		waitDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "wait_duration_seconds",
				Help:      "Time from the first refresh to the end of a wait.",
				Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
			},
			[]string{"kind", "outcome"},
		),
		refreshesPerWait: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "wait_refreshes",
				Help:      "Refreshes needed to end a wait.",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
			},
			[]string{"kind"},
		),
		workflows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "workflows_total",
				Help:      "Finished workflows by type and status.",
			},
			[]string{"type", "status"},
		),
		workflowDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "workflow_duration_seconds",
				Help:      "Workflow wall time including cleanup.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"type"},
		),
	}
	m.registry.MustRegister(m.refreshes, m.waits, m.waitDuration, m.refreshesPerWait, m.workflows, m.workflowDuration)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RefreshObserved(kind domain.ResourceKind, err error) {
	result := "ok"
	switch {
	case err == nil:
	case apperrors.Is(err, apperrors.CodeResourceNotFound):
		result = "not_found"
	default:
		result = "error"
	}
	m.refreshes.WithLabelValues(kind.String(), result).Inc()
}

func (m *Metrics) WaitFinished(kind domain.ResourceKind, outcome string, elapsed time.Duration, refreshes int) {
	m.waits.WithLabelValues(kind.String(), outcome).Inc()
	m.waitDuration.WithLabelValues(kind.String(), outcome).Observe(elapsed.Seconds())
	m.refreshesPerWait.WithLabelValues(kind.String()).Observe(float64(refreshes))
}

func (m *Metrics) RecordWorkflows(results []domain.WorkflowResult) {
	for _, res := range results {
		m.workflows.WithLabelValues(res.Type, string(res.Status)).Inc()
		m.workflowDuration.WithLabelValues(res.Type).Observe(res.Duration.Seconds())
	}
}

// WriteTextfile dumps the registry in the text exposition format, for a
// node exporter textfile collector to pick up after a CLI run.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "failed to write metrics textfile")
	}
	return nil
}
