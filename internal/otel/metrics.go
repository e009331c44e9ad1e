package otel

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
)

var (
	initMetricsOnce    sync.Once
	sessionsCounter    metric.Int64Counter
	sessionDuration    metric.Float64Histogram
	tasksCompleted     metric.Int64Counter
	extractionsCounter metric.Int64Counter
)

// InitMetrics creates the meter instruments. Safe to call multiple times;
// only runs once. Call after InitMeterProvider. When never called, every
// Record* function is a no-op.
func InitMetrics(ctx context.Context) error {
	var err error
	initMetricsOnce.Do(func() {
		m := Meter()
		sessionsCounter, err = m.Int64Counter("devloop_sessions_total", metric.WithDescription("Total collaborator sessions executed"))
		if err != nil {
			return
		}
		sessionDuration, err = m.Float64Histogram("devloop_session_duration_seconds", metric.WithDescription("Collaborator session duration in seconds"))
		if err != nil {
			return
		}
		tasksCompleted, err = m.Int64Counter("devloop_tasks_completed_total", metric.WithDescription("Tasks whose done flag was flipped by a session"))
		if err != nil {
			return
		}
		extractionsCounter, err = m.Int64Counter("devloop_extractions_total", metric.WithDescription("Extraction strategy attempts"))
	})
	return err
}

// RecordSession records one finished session with its outcome and duration.
func RecordSession(ctx context.Context, category, outcome string, d time.Duration) {
	if sessionsCounter == nil {
		return
	}
	attrs := metric.WithAttributes(AttrCategory.String(category), AttrOutcome.String(outcome))
	sessionsCounter.Add(ctx, 1, attrs)
	if sessionDuration != nil {
		sessionDuration.Record(ctx, d.Seconds(), attrs)
	}
}

// RecordTaskCompleted records a done-flag flip observed after a session.
func RecordTaskCompleted(ctx context.Context, category string) {
	if tasksCompleted == nil {
		return
	}
	tasksCompleted.Add(ctx, 1, metric.WithAttributes(AttrCategory.String(category)))
}

// RecordExtraction records one extraction strategy attempt. accepted means
// the strategy produced a candidate that parsed and validated.
func RecordExtraction(kind, strategy string, accepted bool) {
	if extractionsCounter == nil {
		return
	}
	outcome := "rejected"
	if accepted {
		outcome = "accepted"
	}
	extractionsCounter.Add(context.Background(), 1, metric.WithAttributes(
		AttrKind.String(kind), AttrStrategy.String(strategy), AttrOutcome.String(outcome)))
}
