package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "fanout"

// Metrics holds all OTEL metric instruments for fanout.
// All counters are cumulative (monotonic) and safe for concurrent use.
type Metrics struct {
	// TmuxCommands counts issued tmux commands, partitioned by verb
	// (split-window, send-keys, ...).
	TmuxCommands metric.Int64Counter

	// PanesCreated counts panes produced by the layout planner.
	PanesCreated metric.Int64Counter

	// Runs counts orchestration runs, partitioned by bootstrap phase
	// (outside, inside) and outcome (ok, error).
	Runs metric.Int64Counter
}

// NewMetrics creates all metric instruments. Returns no-op instruments
// when no MeterProvider is registered (safe to call unconditionally).
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.TmuxCommands, err = meter.Int64Counter("tmux.commands",
		metric.WithDescription("Total tmux commands issued, partitioned by verb"))
	if err != nil {
		return nil, err
	}

	m.PanesCreated, err = meter.Int64Counter("panes.created",
		metric.WithDescription("Total panes created by the layout planner"))
	if err != nil {
		return nil, err
	}

	m.Runs, err = meter.Int64Counter("runs.total",
		metric.WithDescription("Total orchestration runs, partitioned by phase and outcome"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordTmuxCommand counts one issued tmux command.
func (m *Metrics) RecordTmuxCommand(ctx context.Context, verb string) {
	if m == nil {
		return
	}
	m.TmuxCommands.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tmux.verb", verb),
	))
}

// RecordPanes counts panes created in one run.
func (m *Metrics) RecordPanes(ctx context.Context, n int) {
	if m == nil {
		return
	}
	m.PanesCreated.Add(ctx, int64(n))
}

// RecordRun counts one orchestration run.
func (m *Metrics) RecordRun(ctx context.Context, phase string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Runs.Add(ctx, 1, metric.WithAttributes(
		attribute.String("run.phase", phase),
		attribute.String("run.outcome", outcome),
	))
}
