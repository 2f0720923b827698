package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/motioneffector/autoplanner/internal/reflow"
	"github.com/motioneffector/autoplanner/internal/reflow/timegrid"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
)

// BusySource feeds the reflow façade opaque occupied ranges pulled from
// a connected external calendar (SPEC expansion: external busy-time
// ingestion). It is consumed only by the façade when assembling a
// ReflowInput — the CSP solver proper never imports this package.
type BusySource interface {
	ListBusyIntervals(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]reflow.ExternalBusyInterval, error)
}

// BreakerBusySource wraps an Importer with a circuit breaker, grounded
// on the teacher's engine executor (internal/engine/runtime/executor.go):
// a flaky external calendar can only fail its own call, never stall the
// reflow pass it feeds — an open circuit degrades to "no busy intervals
// known" rather than propagating the error.
type BreakerBusySource struct {
	sourceID string
	importer Importer
	breaker  *gobreaker.CircuitBreaker[[]CalendarEvent]
	logger   *slog.Logger
}

// NewBreakerBusySource wraps importer with a named circuit breaker.
func NewBreakerBusySource(sourceID string, importer Importer, logger *slog.Logger) *BreakerBusySource {
	if logger == nil {
		logger = slog.Default()
	}
	settings := gobreaker.Settings{
		Name:        sourceID,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("calendar circuit breaker state changed", "source_id", name, "from", from.String(), "to", to.String())
		},
	}
	return &BreakerBusySource{
		sourceID: sourceID,
		importer: importer,
		breaker:  gobreaker.NewCircuitBreaker[[]CalendarEvent](settings),
		logger:   logger,
	}
}

// ListBusyIntervals lists external events in [start, end) through the
// circuit breaker and converts them to opaque busy intervals, swallowing
// an open-circuit error into an empty result rather than failing the
// reflow pass that called it.
func (b *BreakerBusySource) ListBusyIntervals(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]reflow.ExternalBusyInterval, error) {
	events, err := b.breaker.Execute(func() ([]CalendarEvent, error) {
		return b.importer.ListEvents(ctx, userID, start, end, false)
	})
	if err == gobreaker.ErrOpenState {
		b.logger.Warn("calendar circuit open, treating external calendar as empty", "source_id", b.sourceID)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	out := make([]reflow.ExternalBusyInterval, 0, len(events))
	for _, e := range events {
		if e.Status == "cancelled" {
			continue
		}
		out = append(out, reflow.ExternalBusyInterval{
			SourceID: b.sourceID,
			Title:    e.Summary,
			Start:    timegrid.FromTime(e.StartTime.UTC()),
			End:      timegrid.FromTime(e.EndTime.UTC()),
		})
	}
	return out, nil
}
