// Package facade is the public boundary between the pure reflow core
// (internal/reflow) and the rest of the system: it hydrates a snapshot from
// the series Adapter, fingerprints it, consults the Redis cache, calls the
// core, converts UTC instant <-> zoneless LocalDateTime at the edge, and
// publishes a domain event when a pass surfaces conflicts (spec §1: "the
// public façade (hydration, event emission, caching ..., timezone
// conversion at the boundary)").
package facade

import (
	"context"
	"log/slog"
	"time"

	"github.com/motioneffector/autoplanner/internal/calendar/application"
	"github.com/motioneffector/autoplanner/internal/reflow"
	"github.com/motioneffector/autoplanner/internal/reflow/timegrid"
	"github.com/motioneffector/autoplanner/internal/series/domain"
	"github.com/motioneffector/autoplanner/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// Service is the façade's single entry point. It owns no business logic of
// its own — every scheduling decision is the core's — only the I/O,
// caching, and event-emission wiring around one reflow.Reflow call.
type Service struct {
	adapter     domain.Adapter
	cache       *Cache
	outbox      outbox.Repository
	busySources []application.BusySource
	logger      *slog.Logger
}

// NewService wires an Adapter (required) with an optional cache and
// outbox repository. A nil cache disables memoization; a nil outbox
// repository disables event emission — both are valid for a façade used
// only for synchronous reads (e.g. a dry-run preview).
func NewService(adapter domain.Adapter, cache *Cache, outboxRepo outbox.Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{adapter: adapter, cache: cache, outbox: outboxRepo, logger: logger}
}

// WithBusySources attaches the connected-calendar busy-time sources
// (SPEC expansion: external busy-time ingestion). Schedule passes their
// intervals to the core as ExternalBusy, which reports an overlap
// conflict for each placed instance that lands on one; they are not
// occupied ranges during search or fallback. Safe to call with an empty
// list — Schedule then behaves exactly as before calendars were connected.
func (s *Service) WithBusySources(sources []application.BusySource) *Service {
	s.busySources = sources
	return s
}

// Schedule hydrates the user's series snapshot over [windowStart, windowEnd],
// runs the reflow core (or returns a cached result for an unchanged
// fingerprint), and — on a cache miss — persists the result and, if the pass
// produced conflicts, appends a ScheduleComputed event to the outbox.
func (s *Service) Schedule(ctx context.Context, userID uuid.UUID, windowStart, windowEnd timegrid.LocalDate) (reflow.ReflowOutput, error) {
	snap, err := s.hydrate(ctx, userID, windowStart, windowEnd)
	if err != nil {
		return reflow.ReflowOutput{}, err
	}

	// A connected external calendar changes independently of anything the
	// fingerprint covers, so a pass that consults one skips the cache
	// entirely rather than risk serving a placement computed against
	// stale busy time.
	useCache := len(s.busySources) == 0
	fingerprint := snapshotFingerprint(userID, windowStart, windowEnd, snap.series, snap.completions, snap.exceptions, snap.constraints)

	if useCache {
		if cached, hit, err := s.cache.GetScheduleResult(ctx, fingerprint); err != nil {
			s.logger.WarnContext(ctx, "reflow cache read failed", "error", err)
		} else if hit {
			return *cached, nil
		}
	}

	in, err := s.toReflowInput(ctx, snap, windowStart, windowEnd)
	if err != nil {
		return reflow.ReflowOutput{}, err
	}
	in.ExternalBusy = s.collectExternalBusy(ctx, userID, windowStart, windowEnd)

	out := reflow.Reflow(in)

	if useCache {
		if err := s.cache.PutScheduleResult(ctx, fingerprint, out); err != nil {
			s.logger.WarnContext(ctx, "reflow cache write failed", "error", err)
		}
	}

	if len(out.Conflicts) > 0 && s.outbox != nil {
		event := newScheduleComputed(userID, windowStart.String(), windowEnd.String(), len(out.Conflicts), len(out.Instances))
		msg, err := outbox.NewMessage(event)
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to build schedule-computed outbox message", "error", err)
		} else if err := s.outbox.Save(ctx, msg); err != nil {
			s.logger.ErrorContext(ctx, "failed to persist schedule-computed outbox message", "error", err)
		}
	}

	return out, nil
}

// collectExternalBusy gathers busy intervals from every connected
// calendar from the start of windowStart to the end of windowEnd. A source error is logged and
// skipped — one flaky calendar never fails the whole reflow pass.
func (s *Service) collectExternalBusy(ctx context.Context, userID uuid.UUID, windowStart, windowEnd timegrid.LocalDate) []reflow.ExternalBusyInterval {
	if len(s.busySources) == 0 {
		return nil
	}
	start := time.Date(windowStart.Year, time.Month(windowStart.Month), windowStart.Day, 0, 0, 0, 0, time.UTC)
	end := time.Date(windowEnd.Year, time.Month(windowEnd.Month), windowEnd.Day+1, 0, 0, 0, 0, time.UTC)

	var out []reflow.ExternalBusyInterval
	for _, src := range s.busySources {
		intervals, err := src.ListBusyIntervals(ctx, userID, start, end)
		if err != nil {
			s.logger.WarnContext(ctx, "external calendar busy-time lookup failed", "error", err)
			continue
		}
		out = append(out, intervals...)
	}
	return out
}

// InvalidateUser drops the pattern-expansion cache entries of each given
// series, called by the mutation handlers (create/update series,
// log a completion, link a chain, ...) before returning. Invalidation is
// best-effort: a cache miss just costs one extra reflow pass, never
// correctness, so a failure here is logged and swallowed.
func (s *Service) InvalidateUser(ctx context.Context, seriesIDs []uuid.UUID) {
	for _, id := range seriesIDs {
		if err := s.cache.InvalidateSeries(ctx, id.String()); err != nil {
			s.logger.WarnContext(ctx, "cache invalidation failed", "series_id", id, "error", err)
		}
	}
}
