package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/motioneffector/autoplanner/internal/reflow"
	"github.com/motioneffector/autoplanner/internal/reflow/timegrid"
	"github.com/google/uuid"
)

// ScheduleLookup is the subset of facade.Service a conflict check needs,
// named narrowly so this package never imports the façade directly (it
// would otherwise cycle back through calendar/application's own
// BusySource). A *facade.Service satisfies this without any adapter.
type ScheduleLookup interface {
	Schedule(ctx context.Context, userID uuid.UUID, windowStart, windowEnd timegrid.LocalDate) (reflow.ReflowOutput, error)
}

// ConflictCheckResult reports whether an external event overlaps a
// placement the reflow engine already produced for the same user.
type ConflictCheckResult struct {
	HasConflict         bool
	ConflictingInstance *reflow.ScheduledInstance
	ExternalEventID     string
}

// ConflictDetector checks an incoming external calendar event against
// the user's current reflow schedule. It runs the same engine pass the
// façade itself uses for reads, rather than keeping a second copy of
// the occupied ranges, so a conflict call never disagrees with what
// Schedule would return for the same window.
type ConflictDetector struct {
	schedule ScheduleLookup
	logger   *slog.Logger
}

// NewConflictDetector creates a new conflict detector. A nil schedule
// lookup is valid and makes every check report no conflict — used when
// conflict detection is configured off.
func NewConflictDetector(schedule ScheduleLookup, logger *slog.Logger) *ConflictDetector {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConflictDetector{schedule: schedule, logger: logger}
}

// CheckConflicts reflows the user's schedule over the event's own span
// and reports whether any non-all-day instance overlaps it.
func (cd *ConflictDetector) CheckConflicts(ctx context.Context, userID uuid.UUID, event CalendarEvent) (*ConflictCheckResult, error) {
	if cd == nil || cd.schedule == nil {
		return &ConflictCheckResult{HasConflict: false}, nil
	}

	windowStart := timegrid.LocalDateFromTime(event.StartTime.UTC())
	windowEnd := timegrid.LocalDateFromTime(event.EndTime.UTC()).AddDays(1)

	out, err := cd.schedule.Schedule(ctx, userID, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}

	eventInterval := timegrid.NewInterval(
		timegrid.FromTime(event.StartTime.UTC()),
		int(event.EndTime.Sub(event.StartTime).Minutes()),
	)

	for i := range out.Instances {
		inst := out.Instances[i]
		if inst.AllDay {
			continue
		}
		instInterval := timegrid.NewInterval(inst.Start, inst.Duration)
		if instInterval.Overlaps(eventInterval) {
			return &ConflictCheckResult{
				HasConflict:         true,
				ConflictingInstance: &inst,
				ExternalEventID:     event.ID,
			}, nil
		}
	}

	return &ConflictCheckResult{HasConflict: false}, nil
}

// BatchConflictCheck partitions events into those that conflict with
// the user's current schedule and those that don't.
func (cd *ConflictDetector) BatchConflictCheck(ctx context.Context, userID uuid.UUID, events []CalendarEvent) (conflicting, nonConflicting []CalendarEvent, err error) {
	for _, event := range events {
		result, err := cd.CheckConflicts(ctx, userID, event)
		if err != nil {
			return nil, nil, err
		}
		if result.HasConflict {
			conflicting = append(conflicting, event)
		} else {
			nonConflicting = append(nonConflicting, event)
		}
	}
	return conflicting, nonConflicting, nil
}

// ConflictDetectorHandler adapts ConflictDetector to the import
// worker's ConflictHandler interface, resolving a detected conflict
// according to mode:
//   - "skip" (default): the conflicting event is not imported.
//   - "record": the conflict is logged but the event is imported anyway.
//   - "fail": same as "skip", logged at a higher severity — a conflict
//     here means the caller should surface it rather than absorb it.
type ConflictDetectorHandler struct {
	detector *ConflictDetector
	userID   uuid.UUID
	mode     string
	logger   *slog.Logger
}

// NewConflictDetectorHandler creates a handler that wraps the conflict detector.
func NewConflictDetectorHandler(detector *ConflictDetector, userID uuid.UUID, mode string) *ConflictDetectorHandler {
	if mode == "" {
		mode = "skip"
	}
	logger := slog.Default()
	if detector != nil {
		logger = detector.logger
	}
	return &ConflictDetectorHandler{
		detector: detector,
		userID:   userID,
		mode:     mode,
		logger:   logger,
	}
}

// SetUserID changes the user whose schedule new conflict checks run against.
func (h *ConflictDetectorHandler) SetUserID(userID uuid.UUID) {
	h.userID = userID
}

// HandleConflict implements the worker's ConflictHandler interface.
func (h *ConflictDetectorHandler) HandleConflict(ctx context.Context, external CalendarEvent, existing interface{}) error {
	result, err := h.detector.CheckConflicts(ctx, h.userID, external)
	if err != nil {
		return err
	}
	if !result.HasConflict {
		return nil
	}

	switch h.mode {
	case "record":
		h.logger.WarnContext(ctx, "external event conflicts with scheduled instance, importing anyway",
			"event_id", external.ID, "mode", h.mode)
		return nil
	case "fail":
		h.logger.ErrorContext(ctx, "external event conflicts with scheduled instance",
			"event_id", external.ID, "mode", h.mode)
		return fmt.Errorf("event %q conflicts with a scheduled instance", external.ID)
	default:
		return fmt.Errorf("event %q conflicts with a scheduled instance", external.ID)
	}
}
