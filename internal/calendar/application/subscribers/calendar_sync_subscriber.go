package subscribers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/motioneffector/autoplanner/internal/calendar/application"
	"github.com/motioneffector/autoplanner/internal/reflow/facade"
	"github.com/motioneffector/autoplanner/internal/reflow/timegrid"
	"github.com/motioneffector/autoplanner/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
)

// CalendarSyncSubscriber listens for reflow.schedule_computed events and
// pushes the recomputed window's placements to every connected external
// calendar. The façade only emits the event when a pass surfaced a
// conflict (see facade/events.go), so a push here always reflects a
// window whose placement just changed in a way worth a subscriber
// knowing about — not every read.
type CalendarSyncSubscriber struct {
	syncer   application.Syncer
	schedule application.ScheduleLookup
	logger   *slog.Logger
	enabled  bool
}

// NewCalendarSyncSubscriber creates a new calendar sync subscriber.
func NewCalendarSyncSubscriber(
	syncer application.Syncer,
	schedule application.ScheduleLookup,
	logger *slog.Logger,
) *CalendarSyncSubscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &CalendarSyncSubscriber{
		syncer:   syncer,
		schedule: schedule,
		logger:   logger,
		enabled:  true,
	}
}

// SetEnabled enables or disables the subscriber.
func (s *CalendarSyncSubscriber) SetEnabled(enabled bool) {
	s.enabled = enabled
}

// EventTypes returns the event types this subscriber handles.
func (s *CalendarSyncSubscriber) EventTypes() []string {
	return []string{facade.RoutingKeyScheduleComputed}
}

// scheduleComputedPayload mirrors facade.ScheduleComputed's own fields;
// declared locally so this package never has to import the concrete
// event type for unmarshaling, only the routing key constant.
type scheduleComputedPayload struct {
	WindowStart   string `json:"window_start"`
	WindowEnd     string `json:"window_end"`
	ConflictCount int    `json:"conflict_count"`
	InstanceCount int    `json:"instance_count"`
}

// Handle processes a reflow.schedule_computed event.
func (s *CalendarSyncSubscriber) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	if !s.enabled {
		s.logger.Debug("calendar sync subscriber disabled, skipping event", "routing_key", event.RoutingKey)
		return nil
	}
	if s.syncer == nil || s.schedule == nil {
		s.logger.Debug("calendar syncer not configured, skipping event", "routing_key", event.RoutingKey)
		return nil
	}
	if event.RoutingKey != facade.RoutingKeyScheduleComputed {
		s.logger.Warn("unknown event type", "routing_key", event.RoutingKey)
		return nil
	}

	var payload scheduleComputedPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		s.logger.Error("failed to unmarshal schedule computed payload", "error", err)
		return nil // don't fail the event
	}

	windowStart, err := timegrid.ParseLocalDate(payload.WindowStart)
	if err != nil {
		s.logger.Error("invalid window_start in schedule computed payload", "error", err)
		return nil
	}
	windowEnd, err := timegrid.ParseLocalDate(payload.WindowEnd)
	if err != nil {
		s.logger.Error("invalid window_end in schedule computed payload", "error", err)
		return nil
	}

	userID := event.AggregateID
	out, err := s.schedule.Schedule(ctx, userID, windowStart, windowEnd)
	if err != nil {
		s.logger.Error("failed to recompute schedule for calendar sync",
			"user_id", userID, "error", err)
		return nil
	}

	blocks := make([]application.TimeBlock, 0, len(out.Instances))
	for _, inst := range out.Instances {
		if inst.AllDay {
			continue
		}
		start := time.Date(inst.Start.Date.Year, time.Month(inst.Start.Date.Month), inst.Start.Date.Day,
			inst.Start.Time.Hour, inst.Start.Time.Minute, inst.Start.Time.Second, 0, time.UTC)
		blocks = append(blocks, application.TimeBlock{
			ID:        instanceID(inst.SeriesID, inst.Date),
			Title:     inst.Title,
			BlockType: "series",
			StartTime: start,
			EndTime:   start.Add(time.Duration(inst.Duration) * time.Minute),
		})
	}

	if len(blocks) == 0 {
		return nil
	}

	result, err := s.syncer.Sync(ctx, userID, blocks)
	if err != nil {
		s.logger.Error("failed to sync recomputed schedule to calendar",
			"user_id", userID, "error", err)
		return nil // don't fail the event
	}

	s.logger.Info("synced recomputed schedule to calendar",
		"user_id", userID,
		"window_start", payload.WindowStart,
		"window_end", payload.WindowEnd,
		"created", result.Created,
		"updated", result.Updated,
	)

	return nil
}

// instanceID derives a stable external-event UID for a placement. The
// reflow core never assigns instances an identity of their own (spec
// §6.1: a ScheduledInstance is SeriesID+Date, not a persisted row), so
// the same series-date pair always maps to the same UUID across reflow
// passes, keeping calendar syncs idempotent upserts rather than dupes.
func instanceID(seriesID string, date timegrid.LocalDate) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(seriesID+"|"+date.String()))
}
