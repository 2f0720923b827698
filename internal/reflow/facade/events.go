package facade

import (
	sharedDomain "github.com/motioneffector/autoplanner/internal/shared/domain"
	"github.com/google/uuid"
)

const (
	AggregateType = "Schedule"

	// RoutingKeyScheduleComputed is published once per reflow pass that
	// produced at least one conflict, matching the teacher's convention of
	// emitting events for outcomes a subscriber might act on rather than
	// every pure read (spec §6: the core itself never emits — only the
	// façade, which owns all I/O, does).
	RoutingKeyScheduleComputed = "reflow.schedule_computed"
)

// ScheduleComputed is emitted after a reflow pass whose output contains one
// or more conflicts, so that downstream consumers (e.g. a notification
// subscriber) can surface them without polling.
type ScheduleComputed struct {
	sharedDomain.BaseEvent
	WindowStart   string `json:"window_start"`
	WindowEnd     string `json:"window_end"`
	ConflictCount int    `json:"conflict_count"`
	InstanceCount int    `json:"instance_count"`
}

func newScheduleComputed(userID uuid.UUID, windowStart, windowEnd string, conflictCount, instanceCount int) ScheduleComputed {
	return ScheduleComputed{
		BaseEvent:     sharedDomain.NewBaseEvent(userID, AggregateType, RoutingKeyScheduleComputed),
		WindowStart:   windowStart,
		WindowEnd:     windowEnd,
		ConflictCount: conflictCount,
		InstanceCount: instanceCount,
	}
}
