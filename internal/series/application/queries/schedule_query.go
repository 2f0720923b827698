package queries

import (
	"context"

	"github.com/motioneffector/autoplanner/internal/reflow"
	"github.com/motioneffector/autoplanner/internal/reflow/facade"
	"github.com/motioneffector/autoplanner/internal/reflow/timegrid"
	"github.com/google/uuid"
)

// ScheduleQuery runs a reflow pass over a user's series through the
// façade, the single read path that actually computes placements rather
// than reading persisted state verbatim.
type ScheduleQuery struct {
	service *facade.Service
}

// NewScheduleQuery wires a ScheduleQuery around a façade Service.
func NewScheduleQuery(service *facade.Service) *ScheduleQuery {
	return &ScheduleQuery{service: service}
}

// Run computes the schedule for [windowStart, windowEnd], both dates included.
func (q *ScheduleQuery) Run(ctx context.Context, userID uuid.UUID, windowStart, windowEnd timegrid.LocalDate) (reflow.ReflowOutput, error) {
	return q.service.Schedule(ctx, userID, windowStart, windowEnd)
}
