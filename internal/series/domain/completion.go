package domain

import (
	"time"

	"github.com/motioneffector/autoplanner/internal/reflow/timegrid"
	"github.com/google/uuid"
)

// Completion marks a (series, date) instance done (spec §3). Logging a
// completion removes the instance from pending reminders and, for a
// cycling pattern, advances the next-title rotation index. An EndTime is
// stored with the completion; the reflow pass derives a chain child from
// its parent's placed start plus duration and does not read it.
type Completion struct {
	id           uuid.UUID
	seriesID     uuid.UUID
	instanceDate timegrid.LocalDate
	startTime    *timegrid.LocalTime
	endTime      *timegrid.LocalTime
	loggedAt     time.Time
}

// NewCompletion logs a completion for a series instance.
func NewCompletion(seriesID uuid.UUID, date timegrid.LocalDate, start, end *timegrid.LocalTime) *Completion {
	return &Completion{
		id:           uuid.New(),
		seriesID:     seriesID,
		instanceDate: date,
		startTime:    start,
		endTime:      end,
		loggedAt:     time.Now().UTC(),
	}
}

// RehydrateCompletion reconstructs a Completion from storage.
func RehydrateCompletion(id, seriesID uuid.UUID, date timegrid.LocalDate, start, end *timegrid.LocalTime, loggedAt time.Time) *Completion {
	return &Completion{id: id, seriesID: seriesID, instanceDate: date, startTime: start, endTime: end, loggedAt: loggedAt}
}

func (c *Completion) ID() uuid.UUID                    { return c.id }
func (c *Completion) SeriesID() uuid.UUID               { return c.seriesID }
func (c *Completion) InstanceDate() timegrid.LocalDate  { return c.instanceDate }
func (c *Completion) StartTime() *timegrid.LocalTime    { return c.startTime }
func (c *Completion) EndTime() *timegrid.LocalTime      { return c.endTime }
func (c *Completion) LoggedAt() time.Time               { return c.loggedAt }

// ParentEnd computes the effective end of the parent occurrence this
// completion logs, for chain distance computation (spec §3: "parentEnd is
// parent.actualEnd if a completion has been logged with an endTime, else
// parent.start + parent.duration").
func (c *Completion) ParentEnd(scheduledEnd timegrid.LocalDateTime) timegrid.LocalDateTime {
	if c.endTime == nil {
		return scheduledEnd
	}
	return timegrid.NewLocalDateTime(c.instanceDate, *c.endTime)
}
