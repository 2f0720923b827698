package domain

import (
	"time"

	"github.com/motioneffector/autoplanner/internal/reflow/timegrid"
	"github.com/google/uuid"
)

// Reminder belongs to a series and fires MinutesBefore an instance's
// assigned start time (spec §1 lists reminders as an external
// collaborator the core does not consume; SPEC_FULL supplements it).
type Reminder struct {
	id             uuid.UUID
	seriesID       uuid.UUID
	minutesBefore  int
}

// NewReminder creates a reminder for a series. minutesBefore == 0 fires
// at the instance's assigned time (spec §8 boundary behavior).
func NewReminder(seriesID uuid.UUID, minutesBefore int) (*Reminder, error) {
	if minutesBefore < 0 {
		return nil, ErrReminderLeadNegative
	}
	return &Reminder{id: uuid.New(), seriesID: seriesID, minutesBefore: minutesBefore}, nil
}

// RehydrateReminder reconstructs a Reminder from storage.
func RehydrateReminder(id, seriesID uuid.UUID, minutesBefore int) *Reminder {
	return &Reminder{id: id, seriesID: seriesID, minutesBefore: minutesBefore}
}

func (r *Reminder) ID() uuid.UUID        { return r.id }
func (r *Reminder) SeriesID() uuid.UUID  { return r.seriesID }
func (r *Reminder) MinutesBefore() int   { return r.minutesBefore }

// FireTime computes when this reminder fires for an instance assigned to
// start at the given time. An all-day instance fires relative to
// midnight of its date (spec §8: "All-day + minutesBefore=1440 fires at
// 00:00 of the previous day").
func (r *Reminder) FireTime(instanceStart timegrid.LocalDateTime, allDay bool) timegrid.LocalDateTime {
	base := instanceStart
	if allDay {
		base = timegrid.NewLocalDateTime(instanceStart.Date, timegrid.LocalTime{})
	}
	return base.AddMinutes(-r.minutesBefore)
}

// ReminderAck records acknowledgment of a reminder firing for a specific
// instance date, keyed (reminderID, instanceDate) (spec §3).
type ReminderAck struct {
	reminderID     uuid.UUID
	instanceDate   timegrid.LocalDate
	acknowledgedAt time.Time
}

// NewReminderAck acknowledges a reminder. Acknowledging an already-acked
// reminder is a no-op at the repository layer (spec §8 idempotence law);
// this constructor always produces a fresh value for the first ack.
func NewReminderAck(reminderID uuid.UUID, date timegrid.LocalDate) *ReminderAck {
	return &ReminderAck{reminderID: reminderID, instanceDate: date, acknowledgedAt: time.Now().UTC()}
}

// RehydrateReminderAck reconstructs a ReminderAck from storage.
func RehydrateReminderAck(reminderID uuid.UUID, date timegrid.LocalDate, at time.Time) *ReminderAck {
	return &ReminderAck{reminderID: reminderID, instanceDate: date, acknowledgedAt: at}
}

func (a *ReminderAck) ReminderID() uuid.UUID             { return a.reminderID }
func (a *ReminderAck) InstanceDate() timegrid.LocalDate  { return a.instanceDate }
func (a *ReminderAck) AcknowledgedAt() time.Time         { return a.acknowledgedAt }
