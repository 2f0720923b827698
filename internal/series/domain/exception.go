package domain

import (
	"github.com/motioneffector/autoplanner/internal/reflow/instance"
	"github.com/motioneffector/autoplanner/internal/reflow/timegrid"
	"github.com/google/uuid"
)

// InstanceException is keyed by (seriesID, originalDate) with upsert
// semantics (spec §3): writing an exception for an existing key replaces
// its variant; a cancelled instance cannot subsequently be rescheduled.
type InstanceException struct {
	seriesID     uuid.UUID
	originalDate timegrid.LocalDate
	kind         instance.ExceptionKind
	newTime      *timegrid.LocalTime
}

// NewCancelledException creates a cancellation exception.
func NewCancelledException(seriesID uuid.UUID, date timegrid.LocalDate) *InstanceException {
	return &InstanceException{seriesID: seriesID, originalDate: date, kind: instance.ExceptionCancelled}
}

// NewRescheduledException creates a reschedule exception to a new time.
func NewRescheduledException(seriesID uuid.UUID, date timegrid.LocalDate, newTime timegrid.LocalTime) *InstanceException {
	return &InstanceException{seriesID: seriesID, originalDate: date, kind: instance.ExceptionRescheduled, newTime: &newTime}
}

func (e *InstanceException) SeriesID() uuid.UUID              { return e.seriesID }
func (e *InstanceException) OriginalDate() timegrid.LocalDate { return e.originalDate }
func (e *InstanceException) Kind() instance.ExceptionKind     { return e.kind }
func (e *InstanceException) NewTime() *timegrid.LocalTime     { return e.newTime }

// Upsert applies a new write to an existing exception in place,
// implementing the upsert laws of spec §3/§8: rescheduled->rescheduled
// replaces newTime; rescheduled->cancelled drops newTime; a cancelled
// exception cannot be rescheduled.
func (e *InstanceException) Upsert(kind instance.ExceptionKind, newTime *timegrid.LocalTime) error {
	if e.kind == instance.ExceptionCancelled && kind == instance.ExceptionRescheduled {
		return ErrCancelledInstance
	}
	if kind == instance.ExceptionCancelled && e.kind == instance.ExceptionCancelled {
		return ErrAlreadyCancelled
	}
	e.kind = kind
	if kind == instance.ExceptionRescheduled {
		e.newTime = newTime
	} else {
		e.newTime = nil
	}
	return nil
}

// ToCore converts to the reflow core's in-memory Exception value.
func (e *InstanceException) ToCore() instance.Exception {
	return instance.Exception{
		SeriesID:     e.seriesID.String(),
		OriginalDate: e.originalDate,
		Kind:         e.kind,
		NewTime:      e.newTime,
	}
}
