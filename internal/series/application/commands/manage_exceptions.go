package commands

import (
	"context"

	"github.com/motioneffector/autoplanner/internal/reflow/instance"
	"github.com/motioneffector/autoplanner/internal/reflow/timegrid"
	"github.com/motioneffector/autoplanner/internal/series/domain"
	"github.com/google/uuid"
)

// ExceptionHandler handles per-instance cancel/reschedule writes, upsert
// by (seriesID, originalDate) per spec §3/§6.2.
type ExceptionHandler struct {
	adapter domain.Adapter
}

// NewExceptionHandler wires an ExceptionHandler.
func NewExceptionHandler(adapter domain.Adapter) *ExceptionHandler {
	return &ExceptionHandler{adapter: adapter}
}

// CancelInstanceCommand cancels a single occurrence.
type CancelInstanceCommand struct {
	SeriesID uuid.UUID
	Date     timegrid.LocalDate
}

// Cancel upserts a cancellation exception for the date, rejecting a
// second cancellation of an already-cancelled instance (spec §8's
// idempotence law is enforced by Upsert, not silently swallowed here).
func (h *ExceptionHandler) Cancel(ctx context.Context, cmd CancelInstanceCommand) error {
	return h.adapter.WithinTransaction(ctx, func(txCtx context.Context) error {
		existing, err := h.adapter.GetInstanceException(txCtx, cmd.SeriesID, cmd.Date)
		if err != nil && err != domain.ErrExceptionNotFound {
			return err
		}
		if existing != nil {
			if err := existing.Upsert(instance.ExceptionCancelled, nil); err != nil {
				return err
			}
			return h.adapter.UpsertInstanceException(txCtx, existing)
		}
		return h.adapter.UpsertInstanceException(txCtx, domain.NewCancelledException(cmd.SeriesID, cmd.Date))
	})
}

// RescheduleInstanceCommand moves a single occurrence to a new time of
// day on the same date.
type RescheduleInstanceCommand struct {
	SeriesID uuid.UUID
	Date     timegrid.LocalDate
	NewTime  timegrid.LocalTime
}

// Reschedule upserts a reschedule exception, rejecting an attempt to
// reschedule an instance already cancelled (spec §3: "a cancelled
// instance cannot subsequently be rescheduled").
func (h *ExceptionHandler) Reschedule(ctx context.Context, cmd RescheduleInstanceCommand) error {
	return h.adapter.WithinTransaction(ctx, func(txCtx context.Context) error {
		existing, err := h.adapter.GetInstanceException(txCtx, cmd.SeriesID, cmd.Date)
		if err != nil && err != domain.ErrExceptionNotFound {
			return err
		}
		if existing != nil {
			newTime := cmd.NewTime
			if err := existing.Upsert(instance.ExceptionRescheduled, &newTime); err != nil {
				return err
			}
			return h.adapter.UpsertInstanceException(txCtx, existing)
		}
		return h.adapter.UpsertInstanceException(txCtx, domain.NewRescheduledException(cmd.SeriesID, cmd.Date, cmd.NewTime))
	})
}
