package commands

import (
	"context"

	"github.com/motioneffector/autoplanner/internal/reflow/timegrid"
	"github.com/motioneffector/autoplanner/internal/series/domain"
	"github.com/google/uuid"
)

// ReminderHandler handles reminder CRUD and acknowledgment.
type ReminderHandler struct {
	adapter domain.Adapter
}

// NewReminderHandler wires a ReminderHandler.
func NewReminderHandler(adapter domain.Adapter) *ReminderHandler {
	return &ReminderHandler{adapter: adapter}
}

// CreateReminderCommand attaches a reminder to a series.
type CreateReminderCommand struct {
	SeriesID      uuid.UUID
	MinutesBefore int
}

// Create creates the reminder.
func (h *ReminderHandler) Create(ctx context.Context, cmd CreateReminderCommand) (*domain.Reminder, error) {
	r, err := domain.NewReminder(cmd.SeriesID, cmd.MinutesBefore)
	if err != nil {
		return nil, err
	}
	if err := h.adapter.WithinTransaction(ctx, func(txCtx context.Context) error {
		return h.adapter.CreateReminder(txCtx, r)
	}); err != nil {
		return nil, err
	}
	return r, nil
}

// DeleteReminderCommand removes a reminder by ID.
type DeleteReminderCommand struct {
	ReminderID uuid.UUID
}

// Delete deletes the reminder.
func (h *ReminderHandler) Delete(ctx context.Context, cmd DeleteReminderCommand) error {
	return h.adapter.WithinTransaction(ctx, func(txCtx context.Context) error {
		return h.adapter.DeleteReminder(txCtx, cmd.ReminderID)
	})
}

// AcknowledgeReminderCommand acknowledges a reminder firing for a given
// instance date; acknowledging twice is a no-op (spec §8).
type AcknowledgeReminderCommand struct {
	ReminderID   uuid.UUID
	InstanceDate timegrid.LocalDate
}

// Acknowledge acknowledges the reminder, skipping the write if it was
// already acknowledged for this instance date.
func (h *ReminderHandler) Acknowledge(ctx context.Context, cmd AcknowledgeReminderCommand) error {
	return h.adapter.WithinTransaction(ctx, func(txCtx context.Context) error {
		already, err := h.adapter.IsReminderAcknowledged(txCtx, cmd.ReminderID, cmd.InstanceDate)
		if err != nil {
			return err
		}
		if already {
			return nil
		}
		return h.adapter.AcknowledgeReminder(txCtx, domain.NewReminderAck(cmd.ReminderID, cmd.InstanceDate))
	})
}
