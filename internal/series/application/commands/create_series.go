// Package commands holds the application-layer command handlers that
// mutate series state: each wraps one domain operation in the adapter's
// transactional scope and forwards the aggregate's domain events to the
// outbox, the same shape as the teacher's habits/application/commands
// (spec §6.2, §7: "mutations are transactional at the adapter boundary").
package commands

import (
	"context"

	"github.com/motioneffector/autoplanner/internal/reflow/timegrid"
	"github.com/motioneffector/autoplanner/internal/series/domain"
	sharedApplication "github.com/motioneffector/autoplanner/internal/shared/application"
	"github.com/motioneffector/autoplanner/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// CreateSeriesCommand declares a new recurring series with its first
// pattern.
type CreateSeriesCommand struct {
	UserID    uuid.UUID
	Name      string
	StartDate timegrid.LocalDate
	Pattern   *domain.Pattern
}

// CreateSeriesResult returns the newly assigned series ID.
type CreateSeriesResult struct {
	SeriesID uuid.UUID
}

// CreateSeriesHandler handles CreateSeriesCommand.
type CreateSeriesHandler struct {
	adapter    domain.Adapter
	outboxRepo outbox.Repository
}

// NewCreateSeriesHandler wires a CreateSeriesHandler.
func NewCreateSeriesHandler(adapter domain.Adapter, outboxRepo outbox.Repository) *CreateSeriesHandler {
	return &CreateSeriesHandler{adapter: adapter, outboxRepo: outboxRepo}
}

// Handle creates the series and persists its creation event.
func (h *CreateSeriesHandler) Handle(ctx context.Context, cmd CreateSeriesCommand) (*CreateSeriesResult, error) {
	series, err := domain.NewSeries(cmd.UserID, cmd.Name, cmd.StartDate, cmd.Pattern)
	if err != nil {
		return nil, err
	}

	metadata := sharedApplication.NewEventMetadata(cmd.UserID)
	sharedApplication.ApplyEventMetadata(series.DomainEvents(), metadata)

	err = h.adapter.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := h.adapter.CreateSeries(txCtx, series); err != nil {
			return err
		}
		if err := publishEvents(txCtx, h.outboxRepo, series.DomainEvents()); err != nil {
			return err
		}
		series.ClearDomainEvents()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &CreateSeriesResult{SeriesID: series.ID()}, nil
}
