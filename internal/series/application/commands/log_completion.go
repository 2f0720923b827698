package commands

import (
	"context"

	"github.com/motioneffector/autoplanner/internal/reflow/timegrid"
	"github.com/motioneffector/autoplanner/internal/series/domain"
	"github.com/google/uuid"
)

// LogCompletionCommand marks a scheduled instance done.
type LogCompletionCommand struct {
	SeriesID     uuid.UUID
	InstanceDate timegrid.LocalDate
	StartTime    *timegrid.LocalTime
	EndTime      *timegrid.LocalTime
}

// LogCompletionHandler handles LogCompletionCommand.
type LogCompletionHandler struct {
	adapter domain.Adapter
}

// NewLogCompletionHandler wires a LogCompletionHandler.
func NewLogCompletionHandler(adapter domain.Adapter) *LogCompletionHandler {
	return &LogCompletionHandler{adapter: adapter}
}

// Handle logs the completion. Completions carry no domain events of
// their own (spec §3) — they feed the next reflow pass's completionCount
// condition operand. A logged end time does not move chain children: the
// reflow pass derives them from the parent's placed start plus duration.
func (h *LogCompletionHandler) Handle(ctx context.Context, cmd LogCompletionCommand) (*domain.Completion, error) {
	completion := domain.NewCompletion(cmd.SeriesID, cmd.InstanceDate, cmd.StartTime, cmd.EndTime)
	if err := h.adapter.WithinTransaction(ctx, func(txCtx context.Context) error {
		return h.adapter.CreateCompletion(txCtx, completion)
	}); err != nil {
		return nil, err
	}
	return completion, nil
}
