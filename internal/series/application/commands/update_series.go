package commands

import (
	"context"

	"github.com/motioneffector/autoplanner/internal/reflow/timegrid"
	"github.com/motioneffector/autoplanner/internal/series/domain"
	"github.com/motioneffector/autoplanner/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// SeriesMutationHandler wires the single adapter/outbox pair shared by
// every command that loads a series, mutates it in place, and saves it
// back inside one transaction.
type SeriesMutationHandler struct {
	adapter    domain.Adapter
	outboxRepo outbox.Repository
}

// NewSeriesMutationHandler wires a SeriesMutationHandler.
func NewSeriesMutationHandler(adapter domain.Adapter, outboxRepo outbox.Repository) *SeriesMutationHandler {
	return &SeriesMutationHandler{adapter: adapter, outboxRepo: outboxRepo}
}

func (h *SeriesMutationHandler) mutate(ctx context.Context, seriesID uuid.UUID, fn func(s *domain.Series) error) error {
	return h.adapter.WithinTransaction(ctx, func(txCtx context.Context) error {
		series, err := h.adapter.GetSeries(txCtx, seriesID)
		if err != nil {
			return err
		}
		if err := fn(series); err != nil {
			return err
		}
		if err := h.adapter.UpdateSeries(txCtx, series); err != nil {
			return err
		}
		if err := publishEvents(txCtx, h.outboxRepo, series.DomainEvents()); err != nil {
			return err
		}
		series.ClearDomainEvents()
		return nil
	})
}

// AddPatternCommand attaches another recurrence rule to a series.
type AddPatternCommand struct {
	SeriesID uuid.UUID
	Pattern  *domain.Pattern
}

// AddPattern attaches the pattern.
func (h *SeriesMutationHandler) AddPattern(ctx context.Context, cmd AddPatternCommand) error {
	return h.mutate(ctx, cmd.SeriesID, func(s *domain.Series) error {
		return s.AddPattern(cmd.Pattern)
	})
}

// SetEndDateCommand bounds a series to end (exclusively) on a date.
type SetEndDateCommand struct {
	SeriesID uuid.UUID
	End      timegrid.LocalDate
}

// SetEndDate bounds the series.
func (h *SeriesMutationHandler) SetEndDate(ctx context.Context, cmd SetEndDateCommand) error {
	return h.mutate(ctx, cmd.SeriesID, func(s *domain.Series) error {
		return s.SetEndDate(cmd.End)
	})
}

// SetTagsCommand replaces a series' tag set.
type SetTagsCommand struct {
	SeriesID uuid.UUID
	Tags     []string
}

// SetTags replaces the series' tags.
func (h *SeriesMutationHandler) SetTags(ctx context.Context, cmd SetTagsCommand) error {
	return h.mutate(ctx, cmd.SeriesID, func(s *domain.Series) error {
		return s.SetTags(cmd.Tags)
	})
}

// SetChainCommand links a series to a parent as a chain-derived child.
type SetChainCommand struct {
	SeriesID       uuid.UUID
	ParentSeriesID uuid.UUID
	DistanceMin    int
	EarlyWobbleMin int
	LateWobbleMin  int
}

// SetChain links the series and persists the chain link's own row
// alongside the series' denormalized chain field (spec §3: the adapter
// exposes both CreateChainLink and the series' embedded chain pointer so
// ListChainLinksByParent can answer without loading every child series).
func (h *SeriesMutationHandler) SetChain(ctx context.Context, cmd SetChainCommand) error {
	return h.adapter.WithinTransaction(ctx, func(txCtx context.Context) error {
		series, err := h.adapter.GetSeries(txCtx, cmd.SeriesID)
		if err != nil {
			return err
		}
		if err := series.SetChain(cmd.ParentSeriesID, cmd.DistanceMin, cmd.EarlyWobbleMin, cmd.LateWobbleMin); err != nil {
			return err
		}
		if err := h.adapter.UpdateSeries(txCtx, series); err != nil {
			return err
		}
		if err := h.adapter.CreateChainLink(txCtx, cmd.SeriesID, series.Chain()); err != nil {
			return err
		}
		if err := publishEvents(txCtx, h.outboxRepo, series.DomainEvents()); err != nil {
			return err
		}
		series.ClearDomainEvents()
		return nil
	})
}

// SetAdaptiveDurationCommand toggles adaptive-duration computation.
type SetAdaptiveDurationCommand struct {
	SeriesID uuid.UUID
	Adaptive bool
}

// SetAdaptiveDuration toggles the flag.
func (h *SeriesMutationHandler) SetAdaptiveDuration(ctx context.Context, cmd SetAdaptiveDurationCommand) error {
	return h.mutate(ctx, cmd.SeriesID, func(s *domain.Series) error {
		s.SetAdaptiveDuration(cmd.Adaptive)
		return nil
	})
}

// ArchiveSeriesCommand archives a series, excluding it from future
// reflow passes.
type ArchiveSeriesCommand struct {
	SeriesID uuid.UUID
}

// Archive archives the series.
func (h *SeriesMutationHandler) Archive(ctx context.Context, cmd ArchiveSeriesCommand) error {
	return h.mutate(ctx, cmd.SeriesID, func(s *domain.Series) error {
		return s.Archive()
	})
}

// DeleteSeriesCommand deletes a series outright; the adapter enforces
// the spec §3/§6.4 guard against deleting a series with completions or
// linked children.
type DeleteSeriesCommand struct {
	SeriesID uuid.UUID
}

// Delete deletes the series.
func (h *SeriesMutationHandler) Delete(ctx context.Context, cmd DeleteSeriesCommand) error {
	return h.adapter.WithinTransaction(ctx, func(txCtx context.Context) error {
		return h.adapter.DeleteSeries(txCtx, cmd.SeriesID)
	})
}
