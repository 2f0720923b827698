package facade

import (
	"context"
	"fmt"

	"github.com/motioneffector/autoplanner/internal/reflow"
	"github.com/motioneffector/autoplanner/internal/reflow/instance"
	"github.com/motioneffector/autoplanner/internal/reflow/pattern"
	"github.com/motioneffector/autoplanner/internal/reflow/timegrid"
	"github.com/motioneffector/autoplanner/internal/series/domain"
	"github.com/google/uuid"
)

// snapshot bundles everything hydrate reads, kept separate from
// reflow.ReflowInput so the fingerprint can be computed from the
// pre-conversion domain objects.
type snapshot struct {
	series      []*domain.Series
	completions map[uuid.UUID][]*domain.Completion
	exceptions  map[uuid.UUID][]*domain.InstanceException
	constraints []*domain.Constraint
}

// hydrate reads everything one reflow pass needs for a user's series
// over [windowStart, windowEnd], both dates included, from the adapter, the single read path
// the façade uses to build a core snapshot (spec §1, "a façade hydrates
// a snapshot").
func (s *Service) hydrate(ctx context.Context, userID uuid.UUID, windowStart, windowEnd timegrid.LocalDate) (*snapshot, error) {
	seriesList, err := s.adapter.ListSeriesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}

	active := make([]*domain.Series, 0, len(seriesList))
	for _, sr := range seriesList {
		if !sr.IsArchived() {
			active = append(active, sr)
		}
	}

	completions := make(map[uuid.UUID][]*domain.Completion, len(active))
	exceptions := make(map[uuid.UUID][]*domain.InstanceException, len(active))
	// The adapter's range reads exclude their end date.
	readEnd := windowEnd.AddDays(1)
	for _, sr := range active {
		c, err := s.adapter.ListCompletionsByDateRange(ctx, sr.ID(), windowStart, readEnd)
		if err != nil {
			return nil, fmt.Errorf("list completions for %s: %w", sr.ID(), err)
		}
		completions[sr.ID()] = c

		e, err := s.adapter.ListInstanceExceptionsByRange(ctx, sr.ID(), windowStart, readEnd)
		if err != nil {
			return nil, fmt.Errorf("list exceptions for %s: %w", sr.ID(), err)
		}
		exceptions[sr.ID()] = e
	}

	constraints, err := s.adapter.ListConstraints(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list constraints: %w", err)
	}

	return &snapshot{series: active, completions: completions, exceptions: exceptions, constraints: constraints}, nil
}

// toReflowInput converts a hydrated snapshot into the core's pure
// ReflowInput, the façade/core boundary (spec §1, §6.2).
func (s *Service) toReflowInput(ctx context.Context, snap *snapshot, windowStart, windowEnd timegrid.LocalDate) (reflow.ReflowInput, error) {
	tagIndex := make(map[string][]uuid.UUID)
	for _, sr := range snap.series {
		for _, tag := range sr.Tags() {
			tagIndex[tag] = append(tagIndex[tag], sr.ID())
		}
	}

	coreSeries := make([]instance.Series, 0, len(snap.series))
	chainLinks := make([]instance.ChainLink, 0)
	var exceptions []instance.Exception
	var completions []instance.Completion

	for _, sr := range snap.series {
		patterns := make([]pattern.Pattern, 0, len(sr.Patterns()))
		for _, p := range sr.Patterns() {
			patterns = append(patterns, p.ToCore())
		}

		var chainRef *instance.ChainLinkRef
		if link := sr.Chain(); link != nil {
			chainRef = &instance.ChainLinkRef{
				ParentSeriesID: link.ParentSeriesID.String(),
				DistanceMin:    link.DistanceMin,
				EarlyWobbleMin: link.EarlyWobbleMin,
				LateWobbleMin:  link.LateWobbleMin,
			}
			chainLinks = append(chainLinks, instance.ChainLink{
				ParentSeriesID: link.ParentSeriesID.String(),
				ChildSeriesID:  sr.ID().String(),
				DistanceMin:    link.DistanceMin,
				EarlyWobbleMin: link.EarlyWobbleMin,
				LateWobbleMin:  link.LateWobbleMin,
			})
		}

		coreSeries = append(coreSeries, instance.Series{
			ID:               sr.ID().String(),
			StartDate:        sr.StartDate(),
			EndDate:          sr.EndDate(),
			Patterns:         patterns,
			Chain:            chainRef,
			AdaptiveDuration: sr.HasAdaptiveDuration(),
		})

		for _, e := range snap.exceptions[sr.ID()] {
			exceptions = append(exceptions, e.ToCore())
		}
		for _, c := range snap.completions[sr.ID()] {
			completions = append(completions, instance.Completion{
				SeriesID:     c.SeriesID().String(),
				InstanceDate: c.InstanceDate(),
				StartTime:    c.StartTime(),
				EndTime:      c.EndTime(),
			})
		}
	}

	var relations []reflow.SeriesRelation
	for _, c := range snap.constraints {
		kind := reflow.RelationNoOverlap
		if c.Kind() == domain.ConstraintMustBeBefore {
			kind = reflow.RelationMustBeBefore
		}
		for _, pair := range c.ResolveSeriesPairs(tagIndex) {
			relations = append(relations, reflow.SeriesRelation{
				Kind:      kind,
				SeriesAID: pair[0].String(),
				SeriesBID: pair[1].String(),
			})
		}
	}

	completionCounter := s.completionCounter(snap)

	return reflow.ReflowInput{
		Series:          coreSeries,
		Exceptions:      exceptions,
		Completions:     completions,
		ChainLinks:      chainLinks,
		Relations:       relations,
		WindowStart:     windowStart,
		WindowEnd:       windowEnd,
		CompletionCount: completionCounter,
	}, nil
}

// completionCounter adapts the hydrated completion set into the core's
// CompletionCounter callback (spec §4.1's completionCount condition
// operand), counting logged completions for a series in a trailing
// window ending at windowEnd.
func (s *Service) completionCounter(snap *snapshot) pattern.CompletionCounter {
	bySeries := make(map[string][]*domain.Completion, len(snap.completions))
	for id, cs := range snap.completions {
		bySeries[id.String()] = cs
	}
	return func(seriesID string, windowEnd timegrid.LocalDate, windowDays int) int {
		start := windowEnd.AddDays(-windowDays + 1)
		count := 0
		for _, c := range bySeries[seriesID] {
			d := c.InstanceDate()
			if !d.Before(start) && (d.Before(windowEnd) || d.Equal(windowEnd)) {
				count++
			}
		}
		return count
	}
}
