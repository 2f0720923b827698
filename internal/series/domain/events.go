package domain

import (
	sharedDomain "github.com/motioneffector/autoplanner/internal/shared/domain"
	"github.com/google/uuid"
)

const (
	AggregateType = "Series"

	RoutingKeySeriesCreated      = "series.created"
	RoutingKeySeriesPatternAdded = "series.pattern_added"
	RoutingKeySeriesChainLinked  = "series.chain_linked"
	RoutingKeySeriesArchived     = "series.archived"
)

// SeriesCreated is emitted when a new series is defined.
type SeriesCreated struct {
	sharedDomain.BaseEvent
	Name string `json:"name"`
}

func NewSeriesCreated(s *Series) SeriesCreated {
	return SeriesCreated{
		BaseEvent: sharedDomain.NewBaseEvent(s.ID(), AggregateType, RoutingKeySeriesCreated),
		Name:      s.Name(),
	}
}

// SeriesPatternAdded is emitted when a recurrence rule is attached.
type SeriesPatternAdded struct {
	sharedDomain.BaseEvent
	PatternCount int `json:"pattern_count"`
}

func NewSeriesPatternAdded(s *Series) SeriesPatternAdded {
	return SeriesPatternAdded{
		BaseEvent:    sharedDomain.NewBaseEvent(s.ID(), AggregateType, RoutingKeySeriesPatternAdded),
		PatternCount: len(s.Patterns()),
	}
}

// SeriesChainLinked is emitted when a series is attached to a parent.
type SeriesChainLinked struct {
	sharedDomain.BaseEvent
	ParentSeriesID uuid.UUID `json:"parent_series_id"`
}

func NewSeriesChainLinked(s *Series) SeriesChainLinked {
	return SeriesChainLinked{
		BaseEvent:      sharedDomain.NewBaseEvent(s.ID(), AggregateType, RoutingKeySeriesChainLinked),
		ParentSeriesID: s.Chain().ParentSeriesID,
	}
}

// SeriesArchived is emitted when a series is archived.
type SeriesArchived struct {
	sharedDomain.BaseEvent
}

func NewSeriesArchived(s *Series) SeriesArchived {
	return SeriesArchived{
		BaseEvent: sharedDomain.NewBaseEvent(s.ID(), AggregateType, RoutingKeySeriesArchived),
	}
}
