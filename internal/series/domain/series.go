package domain

import (
	"strings"

	sharedDomain "github.com/motioneffector/autoplanner/internal/shared/domain"
	"github.com/motioneffector/autoplanner/internal/reflow/timegrid"
	"github.com/google/uuid"
)

// ChainLink is the single inbound chain relation a series may carry
// (spec §3): the series' instances are derived from a parent series'
// placement rather than searched.
type ChainLink struct {
	ParentSeriesID uuid.UUID
	DistanceMin    int
	EarlyWobbleMin int
	LateWobbleMin  int
}

// Series is the persisted aggregate root behind a recurring set of
// instances (spec §3). It owns its patterns and its single inbound
// chain link; exceptions, completions and reminders are separate
// aggregates/entities referencing it by ID.
type Series struct {
	sharedDomain.BaseAggregateRoot
	userID           uuid.UUID
	name             string
	startDate        timegrid.LocalDate
	endDate          *timegrid.LocalDate // exclusive, nil = unbounded
	patterns         []*Pattern
	chain            *ChainLink
	tags             []string
	adaptiveDuration bool
	archived         bool
	locked           bool
}

// NewSeries creates a new series with its first pattern attached.
func NewSeries(userID uuid.UUID, name string, startDate timegrid.LocalDate, first *Pattern) (*Series, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrSeriesEmptyName
	}
	if first == nil {
		return nil, ErrSeriesNoPatterns
	}

	s := &Series{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(),
		userID:            userID,
		name:              name,
		startDate:         startDate,
		patterns:          []*Pattern{first},
	}
	s.AddDomainEvent(NewSeriesCreated(s))
	return s, nil
}

// RehydrateSeries reconstructs a Series from storage without emitting
// domain events (spec §6.2/§9 pattern used throughout the teacher).
func RehydrateSeries(
	entity sharedDomain.BaseEntity,
	version int,
	userID uuid.UUID,
	name string,
	startDate timegrid.LocalDate,
	endDate *timegrid.LocalDate,
	patterns []*Pattern,
	chain *ChainLink,
	tags []string,
	adaptiveDuration bool,
	archived bool,
	locked bool,
) *Series {
	return &Series{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(entity, version),
		userID:            userID,
		name:              name,
		startDate:         startDate,
		endDate:           endDate,
		patterns:          patterns,
		chain:             chain,
		tags:              tags,
		adaptiveDuration:  adaptiveDuration,
		archived:          archived,
		locked:            locked,
	}
}

func (s *Series) UserID() uuid.UUID             { return s.userID }
func (s *Series) Name() string                  { return s.name }
func (s *Series) StartDate() timegrid.LocalDate { return s.startDate }
func (s *Series) EndDate() *timegrid.LocalDate  { return s.endDate }
func (s *Series) Patterns() []*Pattern          { return s.patterns }
func (s *Series) Chain() *ChainLink             { return s.chain }
func (s *Series) Tags() []string                { return s.tags }
func (s *Series) HasAdaptiveDuration() bool     { return s.adaptiveDuration }
func (s *Series) IsArchived() bool              { return s.archived }
func (s *Series) IsLocked() bool                { return s.locked }

// SetTags replaces the series' tag set, used to resolve tag-scoped
// relational constraints (spec §3).
func (s *Series) SetTags(tags []string) error {
	if s.locked {
		return ErrLockedSeries
	}
	s.tags = tags
	s.Touch()
	return nil
}

// Lock prevents further mutation of the series by automated adapters.
func (s *Series) Lock() {
	s.locked = true
	s.Touch()
}

// Unlock re-enables mutation.
func (s *Series) Unlock() {
	s.locked = false
	s.Touch()
}

// AddPattern attaches another recurrence rule to the series.
func (s *Series) AddPattern(p *Pattern) error {
	if s.archived {
		return ErrSeriesArchived
	}
	if s.locked {
		return ErrLockedSeries
	}
	if p == nil {
		return ErrSeriesNoPatterns
	}
	s.patterns = append(s.patterns, p)
	s.Touch()
	s.AddDomainEvent(NewSeriesPatternAdded(s))
	return nil
}

// SetEndDate bounds the series to end (exclusively) on the given date.
func (s *Series) SetEndDate(end timegrid.LocalDate) error {
	if s.archived {
		return ErrSeriesArchived
	}
	if s.locked {
		return ErrLockedSeries
	}
	if !s.startDate.Before(end) {
		return ErrSeriesInvalidDates
	}
	s.endDate = &end
	s.Touch()
	return nil
}

// SetChain attaches this series to a parent, making every instance a
// chain-derived child of the parent's placement.
func (s *Series) SetChain(parentSeriesID uuid.UUID, distanceMin, earlyWobbleMin, lateWobbleMin int) error {
	if s.archived {
		return ErrSeriesArchived
	}
	if s.locked {
		return ErrLockedSeries
	}
	if parentSeriesID == s.ID() {
		return ErrChainSelfReference
	}
	s.chain = &ChainLink{
		ParentSeriesID: parentSeriesID,
		DistanceMin:    distanceMin,
		EarlyWobbleMin: earlyWobbleMin,
		LateWobbleMin:  lateWobbleMin,
	}
	s.Touch()
	s.AddDomainEvent(NewSeriesChainLinked(s))
	return nil
}

// SetAdaptiveDuration toggles the adaptive-duration flag passed to the
// reflow core. The façade supplies no adaptive-duration function to the
// core, so instances keep the pattern's fixed duration either way.
func (s *Series) SetAdaptiveDuration(adaptive bool) {
	s.adaptiveDuration = adaptive
	s.Touch()
}

// Archive marks the series inactive; archived series are excluded from
// future reflow passes by the façade.
func (s *Series) Archive() error {
	if s.archived {
		return ErrSeriesArchived
	}
	if s.locked {
		return ErrLockedSeries
	}
	s.archived = true
	s.Touch()
	s.AddDomainEvent(NewSeriesArchived(s))
	return nil
}
