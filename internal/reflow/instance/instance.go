// Package instance turns series + patterns + exceptions + completions
// into the candidate instance set the CSP solver works over (spec
// §4.2, component C3).
package instance

import (
	"sort"

	"github.com/motioneffector/autoplanner/internal/reflow/pattern"
	"github.com/motioneffector/autoplanner/internal/reflow/timegrid"
)

// ChainMeta carries a chain-child instance's link to its parent series
// (spec §3 invariant: a chain-child instance has both ParentSeriesID and
// ChainDistance set).
type ChainMeta struct {
	ParentSeriesID string
	ChainDistance  int
	EarlyWobble    int
	LateWobble     int
}

// Instance is a candidate (series, date) occurrence produced during
// generation (spec §3). It exists only in memory.
type Instance struct {
	SeriesID   string
	Date       timegrid.LocalDate
	IdealTime  timegrid.LocalDateTime
	Duration   int // minutes
	Fixed      bool
	AllDay     bool
	TimeWindow *pattern.TimeWindow
	DaysBefore int
	DaysAfter  int
	Chain      *ChainMeta
	Title      string
}

// IsChainChild reports whether this instance's time is derived from a
// parent rather than chosen by search.
func (i Instance) IsChainChild() bool {
	return i.Chain != nil
}

// ExceptionKind tags the instance-exception variant (spec §3).
type ExceptionKind string

const (
	ExceptionCancelled   ExceptionKind = "cancelled"
	ExceptionRescheduled ExceptionKind = "rescheduled"
)

// Exception is keyed by (seriesID, originalDate) with upsert semantics
// enforced by the series adapter, not here (spec §3).
type Exception struct {
	SeriesID     string
	OriginalDate timegrid.LocalDate
	Kind         ExceptionKind
	NewTime      *timegrid.LocalTime // set only when Kind == ExceptionRescheduled
}

// Completion marks an instance as done (spec §3).
type Completion struct {
	SeriesID     string
	InstanceDate timegrid.LocalDate
	StartTime    *timegrid.LocalTime
	EndTime      *timegrid.LocalTime
}

// ChainLink describes a parent->child temporal offset (spec §3).
type ChainLink struct {
	ParentSeriesID string
	ChildSeriesID  string
	DistanceMin    int
	EarlyWobbleMin int
	LateWobbleMin  int
}

// SeriesPattern is one pattern attached to a series, paired with an
// owning series id for generation.
type SeriesPattern struct {
	SeriesID   string
	SeriesName string
	Pattern    pattern.Pattern
}

// Series is the minimal generation-time view of a series the core needs;
// richer persisted fields live in internal/series/domain and are not
// passed to the core (spec §1: "the core reads a snapshot").
type Series struct {
	ID         string
	StartDate  timegrid.LocalDate
	EndDate    *timegrid.LocalDate // exclusive, nil means unbounded
	Patterns   []pattern.Pattern
	Chain      *ChainLinkRef
	AdaptiveDuration bool
}

// ChainLinkRef is the single inbound chain link for a series, if any.
type ChainLinkRef struct {
	ParentSeriesID string
	DistanceMin    int
	EarlyWobbleMin int
	LateWobbleMin  int
}

// GenerateInput bundles everything instance generation needs.
type GenerateInput struct {
	Series           []Series
	Exceptions       []Exception // only those overlapping the window, per series adapter contract
	Completions      []Completion
	WindowStart      timegrid.LocalDate
	WindowEnd        timegrid.LocalDate
	CompletionCount  pattern.CompletionCounter
	AdaptiveDuration func(seriesID string, date timegrid.LocalDate, completions []Completion) int
}

// Generate produces the flat candidate instance list (spec §4.2).
// Determinism: for a fixed input it returns instances in a stable order
// (by seriesID, then date) as required by spec §4.2 and INV-4.
func Generate(in GenerateInput) []Instance {
	exceptionIndex := make(map[string]map[string]Exception)
	for _, ex := range in.Exceptions {
		m, ok := exceptionIndex[ex.SeriesID]
		if !ok {
			m = make(map[string]Exception)
			exceptionIndex[ex.SeriesID] = m
		}
		m[ex.OriginalDate.String()] = ex
	}

	completionsBySeries := make(map[string][]Completion)
	for _, c := range in.Completions {
		completionsBySeries[c.SeriesID] = append(completionsBySeries[c.SeriesID], c)
	}

	out := make([]Instance, 0)

	for _, s := range in.Series {
		r := pattern.Range{Start: in.WindowStart, End: in.WindowEnd}
		baseIndex := len(completionsBySeries[s.ID])

		for _, p := range s.Patterns {
			dates := pattern.ExpandWithCondition(p, r, s.StartDate, s.EndDate, s.ID, in.CompletionCount)

			seq := 0
			for _, d := range dates {
				ex, hasEx := exceptionIndex[s.ID][d.String()]
				if hasEx && ex.Kind == ExceptionCancelled {
					continue
				}

				idealTime := defaultIdealTime(p)
				if hasEx && ex.Kind == ExceptionRescheduled && ex.NewTime != nil {
					idealTime = *ex.NewTime
				} else if p.Time != nil {
					idealTime = *p.Time
				}

				duration := p.DurationMinutes
				if s.AdaptiveDuration && in.AdaptiveDuration != nil {
					duration = in.AdaptiveDuration(s.ID, d, completionsBySeries[s.ID])
				}

				title := ""
				if p.Cycling != nil {
					title = p.Cycling.TitleAt(baseIndexForCycling(baseIndex), seq)
				}
				seq++

				var chain *ChainMeta
				if s.Chain != nil {
					chain = &ChainMeta{
						ParentSeriesID: s.Chain.ParentSeriesID,
						ChainDistance:  s.Chain.DistanceMin,
						EarlyWobble:    s.Chain.EarlyWobbleMin,
						LateWobble:     s.Chain.LateWobbleMin,
					}
				}

				out = append(out, Instance{
					SeriesID:   s.ID,
					Date:       d,
					IdealTime:  timegrid.NewLocalDateTime(d, idealTime),
					Duration:   duration,
					Fixed:      p.Fixed,
					AllDay:     p.AllDay,
					TimeWindow: p.TimeWindow,
					DaysBefore: p.DaysBefore,
					DaysAfter:  p.DaysAfter,
					Chain:      chain,
					Title:      title,
				})
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SeriesID != out[j].SeriesID {
			return out[i].SeriesID < out[j].SeriesID
		}
		return out[i].Date.Before(out[j].Date)
	})

	return out
}

func baseIndexForCycling(loggedCompletions int) int {
	return loggedCompletions
}

func defaultIdealTime(p pattern.Pattern) timegrid.LocalTime {
	if p.AllDay {
		return timegrid.LocalTime{}
	}
	if p.Time != nil {
		return *p.Time
	}
	return timegrid.DefaultFlexibleTime
}
