package domain

import (
	"github.com/motioneffector/autoplanner/internal/reflow/pattern"
	"github.com/motioneffector/autoplanner/internal/reflow/timegrid"
)

// PatternKind mirrors reflow/pattern.Kind at the persistence boundary,
// validated here before ever reaching the pure core.
type PatternKind string

const (
	PatternDaily   PatternKind = "daily"
	PatternWeekly  PatternKind = "weekly"
	PatternMonthly PatternKind = "monthly"
)

func (k PatternKind) isValid() bool {
	switch k {
	case PatternDaily, PatternWeekly, PatternMonthly:
		return true
	default:
		return false
	}
}

// TimeWindow restricts a flexible pattern's search to part of the day.
type TimeWindow struct {
	Start timegrid.LocalTime
	End   timegrid.LocalTime
}

// Cycling rotates a label across a pattern's successive fires.
type Cycling struct {
	Items []string
}

// Pattern is the persisted, validated form of a recurrence rule (spec
// §3). NewPattern enforces the invariants the core assumes hold; the
// core itself (internal/reflow/pattern) never re-validates.
type Pattern struct {
	kind            PatternKind
	daysOfWeek      map[int]bool
	dayOfMonth      int
	timeOfDay       *timegrid.LocalTime
	durationMinutes int
	fixed           bool
	allDay          bool
	timeWindow      *TimeWindow
	daysBefore      int
	daysAfter       int
	condition       *Condition
	cycling         *Cycling
}

// NewDailyPattern creates a daily recurrence.
func NewDailyPattern(durationMinutes int) (*Pattern, error) {
	if durationMinutes <= 0 {
		return nil, ErrDurationNonPositive
	}
	return &Pattern{kind: PatternDaily, durationMinutes: durationMinutes}, nil
}

// NewWeeklyPattern creates a weekly recurrence firing on the given
// weekdays (0=Sunday..6=Saturday).
func NewWeeklyPattern(daysOfWeek map[int]bool, durationMinutes int) (*Pattern, error) {
	if durationMinutes <= 0 {
		return nil, ErrDurationNonPositive
	}
	if len(daysOfWeek) == 0 {
		return nil, ErrPatternNoWeekdays
	}
	cp := make(map[int]bool, len(daysOfWeek))
	for d, v := range daysOfWeek {
		cp[d] = v
	}
	return &Pattern{kind: PatternWeekly, daysOfWeek: cp, durationMinutes: durationMinutes}, nil
}

// NewMonthlyPattern creates a monthly recurrence on the given day of
// month (clamped to the last day of shorter months by the core).
func NewMonthlyPattern(dayOfMonth, durationMinutes int) (*Pattern, error) {
	if durationMinutes <= 0 {
		return nil, ErrDurationNonPositive
	}
	if dayOfMonth < 1 || dayOfMonth > 31 {
		return nil, ErrPatternInvalidDay
	}
	return &Pattern{kind: PatternMonthly, dayOfMonth: dayOfMonth, durationMinutes: durationMinutes}, nil
}

func (p *Pattern) Kind() PatternKind    { return p.kind }
func (p *Pattern) DurationMinutes() int { return p.durationMinutes }
func (p *Pattern) IsFixed() bool        { return p.fixed }
func (p *Pattern) IsAllDay() bool       { return p.allDay }

// WithTime fixes the pattern's time of day; without it, instances are
// flexible with a default ideal time (spec §3).
func (p *Pattern) WithTime(t timegrid.LocalTime) *Pattern {
	p.timeOfDay = &t
	return p
}

// WithFixed marks instances from this pattern as immovable.
func (p *Pattern) WithFixed() *Pattern {
	p.fixed = true
	return p
}

// WithAllDay marks instances from this pattern as all-day, excluding
// them from reflow search entirely.
func (p *Pattern) WithAllDay() *Pattern {
	p.allDay = true
	p.durationMinutes = 24 * 60
	return p
}

// WithTimeWindow restricts flexible search to start times in
// [start, end], both ends included.
func (p *Pattern) WithTimeWindow(start, end timegrid.LocalTime) (*Pattern, error) {
	if !start.Before(end) {
		return nil, ErrPatternInvalidWindow
	}
	p.timeWindow = &TimeWindow{Start: start, End: end}
	return p, nil
}

// WithDayRange expands flexible search to neighboring calendar dates.
func (p *Pattern) WithDayRange(daysBefore, daysAfter int) *Pattern {
	p.daysBefore = daysBefore
	p.daysAfter = daysAfter
	return p
}

// WithCondition gates which expanded dates survive.
func (p *Pattern) WithCondition(c *Condition) *Pattern {
	p.condition = c
	return p
}

// WithCycling rotates a label across successive fires.
func (p *Pattern) WithCycling(items []string) *Pattern {
	p.cycling = &Cycling{Items: items}
	return p
}

// ToCore converts the validated persisted pattern into the core's
// in-memory pattern.Pattern, the boundary between storage and the pure
// reflow engine (spec §6.2).
func (p *Pattern) ToCore() pattern.Pattern {
	core := pattern.Pattern{
		Kind:            pattern.Kind(p.kind),
		DaysOfWeek:      p.daysOfWeek,
		DayOfMonth:      p.dayOfMonth,
		Time:            p.timeOfDay,
		DurationMinutes: p.durationMinutes,
		Fixed:           p.fixed,
		AllDay:          p.allDay,
		DaysBefore:      p.daysBefore,
		DaysAfter:       p.daysAfter,
	}
	if p.timeWindow != nil {
		core.TimeWindow = &pattern.TimeWindow{Start: p.timeWindow.Start, End: p.timeWindow.End}
	}
	if p.cycling != nil {
		core.Cycling = &pattern.Cycling{Items: p.cycling.Items}
	}
	if p.condition != nil {
		core.Condition = p.condition.toCore()
	}
	return core
}

// Condition is the persisted form of the core's condition tree.
type Condition struct {
	Kind       pattern.ConditionKind
	Children   []*Condition
	Weekdays   map[int]bool
	SeriesRef  string
	Comparison pattern.Comparison
	Value      int
	WindowDays int
}

func (c *Condition) toCore() *pattern.Condition {
	if c == nil {
		return nil
	}
	children := make([]*pattern.Condition, len(c.Children))
	for i, child := range c.Children {
		children[i] = child.toCore()
	}
	return &pattern.Condition{
		Kind:       c.Kind,
		Children:   children,
		Weekdays:   c.Weekdays,
		SeriesRef:  c.SeriesRef,
		Comparison: c.Comparison,
		Value:      c.Value,
		WindowDays: c.WindowDays,
	}
}
