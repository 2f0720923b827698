// Package pattern expands recurrence patterns into concrete calendar
// dates and evaluates the condition tree attached to a pattern (spec
// §4.1, component C2).
package pattern

import (
	"github.com/motioneffector/autoplanner/internal/reflow/timegrid"
)

// Kind identifies a recurrence variant. Patterns are a tagged union,
// not a class hierarchy, per spec §9.
type Kind string

const (
	KindDaily   Kind = "daily"
	KindWeekly  Kind = "weekly"
	KindMonthly Kind = "monthly"
)

// Pattern is one recurrence rule attached to a series (spec §3).
type Pattern struct {
	Kind Kind

	// Weekly-only: days of week this pattern fires on, 0=Sun..6=Sat.
	DaysOfWeek map[int]bool

	// Monthly-only: day of month this pattern fires on (1-31; clamped to
	// the last day of shorter months).
	DayOfMonth int

	// Time is the pattern's fixed time of day. Absent (nil) marks the
	// instance flexible with a default ideal time (spec §3, §4.2).
	Time *timegrid.LocalTime

	// DurationMinutes is the instance duration in minutes.
	DurationMinutes int

	// Fixed marks instances from this pattern as immovable.
	Fixed bool

	// AllDay excludes instances from this pattern from reflow domains.
	AllDay bool

	// TimeWindow optionally restricts flexible search to a sub-range of
	// the day (spec §4.3).
	TimeWindow *TimeWindow

	// DaysBefore/DaysAfter expand flexible search to neighboring dates.
	DaysBefore int
	DaysAfter  int

	// Condition, if present, gates which expanded dates survive.
	Condition *Condition

	// Cycling rotates a label across fires of this pattern.
	Cycling *Cycling
}

// TimeWindow constrains a flexible instance's candidate start times.
type TimeWindow struct {
	Start timegrid.LocalTime
	End   timegrid.LocalTime
}

// Cycling rotates a title across successive fires of a pattern (spec §4.2).
type Cycling struct {
	Items []string
}

// TitleAt returns the item at the given rotation index (baseIndex +
// sequenceIndex, mod len(Items)).
func (c *Cycling) TitleAt(baseIndex, sequenceIndex int) string {
	if c == nil || len(c.Items) == 0 {
		return ""
	}
	n := len(c.Items)
	idx := ((baseIndex+sequenceIndex)%n + n) % n
	return c.Items[idx]
}

// Range is a closed calendar-date window used to bound expansion.
type Range struct {
	Start timegrid.LocalDate
	End   timegrid.LocalDate
}

// Expand enumerates the dates in [max(seriesStart, range.Start),
// min(seriesEnd-1day, range.End)] that satisfy the pattern's calendar
// predicate, in ascending order (spec §4.1). seriesEnd, if non-nil, is
// treated as exclusive: the last valid date is seriesEnd-1day.
func Expand(p Pattern, r Range, seriesStart timegrid.LocalDate, seriesEnd *timegrid.LocalDate) []timegrid.LocalDate {
	effectiveStart := r.Start
	if effectiveStart.Before(seriesStart) {
		effectiveStart = seriesStart
	}

	effectiveEnd := r.End
	if seriesEnd != nil {
		lastValid := seriesEnd.AddDays(-1)
		if lastValid.Before(effectiveEnd) {
			effectiveEnd = lastValid
		}
	}

	if effectiveEnd.Before(effectiveStart) {
		return nil
	}

	out := make([]timegrid.LocalDate, 0)
	for d := effectiveStart; d.Before(effectiveEnd) || d.Equal(effectiveEnd); d = d.AddDays(1) {
		if matches(p, d) {
			out = append(out, d)
		}
	}
	return out
}

// ExpandWithCondition is Expand followed by per-date condition
// evaluation (spec §4.1: "condition is a tree; evaluate per-date").
func ExpandWithCondition(p Pattern, r Range, seriesStart timegrid.LocalDate, seriesEnd *timegrid.LocalDate, seriesID string, count CompletionCounter) []timegrid.LocalDate {
	dates := Expand(p, r, seriesStart, seriesEnd)
	if p.Condition == nil {
		return dates
	}
	out := make([]timegrid.LocalDate, 0, len(dates))
	for _, d := range dates {
		if Evaluate(p.Condition, d, seriesID, count) {
			out = append(out, d)
		}
	}
	return out
}

func matches(p Pattern, d timegrid.LocalDate) bool {
	switch p.Kind {
	case KindDaily:
		return true
	case KindWeekly:
		return p.DaysOfWeek[d.Weekday()]
	case KindMonthly:
		return matchesMonthly(p.DayOfMonth, d)
	default:
		return false
	}
}

func matchesMonthly(dayOfMonth int, d timegrid.LocalDate) bool {
	lastDay := daysInMonth(d.Year, d.Month)
	target := dayOfMonth
	if target > lastDay {
		target = lastDay
	}
	return d.Day == target
}

func daysInMonth(year, month int) int {
	// day 0 of next month is the last day of this month.
	nextMonth := month + 1
	nextYear := year
	if nextMonth > 12 {
		nextMonth = 1
		nextYear++
	}
	first := timegrid.LocalDate{Year: nextYear, Month: nextMonth, Day: 1}
	return first.AddDays(-1).Day
}
