package pattern

import (
	"github.com/motioneffector/autoplanner/internal/reflow/timegrid"
)

// ConditionKind tags the recursive condition tree (spec §3, §4.1).
type ConditionKind string

const (
	ConditionAnd             ConditionKind = "and"
	ConditionOr              ConditionKind = "or"
	ConditionNot             ConditionKind = "not"
	ConditionWeekday         ConditionKind = "weekday"
	ConditionCompletionCount ConditionKind = "completionCount"
)

// Comparison is the relational operator used by completionCount conditions.
type Comparison string

const (
	ComparisonLessThan    Comparison = "lt"
	ComparisonLessEqual   Comparison = "lte"
	ComparisonGreaterThan Comparison = "gt"
	ComparisonGreaterEq   Comparison = "gte"
	ComparisonEqual       Comparison = "eq"
)

// Condition is a recursive tagged tree evaluated per candidate date.
type Condition struct {
	Kind ConditionKind

	// and/or/not operands.
	Children []*Condition

	// weekday operand: days of week (0=Sun..6=Sat) the condition allows.
	Weekdays map[int]bool

	// completionCount operands.
	SeriesRef   string // "self" or a concrete series id
	Comparison  Comparison
	Value       int
	WindowDays  int
}

// CompletionCounter counts completions for a series within a trailing
// window ending at (and including) a given date. The reflow core is
// pure, so this is injected by the caller rather than reading storage.
type CompletionCounter func(seriesID string, windowEnd timegrid.LocalDate, windowDays int) int

// Evaluate walks the condition tree for a single candidate date.
// selfSeriesID resolves seriesRef=="self" references.
func Evaluate(c *Condition, date timegrid.LocalDate, selfSeriesID string, count CompletionCounter) bool {
	if c == nil {
		return true
	}
	switch c.Kind {
	case ConditionAnd:
		for _, child := range c.Children {
			if !Evaluate(child, date, selfSeriesID, count) {
				return false
			}
		}
		return true
	case ConditionOr:
		for _, child := range c.Children {
			if Evaluate(child, date, selfSeriesID, count) {
				return true
			}
		}
		return false
	case ConditionNot:
		if len(c.Children) == 0 {
			return true
		}
		return !Evaluate(c.Children[0], date, selfSeriesID, count)
	case ConditionWeekday:
		return c.Weekdays[date.Weekday()]
	case ConditionCompletionCount:
		seriesID := c.SeriesRef
		if seriesID == "self" || seriesID == "" {
			seriesID = selfSeriesID
		}
		n := count(seriesID, date, c.WindowDays)
		return compare(n, c.Comparison, c.Value)
	default:
		return true
	}
}

func compare(n int, op Comparison, value int) bool {
	switch op {
	case ComparisonLessThan:
		return n < value
	case ComparisonLessEqual:
		return n <= value
	case ComparisonGreaterThan:
		return n > value
	case ComparisonGreaterEq:
		return n >= value
	case ComparisonEqual:
		return n == value
	default:
		return true
	}
}
