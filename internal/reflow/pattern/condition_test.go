package pattern

import (
	"testing"

	"github.com/motioneffector/autoplanner/internal/reflow/timegrid"
	"github.com/stretchr/testify/assert"
)

func TestEvaluateNilConditionAlwaysPasses(t *testing.T) {
	assert.True(t, Evaluate(nil, date(2026, 1, 1), "series-1", nil))
}

func TestEvaluateAndShortCircuits(t *testing.T) {
	calls := 0
	counter := func(seriesID string, windowEnd timegrid.LocalDate, windowDays int) int {
		calls++
		return 0
	}
	c := &Condition{
		Kind: ConditionAnd,
		Children: []*Condition{
			{Kind: ConditionWeekday, Weekdays: map[int]bool{}}, // always false
			{Kind: ConditionCompletionCount, Comparison: ComparisonEqual, Value: 0, SeriesRef: "self"},
		},
	}
	assert.False(t, Evaluate(c, date(2026, 7, 29), "series-1", counter))
	assert.Equal(t, 0, calls, "second child must not be evaluated once the first fails")
}

func TestEvaluateCompletionCountResolvesSelf(t *testing.T) {
	var seenSeries string
	counter := func(seriesID string, windowEnd timegrid.LocalDate, windowDays int) int {
		seenSeries = seriesID
		return 3
	}
	c := &Condition{
		Kind:       ConditionCompletionCount,
		SeriesRef:  "self",
		Comparison: ComparisonGreaterEq,
		Value:      3,
		WindowDays: 7,
	}
	assert.True(t, Evaluate(c, date(2026, 7, 29), "series-42", counter))
	assert.Equal(t, "series-42", seenSeries)
}

func TestEvaluateNotNegatesChild(t *testing.T) {
	c := &Condition{
		Kind:     ConditionNot,
		Children: []*Condition{{Kind: ConditionWeekday, Weekdays: map[int]bool{3: true}}},
	}
	assert.False(t, Evaluate(c, date(2026, 7, 29), "series-1", nil)) // Wednesday, negated
}

func TestEvaluateOrWithNoChildrenIsFalse(t *testing.T) {
	c := &Condition{Kind: ConditionOr}
	assert.False(t, Evaluate(c, date(2026, 7, 29), "series-1", nil))
}
