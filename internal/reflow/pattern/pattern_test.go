package pattern

import (
	"testing"

	"github.com/motioneffector/autoplanner/internal/reflow/timegrid"
	"github.com/stretchr/testify/assert"
)

func date(y, m, d int) timegrid.LocalDate {
	return timegrid.LocalDate{Year: y, Month: m, Day: d}
}

func TestExpandDailyClampsToSeriesAndRange(t *testing.T) {
	p := Pattern{Kind: KindDaily}
	r := Range{Start: date(2026, 1, 1), End: date(2026, 1, 10)}
	seriesEnd := date(2026, 1, 5)

	got := Expand(p, r, date(2026, 1, 1), &seriesEnd)
	assert.Equal(t, []timegrid.LocalDate{
		date(2026, 1, 1), date(2026, 1, 2), date(2026, 1, 3), date(2026, 1, 4),
	}, got)
}

func TestExpandWeeklyMatchesOnlySelectedDays(t *testing.T) {
	p := Pattern{Kind: KindWeekly, DaysOfWeek: map[int]bool{1: true, 3: true}} // Mon, Wed
	r := Range{Start: date(2026, 7, 27), End: date(2026, 8, 2)}

	got := Expand(p, r, date(2026, 7, 27), nil)
	assert.Equal(t, []timegrid.LocalDate{date(2026, 7, 27), date(2026, 7, 29)}, got)
}

func TestExpandMonthlyClampsToLastDay(t *testing.T) {
	p := Pattern{Kind: KindMonthly, DayOfMonth: 31}
	r := Range{Start: date(2026, 2, 1), End: date(2026, 2, 28)}

	got := Expand(p, r, date(2026, 2, 1), nil)
	assert.Equal(t, []timegrid.LocalDate{date(2026, 2, 28)}, got)
}

func TestExpandReturnsNilWhenRangeEmpty(t *testing.T) {
	p := Pattern{Kind: KindDaily}
	r := Range{Start: date(2026, 1, 10), End: date(2026, 1, 1)}
	got := Expand(p, r, date(2026, 1, 1), nil)
	assert.Nil(t, got)
}

func TestExpandWithConditionFiltersByWeekday(t *testing.T) {
	p := Pattern{
		Kind: KindDaily,
		Condition: &Condition{
			Kind:     ConditionWeekday,
			Weekdays: map[int]bool{3: true}, // Wednesday only
		},
	}
	r := Range{Start: date(2026, 7, 27), End: date(2026, 7, 30)}

	got := ExpandWithCondition(p, r, date(2026, 7, 27), nil, "series-1", nil)
	assert.Equal(t, []timegrid.LocalDate{date(2026, 7, 29)}, got)
}

func TestCyclingTitleAtRotatesAndHandlesNil(t *testing.T) {
	c := &Cycling{Items: []string{"chest", "back", "legs"}}
	assert.Equal(t, "chest", c.TitleAt(0, 0))
	assert.Equal(t, "back", c.TitleAt(0, 1))
	assert.Equal(t, "chest", c.TitleAt(3, 0))

	var nilCycling *Cycling
	assert.Equal(t, "", nilCycling.TitleAt(0, 0))
}
