// Package timegrid implements the zoneless local time values and the
// five-minute discretization grid the reflow engine searches over.
package timegrid

import (
	"errors"
	"fmt"
	"time"
)

// GridStep is the granularity the search and domain-enumeration phases
// operate on. Persisted times are minute-precision; the solver only ever
// considers multiples of GridStep within a day.
const GridStep = 5 * time.Minute

// DefaultWakingStart and DefaultWakingEnd bound flexible instances that
// carry no explicit time window (spec §4.3).
var (
	DefaultWakingStart = LocalTime{Hour: 7, Minute: 0, Second: 0}
	DefaultWakingEnd   = LocalTime{Hour: 23, Minute: 0, Second: 0}
)

// DefaultFlexibleTime is the ideal time assigned to a flexible instance
// whose pattern carries no explicit time (spec §4.2).
var DefaultFlexibleTime = LocalTime{Hour: 9, Minute: 0, Second: 0}

// ErrInvalidDate is returned when a date string cannot be parsed.
var ErrInvalidDate = errors.New("timegrid: invalid date")

// LocalDate is a zoneless calendar date, YYYY-MM-DD.
type LocalDate struct {
	Year  int
	Month int
	Day   int
}

// ParseLocalDate parses a canonical YYYY-MM-DD string.
func ParseLocalDate(s string) (LocalDate, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return LocalDate{}, fmt.Errorf("%w: %s", ErrInvalidDate, s)
	}
	return LocalDateFromTime(t), nil
}

// LocalDateFromTime truncates a time.Time to its calendar date.
func LocalDateFromTime(t time.Time) LocalDate {
	y, m, d := t.Date()
	return LocalDate{Year: y, Month: int(m), Day: d}
}

// String renders the canonical YYYY-MM-DD form.
func (d LocalDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Before reports whether d is strictly earlier than other.
func (d LocalDate) Before(other LocalDate) bool {
	return d.String() < other.String()
}

// Equal reports calendar-date equality.
func (d LocalDate) Equal(other LocalDate) bool {
	return d.Year == other.Year && d.Month == other.Month && d.Day == other.Day
}

// AddDays returns the date n days after d (n may be negative).
func (d LocalDate) AddDays(n int) LocalDate {
	t := time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
	return LocalDateFromTime(t)
}

// Weekday returns 0=Sunday..6=Saturday, matching spec §4.1.
func (d LocalDate) Weekday() int {
	t := time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
	return int(t.Weekday())
}

// DaysUntil returns the number of days from d to other (may be negative).
func (d LocalDate) DaysUntil(other LocalDate) int {
	from := time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
	to := time.Date(other.Year, time.Month(other.Month), other.Day, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

// LocalTime is a zoneless time of day, HH:MM:SS.
type LocalTime struct {
	Hour   int
	Minute int
	Second int
}

// String renders the canonical HH:MM:SS form.
func (t LocalTime) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// Before reports whether t is strictly earlier in the day than other.
func (t LocalTime) Before(other LocalTime) bool {
	return t.String() < other.String()
}

// MinutesOfDay returns the number of minutes since 00:00:00.
func (t LocalTime) MinutesOfDay() int {
	return t.Hour*60 + t.Minute
}

// LocalDateTime is a zoneless instant, date + time, with no zone offset.
// Comparison is lexicographic on the canonical string form, which is
// equivalent to chronological order for these fields (spec §3).
type LocalDateTime struct {
	Date LocalDate
	Time LocalTime
}

// NewLocalDateTime combines a date and a time of day.
func NewLocalDateTime(d LocalDate, t LocalTime) LocalDateTime {
	return LocalDateTime{Date: d, Time: t}
}

// String renders the canonical YYYY-MM-DDTHH:MM:SS form.
func (dt LocalDateTime) String() string {
	return dt.Date.String() + "T" + dt.Time.String()
}

// Before reports whether dt is strictly earlier than other.
func (dt LocalDateTime) Before(other LocalDateTime) bool {
	return dt.String() < other.String()
}

// Equal reports exact equality.
func (dt LocalDateTime) Equal(other LocalDateTime) bool {
	return dt.String() == other.String()
}

// AddMinutes returns dt shifted by n minutes (n may be negative), rolling
// over date boundaries.
func (dt LocalDateTime) AddMinutes(n int) LocalDateTime {
	t := time.Date(dt.Date.Year, time.Month(dt.Date.Month), dt.Date.Day,
		dt.Time.Hour, dt.Time.Minute, dt.Time.Second, 0, time.UTC)
	t = t.Add(time.Duration(n) * time.Minute)
	return FromTime(t)
}

// SubMinutes returns the number of minutes from other to dt (dt - other).
func (dt LocalDateTime) SubMinutes(other LocalDateTime) int {
	a := dt.toTime()
	b := other.toTime()
	return int(a.Sub(b).Minutes())
}

func (dt LocalDateTime) toTime() time.Time {
	return time.Date(dt.Date.Year, time.Month(dt.Date.Month), dt.Date.Day,
		dt.Time.Hour, dt.Time.Minute, dt.Time.Second, 0, time.UTC)
}

// FromTime converts a time.Time (interpreted in whatever zone it carries)
// into the zoneless LocalDateTime representation; callers at the façade
// boundary are responsible for presenting it in the correct zone first.
func FromTime(t time.Time) LocalDateTime {
	return LocalDateTime{
		Date: LocalDateFromTime(t),
		Time: LocalTime{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()},
	}
}

// Interval is a half-open range [Start, End) used for overlap tests.
type Interval struct {
	Start LocalDateTime
	End   LocalDateTime
}

// NewInterval builds an interval from a start time and a duration in minutes.
func NewInterval(start LocalDateTime, durationMinutes int) Interval {
	return Interval{Start: start, End: start.AddMinutes(durationMinutes)}
}

// Overlaps reports whether two half-open intervals intersect. Equal
// endpoints count as non-overlap (spec §3, noOverlap constraint).
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// DurationMinutes returns the interval length in minutes.
func (iv Interval) DurationMinutes() int {
	return iv.End.SubMinutes(iv.Start)
}

// Grid enumerates every LocalDateTime at GridStep granularity within
// [windowStart, windowEnd], inclusive of both endpoints (spec §4.3).
func Grid(windowStart, windowEnd LocalDateTime) []LocalDateTime {
	if windowEnd.Before(windowStart) {
		return nil
	}
	stepMinutes := int(GridStep.Minutes())
	total := windowEnd.SubMinutes(windowStart)
	out := make([]LocalDateTime, 0, total/stepMinutes+1)
	for m := 0; m <= total; m += stepMinutes {
		out = append(out, windowStart.AddMinutes(m))
	}
	return out
}

// AbsMinutes returns the absolute value of a minute count.
func AbsMinutes(m int) int {
	if m < 0 {
		return -m
	}
	return m
}
