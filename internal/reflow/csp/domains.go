package csp

import (
	"github.com/motioneffector/autoplanner/internal/reflow/instance"
	"github.com/motioneffector/autoplanner/internal/reflow/timegrid"
)

// Domains maps a CSP variable (instance key) to its candidate start
// times. All-day and chain-child instances are never keyed here (spec
// §4.3: they are not CSP variables — chain children are derived).
type Domains map[Key][]timegrid.LocalDateTime

// Clone returns a deep copy so callers (search, propagation) can mutate
// without aliasing the caller's map (spec §5: "the solver ... clones on
// mutation, does not alter the input").
func (d Domains) Clone() Domains {
	out := make(Domains, len(d))
	for k, v := range d {
		cp := make([]timegrid.LocalDateTime, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}

// ComputeDomains enumerates legal start times for every non-all-day,
// non-chain-child instance (spec §4.3, component C4).
func ComputeDomains(instances []instance.Instance) Domains {
	domains := make(Domains)
	for _, inst := range instances {
		if inst.AllDay || inst.IsChainChild() {
			continue
		}

		key := KeyOf(inst)
		if inst.Fixed {
			domains[key] = []timegrid.LocalDateTime{inst.IdealTime}
			continue
		}

		domains[key] = flexibleDomain(inst)
	}
	return domains
}

// flexibleDomain enumerates the 5-minute-grid candidates for a flexible
// instance across [date-daysBefore, date+daysAfter], intersected with
// the pattern's time window, defaulting to the waking window
// [07:00, 23:00) when none is given — instances must end within it
// (spec §4.3).
func flexibleDomain(inst instance.Instance) []timegrid.LocalDateTime {
	windowStart, windowEnd := timegrid.DefaultWakingStart, timegrid.DefaultWakingEnd
	if inst.TimeWindow != nil {
		windowStart, windowEnd = inst.TimeWindow.Start, inst.TimeWindow.End
	}

	out := make([]timegrid.LocalDateTime, 0)
	for offset := -inst.DaysBefore; offset <= inst.DaysAfter; offset++ {
		day := inst.Date.AddDays(offset)
		dayWindowStart := timegrid.NewLocalDateTime(day, windowStart)
		dayWindowEnd := timegrid.NewLocalDateTime(day, windowEnd)

		for _, candidate := range timegrid.Grid(dayWindowStart, dayWindowEnd) {
			if inst.TimeWindow == nil {
				// Default waking window: candidates must END within it.
				end := candidate.AddMinutes(inst.Duration)
				if dayWindowEnd.Before(end) {
					continue
				}
			}
			out = append(out, candidate)
		}
	}
	return out
}
