package domain

import "github.com/motioneffector/autoplanner/internal/reflow/timegrid"

// ExternalBusyInterval is an opaque occupied range pulled from an
// external calendar (spec SPEC_FULL §2/§3 supplemented feature). The
// reflow driver checks final placements against busy intervals and
// raises overlap conflicts; busy intervals are never occupied ranges in
// the best-effort fallback phase (C8) or the CSP solver.
type ExternalBusyInterval struct {
	SourceID string
	Start    timegrid.LocalDateTime
	End      timegrid.LocalDateTime
	Title    string
}

// Interval converts the busy interval into the core's Interval value for
// overlap testing against placed instances.
func (b ExternalBusyInterval) Interval() timegrid.Interval {
	return timegrid.Interval{Start: b.Start, End: b.End}
}
