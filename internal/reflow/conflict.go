package reflow

import "github.com/motioneffector/autoplanner/internal/reflow/csp"

// ConflictKind tags the taxonomy of reasons a placement was imperfect
// (spec §4.7, component C9).
type ConflictKind string

const (
	ConflictOverlap             ConflictKind = "overlap"
	ConflictConstraintViolation ConflictKind = "constraintViolation"
	ConflictNoValidSlot         ConflictKind = "noValidSlot"
)

// Severity classifies how a conflict should be surfaced to callers.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Conflict describes one imperfection in the output assignment. Keys
// names the instance(s) involved, identified by (seriesID, date).
type Conflict struct {
	Kind     ConflictKind
	Severity Severity
	Keys     []InstanceKey
	Message  string
}

// InstanceKey identifies an instance in the output the same way csp.Key
// does internally, re-exported so callers outside this package never
// need to import csp directly.
type InstanceKey struct {
	SeriesID string
	Date     string
}

func fromCSPKey(k csp.Key) InstanceKey {
	return InstanceKey{SeriesID: k.SeriesID, Date: k.Date}
}

func fromCSPConflict(c csp.Conflict) Conflict {
	keys := make([]InstanceKey, len(c.Keys))
	for i, k := range c.Keys {
		keys[i] = fromCSPKey(k)
	}
	return Conflict{
		Kind:     ConflictKind(c.Kind),
		Severity: Severity(c.Severity),
		Keys:     keys,
		Message:  c.Message,
	}
}
