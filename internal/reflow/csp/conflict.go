package csp

// ConflictKind tags why the fallback could not fully satisfy the
// constraint set for a given instance (spec §4.7).
type ConflictKind string

const (
	ConflictOverlap     ConflictKind = "overlap"
	ConflictNoValidSlot ConflictKind = "noValidSlot"
)

// Severity classifies how serious a Conflict is.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Conflict records one imperfection introduced by the fallback
// placement (component C8/C9).
type Conflict struct {
	Kind     ConflictKind
	Severity Severity
	Keys     []Key
	Message  string
}
