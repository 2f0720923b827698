package csp

// ConstraintKind tags the relational constraint variants (spec §3).
type ConstraintKind string

const (
	NoOverlap    ConstraintKind = "noOverlap"
	MustBeBefore ConstraintKind = "mustBeBefore"
	Chain        ConstraintKind = "chain"
)

// Constraint is a resolved relational constraint between two concrete
// instances (spec §3 constraints are resolved to concrete pairs at
// generation time). For Chain, A is the parent and B is the child.
type Constraint struct {
	Kind ConstraintKind
	A    Key
	B    Key
}
