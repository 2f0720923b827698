package domain

import "github.com/google/uuid"

// ConstraintKind tags a relational constraint declared between two series
// or between a series and every series carrying a tag (spec §3).
type ConstraintKind string

const (
	ConstraintNoOverlap    ConstraintKind = "noOverlap"
	ConstraintMustBeBefore ConstraintKind = "mustBeBefore"
)

// ConstraintTarget names either a concrete series or every series bearing
// a tag; resolved to concrete series pairs at generation time by the
// façade (spec §3, "resolved to concrete pairs at generation time").
type ConstraintTarget struct {
	SeriesID uuid.UUID // zero value means Tag is used instead
	Tag      string
}

// IsTag reports whether the target selects by tag rather than a single series.
func (t ConstraintTarget) IsTag() bool {
	return t.SeriesID == uuid.Nil && t.Tag != ""
}

// Constraint is a persisted relational constraint between two series or
// tag groups (spec §3). Chain constraints are not represented here — they
// come from ChainLink and are derived by the reflow core's chain tree.
type Constraint struct {
	id   uuid.UUID
	kind ConstraintKind
	a    ConstraintTarget
	b    ConstraintTarget
}

// NewConstraint creates a relational constraint between two targets.
func NewConstraint(kind ConstraintKind, a, b ConstraintTarget) (*Constraint, error) {
	if kind != ConstraintNoOverlap && kind != ConstraintMustBeBefore {
		return nil, ErrConstraintInvalidKind
	}
	if !a.IsTag() && !b.IsTag() && a.SeriesID == b.SeriesID {
		return nil, ErrConstraintSameTarget
	}
	return &Constraint{id: uuid.New(), kind: kind, a: a, b: b}, nil
}

// RehydrateConstraint reconstructs a Constraint from storage.
func RehydrateConstraint(id uuid.UUID, kind ConstraintKind, a, b ConstraintTarget) *Constraint {
	return &Constraint{id: id, kind: kind, a: a, b: b}
}

func (c *Constraint) ID() uuid.UUID          { return c.id }
func (c *Constraint) Kind() ConstraintKind   { return c.kind }
func (c *Constraint) A() ConstraintTarget    { return c.a }
func (c *Constraint) B() ConstraintTarget    { return c.b }

// ResolveSeriesPairs expands this constraint's targets against a tag
// index into concrete (seriesA, seriesB) id pairs (spec §3). The tag
// index maps a tag to the set of series ids carrying it.
func (c *Constraint) ResolveSeriesPairs(tagIndex map[string][]uuid.UUID) [][2]uuid.UUID {
	as := c.resolveTarget(c.a, tagIndex)
	bs := c.resolveTarget(c.b, tagIndex)

	out := make([][2]uuid.UUID, 0, len(as)*len(bs))
	for _, a := range as {
		for _, b := range bs {
			if a == b {
				continue
			}
			out = append(out, [2]uuid.UUID{a, b})
		}
	}
	return out
}

func (c *Constraint) resolveTarget(t ConstraintTarget, tagIndex map[string][]uuid.UUID) []uuid.UUID {
	if !t.IsTag() {
		return []uuid.UUID{t.SeriesID}
	}
	return tagIndex[t.Tag]
}
