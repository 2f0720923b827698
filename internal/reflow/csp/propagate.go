package csp

import (
	"github.com/motioneffector/autoplanner/internal/reflow/timegrid"
)

// Durations looks up an instance's duration in minutes by CSP key.
type Durations map[Key]int

// arc is a directed "revise X with respect to Y" edge derived from a
// constraint.
type arc struct {
	kind ConstraintKind
	x, y Key
	// isParentLeg is only meaningful for chain arcs: true when x is the
	// parent (revising the parent's domain against the child).
	isParentLeg bool
	// xIsBefore is only meaningful for mustBeBefore arcs: true when x is
	// the "must come before" side of the original constraint.
	xIsBefore bool
}

// PropagateConstraints runs AC-3 with the selective cascade described in
// spec §4.5 (component C6): an empty partner domain does not cascade
// backward across noOverlap/mustBeBefore. Chain arcs cascade
// parent->child only; since chain-child instances are derived variables
// with no domain entry (spec §4.3), the child-emptying clause is a
// no-op unless the child happens to be domain-participating (see
// DESIGN.md for this interpretation).
func PropagateConstraints(domains Domains, constraints []Constraint, durations Durations, tree ChainTree) Domains {
	out := domains.Clone()

	// arcsByY indexes arcs by their "y" (partner) element: when a
	// variable's domain shrinks, every arc (Xk, thatVariable) must be
	// re-revised, since Xk's previous revision against it may no longer
	// hold (standard AC-3).
	arcsByY := make(map[Key][]arc)
	all := make([]arc, 0, len(constraints)*2)

	addArc := func(a arc) {
		all = append(all, a)
		arcsByY[a.y] = append(arcsByY[a.y], a)
	}

	for _, c := range constraints {
		switch c.Kind {
		case NoOverlap:
			addArc(arc{kind: NoOverlap, x: c.A, y: c.B})
			addArc(arc{kind: NoOverlap, x: c.B, y: c.A})
		case MustBeBefore:
			// c.A must be before c.B.
			addArc(arc{kind: MustBeBefore, x: c.A, y: c.B, xIsBefore: true})
			addArc(arc{kind: MustBeBefore, x: c.B, y: c.A, xIsBefore: false})
		case Chain:
			addArc(arc{kind: Chain, x: c.A, y: c.B, isParentLeg: true})  // revise parent wrt child
			addArc(arc{kind: Chain, x: c.B, y: c.A, isParentLeg: false}) // revise child wrt parent
		}
	}

	worklist := make([]arc, len(all))
	copy(worklist, all)

	for len(worklist) > 0 {
		a := worklist[0]
		worklist = worklist[1:]

		changed := revise(out, a, durations, tree)
		if !changed {
			continue
		}

		for _, next := range arcsByY[a.x] {
			if next.x == a.y {
				continue
			}
			worklist = append(worklist, next)
		}
	}

	return out
}

// revise applies one directed arc, mutating out[a.x] in place. It
// returns whether the domain changed.
func revise(out Domains, a arc, durations Durations, tree ChainTree) bool {
	switch a.kind {
	case NoOverlap:
		return reviseNoOverlap(out, a.x, a.y, durations)
	case MustBeBefore:
		return reviseMustBeBefore(out, a.x, a.y, a.xIsBefore)
	case Chain:
		if a.isParentLeg {
			return reviseChainParent(out, a.x, a.y, tree)
		}
		return reviseChainChild(out, a.x, a.y, durations, tree)
	default:
		return false
	}
}

// reviseNoOverlap removes values from dom(x) that intersect every value
// of dom(y). An empty dom(y) means y is unplaceable and the constraint
// is trivially satisfied, so x is left untouched (spec §4.5).
func reviseNoOverlap(out Domains, x, y Key, durations Durations) bool {
	yDomain, ok := out[y]
	if !ok || len(yDomain) == 0 {
		return false
	}
	xDomain, ok := out[x]
	if !ok {
		return false
	}

	durX := durations[x]
	durY := durations[y]

	survivors := make([]timegrid.LocalDateTime, 0, len(xDomain))
	for _, xv := range xDomain {
		xInterval := timegrid.NewInterval(xv, durX)
		hasClearPartner := false
		for _, yv := range yDomain {
			yInterval := timegrid.NewInterval(yv, durY)
			if !xInterval.Overlaps(yInterval) {
				hasClearPartner = true
				break
			}
		}
		if hasClearPartner {
			survivors = append(survivors, xv)
		}
	}

	if len(survivors) == len(xDomain) {
		return false
	}
	out[x] = survivors
	return true
}

// reviseMustBeBefore removes from dom(x) any value that cannot satisfy
// the ordering against some value of dom(y): if x must be before y,
// prune x >= max(dom(y)); if x must be after y, prune x <= min(dom(y)).
// An empty partner does not cascade (spec §4.5).
func reviseMustBeBefore(out Domains, x, y Key, xIsBefore bool) bool {
	yDomain, ok := out[y]
	if !ok || len(yDomain) == 0 {
		return false
	}
	xDomain, ok := out[x]
	if !ok {
		return false
	}

	minY, maxY := bounds(yDomain)

	survivors := make([]timegrid.LocalDateTime, 0, len(xDomain))
	for _, xv := range xDomain {
		var keep bool
		if xIsBefore {
			keep = xv.Before(maxY)
		} else {
			keep = minY.Before(xv)
		}
		if keep {
			survivors = append(survivors, xv)
		}
	}

	if len(survivors) == len(xDomain) {
		return false
	}
	out[x] = survivors
	return true
}

func bounds(values []timegrid.LocalDateTime) (timegrid.LocalDateTime, timegrid.LocalDateTime) {
	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v.Before(min) {
			min = v
		}
		if max.Before(v) {
			max = v
		}
	}
	return min, max
}

// reviseChainParent removes from dom(parent) any value whose chain
// window is disjoint from every value the child could take. Since chain
// children are derived (not domain-participating), "every value the
// child could take" is the wobble window around the parent's own
// candidate, so this degenerates to: every parent candidate survives
// unless its wobble window cannot reach any 5-minute grid point at all,
// which never happens for a non-negative wobble. The practical pruning
// for chain feasibility is performed by shadow pruning (C5); see
// DESIGN.md.
func reviseChainParent(out Domains, parent, child Key, tree ChainTree) bool {
	node, ok := tree[parent]
	if !ok {
		return false
	}
	var childNode *ChainNode
	for _, c := range node.Children {
		if KeyOf(c.Instance) == child {
			childNode = c
			break
		}
	}
	if childNode == nil {
		return false
	}
	// If the child is itself domain-participating (non-standard layering,
	// see DESIGN.md), fall through to a real window intersection test.
	childDomain, childHasDomain := out[child]
	if !childHasDomain {
		return false
	}
	parentDomain, ok := out[parent]
	if !ok {
		return false
	}

	survivors := make([]timegrid.LocalDateTime, 0, len(parentDomain))
	for _, p := range parentDomain {
		target := p.AddMinutes(node.Instance.Duration + childNode.Distance)
		windowStart := target.AddMinutes(-childNode.EarlyWobble)
		windowEnd := target.AddMinutes(childNode.LateWobble)

		reachable := false
		for _, c := range childDomain {
			if !c.Before(windowStart) && !windowEnd.Before(c) {
				reachable = true
				break
			}
		}
		if reachable {
			survivors = append(survivors, p)
		}
	}

	if len(survivors) == len(parentDomain) {
		return false
	}
	out[parent] = survivors
	return true
}

// reviseChainChild mirrors reviseChainParent for the child side when
// the child is domain-participating; a genuinely derived chain child
// (the normal case) has no entry in out and this is a no-op, preserving
// the "parent->child only" cascade of spec §4.5.
func reviseChainChild(out Domains, child, parent Key, durations Durations, tree ChainTree) bool {
	childDomain, ok := out[child]
	if !ok {
		return false
	}

	parentDomain, hasParent := out[parent]
	if !hasParent || len(parentDomain) == 0 {
		// Parent unplaceable -> child domain collapses (parent->child
		// cascade), but only if child is genuinely a tracked variable.
		if hasParent && len(parentDomain) == 0 && len(childDomain) > 0 {
			out[child] = nil
			return true
		}
		return false
	}

	node, ok := tree[parent]
	if !ok {
		return false
	}
	var childNode *ChainNode
	for _, c := range node.Children {
		if KeyOf(c.Instance) == child {
			childNode = c
			break
		}
	}
	if childNode == nil {
		return false
	}

	survivors := make([]timegrid.LocalDateTime, 0, len(childDomain))
	for _, cv := range childDomain {
		reachable := false
		for _, p := range parentDomain {
			target := p.AddMinutes(node.Instance.Duration + childNode.Distance)
			windowStart := target.AddMinutes(-childNode.EarlyWobble)
			windowEnd := target.AddMinutes(childNode.LateWobble)
			if !cv.Before(windowStart) && !windowEnd.Before(cv) {
				reachable = true
				break
			}
		}
		if reachable {
			survivors = append(survivors, cv)
		}
	}

	if len(survivors) == len(childDomain) {
		return false
	}
	out[child] = survivors
	return true
}
