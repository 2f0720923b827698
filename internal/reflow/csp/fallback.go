package csp

import (
	"sort"

	"github.com/motioneffector/autoplanner/internal/reflow/instance"
	"github.com/motioneffector/autoplanner/internal/reflow/timegrid"
)

// HandleNoSolution produces a best-effort total assignment when Search
// fails to find one that satisfies every constraint (spec §4.7,
// component C8). It guarantees every non-all-day instance, including
// chain children, receives a placement: fixed instances keep their
// ideal time, chain children are derived against whatever the parent
// got, and flexible instances are placed greedily at the
// closest-to-ideal slot that avoids everything placed so far. Every
// constraint violation this produces is recorded as a Conflict.
func HandleNoSolution(instances []instance.Instance, domains Domains, tree ChainTree, durations Durations) (Assignment, []Conflict) {
	assignment := make(Assignment)
	var conflicts []Conflict
	var occupied []timegrid.Interval
	var occupiedKeys []Key

	byKey := make(map[Key]instance.Instance, len(instances))
	for _, inst := range instances {
		if inst.AllDay {
			continue
		}
		byKey[KeyOf(inst)] = inst
	}

	ordered := make([]instance.Instance, 0, len(instances))
	var chainChildren []instance.Instance
	for _, inst := range instances {
		if inst.AllDay {
			continue
		}
		if inst.IsChainChild() {
			chainChildren = append(chainChildren, inst)
			continue
		}
		ordered = append(ordered, inst)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		pi, pj := fallbackPriority(ordered[i]), fallbackPriority(ordered[j])
		if pi != pj {
			return pi < pj
		}
		if ordered[i].SeriesID != ordered[j].SeriesID {
			return ordered[i].SeriesID < ordered[j].SeriesID
		}
		return ordered[i].Date.Before(ordered[j].Date)
	})

	for _, inst := range ordered {
		key := KeyOf(inst)

		if inst.Fixed {
			start := inst.IdealTime
			interval := timegrid.NewInterval(start, inst.Duration)
			for _, occKey := range overlappingKeys(interval, occupied, occupiedKeys) {
				conflicts = append(conflicts, Conflict{
					Kind:     ConflictOverlap,
					Severity: SeverityWarning,
					Keys:     []Key{key, occKey},
					Message:  "fixed instance overlaps another placement",
				})
			}
			place(assignment, &occupied, &occupiedKeys, key, start, inst.Duration)
			continue
		}

		candidates := domains[key]
		if len(candidates) == 0 {
			conflicts = append(conflicts, Conflict{
				Kind:     ConflictNoValidSlot,
				Severity: SeverityWarning,
				Keys:     []Key{key},
				Message:  "no candidate slot was available for this instance",
			})
			place(assignment, &occupied, &occupiedKeys, key, inst.IdealTime, inst.Duration)
			continue
		}

		byProximity := orderValues(candidates, inst.IdealTime, key, assignment)

		placed := false
		for _, candidate := range byProximity {
			interval := timegrid.NewInterval(candidate, inst.Duration)
			if intersectsAny(interval, occupied) {
				continue
			}
			place(assignment, &occupied, &occupiedKeys, key, candidate, inst.Duration)
			placed = true
			break
		}
		if !placed {
			start := byProximity[0]
			interval := timegrid.NewInterval(start, inst.Duration)
			for _, occKey := range overlappingKeys(interval, occupied, occupiedKeys) {
				conflicts = append(conflicts, Conflict{
					Kind:     ConflictOverlap,
					Severity: SeverityWarning,
					Keys:     []Key{key, occKey},
					Message:  "no conflict-free slot was available; placed at closest-to-ideal candidate",
				})
			}
			place(assignment, &occupied, &occupiedKeys, key, start, inst.Duration)
		}
	}

	// Resolve chain children in waves: a multi-hop chain's deeper links
	// need their immediate parent (itself possibly a chain child)
	// resolved first, so we repeat until a pass makes no progress.
	for len(chainChildren) > 0 {
		var stillPending []instance.Instance
		progressed := false

		for _, inst := range chainChildren {
			key := KeyOf(inst)
			parentKey, ok := parentKeyOf(tree, inst)
			if !ok {
				continue
			}
			parentStart, placed := assignment[parentKey]
			if !placed {
				stillPending = append(stillPending, inst)
				continue
			}
			node := findNode(tree, parentKey, key)
			if node == nil {
				continue
			}
			start := DeriveChildTime(parentStart, byKey[parentKey].Duration, node, occupied)
			for _, occKey := range overlappingKeys(timegrid.NewInterval(start, inst.Duration), occupied, occupiedKeys) {
				conflicts = append(conflicts, Conflict{
					Kind:     ConflictOverlap,
					Severity: SeverityWarning,
					Keys:     []Key{key, occKey},
					Message:  "chain child could not be placed within its wobble window without overlap",
				})
			}
			place(assignment, &occupied, &occupiedKeys, key, start, inst.Duration)
			progressed = true
		}

		if !progressed {
			break
		}
		chainChildren = stillPending
	}

	return assignment, conflicts
}

// fallbackPriority orders placement among non-chain-child instances:
// fixed instances first, since they cannot move.
func fallbackPriority(inst instance.Instance) int {
	if inst.Fixed {
		return 0
	}
	return 1
}

func place(assignment Assignment, occupied *[]timegrid.Interval, occupiedKeys *[]Key, key Key, start timegrid.LocalDateTime, duration int) {
	assignment[key] = start
	*occupied = append(*occupied, timegrid.NewInterval(start, duration))
	*occupiedKeys = append(*occupiedKeys, key)
}

// overlappingKeys returns the key of every occupied interval that iv
// intersects, so a conflict can name every occupier involved rather
// than just the instance being placed.
func overlappingKeys(iv timegrid.Interval, occupied []timegrid.Interval, keys []Key) []Key {
	var out []Key
	for i, o := range occupied {
		if iv.Overlaps(o) {
			out = append(out, keys[i])
		}
	}
	return out
}

func parentKeyOf(tree ChainTree, child instance.Instance) (Key, bool) {
	if child.Chain == nil {
		return Key{}, false
	}
	for parentKey, node := range tree {
		if parentKey.SeriesID != child.Chain.ParentSeriesID {
			continue
		}
		if parentKey.Date != child.Date.String() {
			continue
		}
		for _, c := range node.Children {
			if KeyOf(c.Instance) == KeyOf(child) {
				return parentKey, true
			}
		}
	}
	return Key{}, false
}

func findNode(tree ChainTree, parentKey, childKey Key) *ChainNode {
	node, ok := tree[parentKey]
	if !ok {
		return nil
	}
	for _, c := range node.Children {
		if KeyOf(c.Instance) == childKey {
			return c
		}
	}
	return nil
}
