package csp

import (
	"sort"

	"github.com/motioneffector/autoplanner/internal/reflow/instance"
	"github.com/motioneffector/autoplanner/internal/reflow/timegrid"
)

// Assignment maps each CSP variable to its chosen start time.
type Assignment map[Key]timegrid.LocalDateTime

// Search runs backtracking over domains, re-propagating after every
// assignment, using MRV (with chain-root priority on ties) for variable
// ordering and proximity-to-ideal plus workload balancing for value
// ordering (spec §4.6, component C7). It returns the assignment and
// whether a complete solution was found; a false return leaves the
// caller to invoke the fallback (C8).
func Search(domains Domains, instances []instance.Instance, constraints []Constraint, durations Durations, tree ChainTree) (Assignment, bool) {
	idealByKey := make(map[Key]timegrid.LocalDateTime, len(instances))
	for _, inst := range instances {
		if inst.AllDay || inst.IsChainChild() {
			continue
		}
		idealByKey[KeyOf(inst)] = inst.IdealTime
	}

	assignment := make(Assignment)
	ok := backtrack(domains, constraints, durations, tree, idealByKey, assignment)
	return assignment, ok
}

func backtrack(domains Domains, constraints []Constraint, durations Durations, tree ChainTree, idealByKey map[Key]timegrid.LocalDateTime, assignment Assignment) bool {
	variable, found := selectVariable(domains, assignment, tree)
	if !found {
		return true
	}

	for _, v := range orderValues(domains[variable], idealByKey[variable], variable, assignment) {
		assignment[variable] = v

		narrowed := domains.Clone()
		narrowed[variable] = []timegrid.LocalDateTime{v}
		propagated := PropagateConstraints(narrowed, constraints, durations, tree)

		if anyEmptyUnassigned(propagated, assignment) {
			delete(assignment, variable)
			continue
		}

		if backtrack(propagated, constraints, durations, tree, idealByKey, assignment) {
			return true
		}
		delete(assignment, variable)
	}

	return false
}

// selectVariable picks the next unassigned variable by minimum-remaining-
// values, breaking ties in favor of chain-root variables (those with
// children in the chain tree) since fixing them first lets shadow
// pruning and chain derivation narrow the rest of the search sooner.
func selectVariable(domains Domains, assignment Assignment, tree ChainTree) (Key, bool) {
	var best Key
	bestSize := -1
	bestIsRoot := false
	found := false

	keys := make([]Key, 0, len(domains))
	for k := range domains {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].SeriesID != keys[j].SeriesID {
			return keys[i].SeriesID < keys[j].SeriesID
		}
		return keys[i].Date < keys[j].Date
	})

	for _, k := range keys {
		if _, done := assignment[k]; done {
			continue
		}
		size := len(domains[k])
		_, isRoot := tree[k]
		isRoot = isRoot && len(tree[k].Children) > 0

		switch {
		case !found:
			best, bestSize, bestIsRoot, found = k, size, isRoot, true
		case size < bestSize:
			best, bestSize, bestIsRoot = k, size, isRoot
		case size == bestSize && isRoot && !bestIsRoot:
			best, bestSize, bestIsRoot = k, size, isRoot
		}
	}

	return best, found
}

// orderValues sorts a domain's candidates by absolute distance from the
// variable's ideal time, breaking ties toward the date carrying fewer
// assignments already made this search (workload balancing, spec §4.6).
func orderValues(candidates []timegrid.LocalDateTime, ideal timegrid.LocalDateTime, self Key, assignment Assignment) []timegrid.LocalDateTime {
	loadByDate := make(map[string]int)
	for k, v := range assignment {
		if k == self {
			continue
		}
		loadByDate[v.Date.String()]++
	}

	out := make([]timegrid.LocalDateTime, len(candidates))
	copy(out, candidates)

	sort.SliceStable(out, func(i, j int) bool {
		di := timegrid.AbsMinutes(out[i].SubMinutes(ideal))
		dj := timegrid.AbsMinutes(out[j].SubMinutes(ideal))
		if di != dj {
			return di < dj
		}
		return loadByDate[out[i].Date.String()] < loadByDate[out[j].Date.String()]
	})
	return out
}

// anyEmptyUnassigned reports whether any unassigned variable's domain is
// empty, meaning the current partial assignment is a dead end.
func anyEmptyUnassigned(domains Domains, assignment Assignment) bool {
	for k, d := range domains {
		if _, done := assignment[k]; done {
			continue
		}
		if len(d) == 0 {
			return true
		}
	}
	return false
}
