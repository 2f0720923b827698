// Package reflow is the pure scheduling core (spec §1-§5): it turns a
// snapshot of series, patterns, exceptions, completions and relational
// constraints into a concrete set of instance placements plus any
// conflicts the placement could not avoid. It performs no I/O; callers
// (the façade, component-external to this package) are responsible for
// hydrating a snapshot and persisting the result.
package reflow

import (
	"sort"

	"github.com/motioneffector/autoplanner/internal/reflow/csp"
	"github.com/motioneffector/autoplanner/internal/reflow/instance"
	"github.com/motioneffector/autoplanner/internal/reflow/pattern"
	"github.com/motioneffector/autoplanner/internal/reflow/timegrid"
)

// RelationKind tags a user-declared relational constraint between two
// series (spec §3). Chain relations are not declared this way — they
// come from ChainLinks and are derived automatically from the chain
// tree.
type RelationKind string

const (
	RelationNoOverlap    RelationKind = "noOverlap"
	RelationMustBeBefore RelationKind = "mustBeBefore"
)

// SeriesRelation declares that every pair of same-date instances drawn
// from SeriesAID and SeriesBID must satisfy Kind (spec §3: constraints
// are declared between series and resolved to concrete instance pairs
// at generation time).
type SeriesRelation struct {
	Kind      RelationKind
	SeriesAID string
	SeriesBID string
}

// ReflowInput bundles everything one reflow pass needs (spec §6.1).
type ReflowInput struct {
	Series           []instance.Series
	Exceptions       []instance.Exception
	Completions      []instance.Completion
	ChainLinks       []instance.ChainLink
	Relations        []SeriesRelation
	WindowStart      timegrid.LocalDate
	WindowEnd        timegrid.LocalDate
	CompletionCount  pattern.CompletionCounter
	AdaptiveDuration func(seriesID string, date timegrid.LocalDate, completions []instance.Completion) int
	// ExternalBusy carries opaque occupied ranges pulled from a connected
	// external calendar (façade-assembled; the CSP solver proper never
	// sees these — only the post-placement check below does, so a flaky
	// external calendar can only ever add an overlap conflict, never
	// change what the solver searches for).
	ExternalBusy []ExternalBusyInterval
}

// ExternalBusyInterval is one occupied range reported by a connected
// external calendar, named by its source for the conflict message it
// can produce.
type ExternalBusyInterval struct {
	SourceID string
	Title    string
	Start    timegrid.LocalDateTime
	End      timegrid.LocalDateTime
}

func (b ExternalBusyInterval) toInterval() timegrid.Interval {
	return timegrid.NewInterval(b.Start, b.End.SubMinutes(b.Start))
}

// ScheduledInstance is one placement in the output (spec §6.1).
type ScheduledInstance struct {
	SeriesID string
	Date     timegrid.LocalDate
	Start    timegrid.LocalDateTime
	Duration int
	Title    string
	AllDay   bool
	Fixed    bool
}

// ReflowOutput is the result of one reflow pass (spec §6.1).
type ReflowOutput struct {
	Instances []ScheduledInstance
	Conflicts []Conflict
}

// Reflow runs the full pipeline: instance generation, domain
// computation, chain-shadow pruning, constraint propagation,
// backtracking search, and — only on search failure — the best-effort
// fallback (spec §4.1-§4.8, the C1-C9 pipeline).
func Reflow(in ReflowInput) ReflowOutput {
	genInput := instance.GenerateInput{
		Series:           in.Series,
		Exceptions:       in.Exceptions,
		Completions:      in.Completions,
		WindowStart:      in.WindowStart,
		WindowEnd:        in.WindowEnd,
		CompletionCount:  in.CompletionCount,
		AdaptiveDuration: in.AdaptiveDuration,
	}
	instances := instance.Generate(genInput)

	durations := buildDurations(instances)
	tree := csp.BuildChainTree(instances, in.ChainLinks)

	domains := csp.ComputeDomains(instances)
	domains = csp.PruneByChainShadow(domains, tree, instances)

	constraints := resolveConstraints(instances, in.Relations, tree)
	domains = csp.PropagateConstraints(domains, constraints, durations, tree)

	var assignment csp.Assignment
	var conflicts []Conflict

	assigned, ok := csp.Search(domains, instances, constraints, durations, tree)
	if ok {
		assignment = deriveChainChildren(assigned, instances, tree, durations)
		conflicts = append(conflicts, checkFixedOverlaps(instances, assignment, durations)...)
	} else {
		fbAssignment, fbConflicts := csp.HandleNoSolution(instances, domains, tree, durations)
		assignment = fbAssignment
		for _, c := range fbConflicts {
			conflicts = append(conflicts, fromCSPConflict(c))
		}
	}

	conflicts = append(conflicts, checkResidualViolations(assignment, constraints, durations)...)
	conflicts = append(conflicts, checkExternalBusyOverlaps(instances, assignment, durations, in.ExternalBusy)...)

	return ReflowOutput{
		Instances: buildScheduledInstances(instances, assignment),
		Conflicts: conflicts,
	}
}

func buildDurations(instances []instance.Instance) csp.Durations {
	out := make(csp.Durations, len(instances))
	for _, inst := range instances {
		out[csp.KeyOf(inst)] = inst.Duration
	}
	return out
}

// resolveConstraints turns declared series relations into concrete
// instance-pair constraints (same-date pairing, spec §3) and adds one
// Chain constraint per chain-tree edge.
func resolveConstraints(instances []instance.Instance, relations []SeriesRelation, tree csp.ChainTree) []csp.Constraint {
	byDateAndSeries := make(map[string]map[string][]instance.Instance)
	for _, inst := range instances {
		if inst.AllDay {
			continue
		}
		dateKey := inst.Date.String()
		m, ok := byDateAndSeries[dateKey]
		if !ok {
			m = make(map[string][]instance.Instance)
			byDateAndSeries[dateKey] = m
		}
		m[inst.SeriesID] = append(m[inst.SeriesID], inst)
	}

	var out []csp.Constraint
	for _, rel := range relations {
		kind := csp.NoOverlap
		if rel.Kind == RelationMustBeBefore {
			kind = csp.MustBeBefore
		}
		for _, bySeries := range byDateAndSeries {
			as := bySeries[rel.SeriesAID]
			bs := bySeries[rel.SeriesBID]
			for _, a := range as {
				for _, b := range bs {
					out = append(out, csp.Constraint{Kind: kind, A: csp.KeyOf(a), B: csp.KeyOf(b)})
				}
			}
		}
	}

	for parentKey, node := range tree {
		for _, child := range node.Children {
			out = append(out, csp.Constraint{Kind: csp.Chain, A: parentKey, B: csp.KeyOf(child.Instance)})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].A != out[j].A {
			return keyLess(out[i].A, out[j].A)
		}
		return keyLess(out[i].B, out[j].B)
	})

	return out
}

func keyLess(a, b csp.Key) bool {
	if a.SeriesID != b.SeriesID {
		return a.SeriesID < b.SeriesID
	}
	return a.Date < b.Date
}

// deriveChainChildren fills in the derived placements for every
// chain-child instance once its parent has a placement, repeating until
// every level of a multi-hop chain resolves (spec §4.4).
func deriveChainChildren(assigned csp.Assignment, instances []instance.Instance, tree csp.ChainTree, durations csp.Durations) csp.Assignment {
	out := make(csp.Assignment, len(assigned))
	for k, v := range assigned {
		out[k] = v
	}

	parentOfChild := make(map[csp.Key]csp.Key)
	nodeOfChild := make(map[csp.Key]*csp.ChainNode)
	for parentKey, node := range tree {
		for _, child := range node.Children {
			childKey := csp.KeyOf(child.Instance)
			parentOfChild[childKey] = parentKey
			nodeOfChild[childKey] = child
		}
	}

	pending := make([]instance.Instance, 0)
	for _, inst := range instances {
		if inst.IsChainChild() && !inst.AllDay {
			pending = append(pending, inst)
		}
	}

	occupied := make([]timegrid.Interval, 0, len(out))
	for k, v := range out {
		occupied = append(occupied, timegrid.NewInterval(v, durations[k]))
	}

	for len(pending) > 0 {
		progressed := false
		remaining := pending[:0:0]

		for _, inst := range pending {
			key := csp.KeyOf(inst)
			parentKey, hasParent := parentOfChild[key]
			if !hasParent {
				continue
			}
			parentStart, parentPlaced := out[parentKey]
			if !parentPlaced {
				remaining = append(remaining, inst)
				continue
			}

			node := nodeOfChild[key]
			start := csp.DeriveChildTime(parentStart, durations[parentKey], node, occupied)
			out[key] = start
			occupied = append(occupied, timegrid.NewInterval(start, inst.Duration))
			progressed = true
		}

		pending = remaining
		if !progressed {
			break
		}
	}

	return out
}

// checkFixedOverlaps scans every pair of placed instances for an
// overlap involving at least one fixed instance (INV-5): a successful
// Search only enforces declared relational constraints, so two fixed
// instances with no declared noOverlap between them can both land at
// their immovable ideal time and still intersect.
func checkFixedOverlaps(instances []instance.Instance, assignment csp.Assignment, durations csp.Durations) []Conflict {
	type placement struct {
		key      csp.Key
		interval timegrid.Interval
		fixed    bool
	}

	var placed []placement
	for _, inst := range instances {
		if inst.AllDay {
			continue
		}
		key := csp.KeyOf(inst)
		start, ok := assignment[key]
		if !ok {
			continue
		}
		placed = append(placed, placement{key: key, interval: timegrid.NewInterval(start, durations[key]), fixed: inst.Fixed})
	}

	var out []Conflict
	for i := 0; i < len(placed); i++ {
		for j := i + 1; j < len(placed); j++ {
			if !placed[i].fixed && !placed[j].fixed {
				continue
			}
			if !placed[i].interval.Overlaps(placed[j].interval) {
				continue
			}
			out = append(out, Conflict{
				Kind:     ConflictOverlap,
				Severity: SeverityWarning,
				Keys:     []InstanceKey{fromCSPKey(placed[i].key), fromCSPKey(placed[j].key)},
				Message:  "instances overlap and at least one is fixed",
			})
		}
	}

	return out
}

// checkResidualViolations re-checks every noOverlap/mustBeBefore
// constraint against the final assignment. A successful Search already
// guarantees these hold; this exists mainly to catch what the fallback
// path's greedy placement does not enforce (ordering).
func checkResidualViolations(assignment csp.Assignment, constraints []csp.Constraint, durations csp.Durations) []Conflict {
	var out []Conflict
	for _, c := range constraints {
		aStart, aOK := assignment[c.A]
		bStart, bOK := assignment[c.B]
		if !aOK || !bOK {
			continue
		}

		switch c.Kind {
		case csp.NoOverlap:
			aInterval := timegrid.NewInterval(aStart, durations[c.A])
			bInterval := timegrid.NewInterval(bStart, durations[c.B])
			if aInterval.Overlaps(bInterval) {
				out = append(out, Conflict{
					Kind:     ConflictConstraintViolation,
					Severity: SeverityError,
					Keys:     []InstanceKey{fromCSPKey(c.A), fromCSPKey(c.B)},
					Message:  "instances overlap despite a noOverlap constraint",
				})
			}
		case csp.MustBeBefore:
			if !aStart.Before(bStart) {
				out = append(out, Conflict{
					Kind:     ConflictConstraintViolation,
					Severity: SeverityError,
					Keys:     []InstanceKey{fromCSPKey(c.A), fromCSPKey(c.B)},
					Message:  "instance was not placed before its mustBeBefore partner",
				})
			}
		case csp.Chain:
			// Chain links are not re-checked here. A chain child that
			// the fallback cannot place clear of other placements within
			// its wobble window is reported there as an overlap conflict
			// (chainCannotFit collapses into overlap).
		}
	}

	return out
}

// checkExternalBusyOverlaps raises an overlap conflict, never a domain
// restriction, for every placed instance that lands on top of a
// connected external calendar's busy range (SPEC expansion: external
// busy time is a façade-assembled, post-placement check — the solver
// proper never prunes against it).
func checkExternalBusyOverlaps(instances []instance.Instance, assignment csp.Assignment, durations csp.Durations, busy []ExternalBusyInterval) []Conflict {
	if len(busy) == 0 {
		return nil
	}
	var out []Conflict
	for _, inst := range instances {
		key := csp.KeyOf(inst)
		start, ok := assignment[key]
		if !ok {
			continue
		}
		placed := timegrid.NewInterval(start, durations[key])
		for _, b := range busy {
			if placed.Overlaps(b.toInterval()) {
				out = append(out, Conflict{
					Kind:     ConflictOverlap,
					Severity: SeverityWarning,
					Keys:     []InstanceKey{fromCSPKey(key)},
					Message:  "overlaps external calendar event: " + b.Title,
				})
			}
		}
	}
	return out
}

func buildScheduledInstances(instances []instance.Instance, assignment csp.Assignment) []ScheduledInstance {
	out := make([]ScheduledInstance, 0, len(instances))
	for _, inst := range instances {
		if inst.AllDay {
			out = append(out, ScheduledInstance{
				SeriesID: inst.SeriesID,
				Date:     inst.Date,
				Start:    timegrid.NewLocalDateTime(inst.Date, timegrid.LocalTime{}),
				Duration: inst.Duration,
				Title:    inst.Title,
				AllDay:   true,
				Fixed:    inst.Fixed,
			})
			continue
		}

		start, ok := assignment[csp.KeyOf(inst)]
		if !ok {
			start = inst.IdealTime
		}
		out = append(out, ScheduledInstance{
			SeriesID: inst.SeriesID,
			Date:     inst.Date,
			Start:    start,
			Duration: inst.Duration,
			Title:    inst.Title,
			AllDay:   false,
			Fixed:    inst.Fixed,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SeriesID != out[j].SeriesID {
			return out[i].SeriesID < out[j].SeriesID
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}
