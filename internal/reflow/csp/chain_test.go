package csp

import (
	"testing"

	"github.com/motioneffector/autoplanner/internal/reflow/instance"
	"github.com/motioneffector/autoplanner/internal/reflow/timegrid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildChainTreeAttachesSameDateChildren(t *testing.T) {
	parent := instance.Instance{SeriesID: "workout", Date: date(2026, 1, 1), Duration: 60}
	child := instance.Instance{
		SeriesID: "stretch", Date: date(2026, 1, 1), Duration: 15,
		Chain: &instance.ChainMeta{ParentSeriesID: "workout", ChainDistance: 10, EarlyWobble: 5, LateWobble: 5},
	}
	links := []instance.ChainLink{{ParentSeriesID: "workout", ChildSeriesID: "stretch", DistanceMin: 10, EarlyWobbleMin: 5, LateWobbleMin: 5}}

	tree := BuildChainTree([]instance.Instance{parent, child}, links)

	node, ok := tree[KeyOf(parent)]
	require.True(t, ok)
	require.Len(t, node.Children, 1)
	assert.Equal(t, "stretch", node.Children[0].Instance.SeriesID)
	assert.Equal(t, 10, node.Children[0].Distance)
}

func TestDeriveChildTimePrefersTargetWhenClear(t *testing.T) {
	parentStart := timegrid.NewLocalDateTime(date(2026, 1, 1), timegrid.LocalTime{Hour: 9})
	node := &ChainNode{
		Instance:    instance.Instance{Duration: 15},
		Distance:    10,
		EarlyWobble: 5,
		LateWobble:  5,
	}
	got := DeriveChildTime(parentStart, 60, node, nil)
	want := timegrid.NewLocalDateTime(date(2026, 1, 1), timegrid.LocalTime{Hour: 10, Minute: 10})
	assert.True(t, got.Equal(want))
}

func TestDeriveChildTimeAvoidsOccupiedRange(t *testing.T) {
	parentStart := timegrid.NewLocalDateTime(date(2026, 1, 1), timegrid.LocalTime{Hour: 9})
	target := timegrid.NewLocalDateTime(date(2026, 1, 1), timegrid.LocalTime{Hour: 10, Minute: 10})
	node := &ChainNode{
		Instance:    instance.Instance{Duration: 15},
		Distance:    10,
		EarlyWobble: 15,
		LateWobble:  15,
	}
	occupied := []timegrid.Interval{timegrid.NewInterval(target, 15)}

	got := DeriveChildTime(parentStart, 60, node, occupied)
	gotInterval := timegrid.NewInterval(got, 15)
	assert.False(t, gotInterval.Overlaps(occupied[0]))
}

func TestDeriveChildTimeFallsBackToTargetWhenNoClearCandidate(t *testing.T) {
	parentStart := timegrid.NewLocalDateTime(date(2026, 1, 1), timegrid.LocalTime{Hour: 9})
	target := timegrid.NewLocalDateTime(date(2026, 1, 1), timegrid.LocalTime{Hour: 10})
	node := &ChainNode{Instance: instance.Instance{Duration: 15}, Distance: 0, EarlyWobble: 0, LateWobble: 0}
	occupied := []timegrid.Interval{timegrid.NewInterval(target, 15)}

	got := DeriveChildTime(parentStart, 60, node, occupied)
	assert.True(t, got.Equal(target))
}

func TestPruneByChainShadowRemovesCandidatesThatWouldCollideWithFixedOccupier(t *testing.T) {
	fixedStart := timegrid.NewLocalDateTime(date(2026, 1, 1), timegrid.LocalTime{Hour: 10, Minute: 10})
	occupierKey := Key{SeriesID: "meeting", Date: "2026-01-01"}

	parent := instance.Instance{SeriesID: "workout", Date: date(2026, 1, 1), Duration: 60}
	parentKey := KeyOf(parent)
	occupier := instance.Instance{SeriesID: "meeting", Date: date(2026, 1, 1), Duration: 15, Fixed: true, IdealTime: fixedStart}
	child := instance.Instance{
		SeriesID: "stretch", Date: date(2026, 1, 1), Duration: 15,
		Chain: &instance.ChainMeta{ParentSeriesID: "workout", ChainDistance: 10, EarlyWobble: 0, LateWobble: 0},
	}

	links := []instance.ChainLink{{ParentSeriesID: "workout", ChildSeriesID: "stretch", DistanceMin: 10}}
	all := []instance.Instance{parent, occupier, child}
	tree := BuildChainTree(all, links)

	domains := Domains{
		parentKey:   {timegrid.NewLocalDateTime(date(2026, 1, 1), timegrid.LocalTime{Hour: 9})},
		occupierKey: {fixedStart},
	}

	pruned := PruneByChainShadow(domains, tree, all)
	assert.Empty(t, pruned[parentKey], "the only parent candidate derives a child colliding with the fixed occupier")
}
