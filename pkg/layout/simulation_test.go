package layout

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func starGraph() ([]Node, []Link) {
	nodes := []Node{{ID: "tag1", Hub: true}, {ID: "tag2", Hub: true}}
	var links []Link
	for _, id := range []string{"site1", "site2", "site3", "site4"} {
		nodes = append(nodes, Node{ID: id})
		links = append(links, Link{Source: id, Target: "tag1"})
	}
	links = append(links, Link{Source: "site4", Target: "tag2"})
	return nodes, links
}

func distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func TestAlphaDecreasesMonotonicallyAndConverges(t *testing.T) {
	p := DefaultParams()
	s := New(p, 1)
	s.SetGraph(starGraph())

	bound := p.TicksToConverge()
	require.Greater(t, bound, 0)

	prev := s.Alpha()
	ticks := 0
	for s.Tick() {
		ticks++
		require.Less(t, s.Alpha(), prev, "alpha rose at tick %d", ticks)
		prev = s.Alpha()
		require.LessOrEqual(t, ticks, bound+1)
	}
	assert.False(t, s.Running())
	assert.Less(t, s.Alpha(), p.AlphaMin)
	assert.LessOrEqual(t, int(s.Ticks()), bound+1)
}

func TestTicksToConverge(t *testing.T) {
	assert.Equal(t, 300, DefaultParams().TicksToConverge())

	p := DefaultParams()
	p.AlphaDecay = 0
	assert.Equal(t, -1, p.TicksToConverge())
}

func TestStoppedSimulationIgnoresTicks(t *testing.T) {
	s := New(DefaultParams(), 1)
	s.SetGraph(starGraph())
	s.Stop()

	before := s.Positions()
	assert.False(t, s.Tick())
	assert.Equal(t, before, s.Positions())
	assert.Equal(t, uint64(0), s.Ticks())
}

func TestRunStopsAtLimitAndOnCancel(t *testing.T) {
	s := New(DefaultParams(), 1)
	s.SetGraph(starGraph())

	n, err := s.Run(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.True(t, s.Running())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n, err = s.Run(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, n)

	n, err = s.Run(context.Background(), 0)
	require.NoError(t, err)
	assert.False(t, s.Running())
	assert.Positive(t, n)
}

func TestSameSeedSameLayout(t *testing.T) {
	run := func() map[string]Point {
		s := New(DefaultParams(), 42)
		s.SetGraph(starGraph())
		_, err := s.Run(context.Background(), 0)
		require.NoError(t, err)
		return s.Positions()
	}
	assert.Equal(t, run(), run())
}

func TestLinkedPairSettlesNearLinkDistance(t *testing.T) {
	p := DefaultParams()
	p.ChargeStrength = 0
	p.GravityStrength = 0
	p.CollisionStrength = 0
	s := New(p, 3)
	s.SetGraph([]Node{{ID: "a"}, {ID: "b"}}, []Link{{Source: "a", Target: "b"}})

	_, err := s.Run(context.Background(), 0)
	require.NoError(t, err)

	a, _ := s.Position("a")
	b, _ := s.Position("b")
	assert.InDelta(t, p.LinkDistance, distance(a, b), 5)
}

func TestCollisionSeparatesOverlappingNodes(t *testing.T) {
	p := DefaultParams()
	p.ChargeStrength = 0
	p.GravityStrength = 0
	s := New(p, 3)
	s.SetGraph([]Node{{ID: "a"}, {ID: "b"}}, nil)

	a, _ := s.Position("a")
	b, _ := s.Position("b")
	require.Less(t, distance(a, b), 2*p.NodeRadius*1.5, "fixture should start overlapping")

	_, err := s.Run(context.Background(), 0)
	require.NoError(t, err)

	a, _ = s.Position("a")
	b, _ = s.Position("b")
	assert.Greater(t, distance(a, b), 27.0)
}

func TestPinnedNodeStaysPut(t *testing.T) {
	s := New(DefaultParams(), 1)
	s.SetGraph(starGraph())
	require.True(t, s.Pin("site2", 100, 120))

	_, err := s.Run(context.Background(), 0)
	require.NoError(t, err)

	pos, ok := s.Position("site2")
	require.True(t, ok)
	assert.Equal(t, Point{X: 100, Y: 120}, pos)
	assert.True(t, s.Pinned("site2"))

	assert.False(t, s.Pin("nope", 0, 0))
}

func TestSetGraphIsAWarmRestart(t *testing.T) {
	s := New(DefaultParams(), 1)
	nodes, links := starGraph()
	s.SetGraph(nodes, links)
	_, err := s.Run(context.Background(), 0)
	require.NoError(t, err)
	settled := s.Positions()

	nodes = append(nodes, Node{ID: "site5"})
	links = append(links, Link{Source: "site5", Target: "tag2"})
	s.SetGraph(nodes, links)

	assert.True(t, s.Running())
	assert.Equal(t, DefaultParams().Alpha, s.Alpha())
	for id, want := range settled {
		got, ok := s.Position(id)
		require.True(t, ok)
		assert.Equal(t, want, got, "node %s moved on SetGraph", id)
	}

	// the new site starts near its only neighbour
	tag2, _ := s.Position("tag2")
	site5, _ := s.Position("site5")
	assert.Less(t, distance(tag2, site5), float64(jitterSpread))
}

func TestSetGraphDropsRemovedNodes(t *testing.T) {
	s := New(DefaultParams(), 1)
	s.SetGraph(starGraph())
	s.SetGraph([]Node{{ID: "tag1", Hub: true}, {ID: "site1"}}, []Link{{Source: "site1", Target: "tag1"}, {Source: "site1", Target: "gone"}})

	_, ok := s.Position("site3")
	assert.False(t, ok)
	assert.Equal(t, []string{"tag1", "site1"}, s.NodeIDs())
}

func TestSetParamsRestarts(t *testing.T) {
	s := New(DefaultParams(), 1)
	s.SetGraph(starGraph())
	_, err := s.Run(context.Background(), 0)
	require.NoError(t, err)
	require.False(t, s.Running())

	p := DefaultParams()
	p.ChargeStrength = -400
	s.SetParams(p)
	assert.True(t, s.Running())
	assert.Equal(t, p.Alpha, s.Alpha())
}

func TestDragKeepsSimulationWarm(t *testing.T) {
	s := New(DefaultParams(), 1)
	s.SetGraph(starGraph())
	_, err := s.Run(context.Background(), 0)
	require.NoError(t, err)
	require.False(t, s.Running())
	cold := s.Alpha()

	require.True(t, s.DragStart("site1"))
	assert.True(t, s.Running())
	assert.Equal(t, cold, s.Alpha(), "drag must not reheat to the start alpha")
	assert.Equal(t, dragAlphaTarget, s.AlphaTarget())

	require.True(t, s.Drag("site1", 10, 20))
	for i := 0; i < 500; i++ {
		require.True(t, s.Tick(), "simulation stopped while dragging")
	}
	pos, _ := s.Position("site1")
	assert.Equal(t, Point{X: 10, Y: 20}, pos)
	assert.InDelta(t, dragAlphaTarget, s.Alpha(), 0.01)

	require.True(t, s.DragEnd("site1"))
	assert.False(t, s.Pinned("site1"))
	_, err = s.Run(context.Background(), 0)
	require.NoError(t, err)
	assert.False(t, s.Running())
}

func TestReleasingOneOfTwoDragsKeepsSimulationWarm(t *testing.T) {
	s := New(DefaultParams(), 1)
	s.SetGraph(starGraph())
	_, err := s.Run(context.Background(), 0)
	require.NoError(t, err)

	require.True(t, s.DragStart("site1"))
	require.True(t, s.DragStart("site2"))
	require.True(t, s.DragEnd("site1"))
	assert.Equal(t, dragAlphaTarget, s.AlphaTarget(), "site2 is still held")
	for i := 0; i < 300; i++ {
		require.True(t, s.Tick(), "simulation stopped while site2 is dragged")
	}

	require.True(t, s.DragEnd("site2"))
	assert.Zero(t, s.AlphaTarget())
	assert.False(t, s.DragEnd("nope"))
}

func TestRemovingDraggedNodeDropsAlphaTarget(t *testing.T) {
	s := New(DefaultParams(), 1)
	nodes, links := starGraph()
	s.SetGraph(nodes, links)
	require.True(t, s.DragStart("site3"))

	var kept []Node
	for _, n := range nodes {
		if n.ID != "site3" {
			kept = append(kept, n)
		}
	}
	var keptLinks []Link
	for _, l := range links {
		if l.Source != "site3" {
			keptLinks = append(keptLinks, l)
		}
	}
	s.SetGraph(kept, keptLinks)
	assert.Zero(t, s.AlphaTarget())

	_, err := s.Run(context.Background(), 0)
	require.NoError(t, err)
	assert.False(t, s.Running())
}

type countingObserver struct {
	ticks    int
	restarts int
}

func (c *countingObserver) ObserveTick(time.Duration) { c.ticks++ }
func (c *countingObserver) ObserveRestart()           { c.restarts++ }

func TestObserverSeesTicksAndRestarts(t *testing.T) {
	obs := &countingObserver{}
	s := New(DefaultParams(), 1)
	s.SetObserver(obs)
	s.SetGraph(starGraph())
	_, err := s.Run(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, 1, obs.restarts)
	assert.Equal(t, 5, obs.ticks)
}
