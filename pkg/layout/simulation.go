// Package layout is a force-directed layout engine in the manner of d3-force.
// The Simulation owns every position and velocity; callers only ever see copies.
package layout

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// Params are the force and cooling parameters of a Simulation.
type Params struct {
	NodeRadius        float64
	ChargeStrength    float64
	LinkDistance      float64
	GravityStrength   float64
	CollisionStrength float64
	Alpha             float64 // start value after a restart
	AlphaDecay        float64
	AlphaMin          float64
	VelocityDecay     float64

	// Viewport size; gravity pulls toward its centre.
	Width  float64
	Height float64
}

// DefaultParams mirrors the settings defaults for an 800x600 viewport.
func DefaultParams() Params {
	return Params{
		NodeRadius:        10,
		ChargeStrength:    -200,
		LinkDistance:      50,
		GravityStrength:   0.05,
		CollisionStrength: 0.7,
		Alpha:             1,
		AlphaDecay:        0.0228,
		AlphaMin:          0.001,
		VelocityDecay:     0.4,
		Width:             800,
		Height:            600,
	}
}

// Center returns the viewport centre.
func (p Params) Center() Point {
	return Point{X: p.Width / 2, Y: p.Height / 2}
}

// Node is a layout input. Hub nodes (tags) are drawn and collide larger.
type Node struct {
	ID  string
	Hub bool
}

// Link is an undirected spring between two node ids.
type Link struct {
	Source string
	Target string
}

// Point is a 2D position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Observer receives tick and restart notifications.
type Observer interface {
	ObserveTick(d time.Duration)
	ObserveRestart()
}

type body struct {
	id     string
	hub    bool
	x, y   float64
	vx, vy float64
	pinned bool
	fx, fy float64
	// held by a drag gesture
	dragged bool
}

type spring struct {
	source, target int
	strength       float64
	bias           float64
}

// Simulation is not safe for concurrent use; one goroutine owns it.
type Simulation struct {
	params      Params
	bodies      []*body
	index       map[string]int
	springs     []spring
	alpha       float64
	alphaTarget float64
	running     bool
	ticks       uint64
	rng         *rand.Rand
	observer    Observer
}

// New creates an idle simulation. seed makes jiggle and placement reproducible.
func New(params Params, seed uint64) *Simulation {
	return &Simulation{
		params: params,
		index:  make(map[string]int),
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// SetObserver installs o; nil disables notifications.
func (s *Simulation) SetObserver(o Observer) {
	s.observer = o
}

// SetGraph replaces the node and link set. Nodes already known keep their
// position and velocity; new nodes are placed next to a positioned neighbour
// or on a spiral around the centre. The simulation restarts.
func (s *Simulation) SetGraph(nodes []Node, links []Link) {
	old := s.index
	oldBodies := s.bodies

	s.bodies = make([]*body, 0, len(nodes))
	s.index = make(map[string]int, len(nodes))
	var fresh []int
	for _, n := range nodes {
		if _, dup := s.index[n.ID]; dup {
			continue
		}
		b := &body{id: n.ID, hub: n.Hub}
		if i, ok := old[n.ID]; ok {
			prev := oldBodies[i]
			b.x, b.y, b.vx, b.vy = prev.x, prev.y, prev.vx, prev.vy
			b.pinned, b.fx, b.fy = prev.pinned, prev.fx, prev.fy
			b.dragged = prev.dragged
		} else {
			fresh = append(fresh, len(s.bodies))
		}
		s.index[n.ID] = len(s.bodies)
		s.bodies = append(s.bodies, b)
	}

	s.springs = s.springs[:0]
	for _, l := range links {
		si, ok1 := s.index[l.Source]
		ti, ok2 := s.index[l.Target]
		if !ok1 || !ok2 || si == ti {
			continue
		}
		s.springs = append(s.springs, spring{source: si, target: ti})
	}
	s.initSprings()
	s.place(fresh)
	if !s.dragging() {
		s.alphaTarget = 0
	}
	s.Restart()
}

// SetParams swaps the parameters and restarts from the new start alpha.
func (s *Simulation) SetParams(p Params) {
	s.params = p
	s.Restart()
}

// SetRadius changes the node radius without reheating. Collision picks it
// up on the next tick.
func (s *Simulation) SetRadius(r float64) {
	s.params.NodeRadius = r
}

// Params returns the current parameters.
func (s *Simulation) Params() Params {
	return s.params
}

// Restart reheats the simulation to its start alpha, keeping positions.
func (s *Simulation) Restart() {
	s.alpha = s.params.Alpha
	s.running = true
	if s.observer != nil {
		s.observer.ObserveRestart()
	}
}

// Stop halts the simulation until the next restart or drag.
func (s *Simulation) Stop() {
	s.running = false
}

// Running reports whether ticks still have an effect.
func (s *Simulation) Running() bool {
	return s.running
}

// Alpha returns the current temperature.
func (s *Simulation) Alpha() float64 {
	return s.alpha
}

// AlphaTarget returns the temperature alpha is decaying toward.
func (s *Simulation) AlphaTarget() float64 {
	return s.alphaTarget
}

// Ticks returns the number of ticks applied since creation.
func (s *Simulation) Ticks() uint64 {
	return s.ticks
}

// Tick advances one step. It reports whether the simulation is still running
// afterwards; a stopped simulation is left untouched.
func (s *Simulation) Tick() bool {
	if !s.running {
		return false
	}
	start := time.Now()

	p := s.params
	s.alpha += (s.alphaTarget - s.alpha) * p.AlphaDecay

	s.applyLinks(s.alpha)
	s.applyCharge(s.alpha)
	s.applyGravity(s.alpha)
	s.applyCollision()

	keep := 1 - p.VelocityDecay
	for _, b := range s.bodies {
		if b.pinned {
			b.x, b.y = b.fx, b.fy
			b.vx, b.vy = 0, 0
			continue
		}
		b.vx *= keep
		b.vy *= keep
		b.x += b.vx
		b.y += b.vy
	}

	s.ticks++
	if s.alpha < p.AlphaMin {
		s.running = false
	}
	if s.observer != nil {
		s.observer.ObserveTick(time.Since(start))
	}
	return s.running
}

// Run ticks until the simulation converges, ctx is cancelled or maxTicks
// ticks have run (maxTicks <= 0 means no limit). It returns the ticks run.
func (s *Simulation) Run(ctx context.Context, maxTicks int) (int, error) {
	n := 0
	for s.running && (maxTicks <= 0 || n < maxTicks) {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		s.Tick()
		n++
	}
	return n, nil
}

// TicksToConverge returns how many ticks alpha needs to fall from its start
// value below AlphaMin with no target, or -1 if it never does.
func (p Params) TicksToConverge() int {
	if p.AlphaDecay <= 0 || p.AlphaDecay >= 1 || p.AlphaMin <= 0 {
		return -1
	}
	if p.Alpha < p.AlphaMin {
		return 1
	}
	return int(math.Ceil(math.Log(p.AlphaMin/p.Alpha) / math.Log(1-p.AlphaDecay)))
}

// =============================================================================
// Positions
// =============================================================================

// Positions returns a copy of the position table.
func (s *Simulation) Positions() map[string]Point {
	out := make(map[string]Point, len(s.bodies))
	for _, b := range s.bodies {
		out[b.id] = Point{X: b.x, Y: b.y}
	}
	return out
}

// Position returns the position of id.
func (s *Simulation) Position(id string) (Point, bool) {
	i, ok := s.index[id]
	if !ok {
		return Point{}, false
	}
	b := s.bodies[i]
	return Point{X: b.x, Y: b.y}, true
}

// NodeIDs returns the node ids in input order.
func (s *Simulation) NodeIDs() []string {
	out := make([]string, len(s.bodies))
	for i, b := range s.bodies {
		out[i] = b.id
	}
	return out
}

// Radius is the drawn radius of a node.
func (s *Simulation) Radius(id string) float64 {
	i, ok := s.index[id]
	if !ok {
		return 0
	}
	return s.drawnRadius(s.bodies[i])
}

func (s *Simulation) drawnRadius(b *body) float64 {
	if b.hub {
		return s.params.NodeRadius * 2
	}
	return s.params.NodeRadius
}

func (s *Simulation) collideRadius(b *body) float64 {
	if b.hub {
		return s.params.NodeRadius * 3
	}
	return s.params.NodeRadius * 1.5
}

// jiggle returns a tiny random offset used to separate coincident nodes.
func (s *Simulation) jiggle() float64 {
	return (s.rng.Float64() - 0.5) * 1e-6
}
