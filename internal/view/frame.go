package view

import (
	"github.com/raphataylor/WebGraph/pkg/graph"
	"github.com/raphataylor/WebGraph/pkg/layout"
	"github.com/raphataylor/WebGraph/pkg/sab"
)

// NodeFrame is a node as drawn in one frame.
type NodeFrame struct {
	ID          string  `json:"id"`
	Kind        string  `json:"kind"`
	Label       string  `json:"label"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Radius      float64 `json:"radius"`
	Highlighted bool    `json:"highlighted,omitempty"`
	Selected    bool    `json:"selected,omitempty"`
}

// LinkFrame is a link as drawn in one frame.
type LinkFrame struct {
	Key   string  `json:"key"`
	X1    float64 `json:"x1"`
	Y1    float64 `json:"y1"`
	X2    float64 `json:"x2"`
	Y2    float64 `json:"y2"`
	Width float64 `json:"width"`
}

// GroupFrame is a tag hull as drawn in one frame.
type GroupFrame struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Path string `json:"path"`
}

// Frame is an immutable snapshot of everything a host needs to draw.
type Frame struct {
	Tick     uint64       `json:"tick"`
	Alpha    float64      `json:"alpha"`
	Running  bool         `json:"running"`
	Viewport Viewport     `json:"viewport"`
	TextSize float64      `json:"textSize"`
	Query    string       `json:"query,omitempty"`
	Nodes    []NodeFrame  `json:"nodes"`
	Links    []LinkFrame  `json:"links"`
	Groups   []GroupFrame `json:"groups"`
}

// Frame captures the current state. The result shares nothing with the
// controller.
func (c *Controller) Frame() Frame {
	pos := c.sim.Positions()
	paths := c.hulls.Paths()

	f := Frame{
		Tick:     c.sim.Ticks(),
		Alpha:    c.sim.Alpha(),
		Running:  c.sim.Running(),
		Viewport: c.viewport,
		TextSize: c.scene.Style().TextSize,
		Query:    c.query,
	}

	nodes := c.scene.Nodes()
	f.Nodes = make([]NodeFrame, len(nodes))
	for i, n := range nodes {
		p := pos[n.ID]
		f.Nodes[i] = NodeFrame{
			ID:          n.ID,
			Kind:        string(n.Kind),
			Label:       n.Label,
			X:           p.X,
			Y:           p.Y,
			Radius:      n.Radius,
			Highlighted: n.Highlighted,
			Selected:    n.ID == c.selected,
		}
	}

	links := c.scene.Links()
	f.Links = make([]LinkFrame, 0, len(links))
	for _, l := range links {
		s, ok1 := pos[l.Source]
		t, ok2 := pos[l.Target]
		if !ok1 || !ok2 {
			continue
		}
		f.Links = append(f.Links, LinkFrame{Key: l.Key, X1: s.X, Y1: s.Y, X2: t.X, Y2: t.Y, Width: l.Width})
	}

	groups := c.scene.Groups()
	f.Groups = make([]GroupFrame, 0, len(groups))
	for _, g := range groups {
		path, ok := paths[g.ID]
		if !ok {
			continue
		}
		f.Groups = append(f.Groups, GroupFrame{ID: g.ID, Name: g.Name, Path: path})
	}
	return f
}

// Positions returns the node positions of the frame keyed by id.
func (f Frame) Positions() map[string]layout.Point {
	out := make(map[string]layout.Point, len(f.Nodes))
	for _, n := range f.Nodes {
		out[n.ID] = layout.Point{X: n.X, Y: n.Y}
	}
	return out
}

// Packed converts the frame into the binary position record shared with a
// browser host. Node order is the order of f.Nodes.
func (f Frame) Packed() sab.PositionFrame {
	out := sab.PositionFrame{
		Tick:  uint32(f.Tick),
		Alpha: float32(f.Alpha),
		Nodes: make([]sab.NodePosition, len(f.Nodes)),
	}
	for i, n := range f.Nodes {
		p := sab.NodePosition{X: float32(n.X), Y: float32(n.Y), Kind: sab.KindSite}
		if n.Kind == string(graph.KindTag) {
			p.Kind = sab.KindTag
		}
		if n.Highlighted {
			p.Flags |= sab.FlagHighlighted
		}
		if n.Selected {
			p.Flags |= sab.FlagSelected
		}
		out.Nodes[i] = p
	}
	return out
}

// SameNodes reports whether o lists the same node ids in the same order, in
// which case a packed frame of o can be drawn against the labels of f.
func (f Frame) SameNodes(o Frame) bool {
	if len(f.Nodes) != len(o.Nodes) {
		return false
	}
	for i := range f.Nodes {
		if f.Nodes[i].ID != o.Nodes[i].ID {
			return false
		}
	}
	return true
}
