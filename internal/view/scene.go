// Package view is the headless render and interaction layer. It keeps keyed
// scene elements in step with the graph, owns the viewport and turns user
// gestures into layout and store calls.
package view

import (
	"github.com/raphataylor/WebGraph/internal/settings"
	"github.com/raphataylor/WebGraph/pkg/graph"
)

// NodeElement is the drawn form of a tag or site.
type NodeElement struct {
	ID          string         `json:"id"`
	Kind        graph.NodeKind `json:"kind"`
	Label       string         `json:"label"`
	Radius      float64        `json:"radius"`
	Highlighted bool           `json:"highlighted"`
}

// LinkElement is the drawn form of a site-tag link.
type LinkElement struct {
	Key    string  `json:"key"`
	Source string  `json:"source"`
	Target string  `json:"target"`
	Width  float64 `json:"width"`
}

// GroupElement is the hull drawn around a tag and its sites.
type GroupElement struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// Changes lists element keys by reconcile outcome.
type Changes struct {
	Enter  []string `json:"enter"`
	Update []string `json:"update"`
	Exit   []string `json:"exit"`
}

// Diff is the result of one Reconcile.
type Diff struct {
	Nodes  Changes `json:"nodes"`
	Links  Changes `json:"links"`
	Groups Changes `json:"groups"`
}

// Empty reports whether nothing entered or exited.
func (d Diff) Empty() bool {
	return len(d.Nodes.Enter)+len(d.Nodes.Exit)+len(d.Links.Enter)+len(d.Links.Exit)+
		len(d.Groups.Enter)+len(d.Groups.Exit) == 0
}

// Scene holds the keyed elements. Elements that survive a Reconcile are
// patched in place, never recreated.
type Scene struct {
	nodes      map[string]*NodeElement
	nodeOrder  []string
	links      map[string]*LinkElement
	linkOrder  []string
	groups     map[string]*GroupElement
	groupOrder []string
	style      settings.Settings
}

// NewScene creates an empty scene.
func NewScene() *Scene {
	return &Scene{
		nodes:  make(map[string]*NodeElement),
		links:  make(map[string]*LinkElement),
		groups: make(map[string]*GroupElement),
		style:  settings.Defaults(),
	}
}

// Reconcile makes the scene match g, keyed by node id, link key and tag id.
func (s *Scene) Reconcile(g *graph.Graph, st settings.Settings) Diff {
	s.style = st
	var d Diff

	nodeKeys := make(map[string]bool, len(g.Nodes))
	order := make([]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		nodeKeys[n.ID] = true
		order = append(order, n.ID)
		if el, ok := s.nodes[n.ID]; ok {
			el.Kind, el.Label = n.Kind, n.Label
			el.Radius = nodeRadius(n.Kind, st)
			d.Nodes.Update = append(d.Nodes.Update, n.ID)
			continue
		}
		s.nodes[n.ID] = &NodeElement{ID: n.ID, Kind: n.Kind, Label: n.Label, Radius: nodeRadius(n.Kind, st)}
		d.Nodes.Enter = append(d.Nodes.Enter, n.ID)
	}
	d.Nodes.Exit = exitKeys(s.nodeOrder, nodeKeys)
	for _, k := range d.Nodes.Exit {
		delete(s.nodes, k)
	}
	s.nodeOrder = order

	linkKeys := make(map[string]bool, len(g.Links))
	order = make([]string, 0, len(g.Links))
	for _, l := range g.Links {
		linkKeys[l.Key] = true
		order = append(order, l.Key)
		if el, ok := s.links[l.Key]; ok {
			el.Width = st.LinkWidth
			d.Links.Update = append(d.Links.Update, l.Key)
			continue
		}
		s.links[l.Key] = &LinkElement{Key: l.Key, Source: l.Source, Target: l.Target, Width: st.LinkWidth}
		d.Links.Enter = append(d.Links.Enter, l.Key)
	}
	d.Links.Exit = exitKeys(s.linkOrder, linkKeys)
	for _, k := range d.Links.Exit {
		delete(s.links, k)
	}
	s.linkOrder = order

	groupKeys := make(map[string]bool, len(g.Groups))
	order = make([]string, 0, len(g.Groups))
	for _, gr := range g.Groups {
		groupKeys[gr.ID] = true
		order = append(order, gr.ID)
		members := append([]string(nil), gr.Members...)
		if el, ok := s.groups[gr.ID]; ok {
			el.Name, el.Members = gr.Name, members
			d.Groups.Update = append(d.Groups.Update, gr.ID)
			continue
		}
		s.groups[gr.ID] = &GroupElement{ID: gr.ID, Name: gr.Name, Members: members}
		d.Groups.Enter = append(d.Groups.Enter, gr.ID)
	}
	d.Groups.Exit = exitKeys(s.groupOrder, groupKeys)
	for _, k := range d.Groups.Exit {
		delete(s.groups, k)
	}
	s.groupOrder = order

	return d
}

func exitKeys(prev []string, keep map[string]bool) []string {
	var out []string
	for _, k := range prev {
		if !keep[k] {
			out = append(out, k)
		}
	}
	return out
}

// Restyle applies cosmetic settings to every element.
func (s *Scene) Restyle(st settings.Settings) {
	s.style = st
	for _, el := range s.nodes {
		el.Radius = nodeRadius(el.Kind, st)
	}
	for _, el := range s.links {
		el.Width = st.LinkWidth
	}
}

// Style returns the settings the scene was last drawn with.
func (s *Scene) Style() settings.Settings {
	return s.style
}

// Highlight flags the nodes for which match returns true and clears the rest.
// It returns the number of flagged nodes.
func (s *Scene) Highlight(match func(label string) bool) int {
	n := 0
	for _, el := range s.nodes {
		el.Highlighted = match != nil && match(el.Label)
		if el.Highlighted {
			n++
		}
	}
	return n
}

// Node returns a copy of the element with id.
func (s *Scene) Node(id string) (NodeElement, bool) {
	el, ok := s.nodes[id]
	if !ok {
		return NodeElement{}, false
	}
	return *el, true
}

// Nodes returns copies of the node elements in graph order.
func (s *Scene) Nodes() []NodeElement {
	out := make([]NodeElement, 0, len(s.nodeOrder))
	for _, k := range s.nodeOrder {
		out = append(out, *s.nodes[k])
	}
	return out
}

// Links returns copies of the link elements in graph order.
func (s *Scene) Links() []LinkElement {
	out := make([]LinkElement, 0, len(s.linkOrder))
	for _, k := range s.linkOrder {
		out = append(out, *s.links[k])
	}
	return out
}

// Groups returns copies of the group elements in graph order.
func (s *Scene) Groups() []GroupElement {
	out := make([]GroupElement, 0, len(s.groupOrder))
	for _, k := range s.groupOrder {
		el := *s.groups[k]
		el.Members = append([]string(nil), el.Members...)
		out = append(out, el)
	}
	return out
}

// tags are drawn at twice the site radius
func nodeRadius(kind graph.NodeKind, st settings.Settings) float64 {
	if kind == graph.KindTag {
		return st.NodeRadius * 2
	}
	return st.NodeRadius
}
