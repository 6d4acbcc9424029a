// Package graph projects tags and sites into the node-link structure the
// layout and render layers consume. Projection is pure: the same input always
// yields the same graph.
package graph

import (
	"sort"
	"strings"

	apperrors "github.com/raphataylor/WebGraph/pkg/errors"
)

// NodeKind distinguishes tag hubs from site leaves.
type NodeKind string

const (
	KindTag  NodeKind = "tag"
	KindSite NodeKind = "site"
)

// Node is a projected tag or site. It carries no position.
type Node struct {
	ID    string   `json:"id"`
	Label string   `json:"label"`
	Kind  NodeKind `json:"kind"`
}

// Link joins a site (Source) to a tag (Target).
type Link struct {
	Key    string `json:"key"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// Group is one tag with every site carrying it. Members starts with the tag.
type Group struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// TagInput and SiteInput are the projection inputs.
type TagInput struct {
	ID   string
	Name string
}

type SiteInput struct {
	ID    string
	Title string
	Tags  []string
}

// Graph is an undirected bipartite graph with stable iteration order.
type Graph struct {
	Nodes  []Node  `json:"nodes"`
	Links  []Link  `json:"links"`
	Groups []Group `json:"groups"`

	index map[string]int
	// Adjacency: NodeID -> NeighbourID
	adj map[string]map[string]bool
}

// NewGraph creates an empty graph
func NewGraph() *Graph {
	return &Graph{
		index: make(map[string]int),
		adj:   make(map[string]map[string]bool),
	}
}

// LinkKey is the reconciliation key of the link between source and target.
func LinkKey(source, target string) string {
	return source + "-" + target
}

// Project builds the graph for tags and sites. A site tag name with no
// matching Tag is reported to onDangling as a DataIntegrity error and its
// link is dropped.
func Project(tags []TagInput, sites []SiteInput, onDangling func(error)) *Graph {
	g := NewGraph()

	byName := make(map[string]int, len(tags))
	for _, t := range tags {
		g.EnsureNode(t.ID, t.Name, KindTag)
		byName[strings.ToLower(t.Name)] = len(g.Groups)
		g.Groups = append(g.Groups, Group{ID: t.ID, Name: t.Name, Members: []string{t.ID}})
	}

	for _, s := range sites {
		g.EnsureNode(s.ID, s.Title, KindSite)
		for _, name := range s.Tags {
			gi, ok := byName[strings.ToLower(name)]
			if !ok {
				if onDangling != nil {
					onDangling(apperrors.NewDataIntegrity("site %q references unknown tag %q", s.ID, name))
				}
				continue
			}
			group := &g.Groups[gi]
			if g.AddLink(s.ID, group.ID) {
				group.Members = append(group.Members, s.ID)
			}
		}
	}
	return g
}

// EnsureNode adds a node if it doesn't exist, returns existing node otherwise
func (g *Graph) EnsureNode(id, label string, kind NodeKind) Node {
	if i, ok := g.index[id]; ok {
		return g.Nodes[i]
	}
	node := Node{ID: id, Label: label, Kind: kind}
	g.index[id] = len(g.Nodes)
	g.Nodes = append(g.Nodes, node)
	return node
}

// AddLink connects source and target. It reports false when the link
// already exists or either node is unknown.
func (g *Graph) AddLink(source, target string) bool {
	if !g.HasNode(source) || !g.HasNode(target) || g.adj[source][target] {
		return false
	}
	if g.adj[source] == nil {
		g.adj[source] = make(map[string]bool)
	}
	if g.adj[target] == nil {
		g.adj[target] = make(map[string]bool)
	}
	g.adj[source][target] = true
	g.adj[target][source] = true
	g.Links = append(g.Links, Link{Key: LinkKey(source, target), Source: source, Target: target})
	return true
}

// HasNode reports whether id is in the graph.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.index[id]
	return ok
}

// Node retrieves a node by ID
func (g *Graph) Node(id string) (Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return Node{}, false
	}
	return g.Nodes[i], true
}

// Neighbors returns the ids connected to id, sorted.
func (g *Graph) Neighbors(id string) []string {
	out := make([]string, 0, len(g.adj[id]))
	for n := range g.adj[id] {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Degree returns the number of links touching id. For a tag this is the
// number of sites carrying it.
func (g *Graph) Degree(id string) int {
	return len(g.adj[id])
}

// NodeCount returns the number of nodes
func (g *Graph) NodeCount() int {
	return len(g.Nodes)
}

// LinkCount returns the number of links
func (g *Graph) LinkCount() int {
	return len(g.Links)
}

// Group returns the group of the tag with id.
func (g *Graph) Group(id string) (Group, bool) {
	for _, gr := range g.Groups {
		if gr.ID == id {
			return gr, true
		}
	}
	return Group{}, false
}

// OrphanNodes returns nodes with no connections: untagged sites, and tags
// during the window between AddTag and the next cleanup.
func (g *Graph) OrphanNodes() []Node {
	var orphans []Node
	for _, n := range g.Nodes {
		if len(g.adj[n.ID]) == 0 {
			orphans = append(orphans, n)
		}
	}
	return orphans
}
