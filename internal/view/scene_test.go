package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphataylor/WebGraph/internal/settings"
	"github.com/raphataylor/WebGraph/pkg/graph"
)

func project(tags []graph.TagInput, sites []graph.SiteInput) *graph.Graph {
	return graph.Project(tags, sites, nil)
}

func TestReconcileEnterUpdateExit(t *testing.T) {
	s := NewScene()
	st := settings.Defaults()

	g1 := project(
		[]graph.TagInput{{ID: "tag1", Name: "go"}},
		[]graph.SiteInput{{ID: "site1", Title: "Go", Tags: []string{"go"}}, {ID: "site2", Title: "Blog", Tags: []string{"go"}}},
	)
	d := s.Reconcile(g1, st)
	assert.Equal(t, []string{"tag1", "site1", "site2"}, d.Nodes.Enter)
	assert.Equal(t, []string{"site1-tag1", "site2-tag1"}, d.Links.Enter)
	assert.Equal(t, []string{"tag1"}, d.Groups.Enter)
	assert.Empty(t, d.Nodes.Exit)

	before := s.nodes["site1"]

	g2 := project(
		[]graph.TagInput{{ID: "tag1", Name: "golang"}},
		[]graph.SiteInput{{ID: "site1", Title: "Go!", Tags: []string{"golang"}}, {ID: "site3", Title: "New", Tags: []string{"golang"}}},
	)
	d = s.Reconcile(g2, st)
	assert.Equal(t, []string{"site3"}, d.Nodes.Enter)
	assert.Equal(t, []string{"tag1", "site1"}, d.Nodes.Update)
	assert.Equal(t, []string{"site2"}, d.Nodes.Exit)
	assert.Equal(t, []string{"site2-tag1"}, d.Links.Exit)
	assert.Equal(t, []string{"tag1"}, d.Groups.Update)

	assert.Same(t, before, s.nodes["site1"], "updated element must be patched in place")
	el, ok := s.Node("site1")
	require.True(t, ok)
	assert.Equal(t, "Go!", el.Label)

	groups := s.Groups()
	require.Len(t, groups, 1)
	assert.Equal(t, "golang", groups[0].Name)
	assert.Equal(t, []string{"tag1", "site1", "site3"}, groups[0].Members)
}

func TestReconcileSameGraphIsAllUpdates(t *testing.T) {
	s := NewScene()
	g := project([]graph.TagInput{{ID: "tag1", Name: "x"}}, []graph.SiteInput{{ID: "site1", Tags: []string{"x"}}})
	s.Reconcile(g, settings.Defaults())
	d := s.Reconcile(g, settings.Defaults())
	assert.True(t, d.Empty())
	assert.Len(t, d.Nodes.Update, 2)
}

func TestRestyleChangesSizesOnly(t *testing.T) {
	s := NewScene()
	g := project([]graph.TagInput{{ID: "tag1", Name: "x"}}, []graph.SiteInput{{ID: "site1", Tags: []string{"x"}}})
	s.Reconcile(g, settings.Defaults())

	st := settings.Defaults()
	st.NodeRadius = 6
	st.LinkWidth = 1
	s.Restyle(st)

	tag, _ := s.Node("tag1")
	site, _ := s.Node("site1")
	assert.Equal(t, 12.0, tag.Radius)
	assert.Equal(t, 6.0, site.Radius)
	assert.Equal(t, 1.0, s.Links()[0].Width)
}

func TestHighlight(t *testing.T) {
	s := NewScene()
	g := project(nil, []graph.SiteInput{{ID: "a", Title: "Golang"}, {ID: "b", Title: "Rust"}})
	s.Reconcile(g, settings.Defaults())

	m := NewMatcher("go")
	assert.Equal(t, 1, s.Highlight(m.Match))
	a, _ := s.Node("a")
	assert.True(t, a.Highlighted)

	assert.Equal(t, 0, s.Highlight(nil))
	a, _ = s.Node("a")
	assert.False(t, a.Highlighted)
}
