package graph

import (
	"testing"

	apperrors "github.com/raphataylor/WebGraph/pkg/errors"
)

func sample() ([]TagInput, []SiteInput) {
	tags := []TagInput{{ID: "tag1", Name: "go"}, {ID: "tag2", Name: "Web"}}
	sites := []SiteInput{
		{ID: "site1", Title: "Go", Tags: []string{"go", "web"}},
		{ID: "site2", Title: "MDN", Tags: []string{"Web"}},
		{ID: "site3", Title: "Loose"},
	}
	return tags, sites
}

func TestProjectBasics(t *testing.T) {
	tags, sites := sample()
	g := Project(tags, sites, nil)

	if g.NodeCount() != 5 {
		t.Errorf("NodeCount = %d, want 5", g.NodeCount())
	}
	if g.LinkCount() != 3 {
		t.Errorf("LinkCount = %d, want 3", g.LinkCount())
	}
	if g.Links[0].Key != "site1-tag1" {
		t.Errorf("first link key = %s, want site1-tag1", g.Links[0].Key)
	}

	web, ok := g.Group("tag2")
	if !ok {
		t.Fatal("group tag2 missing")
	}
	want := []string{"tag2", "site1", "site2"}
	if len(web.Members) != len(want) {
		t.Fatalf("members = %v, want %v", web.Members, want)
	}
	for i := range want {
		if web.Members[i] != want[i] {
			t.Errorf("members[%d] = %s, want %s", i, web.Members[i], want[i])
		}
	}

	if g.Degree("tag2") != 2 {
		t.Errorf("Degree(tag2) = %d, want 2", g.Degree("tag2"))
	}
	if n := g.Neighbors("site1"); len(n) != 2 || n[0] != "tag1" || n[1] != "tag2" {
		t.Errorf("Neighbors(site1) = %v", n)
	}
}

func TestProjectIsDeterministic(t *testing.T) {
	tags, sites := sample()
	a := Project(tags, sites, nil)
	b := Project(tags, sites, nil)
	for i := range a.Links {
		if a.Links[i] != b.Links[i] {
			t.Errorf("link %d differs: %v vs %v", i, a.Links[i], b.Links[i])
		}
	}
}

func TestDanglingTagIsReportedAndDropped(t *testing.T) {
	tags := []TagInput{{ID: "tag1", Name: "go"}}
	sites := []SiteInput{{ID: "site1", Tags: []string{"go", "ghost"}}}

	var reported []error
	g := Project(tags, sites, func(err error) { reported = append(reported, err) })

	if len(reported) != 1 {
		t.Fatalf("reported = %d errors, want 1", len(reported))
	}
	if !apperrors.IsDataIntegrity(reported[0]) {
		t.Errorf("error type = %s, want DATA_INTEGRITY", apperrors.TypeOf(reported[0]))
	}
	if g.LinkCount() != 1 {
		t.Errorf("LinkCount = %d, want 1", g.LinkCount())
	}
}

func TestOrphanNodes(t *testing.T) {
	tags, sites := sample()
	tags = append(tags, TagInput{ID: "tag3", Name: "fresh"})
	g := Project(tags, sites, nil)

	orphans := g.OrphanNodes()
	if len(orphans) != 2 {
		t.Fatalf("orphans = %v, want tag3 and site3", orphans)
	}
	if orphans[0].ID != "tag3" || orphans[1].ID != "site3" {
		t.Errorf("orphans = %v", orphans)
	}
}

func TestAddLinkRejectsDuplicatesAndUnknownNodes(t *testing.T) {
	g := NewGraph()
	g.EnsureNode("a", "A", KindSite)
	g.EnsureNode("b", "B", KindTag)

	if !g.AddLink("a", "b") {
		t.Error("first AddLink returned false")
	}
	if g.AddLink("a", "b") || g.AddLink("b", "a") {
		t.Error("duplicate link accepted")
	}
	if g.AddLink("a", "zzz") {
		t.Error("link to unknown node accepted")
	}
	if g.LinkCount() != 1 {
		t.Errorf("LinkCount = %d, want 1", g.LinkCount())
	}
}
