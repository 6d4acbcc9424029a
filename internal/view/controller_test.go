package view

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphataylor/WebGraph/internal/bookmarks"
	"github.com/raphataylor/WebGraph/internal/settings"
	"github.com/raphataylor/WebGraph/internal/snapshots"
	"github.com/raphataylor/WebGraph/internal/store"
	apperrors "github.com/raphataylor/WebGraph/pkg/errors"
	"github.com/raphataylor/WebGraph/pkg/graph"
	"github.com/raphataylor/WebGraph/pkg/sab"
)

// flakyStore fails writes while fail is set.
type flakyStore struct {
	*store.MemStore
	fail atomic.Bool
}

func (f *flakyStore) Set(ctx context.Context, key string, value []byte) error {
	if f.fail.Load() {
		return errors.New("quota exceeded")
	}
	return f.MemStore.Set(ctx, key, value)
}

type fixture struct {
	ctrl    *Controller
	marks   *bookmarks.Store
	snaps   *snapshots.Store
	backend *flakyStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend := &flakyStore{MemStore: store.NewMemStore()}
	snaps := snapshots.New(store.NewMemStore(), nil)
	marks := bookmarks.New(backend, bookmarks.Options{Snapshots: snaps})
	prefs := settings.New(store.NewMemStore(), nil)
	ctrl := NewController(marks, prefs, snaps, Options{Width: 800, Height: 600, Seed: 1, HullEvery: 1})
	require.NoError(t, ctrl.Refresh(context.Background()))
	return &fixture{ctrl: ctrl, marks: marks, snaps: snaps, backend: backend}
}

func (f *fixture) add(t *testing.T, title, url string, tags ...string) bookmarks.Site {
	t.Helper()
	site, err := f.ctrl.AddBookmark(context.Background(), &bookmarks.SiteInput{Title: title, URL: url, Tags: tags})
	require.NoError(t, err)
	return site
}

func TestEditsReprojectGraph(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.add(t, "Go", "https://go.dev", "lang")
	f.add(t, "Rust", "https://rust-lang.org", "lang")

	g := f.ctrl.Graph()
	assert.Equal(t, 3, g.NodeCount())
	assert.Equal(t, 2, g.LinkCount())
	assert.True(t, f.ctrl.Running())

	_, err := f.ctrl.Settle(ctx, 0)
	require.NoError(t, err)
	frame := f.ctrl.Frame()
	require.Len(t, frame.Groups, 1)
	assert.True(t, strings.HasPrefix(frame.Groups[0].Path, "M"))

	_, err = f.ctrl.AddTagToSite(ctx, a.ID, "compiled")
	require.NoError(t, err)
	assert.Equal(t, 4, f.ctrl.Graph().NodeCount())

	_, err = f.ctrl.RemoveTagFromSite(ctx, a.ID, "COMPILED")
	require.NoError(t, err)
	assert.Equal(t, 3, f.ctrl.Graph().NodeCount(), "orphaned tag leaves the graph")

	version := f.marks.Version()
	_, err = f.ctrl.RemoveTagFromSite(ctx, a.ID, "compiled")
	assert.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, version, f.marks.Version(), "nothing to remove, nothing committed")

	require.NoError(t, f.ctrl.RemoveBookmark(ctx, a.ID))
	assert.Equal(t, 2, f.ctrl.Graph().NodeCount())

	require.NoError(t, f.ctrl.ClearAll(ctx))
	assert.Equal(t, 0, f.ctrl.Graph().NodeCount())
	assert.Empty(t, f.ctrl.Frame().Nodes)
}

func TestFailedEditLeavesStateIntact(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	site := f.add(t, "Go", "https://go.dev", "lang")
	_, err := f.ctrl.Settle(ctx, 0)
	require.NoError(t, err)

	before := f.ctrl.Frame()
	f.backend.fail.Store(true)

	_, err = f.ctrl.AddBookmark(ctx, &bookmarks.SiteInput{URL: "https://x.org", Tags: []string{"new"}})
	require.Error(t, err)
	assert.True(t, apperrors.IsStorageFailure(err))

	err = f.ctrl.RemoveBookmark(ctx, site.ID)
	require.Error(t, err)

	_, err = f.ctrl.UpdateNotes(ctx, "missing", "x")
	assert.True(t, apperrors.IsNotFound(err))

	assert.Equal(t, before, f.ctrl.Frame())
	assert.False(t, f.ctrl.Running(), "a failed edit must not restart the simulation")
}

func TestSearchHighlightsWithoutTouchingLayout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, "Effective Go", "https://go.dev/doc/effective_go", "go")
	f.add(t, "The Rust Book", "https://doc.rust-lang.org/book", "rust")
	_, err := f.ctrl.Settle(ctx, 0)
	require.NoError(t, err)
	pos := f.ctrl.Frame().Positions()

	n := f.ctrl.Search("go, book")
	// the "go" tag node, the Go site and the Rust book site
	assert.Equal(t, 3, n)
	assert.False(t, f.ctrl.Running())
	assert.Equal(t, pos, f.ctrl.Frame().Positions())
	assert.Equal(t, "go, book", f.ctrl.Frame().Query)

	assert.Equal(t, 0, f.ctrl.Search(""))
}

func TestSelectSiteAndTag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	site := f.add(t, "Go", "https://go.dev", "lang")
	f.add(t, "Rust", "https://rust-lang.org", "lang")

	_, err := f.ctrl.UpdateNotes(ctx, site.ID, `<p>nice</p><script>alert(1)</script>`)
	require.NoError(t, err)
	require.NoError(t, f.snaps.Put(ctx, site.ID, []byte("png")))

	d, err := f.ctrl.Select(ctx, site.ID)
	require.NoError(t, err)
	assert.Equal(t, graph.KindSite, d.Kind)
	assert.Equal(t, "Go", d.Title)
	assert.Equal(t, "<p>nice</p>", d.NotesHTML)
	assert.True(t, d.HasSnapshot)
	assert.Equal(t, site.ID, f.ctrl.Selected())

	tags, err := f.marks.ListTags(ctx)
	require.NoError(t, err)
	d, err = f.ctrl.Select(ctx, tags[0].ID)
	require.NoError(t, err)
	assert.Equal(t, graph.KindTag, d.Kind)
	assert.Equal(t, 2, d.SiteCount)
	assert.Equal(t, []string{site.ID, "site2"}, d.Sites)
	assert.Equal(t, "Tag with 2 associated sites", d.Summary)

	_, err = f.ctrl.Select(ctx, "nope")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSelectionClearedWhenNodeRemoved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	site := f.add(t, "Go", "https://go.dev")
	_, err := f.ctrl.Select(ctx, site.ID)
	require.NoError(t, err)

	require.NoError(t, f.ctrl.RemoveBookmark(ctx, site.ID))
	assert.Empty(t, f.ctrl.Selected())
}

func TestCosmeticSettingsDoNotRestart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, "Go", "https://go.dev", "lang")
	_, err := f.ctrl.Settle(ctx, 0)
	require.NoError(t, err)

	st, err := f.ctrl.ApplySettings(ctx, map[string]float64{"nodeRadius": 6, "textSize": 14})
	require.NoError(t, err)
	assert.Equal(t, 6.0, st.NodeRadius)
	assert.False(t, f.ctrl.Running())
	frame := f.ctrl.Frame()
	assert.Equal(t, 14.0, frame.TextSize)
	for _, n := range frame.Nodes {
		if n.Kind == string(graph.KindSite) {
			assert.Equal(t, 6.0, n.Radius)
		}
	}

	_, err = f.ctrl.ApplySettings(ctx, map[string]float64{"chargeStrength": -300})
	require.NoError(t, err)
	assert.True(t, f.ctrl.Running())

	_, err = f.ctrl.Settle(ctx, 0)
	require.NoError(t, err)
	_, err = f.ctrl.ApplySettings(ctx, map[string]float64{"alphaDecay": 3})
	assert.True(t, apperrors.IsInvalidArgument(err))
	assert.False(t, f.ctrl.Running())
}

func TestDragUsesViewportCoordinates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	site := f.add(t, "Go", "https://go.dev", "lang")
	_, err := f.ctrl.Settle(ctx, 0)
	require.NoError(t, err)

	f.ctrl.Zoom(2, 0, 0)
	f.ctrl.Pan(100, 50)

	require.NoError(t, f.ctrl.DragStart(site.ID))
	require.NoError(t, f.ctrl.Drag(site.ID, 300, 250))
	assert.True(t, f.ctrl.Running())
	f.ctrl.Tick()

	pos := f.ctrl.Frame().Positions()[site.ID]
	assert.InDelta(t, 100, pos.X, 1e-9)
	assert.InDelta(t, 100, pos.Y, 1e-9)

	require.NoError(t, f.ctrl.DragEnd(site.ID))
	assert.True(t, apperrors.IsNotFound(f.ctrl.DragStart("nope")))
}

func TestRefreshSkipsWhenVersionUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, "Go", "https://go.dev", "lang")
	_, err := f.ctrl.Settle(ctx, 0)
	require.NoError(t, err)

	require.NoError(t, f.ctrl.Refresh(ctx))
	assert.False(t, f.ctrl.Running(), "no commit, no restart")

	// a commit made behind the controller's back is picked up
	_, err = f.marks.AddBookmark(ctx, &bookmarks.SiteInput{URL: "https://x.org"})
	require.NoError(t, err)
	require.NoError(t, f.ctrl.Refresh(ctx))
	assert.True(t, f.ctrl.Running())
	assert.Equal(t, 3, f.ctrl.Graph().NodeCount())
}

func TestMetadataEditsKeepLayout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	site := f.add(t, "Go", "https://go.dev", "lang")
	f.add(t, "Rust", "https://rust-lang.org", "lang")
	_, err := f.ctrl.Settle(ctx, 0)
	require.NoError(t, err)
	pos := f.ctrl.Frame().Positions()

	_, err = f.ctrl.Visit(ctx, site.ID)
	require.NoError(t, err)
	assert.False(t, f.ctrl.Running(), "a visit must not reheat the layout")

	_, err = f.ctrl.UpdateNotes(ctx, site.ID, "hello")
	require.NoError(t, err)
	assert.False(t, f.ctrl.Running())

	title := "The Go Programming Language"
	_, err = f.ctrl.UpdateBookmark(ctx, site.ID, bookmarks.SitePatch{Title: &title})
	require.NoError(t, err)
	assert.False(t, f.ctrl.Running())

	frame := f.ctrl.Frame()
	assert.Equal(t, pos, frame.Positions())
	for _, n := range frame.Nodes {
		if n.ID == site.ID {
			assert.Equal(t, title, n.Label)
		}
	}

	// a new tag on an existing site changes the link set
	_, err = f.ctrl.AddTagToSite(ctx, site.ID, "compiled")
	require.NoError(t, err)
	assert.True(t, f.ctrl.Running())
}

func TestTagDetailWithoutSites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, "Go", "https://go.dev", "lang")
	tag, err := f.ctrl.AddTag(ctx, "later")
	require.NoError(t, err)

	d, err := f.ctrl.Select(ctx, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, d.SiteCount)
	assert.Empty(t, d.Sites)

	body, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"siteCount":0`)
}

func TestWriteSVG(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, "Go & <friends>", "https://go.dev", "lang")
	f.add(t, "Rust", "https://rust-lang.org", "lang")
	_, err := f.ctrl.Settle(ctx, 0)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteSVG(&buf, f.ctrl.Frame()))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "<svg"))
	assert.Contains(t, out, "Go &amp; &lt;friends&gt;")
	assert.Equal(t, 3, strings.Count(out, "<circle"))
	assert.Equal(t, 2, strings.Count(out, "<line"))
	assert.Equal(t, 1, strings.Count(out, `class="hull"`))
}

func TestPackedFrame(t *testing.T) {
	f := newFixture(t)
	site := f.add(t, "Go", "https://go.dev", "lang")
	f.ctrl.Search("lang")
	_, err := f.ctrl.Select(context.Background(), site.ID)
	require.NoError(t, err)

	frame := f.ctrl.Frame()
	packed := frame.Packed()
	require.Len(t, packed.Nodes, len(frame.Nodes))
	for i, n := range frame.Nodes {
		p := packed.Nodes[i]
		assert.InDelta(t, n.X, float64(p.X), 1e-3)
		assert.InDelta(t, n.Y, float64(p.Y), 1e-3)
		if n.Kind == string(graph.KindTag) {
			assert.Equal(t, sab.KindTag, p.Kind)
			assert.NotZero(t, p.Flags&sab.FlagHighlighted)
		} else {
			assert.Equal(t, sab.KindSite, p.Kind)
			assert.NotZero(t, p.Flags&sab.FlagSelected)
		}
	}

	f.ctrl.Tick()
	assert.True(t, frame.SameNodes(f.ctrl.Frame()))
	f.add(t, "Rust", "https://rust-lang.org", "lang")
	assert.False(t, frame.SameNodes(f.ctrl.Frame()))
}
