package view

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/raphataylor/WebGraph/internal/bookmarks"
	"github.com/raphataylor/WebGraph/internal/settings"
	apperrors "github.com/raphataylor/WebGraph/pkg/errors"
	"github.com/raphataylor/WebGraph/pkg/graph"
	"github.com/raphataylor/WebGraph/pkg/hull"
	"github.com/raphataylor/WebGraph/pkg/layout"
)

// BookmarkStore is the part of the bookmark store the controller drives.
type BookmarkStore interface {
	Version() uint64
	Space(ctx context.Context) (bookmarks.Space, error)
	Get(ctx context.Context, id string) (bookmarks.Site, error)
	AddBookmark(ctx context.Context, in *bookmarks.SiteInput) (bookmarks.Site, error)
	UpdateBookmark(ctx context.Context, id string, patch bookmarks.SitePatch) (bookmarks.Site, error)
	RemoveBookmark(ctx context.Context, id string) error
	Visit(ctx context.Context, id string) (bookmarks.Site, error)
	AddTag(ctx context.Context, name string) (bookmarks.Tag, error)
	RemoveTag(ctx context.Context, id string) error
	RenameTag(ctx context.Context, id, name string) (bookmarks.Tag, error)
	CleanupOrphans(ctx context.Context) ([]bookmarks.Tag, error)
	ClearAll(ctx context.Context) error
}

// SettingsStore is the part of the settings store the controller drives.
type SettingsStore interface {
	Get() settings.Settings
	SetMany(ctx context.Context, values map[string]float64) (settings.Settings, error)
	Reset(ctx context.Context) (settings.Settings, error)
}

// SnapshotChecker answers whether a site has a stored snapshot.
type SnapshotChecker interface {
	Has(ctx context.Context, id string) (bool, error)
}

// Options configures a Controller.
type Options struct {
	Width         float64
	Height        float64
	Seed          uint64
	HullEvery     int
	HullPrefilter int
	HullPadding   float64
	Logger        *zap.Logger
	Observer      layout.Observer
}

// Controller owns the simulation, scene and viewport. It is not safe for
// concurrent use; a Loop or the JS event loop serialises access.
type Controller struct {
	bookmarks BookmarkStore
	settings  SettingsStore
	snapshots SnapshotChecker
	logger    *zap.Logger

	sim      *layout.Simulation
	scene    *Scene
	hulls    *hull.Computer
	viewport Viewport
	graph    *graph.Graph

	version  uint64
	loaded   bool
	matcher  Matcher
	query    string
	selected string
}

// NewController creates a controller. Call Refresh to load the graph.
func NewController(b BookmarkStore, s SettingsStore, snaps SnapshotChecker, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Width <= 0 {
		opts.Width = 800
	}
	if opts.Height <= 0 {
		opts.Height = 600
	}
	c := &Controller{
		bookmarks: b,
		settings:  s,
		snapshots: snaps,
		logger:    logger,
		scene:     NewScene(),
		hulls:     hull.NewComputer(opts.HullEvery, opts.HullPrefilter, opts.HullPadding),
		viewport:  NewViewport(opts.Width, opts.Height),
		graph:     graph.NewGraph(),
	}
	c.sim = layout.New(c.params(s.Get()), opts.Seed)
	if opts.Observer != nil {
		c.sim.SetObserver(opts.Observer)
	}
	return c
}

func (c *Controller) params(st settings.Settings) layout.Params {
	return layout.Params{
		NodeRadius:        st.NodeRadius,
		ChargeStrength:    st.ChargeStrength,
		LinkDistance:      st.LinkDistance,
		GravityStrength:   st.GravityStrength,
		CollisionStrength: st.CollisionStrength,
		Alpha:             st.Alpha,
		AlphaDecay:        st.AlphaDecay,
		AlphaMin:          st.AlphaMin,
		VelocityDecay:     st.VelocityDecay,
		Width:             c.viewport.Width,
		Height:            c.viewport.Height,
	}
}

// =============================================================================
// Graph lifecycle
// =============================================================================

// Refresh re-projects the Space when the store has committed since the last
// projection. On error the previous graph stays in place.
func (c *Controller) Refresh(ctx context.Context) error {
	v := c.bookmarks.Version()
	if c.loaded && v == c.version {
		return nil
	}
	sp, err := c.bookmarks.Space(ctx)
	if err != nil {
		c.logger.Error("load space for projection failed", zap.Error(err))
		return err
	}
	c.apply(sp)
	c.version = v
	c.loaded = true
	return nil
}

func (c *Controller) apply(sp bookmarks.Space) {
	tags := make([]graph.TagInput, len(sp.Tags))
	for i, t := range sp.Tags {
		tags[i] = graph.TagInput{ID: t.ID, Name: t.Name}
	}
	sites := make([]graph.SiteInput, len(sp.Sites))
	for i, s := range sp.Sites {
		sites[i] = graph.SiteInput{ID: s.ID, Title: s.Title, Tags: s.Tags}
	}
	g := graph.Project(tags, sites, func(err error) {
		c.logger.Warn("dropping dangling link", zap.Error(err))
	})

	c.graph = g
	diff := c.scene.Reconcile(g, c.settings.Get())
	// label and metadata edits keep the layout where it is
	structural := !diff.Empty() || !c.loaded
	if structural {
		nodes := make([]layout.Node, len(g.Nodes))
		for i, n := range g.Nodes {
			nodes[i] = layout.Node{ID: n.ID, Hub: n.Kind == graph.KindTag}
		}
		links := make([]layout.Link, len(g.Links))
		for i, l := range g.Links {
			links[i] = layout.Link{Source: l.Source, Target: l.Target}
		}
		c.sim.SetGraph(nodes, links)
	}
	c.scene.Highlight(c.highlighter())
	if c.selected != "" && !g.HasNode(c.selected) {
		c.selected = ""
	}
	c.hulls.Invalidate()
	c.updateHulls()

	c.logger.Debug("graph projected",
		zap.Int("nodes", g.NodeCount()),
		zap.Int("links", g.LinkCount()),
		zap.Int("unlinked", len(g.OrphanNodes())),
		zap.Bool("restarted", structural),
		zap.Int("entered", len(diff.Nodes.Enter)),
		zap.Int("exited", len(diff.Nodes.Exit)))
}

// Tick advances the simulation one step and reports whether it is still running.
func (c *Controller) Tick() bool {
	running := c.sim.Tick()
	c.updateHulls()
	return running
}

// Running reports whether ticks are still needed.
func (c *Controller) Running() bool {
	return c.sim.Running()
}

// Settle ticks until convergence, cancellation or maxTicks.
func (c *Controller) Settle(ctx context.Context, maxTicks int) (int, error) {
	n, err := c.sim.Run(ctx, maxTicks)
	c.hulls.Invalidate()
	c.updateHulls()
	return n, err
}

// Stop halts the simulation.
func (c *Controller) Stop() {
	c.sim.Stop()
}

func (c *Controller) updateHulls() {
	groups := make([]hull.Group, len(c.graph.Groups))
	for i, g := range c.graph.Groups {
		groups[i] = hull.Group{ID: g.ID, Members: g.Members}
	}
	c.hulls.Update(groups, c.sim.Positions())
}

// Graph returns the current projection.
func (c *Controller) Graph() *graph.Graph {
	return c.graph
}

// Scene returns the scene.
func (c *Controller) Scene() *Scene {
	return c.scene
}

// =============================================================================
// Viewport and gestures
// =============================================================================

// Zoom scales the view by factor around the screen point (sx, sy).
func (c *Controller) Zoom(factor, sx, sy float64) Viewport {
	c.viewport.ZoomAt(factor, sx, sy)
	return c.viewport
}

// Pan moves the view by (dx, dy) screen pixels.
func (c *Controller) Pan(dx, dy float64) Viewport {
	c.viewport.Pan(dx, dy)
	return c.viewport
}

// ResetView restores the identity transform.
func (c *Controller) ResetView() Viewport {
	c.viewport.Reset()
	return c.viewport
}

// Resize changes the screen size and recentres the gravity.
func (c *Controller) Resize(width, height float64) {
	if width <= 0 || height <= 0 {
		return
	}
	c.viewport.Resize(width, height)
	c.sim.SetParams(c.params(c.settings.Get()))
}

// Viewport returns the current transform.
func (c *Controller) Viewport() Viewport {
	return c.viewport
}

// DragStart pins the node under a drag gesture.
func (c *Controller) DragStart(id string) error {
	if !c.sim.DragStart(id) {
		return apperrors.NewNotFound("node %q not found", id)
	}
	return nil
}

// Drag moves a dragged node to the screen point (sx, sy).
func (c *Controller) Drag(id string, sx, sy float64) error {
	wx, wy := c.viewport.ToWorld(sx, sy)
	if !c.sim.Drag(id, wx, wy) {
		return apperrors.NewNotFound("node %q not found", id)
	}
	return nil
}

// DragEnd releases a dragged node.
func (c *Controller) DragEnd(id string) error {
	if !c.sim.DragEnd(id) {
		return apperrors.NewNotFound("node %q not found", id)
	}
	return nil
}

// =============================================================================
// Search and selection
// =============================================================================

// Search flags the nodes whose label contains any comma separated term and
// returns their count. Layout is untouched.
func (c *Controller) Search(query string) int {
	c.query = strings.TrimSpace(query)
	c.matcher = NewMatcher(c.query)
	return c.scene.Highlight(c.highlighter())
}

func (c *Controller) highlighter() func(string) bool {
	if !c.matcher.Active() {
		return nil
	}
	return c.matcher.Match
}

// Select returns the detail panel for a node and marks it selected.
func (c *Controller) Select(ctx context.Context, id string) (Detail, error) {
	n, ok := c.graph.Node(id)
	if !ok {
		return Detail{}, apperrors.NewNotFound("node %q not found", id)
	}

	if n.Kind == graph.KindTag {
		count := c.graph.Degree(id)
		c.selected = id
		return Detail{
			Kind:      graph.KindTag,
			ID:        id,
			Name:      n.Label,
			SiteCount: count,
			Sites:     c.graph.Neighbors(id),
			Summary:   tagSummary(count),
		}, nil
	}

	site, err := c.bookmarks.Get(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	d := Detail{
		Kind:        graph.KindSite,
		ID:          site.ID,
		Title:       site.Title,
		URL:         site.URL,
		Tags:        site.Tags,
		NotesHTML:   SanitizeNotes(site.Notes),
		Visits:      site.Visits,
		DateCreated: site.DateCreated,
		Favicon:     site.Favicon,
	}
	if c.snapshots != nil {
		has, err := c.snapshots.Has(ctx, id)
		if err != nil {
			c.logger.Warn("snapshot lookup failed", zap.String("site", id), zap.Error(err))
		}
		d.HasSnapshot = has
	}
	c.selected = id
	return d, nil
}

// ClearSelection deselects the current node.
func (c *Controller) ClearSelection() {
	c.selected = ""
}

// Selected returns the selected node id, if any.
func (c *Controller) Selected() string {
	return c.selected
}

// =============================================================================
// Settings
// =============================================================================

// ApplySettings persists values. Cosmetic-only changes redraw; any force
// parameter restarts the simulation. On error nothing changes.
func (c *Controller) ApplySettings(ctx context.Context, values map[string]float64) (settings.Settings, error) {
	st, err := c.settings.SetMany(ctx, values)
	if err != nil {
		c.logger.Warn("settings change rejected", zap.Error(err))
		return st, err
	}
	forces := false
	for k := range values {
		if !settings.IsCosmetic(k) {
			forces = true
		}
	}
	c.restyle(st, forces)
	return st, nil
}

// ResetSettings restores and applies the defaults.
func (c *Controller) ResetSettings(ctx context.Context) (settings.Settings, error) {
	st, err := c.settings.Reset(ctx)
	if err != nil {
		c.logger.Warn("settings reset failed", zap.Error(err))
		return st, err
	}
	c.restyle(st, true)
	return st, nil
}

func (c *Controller) restyle(st settings.Settings, forces bool) {
	c.scene.Restyle(st)
	if forces {
		c.sim.SetParams(c.params(st))
		return
	}
	c.sim.SetRadius(st.NodeRadius)
}

// Settings returns the parameters currently in effect.
func (c *Controller) Settings() settings.Settings {
	return c.settings.Get()
}
