package hull

// Group names a set of member node ids whose hull is wanted.
type Group struct {
	ID      string
	Members []string
}

// Computer recomputes group hulls every Every ticks and serves the cached
// result in between.
type Computer struct {
	// Every is the recompute interval in ticks; values below 1 mean every tick.
	Every int
	// Prefilter is the member count above which Akl–Toussaint runs first.
	Prefilter int
	// Padding is added around each hull before rendering.
	Padding float64

	calls int
	hulls map[string][]Point
	paths map[string]string
}

// NewComputer creates a Computer.
func NewComputer(every, prefilter int, padding float64) *Computer {
	return &Computer{Every: every, Prefilter: prefilter, Padding: padding}
}

// Update returns the hull path per group id, recomputing when due. positions
// missing a member are skipped.
func (c *Computer) Update(groups []Group, positions map[string]Point) map[string]string {
	every := c.Every
	if every < 1 {
		every = 1
	}
	due := c.paths == nil || c.calls%every == 0
	c.calls++
	if !due {
		return c.paths
	}
	c.recompute(groups, positions)
	return c.paths
}

// Invalidate forces the next Update to recompute.
func (c *Computer) Invalidate() {
	c.paths = nil
	c.calls = 0
}

// Paths returns the cached paths without recomputing.
func (c *Computer) Paths() map[string]string {
	return c.paths
}

// Hull returns the cached hull of a group.
func (c *Computer) Hull(id string) []Point {
	return c.hulls[id]
}

func (c *Computer) recompute(groups []Group, positions map[string]Point) {
	c.hulls = make(map[string][]Point, len(groups))
	c.paths = make(map[string]string, len(groups))
	for _, g := range groups {
		pts := make([]Point, 0, len(g.Members))
		for _, id := range g.Members {
			if p, ok := positions[id]; ok {
				pts = append(pts, p)
			}
		}
		if c.Prefilter > 0 && len(pts) > c.Prefilter {
			pts = Prefilter(pts)
		}
		h := Hull(pts)
		if h == nil {
			continue
		}
		c.hulls[g.ID] = h
		c.paths[g.ID] = Path(Pad(h, c.Padding))
	}
}
