// Package hull computes convex hulls around tag groups.
package hull

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/raphataylor/WebGraph/pkg/layout"
)

// Point is a 2D position.
type Point = layout.Point

// Hull returns the convex hull of pts in counter-clockwise order (y up)
// without collinear points. Fewer than two distinct points yield nil; two
// distinct points yield a segment.
func Hull(pts []Point) []Point {
	ps := uniqueSorted(pts)
	if len(ps) < 2 {
		return nil
	}
	if len(ps) == 2 {
		return ps
	}

	h := make([]Point, 0, 2*len(ps))
	for _, p := range ps {
		for len(h) >= 2 && cross(h[len(h)-2], h[len(h)-1], p) <= 0 {
			h = h[:len(h)-1]
		}
		h = append(h, p)
	}
	lower := len(h) + 1
	for i := len(ps) - 2; i >= 0; i-- {
		p := ps[i]
		for len(h) >= lower && cross(h[len(h)-2], h[len(h)-1], p) <= 0 {
			h = h[:len(h)-1]
		}
		h = append(h, p)
	}
	h = h[:len(h)-1]
	if len(h) < 2 {
		// all points collinear: keep the extremes
		return []Point{ps[0], ps[len(ps)-1]}
	}
	return h
}

func cross(o, a, b Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

func uniqueSorted(pts []Point) []Point {
	ps := make([]Point, 0, len(pts))
	for _, p := range pts {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) {
			continue
		}
		ps = append(ps, p)
	}
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].X != ps[j].X {
			return ps[i].X < ps[j].X
		}
		return ps[i].Y < ps[j].Y
	})
	out := ps[:0]
	for i, p := range ps {
		if i == 0 || p != ps[i-1] {
			out = append(out, p)
		}
	}
	return out
}

// Prefilter drops points inside the quadrilateral spanned by the extreme
// points in x, y, x+y and x-y (Akl–Toussaint). The hull is unchanged.
func Prefilter(pts []Point) []Point {
	if len(pts) < 8 {
		return pts
	}
	minX, maxX, minY, maxY := pts[0], pts[0], pts[0], pts[0]
	minS, maxS, minD, maxD := pts[0], pts[0], pts[0], pts[0]
	for _, p := range pts[1:] {
		if p.X < minX.X {
			minX = p
		}
		if p.X > maxX.X {
			maxX = p
		}
		if p.Y < minY.Y {
			minY = p
		}
		if p.Y > maxY.Y {
			maxY = p
		}
		if p.X+p.Y < minS.X+minS.Y {
			minS = p
		}
		if p.X+p.Y > maxS.X+maxS.Y {
			maxS = p
		}
		if p.X-p.Y < minD.X-minD.Y {
			minD = p
		}
		if p.X-p.Y > maxD.X-maxD.Y {
			maxD = p
		}
	}
	poly := Hull([]Point{minX, minS, minY, maxD, maxX, maxS, maxY, minD})
	if len(poly) < 3 {
		return pts
	}

	out := make([]Point, 0, len(pts))
	for _, p := range pts {
		if !strictlyInside(poly, p) {
			out = append(out, p)
		}
	}
	return out
}

// strictlyInside reports whether p lies strictly inside the convex polygon
// poly given in counter-clockwise order.
func strictlyInside(poly []Point, p Point) bool {
	for i := range poly {
		a, b := poly[i], poly[(i+1)%len(poly)]
		if cross(a, b, p) <= 0 {
			return false
		}
	}
	return true
}

// Pad pushes every hull vertex away from the centroid by pad.
func Pad(h []Point, pad float64) []Point {
	if len(h) == 0 || pad == 0 {
		return h
	}
	var c Point
	for _, p := range h {
		c.X += p.X
		c.Y += p.Y
	}
	c.X /= float64(len(h))
	c.Y /= float64(len(h))

	out := make([]Point, len(h))
	for i, p := range h {
		dx, dy := p.X-c.X, p.Y-c.Y
		d := math.Hypot(dx, dy)
		if d == 0 {
			out[i] = p
			continue
		}
		out[i] = Point{X: p.X + dx/d*pad, Y: p.Y + dy/d*pad}
	}
	return out
}

// Path renders h as SVG path data "M x,y L x,y ... Z". An empty hull renders
// as the empty string.
func Path(h []Point) string {
	if len(h) == 0 {
		return ""
	}
	var b strings.Builder
	for i, p := range h {
		if i == 0 {
			b.WriteString("M")
		} else {
			b.WriteString("L")
		}
		b.WriteString(formatFloat(p.X))
		b.WriteByte(',')
		b.WriteString(formatFloat(p.Y))
	}
	b.WriteString("Z")
	return b.String()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(math.Round(f*100)/100, 'f', -1, 64)
}
