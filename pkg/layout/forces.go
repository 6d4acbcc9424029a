package layout

import "math"

const distanceMin2 = 1.0

// initSprings assigns each spring its d3 default strength 1/min(degree) and
// a bias that moves the less connected end more.
func (s *Simulation) initSprings() {
	count := make([]int, len(s.bodies))
	for _, sp := range s.springs {
		count[sp.source]++
		count[sp.target]++
	}
	for i := range s.springs {
		sp := &s.springs[i]
		cs, ct := float64(count[sp.source]), float64(count[sp.target])
		sp.strength = 1 / math.Min(cs, ct)
		sp.bias = cs / (cs + ct)
	}
}

func (s *Simulation) applyLinks(alpha float64) {
	dist := s.params.LinkDistance
	for _, sp := range s.springs {
		src, tgt := s.bodies[sp.source], s.bodies[sp.target]
		x := tgt.x + tgt.vx - src.x - src.vx
		if x == 0 {
			x = s.jiggle()
		}
		y := tgt.y + tgt.vy - src.y - src.vy
		if y == 0 {
			y = s.jiggle()
		}
		l := math.Sqrt(x*x + y*y)
		l = (l - dist) / l * alpha * sp.strength
		x *= l
		y *= l
		tgt.vx -= x * sp.bias
		tgt.vy -= y * sp.bias
		src.vx += x * (1 - sp.bias)
		src.vy += y * (1 - sp.bias)
	}
}

// applyCharge is the all-pairs many-body force. Velocity changes by
// strength*alpha/d along the separating vector, distance clamped below at 1.
func (s *Simulation) applyCharge(alpha float64) {
	strength := s.params.ChargeStrength
	if strength == 0 {
		return
	}
	for i, a := range s.bodies {
		for j, b := range s.bodies {
			if i == j {
				continue
			}
			x := b.x - a.x
			y := b.y - a.y
			l := x*x + y*y
			if x == 0 {
				x = s.jiggle()
				l += x * x
			}
			if y == 0 {
				y = s.jiggle()
				l += y * y
			}
			if l < distanceMin2 {
				l = math.Sqrt(distanceMin2 * l)
			}
			a.vx += x * strength * alpha / l
			a.vy += y * strength * alpha / l
		}
	}
}

func (s *Simulation) applyGravity(alpha float64) {
	g := s.params.GravityStrength
	if g == 0 {
		return
	}
	c := s.params.Center()
	for _, b := range s.bodies {
		b.vx += (c.X - b.x) * g * alpha
		b.vy += (c.Y - b.y) * g * alpha
	}
}

// applyCollision pushes overlapping circles apart, the larger one moving less.
func (s *Simulation) applyCollision() {
	strength := s.params.CollisionStrength
	if strength == 0 {
		return
	}
	for i, a := range s.bodies {
		ri := s.collideRadius(a)
		ri2 := ri * ri
		xi, yi := a.x+a.vx, a.y+a.vy
		for _, b := range s.bodies[i+1:] {
			rj := s.collideRadius(b)
			r := ri + rj
			x := xi - b.x - b.vx
			y := yi - b.y - b.vy
			l := x*x + y*y
			if l >= r*r {
				continue
			}
			if x == 0 {
				x = s.jiggle()
				l += x * x
			}
			if y == 0 {
				y = s.jiggle()
				l += y * y
			}
			l = math.Sqrt(l)
			l = (r - l) / l * strength
			x *= l
			y *= l
			rj2 := rj * rj
			share := rj2 / (ri2 + rj2)
			a.vx += x * share
			a.vy += y * share
			b.vx -= x * (1 - share)
			b.vy -= y * (1 - share)
		}
	}
}
