package layout

import "math"

const (
	initialRadius = 10
	jitterSpread  = 20
)

var initialAngle = math.Pi * (3 - math.Sqrt(5))

// place positions the bodies at idx. A body linked to an already positioned
// body starts next to it; the rest go on a phyllotaxis spiral.
func (s *Simulation) place(idx []int) {
	if len(idx) == 0 {
		return
	}
	positioned := make([]bool, len(s.bodies))
	for i := range positioned {
		positioned[i] = true
	}
	for _, i := range idx {
		positioned[i] = false
	}

	neighbours := make([][]int, len(s.bodies))
	for _, sp := range s.springs {
		neighbours[sp.source] = append(neighbours[sp.source], sp.target)
		neighbours[sp.target] = append(neighbours[sp.target], sp.source)
	}

	c := s.params.Center()
	for _, i := range idx {
		b := s.bodies[i]
		anchor := -1
		for _, n := range neighbours[i] {
			if positioned[n] {
				anchor = n
				break
			}
		}
		if anchor >= 0 {
			a := s.bodies[anchor]
			b.x = a.x + (s.rng.Float64()-0.5)*jitterSpread
			b.y = a.y + (s.rng.Float64()-0.5)*jitterSpread
		} else {
			r := initialRadius * math.Sqrt(0.5+float64(i))
			angle := float64(i) * initialAngle
			b.x = c.X + r*math.Cos(angle)
			b.y = c.Y + r*math.Sin(angle)
		}
		b.vx, b.vy = 0, 0
		positioned[i] = true
	}
}
