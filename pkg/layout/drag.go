package layout

// dragAlphaTarget keeps the simulation warm while a node is dragged.
const dragAlphaTarget = 0.3

// Pin fixes id at (x, y) until Unpin.
func (s *Simulation) Pin(id string, x, y float64) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	b := s.bodies[i]
	b.pinned, b.fx, b.fy = true, x, y
	return true
}

// Unpin releases id.
func (s *Simulation) Unpin(id string) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.bodies[i].pinned = false
	return true
}

// Pinned reports whether id is pinned.
func (s *Simulation) Pinned(id string) bool {
	i, ok := s.index[id]
	return ok && s.bodies[i].pinned
}

// DragStart pins id where it currently is and keeps the simulation warm.
// A converged simulation resumes without being reheated to its start alpha.
func (s *Simulation) DragStart(id string) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.alphaTarget = dragAlphaTarget
	if !s.running {
		s.running = true
		if s.observer != nil {
			s.observer.ObserveRestart()
		}
	}
	b := s.bodies[i]
	b.pinned, b.fx, b.fy = true, b.x, b.y
	b.dragged = true
	return true
}

// Drag moves the pin of id to (x, y).
func (s *Simulation) Drag(id string, x, y float64) bool {
	return s.Pin(id, x, y)
}

// DragEnd releases id. The simulation cools down again once no other node
// is held by a drag.
func (s *Simulation) DragEnd(id string) bool {
	if !s.Unpin(id) {
		return false
	}
	s.bodies[s.index[id]].dragged = false
	if !s.dragging() {
		s.alphaTarget = 0
	}
	return true
}

func (s *Simulation) dragging() bool {
	for _, b := range s.bodies {
		if b.dragged {
			return true
		}
	}
	return false
}
