package bookmarks

import (
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// IDGenerator produces ids of the form prefix+suffix. taken reports whether
// an id is already used in the Space; generators retry until it returns false
// and never hand out the same id twice in one session.
type IDGenerator interface {
	Next(prefix string, taken func(id string) bool) string
}

// SequentialIDs yields site1, site2, ... skipping ids that are taken.
type SequentialIDs struct {
	mu       sync.Mutex
	counters map[string]int
}

// NewSequentialIDs creates a generator whose counters start at zero.
func NewSequentialIDs() *SequentialIDs {
	return &SequentialIDs{counters: make(map[string]int)}
}

func (g *SequentialIDs) Next(prefix string, taken func(string) bool) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := g.counters[prefix]
	for {
		n++
		id := prefix + strconv.Itoa(n)
		if !taken(id) {
			g.counters[prefix] = n
			return id
		}
	}
}

// RandomIDs yields prefix plus a short random hex suffix.
type RandomIDs struct {
	mu     sync.Mutex
	issued map[string]bool
}

// NewRandomIDs creates a random-suffix generator.
func NewRandomIDs() *RandomIDs {
	return &RandomIDs{issued: make(map[string]bool)}
}

func (g *RandomIDs) Next(prefix string, taken func(string) bool) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	for {
		suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
		id := prefix + suffix
		if !g.issued[id] && !taken(id) {
			g.issued[id] = true
			return id
		}
	}
}

// NewIDGenerator maps a configured strategy name to a generator.
func NewIDGenerator(strategy string) IDGenerator {
	if strategy == "random" {
		return NewRandomIDs()
	}
	return NewSequentialIDs()
}
