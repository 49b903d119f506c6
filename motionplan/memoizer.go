package motionplan

import (
	"math"
	"sync"

	"github.com/grstapse-go/stapse/geom"
	"github.com/grstapse-go/stapse/graphcore"
)

// Planner answers a motion-duration query between two configurations for a
// single species/environment. Concrete planners (graph-backed here; an
// OMPL-predicate planner is named but not implemented per spec.md §1's
// scope exclusion of OMPL-backed continuous planners) implement this.
type Planner interface {
	Duration(src, dst geom.Configuration) (float64, bool)
}

// GraphPlanner answers queries by shortest path over an explicit Euclidean
// graph, scaled by the reciprocal of the species' speed (duration = path
// length ÷ speed, per spec.md §4.9).
type GraphPlanner struct {
	Graph *graphcore.Graph
	Speed float64
}

// Duration implements Planner. ok is false if either endpoint is not a
// graph vertex or no path exists.
func (p GraphPlanner) Duration(src, dst geom.Configuration) (float64, bool) {
	srcID, ok := vertexID(src)
	if !ok {
		return 0, false
	}
	dstID, ok := vertexID(dst)
	if !ok {
		return 0, false
	}
	dist, err := ShortestPath(p.Graph, srcID, dstID)
	if err != nil {
		return 0, false
	}
	if dist < 0 || math.IsInf(dist, 1) {
		return 0, false
	}
	speed := p.Speed
	if speed <= 0 {
		speed = 1
	}
	return dist / speed, true
}

func vertexID(c geom.Configuration) (string, bool) {
	if v, ok := c.(geom.EuclideanVertex); ok {
		return v.ID, true
	}
	return "", false
}

// cfgKey identifies a memoized query: the configuration pair. Equality on
// Configuration is via geom.Equal, but map keys need comparable values, so
// we key on a string rendering that is stable for the EuclideanVertex
// variant this module actually exercises.
type cfgKey struct {
	src, dst string
}

// Memoizer caches Planner queries per spec.md §4.9: keyed by (species,
// initial config, terminal config), with a single mutex serializing access
// (spec.md §5 allows this — the planner is reentrant-safe only because its
// memoization map is mutex-protected). Failed queries are not cached: they
// retry on the next call, since a transient planner failure (e.g. the
// underlying graph not yet populated) should not be sticky.
type Memoizer struct {
	mu       sync.Mutex
	planners map[string]Planner
	cache    map[string]map[cfgKey]float64
	misses   map[string]uint64
}

// NewMemoizer builds an empty per-species memoizer.
func NewMemoizer() *Memoizer {
	return &Memoizer{
		planners: make(map[string]Planner),
		cache:    make(map[string]map[cfgKey]float64),
		misses:   make(map[string]uint64),
	}
}

// Register installs the Planner for a species ID.
func (m *Memoizer) Register(speciesID string, p Planner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.planners[speciesID] = p
}

// Query returns the cached or freshly-computed duration from src to dst for
// speciesID. The second return is false if no path exists (a
// MotionPlanImpossible case at the caller).
func (m *Memoizer) Query(speciesID string, src, dst geom.Configuration) (float64, bool) {
	srcID, _ := vertexID(src)
	dstID, _ := vertexID(dst)
	key := cfgKey{src: srcID, dst: dstID}

	m.mu.Lock()
	defer m.mu.Unlock()

	if bySpecies, ok := m.cache[speciesID]; ok {
		if d, ok := bySpecies[key]; ok {
			return d, true
		}
	}

	p, ok := m.planners[speciesID]
	if !ok {
		m.misses[speciesID]++
		return 0, false
	}
	d, ok := p.Duration(src, dst)
	if !ok {
		m.misses[speciesID]++
		return 0, false
	}

	if m.cache[speciesID] == nil {
		m.cache[speciesID] = make(map[cfgKey]float64)
	}
	m.cache[speciesID][key] = d
	return d, true
}

// Misses reports the number of failed (uncached) queries for a species,
// the "global counter" spec.md §4.9 requires failed lookups to increment.
func (m *Memoizer) Misses(speciesID string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.misses[speciesID]
}

// ClearCache drops every cached entry for speciesID, breaking the
// species→planner→memoization→species reference cycle spec.md §9 calls out
// for teardown.
func (m *Memoizer) ClearCache(speciesID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cache, speciesID)
}
