package model

import (
	"errors"

	"github.com/grstapse-go/stapse/geom"
	"github.com/grstapse-go/stapse/graphcore"
)

// ErrNoPath is the sentinel for an environment graph with no route between
// two named vertices. Environment has no distance method, so nothing in
// this package returns it.
var ErrNoPath = errors.New("model: no path between configurations")

// Environment holds an explicit Euclidean graph of named waypoints. Per
// spec.md §3 the environment is a closed substrate shared by every
// robot/task pair. Only this graph-backed form exists: there is no
// predicate-only (OMPL-style) environment in this module, and Environment
// itself computes no distances (travel durations come from the motionplan
// package's planners).
type Environment struct {
	Graph *graphcore.Graph
}

// NewGraphEnvironment constructs an Environment over an explicit weighted
// graph of waypoint vertices. The graph must be undirected and weighted by
// travel duration or distance between adjacent waypoints.
func NewGraphEnvironment(g *graphcore.Graph) *Environment {
	return &Environment{Graph: g}
}

// VertexID extracts the graph vertex name from a Configuration. Only
// geom.EuclideanVertex configurations are addressable in a graph
// environment; other variants return ok=false.
func VertexID(c geom.Configuration) (string, bool) {
	if v, ok := c.(geom.EuclideanVertex); ok {
		return v.ID, true
	}
	return "", false
}
