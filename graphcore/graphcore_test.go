package graphcore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/grstapse-go/stapse/graphcore"
)

func TestAddVertex_IdempotentAndRejectsEmptyID(t *testing.T) {
	g := graphcore.New()
	assert.NoError(t, g.AddVertex("a"))
	assert.NoError(t, g.AddVertex("a")) // idempotent
	assert.Equal(t, 1, g.VertexCount())
	assert.ErrorIs(t, g.AddVertex(""), graphcore.ErrEmptyVertexID)
}

func TestAddEdge_RejectsSelfLoopUnlessAllowed(t *testing.T) {
	g := graphcore.New()
	_, err := g.AddEdge("a", "a", 1)
	assert.ErrorIs(t, err, graphcore.ErrLoopNotAllowed)

	looped := graphcore.New(graphcore.WithLoops())
	_, err = looped.AddEdge("a", "a", 1)
	assert.NoError(t, err)
}

func TestAddEdge_UndirectedCreatesBothAdjacencies(t *testing.T) {
	g := graphcore.New() // default undirected
	_, err := g.AddEdge("a", "b", 5)
	assert.NoError(t, err)
	assert.True(t, g.HasEdge("a", "b"))
	assert.True(t, g.HasEdge("b", "a"))
}

func TestAddEdge_DirectedOnlyForwardAdjacency(t *testing.T) {
	g := graphcore.New(graphcore.WithDirected(true))
	_, err := g.AddEdge("a", "b", 5)
	assert.NoError(t, err)
	assert.True(t, g.HasEdge("a", "b"))
	assert.False(t, g.HasEdge("b", "a"))
}

func TestNeighbors_DirectedOnlyOutgoing(t *testing.T) {
	g := graphcore.New(graphcore.WithDirected(true))
	_, _ = g.AddEdge("a", "b", 1)
	_, _ = g.AddEdge("c", "a", 1)

	neighbors, err := g.Neighbors("a")
	assert.NoError(t, err)
	assert.Len(t, neighbors, 1)
	assert.Equal(t, "b", neighbors[0].To)
}

func TestNeighbors_UnknownVertexErrors(t *testing.T) {
	g := graphcore.New()
	_, err := g.Neighbors("ghost")
	assert.ErrorIs(t, err, graphcore.ErrVertexNotFound)
}

func TestGetEdge_UnknownIDErrors(t *testing.T) {
	g := graphcore.New()
	_, err := g.GetEdge("e999")
	assert.ErrorIs(t, err, graphcore.ErrEdgeNotFound)
}

func TestVertices_SortedAscending(t *testing.T) {
	g := graphcore.New()
	_ = g.AddVertex("c")
	_ = g.AddVertex("a")
	_ = g.AddVertex("b")
	assert.Equal(t, []string{"a", "b", "c"}, g.Vertices())
}

func TestEdges_SortedByID(t *testing.T) {
	g := graphcore.New()
	id1, _ := g.AddEdge("a", "b", 1)
	id2, _ := g.AddEdge("b", "c", 1)
	edges := g.Edges()
	assert.Len(t, edges, 2)
	assert.Equal(t, id1, edges[0].ID)
	assert.Equal(t, id2, edges[1].ID)
}

func TestDirected_ReportsConstructionTimeOrientation(t *testing.T) {
	assert.True(t, graphcore.New(graphcore.WithDirected(true)).Directed())
	assert.False(t, graphcore.New().Directed())
}
