// Package motionplan answers shortest-duration motion queries between two
// configurations, and memoizes the answers per spec.md §4.9. The core
// shortest-path search is grounded on dijkstra/dijkstra.go's nodePQ
// lazy-decrease-key min-heap, adapted from int64 edge weight to float64
// duration/distance and from core.Graph to graphcore.Graph.
package motionplan

import (
	"container/heap"
	"errors"
	"fmt"
	"math"

	"github.com/grstapse-go/stapse/graphcore"
)

// ErrVertexNotFound mirrors graphcore's sentinel for an absent source/goal
// vertex.
var ErrVertexNotFound = errors.New("motionplan: vertex not found in environment graph")

// ShortestPath computes the minimum-weight path distance from src to dst in
// g. Returns math.Inf(1) if dst is unreachable. Matches dijkstra.Dijkstra's
// lazy-decrease-key shape, narrowed to a single-target query since motion
// planning only ever needs one (src,dst) duration per call.
func ShortestPath(g *graphcore.Graph, src, dst string) (float64, error) {
	if !g.HasVertex(src) {
		return 0, fmt.Errorf("%w: %s", ErrVertexNotFound, src)
	}
	if !g.HasVertex(dst) {
		return 0, fmt.Errorf("%w: %s", ErrVertexNotFound, dst)
	}
	if src == dst {
		return 0, nil
	}

	dist := make(map[string]float64, g.VertexCount())
	visited := make(map[string]bool, g.VertexCount())
	for _, v := range g.Vertices() {
		dist[v] = math.Inf(1)
	}
	dist[src] = 0

	pq := make(nodePQ, 0, g.VertexCount())
	heap.Init(&pq)
	heap.Push(&pq, &nodeItem{id: src, dist: 0})

	for pq.Len() > 0 {
		item := heap.Pop(&pq).(*nodeItem)
		u, d := item.id, item.dist
		if visited[u] {
			continue
		}
		visited[u] = true
		if u == dst {
			return d, nil
		}

		neighbors, err := g.Neighbors(u)
		if err != nil {
			return 0, fmt.Errorf("motionplan: neighbors of %s: %w", u, err)
		}
		for _, e := range neighbors {
			if e.Directed && e.From != u {
				continue
			}
			v := e.To
			if e.Weight < 0 {
				return 0, fmt.Errorf("motionplan: negative-weight edge %s→%s", e.From, e.To)
			}
			newDist := d + e.Weight
			if newDist >= dist[v] {
				continue
			}
			dist[v] = newDist
			heap.Push(&pq, &nodeItem{id: v, dist: newDist})
		}
	}

	return dist[dst], nil
}

type nodeItem struct {
	id   string
	dist float64
}

type nodePQ []*nodeItem

func (pq nodePQ) Len() int            { return len(pq) }
func (pq nodePQ) Less(i, j int) bool   { return pq[i].dist < pq[j].dist }
func (pq nodePQ) Swap(i, j int)        { pq[i], pq[j] = pq[j], pq[i] }
func (pq *nodePQ) Push(x interface{})  { *pq = append(*pq, x.(*nodeItem)) }
func (pq *nodePQ) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}
