// Package precedence computes the transitive closure of a task precedence
// DAG, detects cycles, and derives the mutex pairs of a given allocation
// (task pairs that share an assigned robot but are not already precedence-
// ordered). Cycle detection and the topological walk are grounded on
// dfs/topological.go's White/Gray/Black traversal, adapted from lvlath's
// core.Graph to graphcore.Graph; the mutex/transitive-closure algorithms
// are grounded on task_allocation_math.cpp's computeMutexConstraints and
// addPrecedenceTransitiveConstraints.
package precedence

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-set/v3"

	"github.com/grstapse-go/stapse/allocnode"
	"github.com/grstapse-go/stapse/graphcore"
)

// ErrCycleDetected mirrors the teacher's dfs.ErrCycleDetected for a directed
// precedence graph.
var ErrCycleDetected = errors.New("precedence: cycle detected in precedence graph")

// Pair is an ordered task-index pair (i,j) meaning i precedes j.
type Pair struct {
	I, J int
}

// DAG is a directed precedence graph over task indices, named "t0".."tN-1"
// as graphcore vertices so the same generic directed-graph substrate serves
// both this package and the motion-planning environment graph.
type DAG struct {
	graph    *graphcore.Graph
	numTasks int
}

func taskVertex(i int) string { return fmt.Sprintf("t%d", i) }

// NewDAG builds a DAG over numTasks tasks with the given direct precedence
// pairs (i precedes j). It verifies acyclicity eagerly, matching spec.md §3's
// "acyclicity is assumed and verified on load".
func NewDAG(numTasks int, pairs []Pair) (*DAG, error) {
	g := graphcore.New(graphcore.WithDirected(true))
	for i := 0; i < numTasks; i++ {
		_ = g.AddVertex(taskVertex(i))
	}
	for _, p := range pairs {
		if p.I < 0 || p.I >= numTasks || p.J < 0 || p.J >= numTasks {
			return nil, fmt.Errorf("precedence: pair (%d,%d) out of range for %d tasks", p.I, p.J, numTasks)
		}
		if _, err := g.AddEdge(taskVertex(p.I), taskVertex(p.J), 0); err != nil {
			return nil, fmt.Errorf("precedence: add edge: %w", err)
		}
	}
	d := &DAG{graph: g, numTasks: numTasks}
	if _, err := d.TopologicalOrder(); err != nil {
		return nil, err
	}
	return d, nil
}

// TopologicalOrder returns task indices in a linear order consistent with
// every precedence edge, or ErrCycleDetected.
func (d *DAG) TopologicalOrder() ([]int, error) {
	state := make(map[string]int, d.numTasks) // 0=white,1=gray,2=black
	var order []int

	var visit func(v string) error
	visit = func(v string) error {
		if state[v] == 1 {
			return ErrCycleDetected
		}
		if state[v] == 2 {
			return nil
		}
		state[v] = 1
		neighbors, err := d.graph.Neighbors(v)
		if err != nil {
			return fmt.Errorf("precedence: neighbors of %s: %w", v, err)
		}
		for _, e := range neighbors {
			if !e.Directed || e.From != v {
				continue
			}
			if err := visit(e.To); err != nil {
				return err
			}
		}
		state[v] = 2
		var idx int
		fmt.Sscanf(v, "t%d", &idx)
		order = append(order, idx)
		return nil
	}

	for i := 0; i < d.numTasks; i++ {
		v := taskVertex(i)
		if state[v] == 0 {
			if err := visit(v); err != nil {
				return nil, err
			}
		}
	}
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order, nil
}

// TransitiveClosure computes P ∪ P² ∪ ... via fixed-point iteration until
// the set size stabilizes, matching addPrecedenceTransitiveConstraints.
func (d *DAG) TransitiveClosure() (*set.Set[Pair], error) {
	closure := set.New[Pair](d.numTasks)
	for i := 0; i < d.numTasks; i++ {
		edges, err := d.graph.Neighbors(taskVertex(i))
		if err != nil {
			return nil, err
		}
		for _, e := range edges {
			if e.Directed && e.From == taskVertex(i) {
				var j int
				fmt.Sscanf(e.To, "t%d", &j)
				closure.Insert(Pair{I: i, J: j})
			}
		}
	}
	for {
		before := closure.Size()
		items := closure.Slice()
		additions := set.New[Pair](0)
		for _, a := range items {
			for _, b := range items {
				if a.J == b.I {
					additions.Insert(Pair{I: a.I, J: b.J})
				}
			}
		}
		closure.InsertSet(additions)
		if closure.Size() == before {
			break
		}
	}
	return closure, nil
}

// Ordered reports whether (i,j) or (j,i) appears in the transitive closure.
func Ordered(closure *set.Set[Pair], i, j int) bool {
	return closure.Contains(Pair{I: i, J: j}) || closure.Contains(Pair{I: j, J: i})
}

// MutexPairs derives M(A) per spec.md §3: unordered pairs (i,j), i<j,
// sharing at least one assigned robot, that are not already ordered by the
// transitive precedence closure. computeMutexConstraints in the original
// walks per-robot, pairing every two tasks that robot is assigned to —
// O(N · k²) where k is the number of tasks assigned to that robot — rather
// than the naive O(M²·N) all-pairs scan.
func MutexPairs(a allocnode.Allocation, closure *set.Set[Pair]) []Pair {
	numTasks := len(a)
	if numTasks == 0 {
		return nil
	}
	numRobots := len(a[0])

	tasksPerRobot := make([][]int, numRobots)
	for t, row := range a {
		for r, assigned := range row {
			if assigned {
				tasksPerRobot[r] = append(tasksPerRobot[r], t)
			}
		}
	}

	seen := set.New[Pair](0)
	var out []Pair
	for _, tasks := range tasksPerRobot {
		for x := 0; x < len(tasks); x++ {
			for y := x + 1; y < len(tasks); y++ {
				i, j := tasks[x], tasks[y]
				if i > j {
					i, j = j, i
				}
				p := Pair{I: i, J: j}
				if seen.Contains(p) {
					continue
				}
				if closure != nil && Ordered(closure, i, j) {
					continue
				}
				seen.Insert(p)
				out = append(out, p)
			}
		}
	}
	return out
}
