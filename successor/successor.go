// Package successor enumerates the (task, robot) increments admissible from
// an allocnode.Node and applies them to build children, per spec.md §4.2:
// the generator enumerates M·N candidate edges deterministically in
// (m major, r minor) order, and the edge applier rejects an increment that
// duplicates any Δ already on the node's ancestor chain.
package successor

import "github.com/grstapse-go/stapse/allocnode"

// Edge is a candidate (task, robot) increment.
type Edge struct {
	Task  int
	Robot int
}

// Generator produces the successor edges for a node and turns an edge into
// a concrete child node.
type Generator interface {
	Candidates(n *allocnode.Node, numTasks, numRobots int) []Edge
	Apply(n *allocnode.Node, e Edge) (*allocnode.Node, error)
}

// ForwardGenerator builds successors by setting one zero cell to one
// (forward-mode allocation growth, the default direction in spec.md §4.2).
type ForwardGenerator struct{}

// Candidates enumerates, in (m major, r minor) order, every task/robot pair
// not yet assigned in n and not already applied anywhere on n's ancestor
// chain — the per-pair "already on the ancestor chain" check subsumes the
// "not yet assigned in n" one, since n.Allocation already reflects every
// ancestor's Δ, but we also defend against the pathological case of a
// custom Node built outside the chain-walking constructor.
func (ForwardGenerator) Candidates(n *allocnode.Node, numTasks, numRobots int) []Edge {
	applied := appliedEdges(n)
	var out []Edge
	for m := 0; m < numTasks; m++ {
		for r := 0; r < numRobots; r++ {
			if n.Allocation[m][r] {
				continue
			}
			if _, dup := applied[Edge{Task: m, Robot: r}]; dup {
				continue
			}
			out = append(out, Edge{Task: m, Robot: r})
		}
	}
	return out
}

// Apply builds the child node with robot e.Robot newly assigned to task
// e.Task.
func (ForwardGenerator) Apply(n *allocnode.Node, e Edge) (*allocnode.Node, error) {
	return n.Child(e.Task, e.Robot)
}

// ReverseGenerator builds successors by clearing one one-cell of an
// all-ones root allocation (the "reverse" search mode named in spec.md
// §4.1's allocatability precheck and §4.2).
type ReverseGenerator struct{}

// Candidates enumerates currently-assigned (task, robot) pairs not yet
// removed on the ancestor chain, in (m major, r minor) order.
func (ReverseGenerator) Candidates(n *allocnode.Node, numTasks, numRobots int) []Edge {
	removed := appliedEdges(n)
	var out []Edge
	for m := 0; m < numTasks; m++ {
		for r := 0; r < numRobots; r++ {
			if !n.Allocation[m][r] {
				continue
			}
			if _, dup := removed[Edge{Task: m, Robot: r}]; dup {
				continue
			}
			out = append(out, Edge{Task: m, Robot: r})
		}
	}
	return out
}

// Apply builds the child node with robot e.Robot cleared from task e.Task.
func (ReverseGenerator) Apply(n *allocnode.Node, e Edge) (*allocnode.Node, error) {
	alloc := n.Allocation.Clone()
	alloc[e.Task][e.Robot] = false
	return allocnode.NewChild(n, alloc)
}

// appliedEdges walks n's ancestor chain and returns the set of (task,robot)
// pairs that differ between each node and its parent — the Δ the original
// calls "m_last_edge" per node, not broadcast from the most recent one (see
// DESIGN.md's note on the spec's m_last_edge open question).
func appliedEdges(n *allocnode.Node) map[Edge]struct{} {
	seen := make(map[Edge]struct{})
	cur := n
	for cur != nil && cur.Parent != nil {
		for m := range cur.Allocation {
			for r := range cur.Allocation[m] {
				if cur.Allocation[m][r] != cur.Parent.Allocation[m][r] {
					seen[Edge{Task: m, Robot: r}] = struct{}{}
				}
			}
		}
		cur = cur.Parent
	}
	return seen
}
