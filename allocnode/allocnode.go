// Package allocnode defines the partial-allocation matrix and the search
// node ITAGS expands, including the canonical hash used to detect duplicate
// allocations across the open/closed sets. It is grounded on itags.cpp's
// createRootNode (a MatrixDimensions{height: num_tasks, width: num_robots}
// all-false matrix) and on the parent-chain reconstruction implied by the
// original's incremental-allocation search nodes.
package allocnode

import (
	"fmt"

	"github.com/mitchellh/hashstructure/v2"
)

// Allocation is a tasks×robots boolean matrix: Allocation[t][r] is true iff
// robot r is assigned to task t.
type Allocation [][]bool

// NewAllocation returns a numTasks×numRobots all-false matrix, the ITAGS
// root allocation.
func NewAllocation(numTasks, numRobots int) Allocation {
	a := make(Allocation, numTasks)
	for i := range a {
		a[i] = make([]bool, numRobots)
	}
	return a
}

// Clone deep-copies the matrix.
func (a Allocation) Clone() Allocation {
	out := make(Allocation, len(a))
	for i, row := range a {
		out[i] = append([]bool(nil), row...)
	}
	return out
}

// WithAssignment returns a clone of a with robot assigned to task, leaving a
// untouched — ITAGS' successor generator never mutates a parent's
// allocation in place, since the parent may still be referenced by other
// branches of the open set.
func (a Allocation) WithAssignment(task, robot int) Allocation {
	out := a.Clone()
	out[task][robot] = true
	return out
}

// AllTasksAssigned reports whether every row has at least one assigned
// robot — the all-ones precondition itags.cpp checks in isAllocatable
// before admitting a problem to search.
func (a Allocation) AllTasksAssigned() bool {
	for _, row := range a {
		assigned := false
		for _, v := range row {
			if v {
				assigned = true
				break
			}
		}
		if !assigned {
			return false
		}
	}
	return true
}

// RobotsForTask lists the robot indices assigned to task t.
func (a Allocation) RobotsForTask(t int) []int {
	var out []int
	for r, v := range a[t] {
		if v {
			out = append(out, r)
		}
	}
	return out
}

// RobotAssignedElsewhere reports whether robot r is already assigned to any
// task other than t.
func (a Allocation) RobotAssignedElsewhere(r, t int) bool {
	for taskIdx, row := range a {
		if taskIdx == t {
			continue
		}
		if row[r] {
			return true
		}
	}
	return false
}

// Hash computes a canonical, order-independent hash of the allocation
// matrix for search-node memoization, using hashstructure so that two
// structurally identical matrices (reached by different successor paths)
// collapse to the same key regardless of how they were built.
func (a Allocation) Hash() (uint64, error) {
	h, err := hashstructure.Hash(a, hashstructure.FormatV2, nil)
	if err != nil {
		return 0, fmt.Errorf("allocnode: hash allocation: %w", err)
	}
	return h, nil
}

// Node is a single ITAGS search node: its own allocation, a link to its
// parent (nil at the root), and a cached hash. Parent linkage lets the
// driver reconstruct the full allocation path taken to reach any node
// without storing the whole ancestry inline on every node.
type Node struct {
	Allocation Allocation
	Parent     *Node
	Depth      int
	hash       uint64
}

// NewRoot builds the root node for a numTasks×numRobots problem.
func NewRoot(numTasks, numRobots int) (*Node, error) {
	root := &Node{Allocation: NewAllocation(numTasks, numRobots)}
	h, err := root.Allocation.Hash()
	if err != nil {
		return nil, err
	}
	root.hash = h
	return root, nil
}

// Child builds a successor node assigning robot to task, linking back to n
// as parent.
func (n *Node) Child(task, robot int) (*Node, error) {
	alloc := n.Allocation.WithAssignment(task, robot)
	h, err := alloc.Hash()
	if err != nil {
		return nil, err
	}
	return &Node{Allocation: alloc, Parent: n, Depth: n.Depth + 1, hash: h}, nil
}

// Hash returns the node's cached canonical allocation hash.
func (n *Node) Hash() uint64 { return n.hash }

// NewChild builds a successor node with an arbitrary allocation (used by
// generators whose increment is not a simple single-cell set, e.g. the
// reverse-mode generator clearing a cell of an all-ones root). A nil parent
// builds a root node at depth 0, the reverse-mode analogue of NewRoot.
func NewChild(parent *Node, alloc Allocation) (*Node, error) {
	h, err := alloc.Hash()
	if err != nil {
		return nil, err
	}
	depth := 0
	if parent != nil {
		depth = parent.Depth + 1
	}
	return &Node{Allocation: alloc, Parent: parent, Depth: depth, hash: h}, nil
}

// Path walks the parent chain from the root to n, inclusive, oldest first.
func (n *Node) Path() []*Node {
	var chain []*Node
	for cur := n; cur != nil; cur = cur.Parent {
		chain = append(chain, cur)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}
