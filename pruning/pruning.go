// Package pruning implements the trait-improvement and previous-failure
// pruning predicates of spec.md §4.4, plus conjunction/disjunction
// combinators for composing them.
package pruning

import (
	"sync"

	"github.com/grstapse-go/stapse/allocnode"
	"github.com/grstapse-go/stapse/failure"
	"github.com/grstapse-go/stapse/traitmath"
)

// Pruner reports whether a candidate successor node should be discarded
// rather than enqueued.
type Pruner interface {
	Prune(n *allocnode.Node) bool
}

// PrunerFunc adapts a function to Pruner.
type PrunerFunc func(n *allocnode.Node) bool

// Prune implements Pruner.
func (f PrunerFunc) Prune(n *allocnode.Node) bool { return f(n) }

// TraitImprovement prunes n iff ε(A(n)) ≥ ε(A(parent(n))): in forward mode,
// adding a robot that does not reduce unmet demand cannot improve any
// descendant's APR. Root nodes (no parent) are never pruned.
type TraitImprovement struct {
	Desired     traitmath.Matrix
	RobotTraits traitmath.Matrix
	Reduction   traitmath.Reduction
}

// Prune implements Pruner.
func (t TraitImprovement) Prune(n *allocnode.Node) bool {
	if n.Parent == nil {
		return false
	}
	childAlloc, err := traitmath.AllocatedTraitsMatrix(n.Allocation, t.RobotTraits, t.Reduction)
	if err != nil {
		return false
	}
	parentAlloc, err := traitmath.AllocatedTraitsMatrix(n.Parent.Allocation, t.RobotTraits, t.Reduction)
	if err != nil {
		return false
	}
	childEps, err := traitmath.MismatchError(t.Desired, childAlloc)
	if err != nil {
		return false
	}
	parentEps, err := traitmath.MismatchError(t.Desired, parentAlloc)
	if err != nil {
		return false
	}
	return childEps >= parentEps
}

// PreviousFailure records allocation sub-patterns proven infeasible by a
// prior scheduler run (a scheduling timeout, a detected cycle, a motion-plan
// impossibility) and prunes any node whose allocation is a superset of one
// of them on the relevant robots/tasks. It is the consumer side of
// heuristic.Callbacks.OnFailure.
type PreviousFailure struct {
	mu       sync.Mutex
	failures []allocnode.Allocation
}

// NewPreviousFailure returns an empty pruner ready to be wired as a
// heuristic.Callbacks.OnFailure target via Record.
func NewPreviousFailure() *PreviousFailure {
	return &PreviousFailure{}
}

// Record stores the allocation of a node whose scheduler invocation failed.
// Its signature matches heuristic.Callbacks.OnFailure's parameter shape so
// it can be passed directly: func(n *allocnode.Node, reason failure.Reason).
func (p *PreviousFailure) Record(n *allocnode.Node, _ failure.Reason) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures = append(p.failures, n.Allocation.Clone())
}

// Prune reports whether n's allocation is a superset of any recorded
// failure: every cell set in the failure is also set in n.
func (p *PreviousFailure) Prune(n *allocnode.Node) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, f := range p.failures {
		if isSuperset(n.Allocation, f) {
			return true
		}
	}
	return false
}

func isSuperset(a, sub allocnode.Allocation) bool {
	if len(a) != len(sub) {
		return false
	}
	for i := range sub {
		if len(a[i]) != len(sub[i]) {
			return false
		}
		for j := range sub[i] {
			if sub[i][j] && !a[i][j] {
				return false
			}
		}
	}
	return true
}

// And is a conjunction combinator: it prunes iff every sub-predicate
// prunes.
type And []Pruner

// Prune implements Pruner.
func (a And) Prune(n *allocnode.Node) bool {
	for _, p := range a {
		if !p.Prune(n) {
			return false
		}
	}
	return len(a) > 0
}

// Or is a disjunction combinator: it prunes iff any sub-predicate prunes.
type Or []Pruner

// Prune implements Pruner.
func (o Or) Prune(n *allocnode.Node) bool {
	for _, p := range o {
		if p.Prune(n) {
			return true
		}
	}
	return false
}
