// Package goalcheck implements the ITAGS termination predicates of
// spec.md §4.3/§4.4: zero-APR (traits satisfied) and zero-POS (schedule
// robust within tolerance).
package goalcheck

import (
	"github.com/grstapse-go/stapse/allocnode"
	"github.com/grstapse-go/stapse/heuristic"
)

// GoalCheck reports whether a node is an accepting search goal.
type GoalCheck interface {
	IsGoal(n *allocnode.Node) (bool, error)
}

// ZeroAPR accepts any node whose trait mismatch ratio is exactly zero,
// ignoring schedule quality entirely — the check used by trait-only
// allocation runs.
type ZeroAPR struct {
	Config heuristic.Config
}

// IsGoal implements GoalCheck.
func (z ZeroAPR) IsGoal(n *allocnode.Node) (bool, error) {
	apr, err := heuristic.APR(z.Config, n)
	if err != nil {
		return false, err
	}
	return apr == 0, nil
}

// ZeroPOS accepts a node only once its trait mismatch is zero and its
// schedule's POS is zero (makespan at or below μ_max), i.e. both resource
// and temporal feasibility hold.
type ZeroPOS struct {
	Config heuristic.Config
}

// IsGoal implements GoalCheck.
func (z ZeroPOS) IsGoal(n *allocnode.Node) (bool, error) {
	apr, err := heuristic.APR(z.Config, n)
	if err != nil {
		return false, err
	}
	if apr != 0 {
		return false, nil
	}
	return heuristic.POS(z.Config, n) == 0, nil
}
