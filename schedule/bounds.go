package schedule

import (
	"github.com/grstapse-go/stapse/heuristic"
	"github.com/grstapse-go/stapse/milp"
	"github.com/grstapse-go/stapse/model"
	"github.com/grstapse-go/stapse/precedence"
)

// ComputeBounds derives the μ_best/μ_max/μ_worst reference points POS and
// NSQ normalize against (spec.md §4.3, "pre-computed bounds (see §4.7)").
// Neither spec.md nor its §4.7 scenario-selector section gives a closed-form
// definition, so this follows the original's itags_builder bound
// computation in spirit: μ_max is the critical-path length over static
// durations alone (the best a schedule can do once mutex contention is
// ignored), μ_worst is every task fully serialized (a safe upper bound,
// always ≥ μ_max since task durations are non-negative), and μ_best is zero
// (the unconstrained floor, reached only if every task could run
// instantaneously in parallel).
func ComputeBounds(tasks []model.Task, pairs []precedence.Pair) (heuristic.Bounds, error) {
	taskVars := make([]milp.TaskVar, len(tasks))
	var total float64
	for i, t := range tasks {
		taskVars[i] = milp.TaskVar{StaticDuration: t.StaticDuration}
		total += t.StaticDuration
	}

	muMax, err := milp.LongestChainBound(taskVars, pairs)
	if err != nil {
		return heuristic.Bounds{}, err
	}

	return heuristic.Bounds{MuBest: 0, MuMax: muMax, MuWorst: total}, nil
}
