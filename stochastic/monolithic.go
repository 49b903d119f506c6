// monolithic.go implements the monolithic stochastic scheduler of
// spec.md §4.6: Q scenario copies of the deterministic sub-formulation,
// sharing a single mutex orientation and allocation, with auxiliary slack
// y^q permitting at most ⌊α·Q⌋ scenarios to exceed the chosen makespan.
//
// The MILP's y^q/Σy^q≤⌊αQ⌋ constraints reduce, once orientation is fixed,
// to a pure order-statistic: the minimal μ covering all but ⌊αQ⌋ scenarios
// is the (⌊αQ⌋+1)-th largest per-scenario makespan. Orientation itself is
// chosen once, greedily, by the aggregate (summed-across-scenarios) cheaper
// transition direction per mutex pair — the shared-x analogue of
// milp.GreedyLPSolver's single-scenario rule.
package stochastic

import (
	"fmt"
	"sort"

	"github.com/grstapse-go/stapse/allocnode"
	"github.com/grstapse-go/stapse/failure"
	"github.com/grstapse-go/stapse/heuristic"
	"github.com/grstapse-go/stapse/milp"
	"github.com/grstapse-go/stapse/model"
	"github.com/grstapse-go/stapse/motionplan"
	"github.com/grstapse-go/stapse/precedence"
	"github.com/grstapse-go/stapse/schedule"
)

// Monolithic is the monolithic stochastic MILP scheduler: Q memoizers, one
// per sampled scenario, each perturbing transition durations independently
// while task static durations stay deterministic.
type Monolithic struct {
	Tasks      []model.Task
	Robots     []model.Robot
	Precedence []precedence.Pair
	Scenarios  []*motionplan.Memoizer // Q memoizers, index-aligned
	Alpha      float64                // robustness fraction: at most ⌊α·Q⌋ may exceed μ
	Solver     func(milp.Model, map[precedence.Pair]bool) (milp.Result, failure.Reason)
}

// Solve implements heuristic.Scheduler.
func (m Monolithic) Solve(alloc allocnode.Allocation) (heuristic.Schedule, failure.Reason) {
	if len(m.Scenarios) == 0 {
		return nil, failure.NewMilpFailure("monolithic: no scenarios supplied")
	}

	closure, err := precedence.NewDAG(len(m.Tasks), m.Precedence)
	if err != nil {
		return nil, failure.NewCycleDetected(err.Error())
	}
	transitiveClosure, err := closure.TransitiveClosure()
	if err != nil {
		return nil, failure.NewCycleDetected(err.Error())
	}
	mutexPairs := precedence.MutexPairs(alloc, transitiveClosure)

	models := make([]milp.Model, len(m.Scenarios))
	for q, mem := range m.Scenarios {
		mm, reason := m.buildScenarioModel(alloc, mutexPairs, mem)
		if reason != nil {
			return nil, reason
		}
		models[q] = mm
	}

	orientation := aggregateOrientation(models)

	solve := m.Solver
	if solve == nil {
		solve = milp.SolveWithOrientation
	}

	results := make([]milp.Result, len(models))
	mus := make([]float64, len(models))
	for q, mm := range models {
		res, reason := solve(mm, orientation)
		if reason != nil {
			return nil, reason
		}
		results[q] = res
		mus[q] = res.Makespan
	}

	mu, repIdx := robustMakespan(mus, m.Alpha)
	rep := results[repIdx]

	var order []precedence.Pair
	for pair, iFirst := range rep.Orientation {
		if iFirst {
			order = append(order, pair)
		} else {
			order = append(order, precedence.Pair{I: pair.J, J: pair.I})
		}
	}

	return schedule.Schedule{
		Makespan_:  mu,
		Start:      rep.Start,
		End:        rep.End,
		MutexOrder: order,
	}, nil
}

func (m Monolithic) buildScenarioModel(alloc allocnode.Allocation, mutexPairs []precedence.Pair, mem *motionplan.Memoizer) (milp.Model, failure.Reason) {
	taskVars := make([]milp.TaskVar, len(m.Tasks))
	for i, task := range m.Tasks {
		var lb float64
		for _, r := range alloc.RobotsForTask(i) {
			robot := m.Robots[r]
			d, ok := mem.Query(robot.SpeciesID, robot.Start, task.Initial)
			if !ok {
				return milp.Model{}, failure.NewMotionPlanImpossible(task.ID, robot.ID)
			}
			if d > lb {
				lb = d
			}
		}
		taskVars[i] = milp.TaskVar{StaticDuration: task.StaticDuration, LowerBound: lb}
	}

	mutexVars := make([]milp.MutexVar, 0, len(mutexPairs))
	for _, pair := range mutexPairs {
		deltaIJ, reason := m.transitionDelta(alloc, mem, pair.I, pair.J)
		if reason != nil {
			return milp.Model{}, reason
		}
		deltaJI, reason := m.transitionDelta(alloc, mem, pair.J, pair.I)
		if reason != nil {
			return milp.Model{}, reason
		}
		mutexVars = append(mutexVars, milp.MutexVar{I: pair.I, J: pair.J, DeltaIToJ: deltaIJ, DeltaJToI: deltaJI})
	}

	return milp.Model{Tasks: taskVars, Precedence: m.Precedence, Mutex: mutexVars}, nil
}

// transitionDelta computes δ(i,j) for one scenario's memoizer: the max, over
// robots shared by coalition(i) and coalition(j), of the travel time from
// task i's terminal configuration to task j's initial configuration.
func (m Monolithic) transitionDelta(alloc allocnode.Allocation, mem *motionplan.Memoizer, i, j int) (float64, failure.Reason) {
	inI := make(map[int]struct{})
	for _, r := range alloc.RobotsForTask(i) {
		inI[r] = struct{}{}
	}
	var delta float64
	for _, r := range alloc.RobotsForTask(j) {
		if _, shared := inI[r]; !shared {
			continue
		}
		robot := m.Robots[r]
		d, ok := mem.Query(robot.SpeciesID, m.Tasks[i].Terminal, m.Tasks[j].Initial)
		if !ok {
			return 0, failure.NewMotionPlanImpossible(fmt.Sprintf("%s->%s", m.Tasks[i].ID, m.Tasks[j].ID), robot.ID)
		}
		if d > delta {
			delta = d
		}
	}
	return delta, nil
}

// aggregateOrientation picks, per mutex pair, the direction cheaper summed
// across every scenario model — the shared-x analogue of
// milp.GreedyLPSolver's per-pair rule.
func aggregateOrientation(models []milp.Model) map[precedence.Pair]bool {
	type totals struct{ ij, ji float64 }
	sums := make(map[precedence.Pair]totals)
	for _, mm := range models {
		for _, mv := range mm.Mutex {
			pair := precedence.Pair{I: mv.I, J: mv.J}
			t := sums[pair]
			t.ij += mv.DeltaIToJ
			t.ji += mv.DeltaJToI
			sums[pair] = t
		}
	}
	orientation := make(map[precedence.Pair]bool, len(sums))
	for pair, t := range sums {
		orientation[pair] = t.ij <= t.ji
	}
	return orientation
}

// robustMakespan returns the minimal μ such that at most ⌊α·|mus|⌋ of mus
// exceed it, and the index into mus of a scenario achieving exactly μ (used
// to report a representative schedule's Start/End timepoints).
func robustMakespan(mus []float64, alpha float64) (float64, int) {
	q := len(mus)
	allowed := int(alpha * float64(q))
	if allowed < 0 {
		allowed = 0
	}
	order := make([]int, q)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return mus[order[a]] > mus[order[b]] })
	if allowed >= q {
		last := order[q-1]
		return mus[last], last
	}
	idx := order[allowed]
	return mus[idx], idx
}
