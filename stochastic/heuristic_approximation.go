// heuristic_approximation.go implements the SAA/HA stochastic scheduler of
// spec.md §4.6: select β scenarios out of a Q_f pool via a ScenarioSelector
// (§4.7), solve the monolithic program over just those β with no slack (so
// μ is simply the worst selected scenario's makespan), then verify against
// the remaining Q_f-β scenarios with an SPRT (§4.8), inflating μ and
// re-testing until the test accepts or a retry budget is exhausted.
package stochastic

import (
	"fmt"
	"sort"
	"time"

	"github.com/grstapse-go/stapse/allocnode"
	"github.com/grstapse-go/stapse/failure"
	"github.com/grstapse-go/stapse/heuristic"
	"github.com/grstapse-go/stapse/milp"
	"github.com/grstapse-go/stapse/model"
	"github.com/grstapse-go/stapse/motionplan"
	"github.com/grstapse-go/stapse/precedence"
	"github.com/grstapse-go/stapse/schedule"
)

// HA is the heuristic-approximation (SAA) stochastic scheduler.
type HA struct {
	Tasks      []model.Task
	Robots     []model.Robot
	Precedence []precedence.Pair
	Pool       []*motionplan.Memoizer // Q_f memoizers, index-aligned
	Beta       int

	Gamma      float64       // target exceedance probability
	GammaDelta float64       // Δ: p0 = γ-Δ, p1 = γ+Δ
	SprtAlpha  float64       // SPRT type-I error
	SprtBeta   float64       // SPRT type-II error
	Selector   ScenarioSelector
	Timeout    time.Duration // selector deadline

	InflateFactor         float64 // δ: multiplicative factor (>1) or additive amount
	InflateMultiplicative bool
	MaxInflations         int

	Solver func(milp.Model, map[precedence.Pair]bool) (milp.Result, failure.Reason)
}

// Solve implements heuristic.Scheduler.
func (h HA) Solve(alloc allocnode.Allocation) (heuristic.Schedule, failure.Reason) {
	if len(h.Pool) == 0 || h.Beta <= 0 {
		return nil, failure.NewMilpFailure("ha: empty scenario pool or beta")
	}

	closure, err := precedence.NewDAG(len(h.Tasks), h.Precedence)
	if err != nil {
		return nil, failure.NewCycleDetected(err.Error())
	}
	transitiveClosure, err := closure.TransitiveClosure()
	if err != nil {
		return nil, failure.NewCycleDetected(err.Error())
	}
	mutexPairs := precedence.MutexPairs(alloc, transitiveClosure)

	selector := h.Selector
	if selector == nil {
		selector = HeuristicSelector{
			Labeler: AllocationLabeler{Tasks: h.Tasks, Robots: h.Robots, Alloc: alloc, Memoizers: h.Pool},
		}
	}
	mask, ok := selector.CreateMask(len(h.Pool), h.Beta, h.Gamma, h.Timeout)
	if !ok {
		return nil, failure.NewMilpFailure("ha: scenario selector could not produce a mask")
	}

	var selected, remaining []int
	for i, keep := range mask {
		if keep {
			selected = append(selected, i)
		} else {
			remaining = append(remaining, i)
		}
	}

	selectedModels := make([]milp.Model, len(selected))
	for k, idx := range selected {
		mm, reason := h.buildScenarioModel(alloc, mutexPairs, h.Pool[idx])
		if reason != nil {
			return nil, reason
		}
		selectedModels[k] = mm
	}
	orientation := aggregateOrientation(selectedModels)

	solve := h.Solver
	if solve == nil {
		solve = milp.SolveWithOrientation
	}

	selectedResults := make([]milp.Result, len(selectedModels))
	mu := 0.0
	repIdx := 0
	for k, mm := range selectedModels {
		res, reason := solve(mm, orientation)
		if reason != nil {
			return nil, reason
		}
		selectedResults[k] = res
		if res.Makespan > mu {
			mu = res.Makespan
			repIdx = k
		}
	}
	rep := selectedResults[repIdx]

	remainingMus := make([]float64, len(remaining))
	for k, idx := range remaining {
		mm, reason := h.buildScenarioModel(alloc, mutexPairs, h.Pool[idx])
		if reason != nil {
			return nil, reason
		}
		res, reason := solve(mm, orientation)
		if reason != nil {
			return nil, reason
		}
		remainingMus[k] = res.Makespan
	}

	p0 := h.Gamma - h.GammaDelta
	p1 := h.Gamma + h.GammaDelta
	test := NewSPRT(p0, p1, h.SprtAlpha, h.SprtBeta)

	maxInflations := h.MaxInflations
	if maxInflations <= 0 {
		maxInflations = 1
	}

	for attempt := 0; attempt <= maxInflations; attempt++ {
		cursor := 0
		source := func() (bool, bool) {
			if cursor >= len(remainingMus) {
				return false, false
			}
			bad := remainingMus[cursor] > mu
			cursor++
			return bad, true
		}
		verdict, sprtErr := test.Run(len(remainingMus), source)
		if sprtErr == nil && verdict == VerdictAcceptH0 {
			return schedule.Schedule{
				Makespan_:  mu,
				Start:      rep.Start,
				End:        rep.End,
				MutexOrder: orientationOrder(rep.Orientation),
			}, nil
		}
		if attempt == maxInflations {
			return nil, failure.NewSchedulerTimeout(fmt.Sprintf("ha: SPRT did not accept after %d inflation(s)", attempt))
		}
		if h.InflateMultiplicative {
			mu *= h.InflateFactor
		} else {
			mu += h.InflateFactor
		}
	}
	return nil, failure.NewSchedulerTimeout("ha: exhausted inflation budget")
}

func orientationOrder(orientation map[precedence.Pair]bool) []precedence.Pair {
	var order []precedence.Pair
	for pair, iFirst := range orientation {
		if iFirst {
			order = append(order, pair)
		} else {
			order = append(order, precedence.Pair{I: pair.J, J: pair.I})
		}
	}
	sort.Slice(order, func(a, b int) bool {
		if order[a].I != order[b].I {
			return order[a].I < order[b].I
		}
		return order[a].J < order[b].J
	})
	return order
}

func (h HA) buildScenarioModel(alloc allocnode.Allocation, mutexPairs []precedence.Pair, mem *motionplan.Memoizer) (milp.Model, failure.Reason) {
	taskVars := make([]milp.TaskVar, len(h.Tasks))
	for i, task := range h.Tasks {
		var lb float64
		for _, r := range alloc.RobotsForTask(i) {
			robot := h.Robots[r]
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
		deltaIJ, reason := h.transitionDelta(alloc, mem, pair.I, pair.J)
		if reason != nil {
			return milp.Model{}, reason
		}
		deltaJI, reason := h.transitionDelta(alloc, mem, pair.J, pair.I)
		if reason != nil {
			return milp.Model{}, reason
		}
		mutexVars = append(mutexVars, milp.MutexVar{I: pair.I, J: pair.J, DeltaIToJ: deltaIJ, DeltaJToI: deltaJI})
	}

	return milp.Model{Tasks: taskVars, Precedence: h.Precedence, Mutex: mutexVars}, nil
}

func (h HA) transitionDelta(alloc allocnode.Allocation, mem *motionplan.Memoizer, i, j int) (float64, failure.Reason) {
	inI := make(map[int]struct{})
	for _, r := range alloc.RobotsForTask(i) {
		inI[r] = struct{}{}
	}
	var delta float64
	for _, r := range alloc.RobotsForTask(j) {
		if _, shared := inI[r]; !shared {
			continue
		}
		robot := h.Robots[r]
		d, ok := mem.Query(robot.SpeciesID, h.Tasks[i].Terminal, h.Tasks[j].Initial)
		if !ok {
			return 0, failure.NewMotionPlanImpossible(fmt.Sprintf("%s->%s", h.Tasks[i].ID, h.Tasks[j].ID), robot.ID)
		}
		if d > delta {
			delta = d
		}
	}
	return delta, nil
}
