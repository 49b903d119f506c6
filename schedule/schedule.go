// Package schedule builds a milp.Model from a fixed allocation and a
// problem's tasks/robots/precedence/motion-planner memoization, runs a
// milp.Solver over it, and wraps the result as a Schedule implementing
// heuristic.Schedule. This is the "glue" component named in spec.md §4.5:
// the deterministic scheduler itself is the milp package; schedule adapts
// domain objects (model.Task, model.Robot, allocnode.Allocation) into the
// milp package's variable/constraint shape.
package schedule

import (
	"fmt"

	"github.com/hashicorp/go-set/v3"

	"github.com/grstapse-go/stapse/allocnode"
	"github.com/grstapse-go/stapse/failure"
	"github.com/grstapse-go/stapse/heuristic"
	"github.com/grstapse-go/stapse/milp"
	"github.com/grstapse-go/stapse/model"
	"github.com/grstapse-go/stapse/motionplan"
	"github.com/grstapse-go/stapse/precedence"
)

// Schedule is the immutable record returned to callers: makespan, optional
// per-task timepoints, and the chosen mutex orientation. It implements
// heuristic.Schedule via Makespan().
type Schedule struct {
	Makespan_   float64
	Start       []float64
	End         []float64
	MutexOrder  []precedence.Pair // i precedes j
}

// Makespan implements heuristic.Schedule.
func (s Schedule) Makespan() float64 { return s.Makespan_ }

// Deterministic is the deterministic MILP scheduler of spec.md §4.5: it
// builds a milp.Model for a given allocation and solves it with Solver
// (GreedyLPSolver by default).
type Deterministic struct {
	Tasks      []model.Task
	Robots     []model.Robot
	Species    map[string]model.Species
	Memoizer   *motionplan.Memoizer
	Precedence []precedence.Pair
	Solver     milp.Solver
}

// Solve implements heuristic.Scheduler.
func (d Deterministic) Solve(alloc allocnode.Allocation) (heuristic.Schedule, failure.Reason) {
	m, reason := d.buildModel(alloc)
	if reason != nil {
		return nil, reason
	}

	solver := d.Solver
	if solver == nil {
		solver = milp.GreedyLPSolver{}
	}
	result, reason := solver.Solve(m)
	if reason != nil {
		return nil, reason
	}

	var order []precedence.Pair
	for pair, iFirst := range result.Orientation {
		if iFirst {
			order = append(order, pair)
		} else {
			order = append(order, precedence.Pair{I: pair.J, J: pair.I})
		}
	}

	return Schedule{
		Makespan_:  result.Makespan,
		Start:      result.Start,
		End:        result.End,
		MutexOrder: order,
	}, nil
}

func (d Deterministic) buildModel(alloc allocnode.Allocation) (milp.Model, failure.Reason) {
	closure, err := precedenceClosure(len(d.Tasks), d.Precedence)
	if err != nil {
		return milp.Model{}, failure.NewCycleDetected(err.Error())
	}

	taskVars := make([]milp.TaskVar, len(d.Tasks))
	for m, task := range d.Tasks {
		coalition := alloc.RobotsForTask(m)
		var lb float64
		for _, r := range coalition {
			robot := d.Robots[r]
			dur, ok := d.Memoizer.Query(robot.SpeciesID, robot.Start, task.Initial)
			if !ok {
				return milp.Model{}, failure.NewMotionPlanImpossible(task.ID, robot.ID)
			}
			if dur > lb {
				lb = dur
			}
		}
		taskVars[m] = milp.TaskVar{StaticDuration: taskDuration(task), LowerBound: lb}
	}

	mutexPairs := precedence.MutexPairs(alloc, closure)
	mutexVars := make([]milp.MutexVar, 0, len(mutexPairs))
	for _, pair := range mutexPairs {
		deltaIJ, err := d.transitionDelta(alloc, pair.I, pair.J)
		if err != nil {
			return milp.Model{}, err
		}
		deltaJI, err := d.transitionDelta(alloc, pair.J, pair.I)
		if err != nil {
			return milp.Model{}, err
		}
		mutexVars = append(mutexVars, milp.MutexVar{I: pair.I, J: pair.J, DeltaIToJ: deltaIJ, DeltaJToI: deltaJI})
	}

	return milp.Model{Tasks: taskVars, Precedence: d.Precedence, Mutex: mutexVars}, nil
}

// transitionDelta computes δ(i,j): the max, over robots in
// coalition(i)∩coalition(j), of the motion duration from terminal(i) to
// initial(j) for that robot's species. Zero if the intersection is empty.
func (d Deterministic) transitionDelta(alloc allocnode.Allocation, i, j int) (float64, failure.Reason) {
	inI := make(map[int]struct{})
	for _, r := range alloc.RobotsForTask(i) {
		inI[r] = struct{}{}
	}
	var delta float64
	for _, r := range alloc.RobotsForTask(j) {
		if _, shared := inI[r]; !shared {
			continue
		}
		robot := d.Robots[r]
		dur, ok := d.Memoizer.Query(robot.SpeciesID, d.Tasks[i].Terminal, d.Tasks[j].Initial)
		if !ok {
			return 0, failure.NewMotionPlanImpossible(fmt.Sprintf("%s->%s", d.Tasks[i].ID, d.Tasks[j].ID), robot.ID)
		}
		if dur > delta {
			delta = dur
		}
	}
	return delta, nil
}

func taskDuration(t model.Task) float64 {
	return t.StaticDuration
}

func precedenceClosure(numTasks int, pairs []precedence.Pair) (*set.Set[precedence.Pair], error) {
	d, err := precedence.NewDAG(numTasks, pairs)
	if err != nil {
		return nil, err
	}
	return d.TransitiveClosure()
}
