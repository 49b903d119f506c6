// Package solution builds and serializes the Solution JSON document of
// spec.md §6: the winning allocation, the schedule it was produced for, and
// the search statistics, round-tripping through encoding/json — the same
// justified stdlib exception as stapsecfg's problem-inputs decode, since
// spec.md §1 places JSON serialization plumbing outside the core's scope.
package solution

import (
	"encoding/json"
	"fmt"

	"github.com/grstapse-go/stapse/allocnode"
	"github.com/grstapse-go/stapse/heuristic"
	"github.com/grstapse-go/stapse/model"
	"github.com/grstapse-go/stapse/precedence"
	"github.com/grstapse-go/stapse/schedule"
	"github.com/grstapse-go/stapse/search"
)

// TaskResult is one entry of Solution.Tasks.
type TaskResult struct {
	Name     string `json:"name"`
	ID       int    `json:"id"`
	Coalition []string `json:"coalition"`
}

// RobotResult is one entry of Solution.Robots.
type RobotResult struct {
	Name           string   `json:"name"`
	ID             int      `json:"id"`
	IndividualPlan []string `json:"individual_plan"`
}

// PrecedencePair is a (pred,succ) task-name pair, used for both the input
// precedence constraints and the resolved mutex orientation.
type PrecedencePair struct {
	Pred string `json:"pred"`
	Succ string `json:"succ"`
}

// Statistics mirrors search.Statistics in the wire schema's naming.
type Statistics struct {
	NodesGenerated int     `json:"nodes_generated"`
	NodesExpanded  int     `json:"nodes_expanded"`
	NodesEvaluated int     `json:"nodes_evaluated"`
	NodesPruned    int     `json:"nodes_pruned"`
	NodesDeadend   int     `json:"nodes_deadend"`
	NodesReopened  int     `json:"nodes_reopened"`
	SearchTimeSeconds float64 `json:"search_time_seconds"`
}

// Solution is the top-level document spec.md §6 names.
type Solution struct {
	RunID                       string           `json:"run_id"`
	Allocation                  [][]bool         `json:"allocation"`
	Makespan                    float64          `json:"makespan"`
	PrecedenceConstraints       []PrecedencePair `json:"precedence_constraints"`
	PrecedenceSetMutexConstraints []PrecedencePair `json:"precedence_set_mutex_constraints"`
	Tasks                       []TaskResult     `json:"tasks"`
	Robots                      []RobotResult    `json:"robots"`
	Statistics                  Statistics       `json:"statistics"`
}

// Build assembles a Solution from a successful search.Result, the fixed
// task/robot name ordering, the original precedence pairs, and the
// heuristic.Schedule attached to the goal node (the caller is expected to
// have captured it via heuristic.Callbacks.OnSuccess, since the node itself
// does not store one — see DESIGN.md's note on Schedule attachment).
func Build(res search.Result, tasks []model.Task, robots []model.Robot, precedencePairs []precedence.Pair, sched heuristic.Schedule) (Solution, error) {
	if res.Node == nil {
		return Solution{}, fmt.Errorf("solution: build called without a goal node")
	}
	alloc := res.Node.Allocation

	taskResults := make([]TaskResult, len(tasks))
	for m, t := range tasks {
		coalition := make([]string, 0)
		for _, r := range alloc.RobotsForTask(m) {
			coalition = append(coalition, robots[r].ID)
		}
		taskResults[m] = TaskResult{Name: t.ID, ID: m, Coalition: coalition}
	}

	robotResults := make([]RobotResult, len(robots))
	for r, robot := range robots {
		var plan []string
		for m, t := range tasks {
			if alloc[m][r] {
				plan = append(plan, t.ID)
			}
		}
		robotResults[r] = RobotResult{Name: robot.ID, ID: r, IndividualPlan: plan}
	}

	precedenceDoc := make([]PrecedencePair, 0, len(precedencePairs))
	for _, p := range precedencePairs {
		precedenceDoc = append(precedenceDoc, PrecedencePair{Pred: tasks[p.I].ID, Succ: tasks[p.J].ID})
	}

	var mutexDoc []PrecedencePair
	if concrete, ok := sched.(schedule.Schedule); ok {
		for _, p := range concrete.MutexOrder {
			mutexDoc = append(mutexDoc, PrecedencePair{Pred: tasks[p.I].ID, Succ: tasks[p.J].ID})
		}
	}

	makespan := 0.0
	if sched != nil {
		makespan = sched.Makespan()
	}

	return Solution{
		RunID:      res.RunID,
		Allocation: boolMatrix(alloc),
		Makespan:   makespan,
		PrecedenceConstraints:         precedenceDoc,
		PrecedenceSetMutexConstraints: mutexDoc,
		Tasks:  taskResults,
		Robots: robotResults,
		Statistics: Statistics{
			NodesGenerated: res.Statistics.NodesGenerated,
			NodesExpanded:  res.Statistics.NodesExpanded,
			NodesEvaluated: res.Statistics.NodesEvaluated,
			NodesPruned:    res.Statistics.NodesPruned,
			NodesDeadend:   res.Statistics.NodesDeadend,
			NodesReopened:  res.Statistics.NodesReopened,
			SearchTimeSeconds: res.Statistics.Timers.Time("search").Seconds(),
		},
	}, nil
}

func boolMatrix(a allocnode.Allocation) [][]bool {
	out := make([][]bool, len(a))
	for i, row := range a {
		out[i] = append([]bool(nil), row...)
	}
	return out
}

// Marshal renders s as indented JSON.
func Marshal(s Solution) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// Unmarshal parses data into a Solution.
func Unmarshal(data []byte) (Solution, error) {
	var s Solution
	if err := json.Unmarshal(data, &s); err != nil {
		return Solution{}, fmt.Errorf("solution: decode: %w", err)
	}
	return s, nil
}
