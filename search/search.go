// Package search implements the ITAGS driver of spec.md §4.1: a greedy
// best-first search over partial allocation matrices, generalizing the
// teacher's dijkstra package's container/heap priority-queue pattern from
// a single-source shortest-path loop to an open/closed expansion loop over
// allocnode.Node successors, scored by a heuristic.Config and filtered by
// pruning.Pruner/goalcheck.GoalCheck.
package search

import (
	"container/heap"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/grstapse-go/stapse/allocnode"
	"github.com/grstapse-go/stapse/failure"
	"github.com/grstapse-go/stapse/goalcheck"
	"github.com/grstapse-go/stapse/heuristic"
	"github.com/grstapse-go/stapse/idalloc"
	"github.com/grstapse-go/stapse/pruning"
	"github.com/grstapse-go/stapse/successor"
	"github.com/grstapse-go/stapse/timekeeper"
)

// Statistics tallies the counters spec.md §4.1/§6 require in the solution
// output: nodes generated/expanded/evaluated/pruned/deadend/reopened, plus
// wall-clock per phase via a timekeeper.Registry.
type Statistics struct {
	NodesGenerated int
	NodesExpanded  int
	NodesEvaluated int
	NodesPruned    int
	NodesDeadend   int
	NodesReopened  int
	Timers         *timekeeper.Registry
}

// Config bundles everything the ITAGS driver needs per spec.md §4.1's
// contract: a successor generator, a heuristic configuration, a goal check,
// pre/post pruners, and the allocatability precheck/timeout knobs.
type Config struct {
	NumTasks, NumRobots int

	SuccessorGenerator successor.Generator
	Heuristic          heuristic.Config
	Alpha              float64
	GoalCheck          goalcheck.GoalCheck

	PrePrune  pruning.Pruner // applied to a freshly-built successor, before scoring
	PostPrune pruning.Pruner // applied to a popped node, before expansion

	UseReverse bool // successor generator/allocatability precheck run in reverse mode

	Timeout                time.Duration
	ReturnFeasibleOnTimeout bool

	Logger hclog.Logger
}

// Result is the outcome of a Run: either Node is non-nil (goal reached, or
// the best feasible leaf under return-feasible-on-timeout), or Reason
// explains why not.
type Result struct {
	RunID      string
	Node       *allocnode.Node
	Reason     failure.Reason
	Statistics Statistics
}

// openItem is one entry of the open set: a node plus its heuristic value
// and insertion sequence, the FIFO tie-break spec.md §4.1/§5 require for
// deterministic equal-heuristic ordering.
type openItem struct {
	node  *allocnode.Node
	h     float64
	seq   int
	index int
}

type openQueue []*openItem

func (q openQueue) Len() int { return len(q) }
func (q openQueue) Less(i, j int) bool {
	if q[i].h != q[j].h {
		return q[i].h < q[j].h
	}
	return q[i].seq < q[j].seq
}
func (q openQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index, q[j].index = i, j
}
func (q *openQueue) Push(x interface{}) {
	item := x.(*openItem)
	item.index = len(*q)
	*q = append(*q, item)
}
func (q *openQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*q = old[:n-1]
	return item
}

// bestLeaf tracks the best traits-feasible node seen so far, for
// ReturnFeasibleOnTimeout.
type bestLeaf struct {
	node *allocnode.Node
	apr  float64
	set  bool
}

func (b *bestLeaf) consider(n *allocnode.Node, apr float64) {
	if apr > 0 {
		return
	}
	if !b.set || apr < b.apr {
		b.node, b.apr, b.set = n, apr, true
	}
}

// Run executes the ITAGS search described in spec.md §4.1. It assigns the
// run a fresh UUID so callers (and the eventual solution JSON) can
// correlate statistics and logs with a single search invocation.
func Run(cfg Config) Result {
	runID := uuid.NewString()
	logger := cfg.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	logger = logger.With("run_id", runID)

	stats := Statistics{Timers: timekeeper.New()}
	stopSearch := stats.Timers.Scoped("search")
	defer stopSearch()

	// nodeIDs gives every generated node a debug-log-friendly sequential ID,
	// scoped to this Run so concurrent searches don't share a counter; its
	// live population tracks nodes still under active consideration
	// (released the moment a node is pruned or deadended).
	nodeIDs := idalloc.NewCounter[int](0)

	if !cfg.UseReverse {
		if reason := precheckAllocatability(cfg); reason != nil {
			return Result{RunID: runID, Reason: reason, Statistics: stats}
		}
	}

	var root *allocnode.Node
	var err error
	if cfg.UseReverse {
		allOnes := allocnode.NewAllocation(cfg.NumTasks, cfg.NumRobots)
		for m := 0; m < cfg.NumTasks; m++ {
			for r := 0; r < cfg.NumRobots; r++ {
				allOnes[m][r] = true
			}
		}
		root, err = allocnode.NewChild(nil, allOnes)
	} else {
		root, err = allocnode.NewRoot(cfg.NumTasks, cfg.NumRobots)
	}
	if err != nil {
		return Result{RunID: runID, Reason: failure.NewLogicError("search: build root: " + err.Error()), Statistics: stats}
	}
	stats.NodesGenerated++
	nodeIDs.Alloc()

	open := &openQueue{}
	heap.Init(open)
	seq := 0
	pushNode := func(n *allocnode.Node, h float64) {
		seq++
		heap.Push(open, &openItem{node: n, h: h, seq: seq})
	}

	rootH, herr := heuristic.TETAQ(cfg.Heuristic, root, cfg.Alpha)
	if math.IsInf(rootH, 1) {
		// A scheduler failure on the root allocation is a deadend, not a
		// logic error, per spec.md §4.3's rule that a scheduler-infeasible
		// node is treated as deadend regardless of how the heuristic
		// signals it (sentinel error or +Inf value).
		stats.NodesDeadend++
		nodeIDs.Release()
		return Result{RunID: runID, Reason: failure.NewTraitsInfeasible("search: root allocation infeasible under scheduler"), Statistics: stats}
	}
	if herr != nil {
		stats.NodesDeadend++
		nodeIDs.Release()
		return Result{RunID: runID, Reason: failure.NewLogicError("search: root heuristic: " + herr.Error()), Statistics: stats}
	}
	stats.NodesEvaluated++
	pushNode(root, rootH)

	closed := make(map[uint64]float64)
	deadline := time.Now().Add(cfg.Timeout)
	var best bestLeaf

	for open.Len() > 0 {
		if cfg.Timeout > 0 && time.Now().After(deadline) {
			if cfg.ReturnFeasibleOnTimeout && best.set {
				return Result{RunID: runID, Node: best.node, Statistics: stats}
			}
			return Result{RunID: runID, Reason: failure.NewTimeoutFailure("search: wall-clock budget exceeded"), Statistics: stats}
		}

		item := heap.Pop(open).(*openItem)
		n := item.node

		hash := n.Hash()
		if seen, ok := closed[hash]; ok && seen <= item.h {
			continue
		}
		closed[hash] = item.h

		stats.NodesExpanded++

		if apr, err := heuristic.APR(cfg.Heuristic, n); err == nil {
			best.consider(n, apr)
		}

		ok, err := cfg.GoalCheck.IsGoal(n)
		if err != nil {
			return Result{RunID: runID, Reason: failure.NewLogicError("search: goal check: " + err.Error()), Statistics: stats}
		}
		if ok {
			logger.Debug("goal reached", "depth", n.Depth)
			return Result{RunID: runID, Node: n, Statistics: stats}
		}

		if cfg.PostPrune != nil && cfg.PostPrune.Prune(n) {
			stats.NodesPruned++
			nodeIDs.Release()
			continue
		}

		gen := cfg.SuccessorGenerator
		for _, e := range gen.Candidates(n, cfg.NumTasks, cfg.NumRobots) {
			child, err := gen.Apply(n, e)
			if err != nil {
				continue // duplicate/invalid increment, per spec.md §4.2's edge applier
			}
			stats.NodesGenerated++
			nodeIDs.Alloc()

			if cfg.PrePrune != nil && cfg.PrePrune.Prune(child) {
				stats.NodesPruned++
				nodeIDs.Release()
				continue
			}

			h, reason := heuristic.TETAQ(cfg.Heuristic, child, cfg.Alpha)
			// A scheduler failure on child (reported as a non-nil reason, a
			// +Inf heuristic value, or both) is a deadend: the allocation is
			// dropped from the open set instead of being pushed with an
			// unusable score.
			if reason != nil || math.IsInf(h, 1) {
				stats.NodesDeadend++
				nodeIDs.Release()
				continue
			}
			stats.NodesEvaluated++

			childHash := child.Hash()
			if seen, ok := closed[childHash]; ok {
				if seen <= h {
					nodeIDs.Release()
					continue
				}
				stats.NodesReopened++
			}
			pushNode(child, h)
		}
	}

	if cfg.ReturnFeasibleOnTimeout && best.set {
		return Result{RunID: runID, Node: best.node, Statistics: stats}
	}
	return Result{RunID: runID, Reason: failure.NewTraitsInfeasible("search: open set exhausted"), Statistics: stats}
}

// precheckAllocatability implements spec.md §4.1's precheck: the all-ones
// allocation must satisfy traits (ε=0), else the problem is infeasible
// before any search begins. Skipped entirely in reverse mode by Run's
// caller, since reverse search starts from the all-ones matrix itself.
func precheckAllocatability(cfg Config) failure.Reason {
	allOnes := allocnode.NewAllocation(cfg.NumTasks, cfg.NumRobots)
	for m := 0; m < cfg.NumTasks; m++ {
		for r := 0; r < cfg.NumRobots; r++ {
			allOnes[m][r] = true
		}
	}
	node, err := allocnode.NewChild(nil, allOnes)
	if err != nil {
		return failure.NewLogicError("search: precheck: " + err.Error())
	}
	apr, err := heuristic.APR(cfg.Heuristic, node)
	if err != nil {
		return failure.NewLogicError("search: precheck APR: " + err.Error())
	}
	if apr > 0 {
		return failure.NewTraitsInfeasible("search: no allocation can satisfy trait demand")
	}
	return nil
}
