// Package heuristic scores an allocnode.Node per spec.md §4.3: APR (trait
// mismatch ratio), NAQ (linear-quality ratio), POS/NSQ (schedule-derived
// makespan ratios), and TETAQ = α·APR + (1−α)·NSQ, the value ITAGS' open
// set is keyed on. NSQ and POS invoke a Scheduler and hand the resulting
// schedule (or failure reason) to the caller-supplied success/failure
// callbacks — the mechanism by which the previous-failure pruner learns
// which allocations are infeasible. The schedule is not stored on the node;
// a caller that needs it later keeps it from the success callback.
package heuristic

import (
	"errors"
	"math"

	"github.com/grstapse-go/stapse/allocnode"
	"github.com/grstapse-go/stapse/failure"
	"github.com/grstapse-go/stapse/traitmath"
)

// ErrSchedulerInfeasible is TETAQ's error when the configured Scheduler
// failed to produce a schedule for a node. A heuristic receiving a
// scheduler failure treats the node as deadend; callers distinguish this
// from other non-nil errors (traitmath shape mismatches, etc.) by checking
// errors.Is against this sentinel, or equivalently by checking
// math.IsInf(h, 1) on the returned value.
var ErrSchedulerInfeasible = errors.New("heuristic: scheduler reported infeasible allocation")

// Schedule is the minimal surface heuristic needs from a computed schedule:
// its makespan. Richer fields (timepoints, mutex orientation) live on the
// concrete schedule.Schedule type the scheduler actually returns; heuristic
// only depends on this narrow interface to avoid importing the scheduler
// packages (schedule → milp/stochastic → motionplan), which would cycle
// back through heuristic's own callers in search.
type Schedule interface {
	Makespan() float64
}

// Scheduler computes a Schedule for a fixed allocation, or a failure.Reason
// if none exists within budget.
type Scheduler interface {
	Solve(alloc allocnode.Allocation) (Schedule, failure.Reason)
}

// Bounds carries the pre-computed μ_max/μ_worst/μ_best reference points POS
// and NSQ normalize against (§4.3, §4.7).
type Bounds struct {
	MuBest  float64
	MuMax   float64
	MuWorst float64
}

// Callbacks are invoked by NSQ/POS after every scheduler call, letting the
// previous-failure pruner (OnFailure) and any external bookkeeping
// (OnSuccess) observe every schedule attempt ITAGS makes, not just the ones
// that end up on the winning path.
type Callbacks struct {
	OnSuccess func(n *allocnode.Node, s Schedule)
	OnFailure func(n *allocnode.Node, reason failure.Reason)
}

// Config bundles the static inputs APR/NAQ need (trait matrices) and the
// scheduler/bounds/callbacks NSQ/POS need.
type Config struct {
	Desired      traitmath.Matrix
	RobotTraits  traitmath.Matrix
	LinearCoeffs traitmath.Matrix
	Reduction    traitmath.Reduction
	Scheduler    Scheduler
	Bounds       Bounds
	Callbacks    Callbacks
}

// APR computes ε(A(n)) / ‖Y‖₁ — zero iff traits are satisfied.
func APR(cfg Config, n *allocnode.Node) (float64, error) {
	allocated, err := traitmath.AllocatedTraitsMatrix(n.Allocation, cfg.RobotTraits, cfg.Reduction)
	if err != nil {
		return 0, err
	}
	eps, err := traitmath.MismatchError(cfg.Desired, allocated)
	if err != nil {
		return 0, err
	}
	norm := traitmath.L1Norm(cfg.Desired)
	if norm == 0 {
		return 0, nil
	}
	return eps / norm, nil
}

// NAQ computes (Q_max − ⟨Ŷ(A),C⟩) / (Q_max − Q_min), Q_min = 0,
// Q_max = ⟨Q·1,C⟩ (the quality of every robot contributing to every task).
func NAQ(cfg Config, n *allocnode.Node) (float64, error) {
	allocated, err := traitmath.AllocatedTraitsMatrix(n.Allocation, cfg.RobotTraits, cfg.Reduction)
	if err != nil {
		return 0, err
	}
	quality, err := traitmath.LinearQuality(allocated, cfg.LinearCoeffs)
	if err != nil {
		return 0, err
	}
	qMax := allOnesQuality(cfg)
	if qMax == 0 {
		return 0, nil
	}
	return (qMax - quality) / qMax, nil
}

// allOnesQuality computes Q_max = ⟨Q·1, C⟩: the linear quality of the
// all-ones allocation, i.e. every robot's traits summed once per task and
// dotted with that task's coefficient row.
func allOnesQuality(cfg Config) float64 {
	sumTraits := make([]float64, cfg.RobotTraits.Cols())
	for _, row := range cfg.RobotTraits {
		for j, v := range row {
			sumTraits[j] += v
		}
	}
	var total float64
	for _, coeffRow := range cfg.LinearCoeffs {
		for j, c := range coeffRow {
			if j < len(sumTraits) {
				total += sumTraits[j] * c
			}
		}
	}
	return total
}

// NSQ computes the normalized makespan ratio. If the scheduler fails, NSQ
// is +Inf (effectively prunes the node in a min-heap) and the node's
// failure is reported via cfg.Callbacks.OnFailure.
func NSQ(cfg Config, n *allocnode.Node) float64 {
	if cfg.Scheduler == nil {
		return 0
	}
	sched, reason := cfg.Scheduler.Solve(n.Allocation)
	if reason != nil {
		if cfg.Callbacks.OnFailure != nil {
			cfg.Callbacks.OnFailure(n, reason)
		}
		return math.Inf(1)
	}
	if cfg.Callbacks.OnSuccess != nil {
		cfg.Callbacks.OnSuccess(n, sched)
	}
	denom := cfg.Bounds.MuWorst - cfg.Bounds.MuBest
	if denom <= 0 {
		return 0
	}
	return (sched.Makespan() - cfg.Bounds.MuBest) / denom
}

// POS computes max(0, (μ(n) − μ_max) / (μ_worst − μ_max)).
func POS(cfg Config, n *allocnode.Node) float64 {
	if cfg.Scheduler == nil {
		return 0
	}
	sched, reason := cfg.Scheduler.Solve(n.Allocation)
	if reason != nil {
		if cfg.Callbacks.OnFailure != nil {
			cfg.Callbacks.OnFailure(n, reason)
		}
		return math.Inf(1)
	}
	if cfg.Callbacks.OnSuccess != nil {
		cfg.Callbacks.OnSuccess(n, sched)
	}
	denom := cfg.Bounds.MuWorst - cfg.Bounds.MuMax
	if denom <= 0 {
		return 0
	}
	v := (sched.Makespan() - cfg.Bounds.MuMax) / denom
	if v < 0 {
		return 0
	}
	return v
}

// TETAQ computes α·APR(n) + (1−α)·NSQ(n), the value ITAGS' priority queue
// is keyed on.
func TETAQ(cfg Config, n *allocnode.Node, alpha float64) (float64, error) {
	apr, err := APR(cfg, n)
	if err != nil {
		return 0, err
	}
	nsq := NSQ(cfg, n)
	if math.IsInf(nsq, 1) {
		return math.Inf(1), ErrSchedulerInfeasible
	}
	return alpha*apr + (1-alpha)*nsq, nil
}
