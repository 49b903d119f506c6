// Package failure defines the typed failure reasons returned by the
// scheduler and search components instead of (or alongside) plain errors.
//
// A Reason is a domain result, not a programmer error: callers are expected
// to branch on Kind() and keep going (the previous-failure pruner records
// them, the ITAGS driver tallies them in its Statistics). LogicError is the
// one kind that signals a programmer bug and is expected to abort the
// process with a diagnostic rather than be handled.
package failure

import "fmt"

// Kind enumerates the categories of failure reason produced by this module.
type Kind int

const (
	// KindMilpFailure indicates the solver reported infeasible, or the
	// returned model had no valid variable assignment.
	KindMilpFailure Kind = iota
	// KindSchedulerTimeout indicates the solver exceeded its wall budget.
	KindSchedulerTimeout
	// KindMotionPlanImpossible indicates at least one required motion plan
	// returned no path.
	KindMotionPlanImpossible
	// KindCycleDetected indicates a precedence-plus-chosen-mutex set induces
	// a cycle.
	KindCycleDetected
	// KindTraitsInfeasible indicates trait satisfaction cannot be achieved
	// by any allocation.
	KindTraitsInfeasible
	// KindTimeoutFailure indicates the overall ITAGS wall-clock budget was
	// exceeded.
	KindTimeoutFailure
	// KindLogicError indicates an invariant violation: a programmer bug.
	KindLogicError
)

// String renders a Kind for logs and error messages.
func (k Kind) String() string {
	switch k {
	case KindMilpFailure:
		return "MilpFailure"
	case KindSchedulerTimeout:
		return "SchedulerTimeout"
	case KindMotionPlanImpossible:
		return "MotionPlanImpossible"
	case KindCycleDetected:
		return "CycleDetected"
	case KindTraitsInfeasible:
		return "TraitsInfeasible"
	case KindTimeoutFailure:
		return "TimeoutFailure"
	case KindLogicError:
		return "LogicError"
	default:
		return "UnknownFailure"
	}
}

// Reason is a typed failure returned in place of (or alongside) a Schedule
// or a search result. It implements error so it can be wrapped and checked
// with errors.As, but callers in this module branch on Kind() directly.
type Reason interface {
	error
	Kind() Kind
}

// base carries the fields common to every reason: its kind and a free-form
// message for logs.
type base struct {
	kind Kind
	msg  string
}

func (b base) Kind() Kind    { return b.kind }
func (b base) Error() string { return fmt.Sprintf("%s: %s", b.kind, b.msg) }

// MilpReason wraps base for KindMilpFailure.
type MilpReason struct{ base }

// NewMilpFailure builds a KindMilpFailure reason.
func NewMilpFailure(msg string) MilpReason {
	return MilpReason{base{kind: KindMilpFailure, msg: msg}}
}

// SchedulerTimeoutReason wraps base for KindSchedulerTimeout.
type SchedulerTimeoutReason struct{ base }

// NewSchedulerTimeout builds a KindSchedulerTimeout reason.
func NewSchedulerTimeout(msg string) SchedulerTimeoutReason {
	return SchedulerTimeoutReason{base{kind: KindSchedulerTimeout, msg: msg}}
}

// MotionPlanImpossibleReason carries the offending task/robot pair that
// could not be planned for, per spec.md §7's payload requirement.
type MotionPlanImpossibleReason struct {
	base
	Task  string
	Robot string
}

// NewMotionPlanImpossible builds a KindMotionPlanImpossible reason naming
// the task and robot (or pair) for which no path was found.
func NewMotionPlanImpossible(task, robot string) MotionPlanImpossibleReason {
	return MotionPlanImpossibleReason{
		base:  base{kind: KindMotionPlanImpossible, msg: fmt.Sprintf("no motion plan for task=%q robot=%q", task, robot)},
		Task:  task,
		Robot: robot,
	}
}

// CycleDetectedReason wraps base for KindCycleDetected.
type CycleDetectedReason struct{ base }

// NewCycleDetected builds a KindCycleDetected reason.
func NewCycleDetected(msg string) CycleDetectedReason {
	return CycleDetectedReason{base{kind: KindCycleDetected, msg: msg}}
}

// TraitsInfeasibleReason wraps base for KindTraitsInfeasible.
type TraitsInfeasibleReason struct{ base }

// NewTraitsInfeasible builds a KindTraitsInfeasible reason.
func NewTraitsInfeasible(msg string) TraitsInfeasibleReason {
	return TraitsInfeasibleReason{base{kind: KindTraitsInfeasible, msg: msg}}
}

// TimeoutFailureReason wraps base for KindTimeoutFailure.
type TimeoutFailureReason struct{ base }

// NewTimeoutFailure builds a KindTimeoutFailure reason.
func NewTimeoutFailure(msg string) TimeoutFailureReason {
	return TimeoutFailureReason{base{kind: KindTimeoutFailure, msg: msg}}
}

// LogicErrorReason wraps base for KindLogicError. Per spec.md §7 policy,
// a LogicError is expected to abort the process immediately with a
// diagnostic rather than propagate through normal result handling.
type LogicErrorReason struct{ base }

// NewLogicError builds a KindLogicError reason.
func NewLogicError(msg string) LogicErrorReason {
	return LogicErrorReason{base{kind: KindLogicError, msg: msg}}
}
