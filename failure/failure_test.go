package failure_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/grstapse-go/stapse/failure"
)

func TestKind_String(t *testing.T) {
	assert.Equal(t, "MilpFailure", failure.KindMilpFailure.String())
	assert.Equal(t, "TraitsInfeasible", failure.KindTraitsInfeasible.String())
	assert.Equal(t, "UnknownFailure", failure.Kind(999).String())
}

func TestNewMilpFailure(t *testing.T) {
	var r failure.Reason = failure.NewMilpFailure("infeasible model")
	assert.Equal(t, failure.KindMilpFailure, r.Kind())
	assert.Contains(t, r.Error(), "infeasible model")
}

func TestNewMotionPlanImpossible_CarriesPayload(t *testing.T) {
	r := failure.NewMotionPlanImpossible("task1", "robotA")
	assert.Equal(t, failure.KindMotionPlanImpossible, r.Kind())
	assert.Equal(t, "task1", r.Task)
	assert.Equal(t, "robotA", r.Robot)
	assert.Contains(t, r.Error(), "task1")
	assert.Contains(t, r.Error(), "robotA")
}

func TestEachReason_ImplementsReason(t *testing.T) {
	reasons := []failure.Reason{
		failure.NewMilpFailure("x"),
		failure.NewSchedulerTimeout("x"),
		failure.NewMotionPlanImpossible("t", "r"),
		failure.NewCycleDetected("x"),
		failure.NewTraitsInfeasible("x"),
		failure.NewTimeoutFailure("x"),
		failure.NewLogicError("x"),
	}
	kinds := make(map[failure.Kind]bool, len(reasons))
	for _, r := range reasons {
		assert.NotEmpty(t, r.Error())
		kinds[r.Kind()] = true
	}
	assert.Len(t, kinds, len(reasons)) // every reason has a distinct kind
}
