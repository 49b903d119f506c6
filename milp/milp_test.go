package milp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/grstapse-go/stapse/failure"
	"github.com/grstapse-go/stapse/milp"
	"github.com/grstapse-go/stapse/precedence"
)

func TestGreedyLPSolver_SingleTaskNoConstraints(t *testing.T) {
	m := milp.Model{
		Tasks: []milp.TaskVar{{StaticDuration: 3, LowerBound: 1}},
	}
	res, reason := milp.GreedyLPSolver{}.Solve(m)
	assert.Nil(t, reason)
	assert.Equal(t, []float64{1}, res.Start)
	assert.Equal(t, []float64{4}, res.End)
	assert.Equal(t, 4.0, res.Makespan)
}

func TestGreedyLPSolver_PrecedenceChain(t *testing.T) {
	m := milp.Model{
		Tasks: []milp.TaskVar{
			{StaticDuration: 2, LowerBound: 0},
			{StaticDuration: 3, LowerBound: 0},
		},
		Precedence: []precedence.Pair{{I: 0, J: 1}},
	}
	res, reason := milp.GreedyLPSolver{}.Solve(m)
	assert.Nil(t, reason)
	assert.Equal(t, []float64{0, 2}, res.Start)
	assert.Equal(t, 5.0, res.Makespan)
}

func TestGreedyLPSolver_ReturnHomeExtendsMakespan(t *testing.T) {
	m := milp.Model{
		Tasks: []milp.TaskVar{{StaticDuration: 1, LowerBound: 0, ReturnHome: 5}},
	}
	res, reason := milp.GreedyLPSolver{}.Solve(m)
	assert.Nil(t, reason)
	assert.Equal(t, 6.0, res.Makespan)
}

func TestGreedyLPSolver_MutexOrientsCheaperDirection(t *testing.T) {
	m := milp.Model{
		Tasks: []milp.TaskVar{
			{StaticDuration: 1, LowerBound: 0},
			{StaticDuration: 1, LowerBound: 0},
		},
		Mutex: []milp.MutexVar{{I: 0, J: 1, DeltaIToJ: 2, DeltaJToI: 10}},
	}
	res, reason := milp.GreedyLPSolver{}.Solve(m)
	assert.Nil(t, reason)
	assert.True(t, res.Orientation[precedence.Pair{I: 0, J: 1}])
	// task0 ends at 1, task1 starts no earlier than 1+2=3, ends at 4.
	assert.Equal(t, 4.0, res.Makespan)
}

func TestGreedyLPSolver_MutexOrientsOtherDirectionWhenCheaper(t *testing.T) {
	m := milp.Model{
		Tasks: []milp.TaskVar{
			{StaticDuration: 1, LowerBound: 0},
			{StaticDuration: 1, LowerBound: 0},
		},
		Mutex: []milp.MutexVar{{I: 0, J: 1, DeltaIToJ: 10, DeltaJToI: 2}},
	}
	res, reason := milp.GreedyLPSolver{}.Solve(m)
	assert.Nil(t, reason)
	assert.False(t, res.Orientation[precedence.Pair{I: 0, J: 1}])
	assert.Equal(t, 4.0, res.Makespan)
}

func TestSolveWithOrientation_UsesGivenOrientationOverDeltas(t *testing.T) {
	m := milp.Model{
		Tasks: []milp.TaskVar{
			{StaticDuration: 1, LowerBound: 0},
			{StaticDuration: 1, LowerBound: 0},
		},
		Mutex: []milp.MutexVar{{I: 0, J: 1, DeltaIToJ: 2, DeltaJToI: 10}},
	}
	forced := map[precedence.Pair]bool{{I: 0, J: 1}: false}
	res, reason := milp.SolveWithOrientation(m, forced)
	assert.Nil(t, reason)
	assert.False(t, res.Orientation[precedence.Pair{I: 0, J: 1}])
	// forced j-before-i: task1 ends at 1, task0 starts no earlier than 1+10=11.
	assert.Equal(t, 12.0, res.Makespan)
}

func TestGreedyLPSolver_CycleDetected(t *testing.T) {
	m := milp.Model{
		Tasks: []milp.TaskVar{
			{StaticDuration: 1},
			{StaticDuration: 1},
		},
		Precedence: []precedence.Pair{{I: 0, J: 1}},
		Mutex:      []milp.MutexVar{{I: 1, J: 0, DeltaIToJ: 1, DeltaJToI: 1}},
	}
	_, reason := milp.GreedyLPSolver{}.Solve(m)
	assert.NotNil(t, reason)
	assert.Equal(t, failure.KindCycleDetected, reason.Kind())
}

func TestLongestChainBound_SingleChain(t *testing.T) {
	tasks := []milp.TaskVar{
		{StaticDuration: 2},
		{StaticDuration: 5},
		{StaticDuration: 1},
	}
	pairs := []precedence.Pair{{I: 0, J: 1}}
	bound, err := milp.LongestChainBound(tasks, pairs)
	assert.NoError(t, err)
	assert.Equal(t, 7.0, bound) // chain 0->1: 2+5; task2 isolated at 1
}

func TestLongestChainBound_NoPairsIsMaxSingleDuration(t *testing.T) {
	tasks := []milp.TaskVar{{StaticDuration: 2}, {StaticDuration: 9}}
	bound, err := milp.LongestChainBound(tasks, nil)
	assert.NoError(t, err)
	assert.Equal(t, 9.0, bound)
}
