package precedence_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/grstapse-go/stapse/allocnode"
	"github.com/grstapse-go/stapse/precedence"
)

func TestNewDAG_DetectsCycle(t *testing.T) {
	_, err := precedence.NewDAG(2, []precedence.Pair{{I: 0, J: 1}, {I: 1, J: 0}})
	assert.ErrorIs(t, err, precedence.ErrCycleDetected)
}

func TestNewDAG_OutOfRangePair(t *testing.T) {
	_, err := precedence.NewDAG(1, []precedence.Pair{{I: 0, J: 5}})
	assert.Error(t, err)
}

func TestTopologicalOrder_LinearChain(t *testing.T) {
	d, err := precedence.NewDAG(3, []precedence.Pair{{I: 0, J: 1}, {I: 1, J: 2}})
	assert.NoError(t, err)
	order, err := d.TopologicalOrder()
	assert.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestTopologicalOrder_NoEdges(t *testing.T) {
	d, err := precedence.NewDAG(3, nil)
	assert.NoError(t, err)
	order, err := d.TopologicalOrder()
	assert.NoError(t, err)
	assert.ElementsMatch(t, []int{0, 1, 2}, order)
}

func TestTransitiveClosure_Chain(t *testing.T) {
	d, err := precedence.NewDAG(3, []precedence.Pair{{I: 0, J: 1}, {I: 1, J: 2}})
	assert.NoError(t, err)
	closure, err := d.TransitiveClosure()
	assert.NoError(t, err)

	assert.True(t, closure.Contains(precedence.Pair{I: 0, J: 1}))
	assert.True(t, closure.Contains(precedence.Pair{I: 1, J: 2}))
	assert.True(t, closure.Contains(precedence.Pair{I: 0, J: 2})) // transitively derived
}

func TestOrdered_ChecksBothDirections(t *testing.T) {
	d, _ := precedence.NewDAG(2, []precedence.Pair{{I: 0, J: 1}})
	closure, _ := d.TransitiveClosure()
	assert.True(t, precedence.Ordered(closure, 0, 1))
	assert.True(t, precedence.Ordered(closure, 1, 0))
}

func TestMutexPairs_SharedRobotNotPrecedenceOrdered(t *testing.T) {
	// Two tasks sharing a robot, no precedence between them -> mutex pair.
	a := allocnode.NewAllocation(2, 1).WithAssignment(0, 0).WithAssignment(1, 0)
	pairs := precedence.MutexPairs(a, nil)
	assert.Equal(t, []precedence.Pair{{I: 0, J: 1}}, pairs)
}

func TestMutexPairs_PrecedenceOrderedPairExcluded(t *testing.T) {
	a := allocnode.NewAllocation(2, 1).WithAssignment(0, 0).WithAssignment(1, 0)
	d, _ := precedence.NewDAG(2, []precedence.Pair{{I: 0, J: 1}})
	closure, _ := d.TransitiveClosure()

	pairs := precedence.MutexPairs(a, closure)
	assert.Empty(t, pairs)
}

func TestMutexPairs_DifferentRobotsNoMutex(t *testing.T) {
	a := allocnode.NewAllocation(2, 2).WithAssignment(0, 0).WithAssignment(1, 1)
	pairs := precedence.MutexPairs(a, nil)
	assert.Empty(t, pairs)
}
