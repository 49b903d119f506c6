package successor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/grstapse-go/stapse/allocnode"
	"github.com/grstapse-go/stapse/successor"
)

func TestForwardGenerator_CandidatesExcludeAssignedCells(t *testing.T) {
	root, _ := allocnode.NewRoot(1, 2)
	n, _ := root.Child(0, 0)

	edges := successor.ForwardGenerator{}.Candidates(n, 1, 2)
	assert.Equal(t, []successor.Edge{{Task: 0, Robot: 1}}, edges)
}

func TestForwardGenerator_CandidatesOrderedTaskMajorRobotMinor(t *testing.T) {
	root, _ := allocnode.NewRoot(2, 2)
	edges := successor.ForwardGenerator{}.Candidates(root, 2, 2)
	assert.Equal(t, []successor.Edge{
		{Task: 0, Robot: 0}, {Task: 0, Robot: 1},
		{Task: 1, Robot: 0}, {Task: 1, Robot: 1},
	}, edges)
}

func TestForwardGenerator_Apply(t *testing.T) {
	root, _ := allocnode.NewRoot(1, 1)
	child, err := successor.ForwardGenerator{}.Apply(root, successor.Edge{Task: 0, Robot: 0})
	assert.NoError(t, err)
	assert.True(t, child.Allocation[0][0])
	assert.Same(t, root, child.Parent)
}

func TestForwardGenerator_ExcludesAlreadyAppliedOnAncestorChain(t *testing.T) {
	// Build a chain where task0/robot0 was assigned then the allocation
	// matrix directly reflects it; the generator must not re-offer it.
	root, _ := allocnode.NewRoot(2, 1)
	n, _ := root.Child(0, 0)
	edges := successor.ForwardGenerator{}.Candidates(n, 2, 1)
	assert.Equal(t, []successor.Edge{{Task: 1, Robot: 0}}, edges)
}

func TestReverseGenerator_CandidatesOnlyAssignedCells(t *testing.T) {
	allOnes := allocnode.NewAllocation(1, 2)
	allOnes[0][0], allOnes[0][1] = true, true
	root, _ := allocnode.NewChild(nil, allOnes)

	edges := successor.ReverseGenerator{}.Candidates(root, 1, 2)
	assert.Equal(t, []successor.Edge{{Task: 0, Robot: 0}, {Task: 0, Robot: 1}}, edges)
}

func TestReverseGenerator_ApplyClearsCell(t *testing.T) {
	allOnes := allocnode.NewAllocation(1, 1)
	allOnes[0][0] = true
	root, _ := allocnode.NewChild(nil, allOnes)

	child, err := successor.ReverseGenerator{}.Apply(root, successor.Edge{Task: 0, Robot: 0})
	assert.NoError(t, err)
	assert.False(t, child.Allocation[0][0])
}

func TestReverseGenerator_ExcludesAlreadyClearedOnAncestorChain(t *testing.T) {
	allOnes := allocnode.NewAllocation(1, 2)
	allOnes[0][0], allOnes[0][1] = true, true
	root, _ := allocnode.NewChild(nil, allOnes)
	n, _ := successor.ReverseGenerator{}.Apply(root, successor.Edge{Task: 0, Robot: 0})

	edges := successor.ReverseGenerator{}.Candidates(n, 1, 2)
	assert.Equal(t, []successor.Edge{{Task: 0, Robot: 1}}, edges)
}
