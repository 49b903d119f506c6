package allocnode_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/grstapse-go/stapse/allocnode"
)

func TestNewAllocation_AllFalse(t *testing.T) {
	a := allocnode.NewAllocation(2, 3)
	assert.Len(t, a, 2)
	for _, row := range a {
		assert.Len(t, row, 3)
		for _, v := range row {
			assert.False(t, v)
		}
	}
}

func TestWithAssignment_DoesNotMutateParent(t *testing.T) {
	a := allocnode.NewAllocation(1, 1)
	b := a.WithAssignment(0, 0)
	assert.False(t, a[0][0])
	assert.True(t, b[0][0])
}

func TestAllTasksAssigned(t *testing.T) {
	a := allocnode.NewAllocation(2, 2)
	assert.False(t, a.AllTasksAssigned())
	a = a.WithAssignment(0, 0)
	assert.False(t, a.AllTasksAssigned())
	a = a.WithAssignment(1, 1)
	assert.True(t, a.AllTasksAssigned())
}

func TestRobotsForTask(t *testing.T) {
	a := allocnode.NewAllocation(1, 3)
	a = a.WithAssignment(0, 0)
	a = a.WithAssignment(0, 2)
	assert.Equal(t, []int{0, 2}, a.RobotsForTask(0))
}

func TestRobotAssignedElsewhere(t *testing.T) {
	a := allocnode.NewAllocation(2, 1)
	a = a.WithAssignment(0, 0)
	assert.True(t, a.RobotAssignedElsewhere(0, 1))
	assert.False(t, a.RobotAssignedElsewhere(0, 0))
}

func TestHash_OrderIndependent(t *testing.T) {
	a := allocnode.NewAllocation(2, 2).WithAssignment(0, 0).WithAssignment(1, 1)
	b := allocnode.NewAllocation(2, 2).WithAssignment(1, 1).WithAssignment(0, 0)
	ha, err := a.Hash()
	assert.NoError(t, err)
	hb, err := b.Hash()
	assert.NoError(t, err)
	assert.Equal(t, ha, hb)
}

func TestHash_DiffersOnDifferentAllocation(t *testing.T) {
	a := allocnode.NewAllocation(1, 2).WithAssignment(0, 0)
	b := allocnode.NewAllocation(1, 2).WithAssignment(0, 1)
	ha, _ := a.Hash()
	hb, _ := b.Hash()
	assert.NotEqual(t, ha, hb)
}

func TestNewRoot(t *testing.T) {
	root, err := allocnode.NewRoot(2, 2)
	assert.NoError(t, err)
	assert.Nil(t, root.Parent)
	assert.Equal(t, 0, root.Depth)
	assert.NotZero(t, root.Hash())
}

func TestChild_LinksParentAndIncrementsDepth(t *testing.T) {
	root, _ := allocnode.NewRoot(2, 2)
	child, err := root.Child(0, 0)
	assert.NoError(t, err)
	assert.Same(t, root, child.Parent)
	assert.Equal(t, 1, child.Depth)
	assert.True(t, child.Allocation[0][0])
}

func TestNewChild_NilParentBuildsRoot(t *testing.T) {
	alloc := allocnode.NewAllocation(1, 1)
	n, err := allocnode.NewChild(nil, alloc)
	assert.NoError(t, err)
	assert.Nil(t, n.Parent)
	assert.Equal(t, 0, n.Depth)
}

func TestPath_OldestFirst(t *testing.T) {
	root, _ := allocnode.NewRoot(2, 2)
	child, _ := root.Child(0, 0)
	grandchild, _ := child.Child(1, 1)

	path := grandchild.Path()
	assert.Len(t, path, 3)
	assert.Same(t, root, path[0])
	assert.Same(t, child, path[1])
	assert.Same(t, grandchild, path[2])
}
