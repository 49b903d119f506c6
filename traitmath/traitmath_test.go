package traitmath_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/grstapse-go/stapse/model"
	"github.com/grstapse-go/stapse/traitmath"
)

func TestDesiredTraitsMatrix_StacksRows(t *testing.T) {
	tasks := []model.Task{
		{ID: "t0", DesiredTraits: []float64{1, 2}},
		{ID: "t1", DesiredTraits: []float64{3, 4}},
	}
	m, err := traitmath.DesiredTraitsMatrix(tasks)
	assert.NoError(t, err)
	assert.Equal(t, traitmath.Matrix{{1, 2}, {3, 4}}, m)
}

func TestDesiredTraitsMatrix_EmptyTasks(t *testing.T) {
	_, err := traitmath.DesiredTraitsMatrix(nil)
	assert.ErrorIs(t, err, traitmath.ErrEmptyTasks)
}

func TestDesiredTraitsMatrix_DimensionMismatch(t *testing.T) {
	tasks := []model.Task{
		{ID: "t0", DesiredTraits: []float64{1, 2}},
		{ID: "t1", DesiredTraits: []float64{3}},
	}
	_, err := traitmath.DesiredTraitsMatrix(tasks)
	assert.ErrorIs(t, err, traitmath.ErrDimensionMismatch)
}

func TestRobotTraitsMatrix_UnregisteredSpecies(t *testing.T) {
	robots := []model.Robot{{ID: "r0", SpeciesID: "ghost"}}
	_, err := traitmath.RobotTraitsMatrix(robots, map[string]model.Species{})
	assert.ErrorIs(t, err, traitmath.ErrDimensionMismatch)
}

func TestSumReduction(t *testing.T) {
	rows := [][]float64{{1, 2}, {3, 4}}
	out := traitmath.SumReduction{}.Reduce(rows, 2)
	assert.Equal(t, []float64{4, 6}, out)
}

func TestMaxReduction(t *testing.T) {
	rows := [][]float64{{1, 5}, {3, 4}}
	out := traitmath.MaxReduction{}.Reduce(rows, 2)
	assert.Equal(t, []float64{3, 5}, out)
}

func TestAllocatedTraitsMatrix_SumsAssignedRobots(t *testing.T) {
	robotTraits := traitmath.Matrix{{1, 0}, {0, 1}}
	alloc := [][]bool{{true, true}}
	out, err := traitmath.AllocatedTraitsMatrix(alloc, robotTraits, nil)
	assert.NoError(t, err)
	assert.Equal(t, traitmath.Matrix{{1, 1}}, out)
}

func TestAllocatedTraitsMatrix_ShapeMismatch(t *testing.T) {
	robotTraits := traitmath.Matrix{{1, 0}}
	alloc := [][]bool{{true, true}}
	_, err := traitmath.AllocatedTraitsMatrix(alloc, robotTraits, nil)
	assert.ErrorIs(t, err, traitmath.ErrShapeMismatch)
}

func TestMismatchError_ClampsOversatisfaction(t *testing.T) {
	desired := traitmath.Matrix{{2, 1}}
	allocated := traitmath.Matrix{{1, 3}} // trait 0 undersatisfied by 1, trait 1 oversatisfied
	err, e := traitmath.MismatchError(desired, allocated)
	assert.NoError(t, e)
	assert.Equal(t, 1.0, err)
}

func TestMismatchError_ZeroWhenFullySatisfied(t *testing.T) {
	desired := traitmath.Matrix{{2, 1}}
	allocated := traitmath.Matrix{{2, 1}}
	err, e := traitmath.MismatchError(desired, allocated)
	assert.NoError(t, e)
	assert.Equal(t, 0.0, err)
}

func TestL1Norm(t *testing.T) {
	m := traitmath.Matrix{{1, -2}, {3, -4}}
	assert.Equal(t, 10.0, traitmath.L1Norm(m))
}

func TestLinearQuality(t *testing.T) {
	allocated := traitmath.Matrix{{1, 1}}
	coeffs := traitmath.Matrix{{2, 3}}
	q, err := traitmath.LinearQuality(allocated, coeffs)
	assert.NoError(t, err)
	assert.Equal(t, 5.0, q)
}

func TestLinearQuality_ShapeMismatch(t *testing.T) {
	allocated := traitmath.Matrix{{1, 1}}
	coeffs := traitmath.Matrix{{2}}
	_, err := traitmath.LinearQuality(allocated, coeffs)
	assert.ErrorIs(t, err, traitmath.ErrShapeMismatch)
}
