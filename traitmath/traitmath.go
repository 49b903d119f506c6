// Package traitmath implements the trait-satisfaction arithmetic at the core
// of ITAGS' heuristic and goal check: desired/allocated trait matrices,
// trait mismatch, and linear quality. It is grounded on
// task_allocation_math.cpp's free functions (desiredTraitsMatrix,
// linearCoefficientMatrix, allocatedTraitsMatrix, traitsMismatchMatrix,
// positiveOnlyTraitsMismatchMatrix, traitsMismatchError,
// traitsLinearQualityCalculator) with Eigen::MatrixXf replaced by plain
// [][]float64 — this module has no eigendecomposition or linear-solve need,
// so it carries none of the teacher's matrix/ package machinery (see
// DESIGN.md for that drop's rationale); only the dense-matrix shape and the
// sentinel-error-on-shape-mismatch idiom survive from it.
package traitmath

import (
	"errors"
	"fmt"

	"github.com/grstapse-go/stapse/model"
)

// Sentinel errors for malformed matrix shapes.
var (
	ErrEmptyTasks        = errors.New("traitmath: task list is empty")
	ErrEmptyRobots       = errors.New("traitmath: robot list is empty")
	ErrShapeMismatch     = errors.New("traitmath: matrix dimensions do not match allocation shape")
	ErrDimensionMismatch = errors.New("traitmath: trait vector dimensions disagree")
)

// Matrix is a dense row-major matrix of float64.
type Matrix [][]float64

// NewMatrix allocates a rows×cols zero matrix.
func NewMatrix(rows, cols int) Matrix {
	m := make(Matrix, rows)
	for i := range m {
		m[i] = make([]float64, cols)
	}
	return m
}

// Rows and Cols report the matrix's shape.
func (m Matrix) Rows() int { return len(m) }
func (m Matrix) Cols() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

// DesiredTraitsMatrix stacks each task's DesiredTraits vector into a
// tasks×traits matrix, row order matching tasks.
func DesiredTraitsMatrix(tasks []model.Task) (Matrix, error) {
	if len(tasks) == 0 {
		return nil, ErrEmptyTasks
	}
	dim := len(tasks[0].DesiredTraits)
	out := NewMatrix(len(tasks), dim)
	for i, t := range tasks {
		if len(t.DesiredTraits) != dim {
			return nil, fmt.Errorf("%w: task %q has %d traits, expected %d", ErrDimensionMismatch, t.ID, len(t.DesiredTraits), dim)
		}
		copy(out[i], t.DesiredTraits)
	}
	return out, nil
}

// LinearCoefficientMatrix stacks each task's LinearCoefficient vector into a
// tasks×traits matrix.
func LinearCoefficientMatrix(tasks []model.Task) (Matrix, error) {
	if len(tasks) == 0 {
		return nil, ErrEmptyTasks
	}
	dim := len(tasks[0].LinearCoefficient)
	out := NewMatrix(len(tasks), dim)
	for i, t := range tasks {
		if len(t.LinearCoefficient) != dim {
			return nil, fmt.Errorf("%w: task %q has %d coefficients, expected %d", ErrDimensionMismatch, t.ID, len(t.LinearCoefficient), dim)
		}
		copy(out[i], t.LinearCoefficient)
	}
	return out, nil
}

// RobotTraitsMatrix stacks each robot's species trait vector into a
// robots×traits matrix, row order matching robots.
func RobotTraitsMatrix(robots []model.Robot, species map[string]model.Species) (Matrix, error) {
	if len(robots) == 0 {
		return nil, ErrEmptyRobots
	}
	first, ok := species[robots[0].SpeciesID]
	if !ok {
		return nil, fmt.Errorf("%w: robot %q has unregistered species %q", ErrDimensionMismatch, robots[0].ID, robots[0].SpeciesID)
	}
	dim := len(first.Traits)
	out := NewMatrix(len(robots), dim)
	for i, r := range robots {
		sp, ok := species[r.SpeciesID]
		if !ok {
			return nil, fmt.Errorf("%w: robot %q has unregistered species %q", ErrDimensionMismatch, r.ID, r.SpeciesID)
		}
		if len(sp.Traits) != dim {
			return nil, fmt.Errorf("%w: species %q has %d traits, expected %d", ErrDimensionMismatch, sp.ID, len(sp.Traits), dim)
		}
		copy(out[i], sp.Traits)
	}
	return out, nil
}

// Reduction reduces the per-task set of allocated robot trait rows into a
// single trait row for that task. The original grstapse system's default
// reduction sums the traits of every robot assigned to a task (a task
// satisfied by k robots each contributing c units of a trait has 'k*c'
// units available). MaxReduction models traits that are not additive
// (e.g. "can this arm reach 2m", which is satisfied by any one sufficiently
// capable robot rather than by the sum of several).
type Reduction interface {
	Reduce(rows [][]float64, dim int) []float64
}

// SumReduction adds the trait vectors of every robot allocated to a task.
type SumReduction struct{}

// Reduce implements Reduction.
func (SumReduction) Reduce(rows [][]float64, dim int) []float64 {
	out := make([]float64, dim)
	for _, row := range rows {
		for j, v := range row {
			out[j] += v
		}
	}
	return out
}

// MaxReduction takes the elementwise maximum across allocated robots.
type MaxReduction struct{}

// Reduce implements Reduction.
func (MaxReduction) Reduce(rows [][]float64, dim int) []float64 {
	out := make([]float64, dim)
	for _, row := range rows {
		for j, v := range row {
			if v > out[j] {
				out[j] = v
			}
		}
	}
	return out
}

// AllocatedTraitsMatrix reduces robotTraits through allocation (a
// tasks×robots boolean matrix) using reduction, producing a tasks×traits
// matrix — the Go equivalent of
// RobotTraitsMatrixReduction::reduce(allocation, robot_traits_matrix).
func AllocatedTraitsMatrix(allocation [][]bool, robotTraits Matrix, reduction Reduction) (Matrix, error) {
	if reduction == nil {
		reduction = SumReduction{}
	}
	numTasks := len(allocation)
	if numTasks == 0 {
		return nil, ErrEmptyTasks
	}
	numRobots := len(allocation[0])
	if numRobots != robotTraits.Rows() {
		return nil, fmt.Errorf("%w: allocation has %d robot columns, robotTraits has %d rows", ErrShapeMismatch, numRobots, robotTraits.Rows())
	}
	dim := robotTraits.Cols()
	out := NewMatrix(numTasks, dim)
	for i, row := range allocation {
		var rows [][]float64
		for j, assigned := range row {
			if assigned {
				rows = append(rows, robotTraits[j])
			}
		}
		out[i] = reduction.Reduce(rows, dim)
	}
	return out, nil
}

// TraitsMismatchMatrix computes desired - allocated, elementwise.
func TraitsMismatchMatrix(desired, allocated Matrix) (Matrix, error) {
	if desired.Rows() != allocated.Rows() || desired.Cols() != allocated.Cols() {
		return nil, ErrShapeMismatch
	}
	out := NewMatrix(desired.Rows(), desired.Cols())
	for i := range desired {
		for j := range desired[i] {
			out[i][j] = desired[i][j] - allocated[i][j]
		}
	}
	return out, nil
}

// PositiveOnlyTraitsMismatchMatrix clamps TraitsMismatchMatrix's negative
// entries (over-satisfied traits) to zero, since over-satisfaction is not a
// deficiency.
func PositiveOnlyTraitsMismatchMatrix(desired, allocated Matrix) (Matrix, error) {
	m, err := TraitsMismatchMatrix(desired, allocated)
	if err != nil {
		return nil, err
	}
	for i := range m {
		for j := range m[i] {
			if m[i][j] < 0 {
				m[i][j] = 0
			}
		}
	}
	return m, nil
}

// MismatchError (ε in spec.md's APR formula) is the L1 norm of
// PositiveOnlyTraitsMismatchMatrix: the total unmet trait demand across
// every task and trait.
func MismatchError(desired, allocated Matrix) (float64, error) {
	m, err := PositiveOnlyTraitsMismatchMatrix(desired, allocated)
	if err != nil {
		return 0, err
	}
	var sum float64
	for _, row := range m {
		for _, v := range row {
			sum += v
		}
	}
	return sum, nil
}

// L1Norm sums the absolute value of every entry of m — the ‖Y‖₁ denominator
// of APR.
func L1Norm(m Matrix) float64 {
	var sum float64
	for _, row := range m {
		for _, v := range row {
			if v < 0 {
				sum -= v
			} else {
				sum += v
			}
		}
	}
	return sum
}

// LinearQuality computes Σ allocated ⊙ linearCoefficients, the reward for
// allocating capability beyond the strict minimum (traitsLinearQualityCalculator
// in the original).
func LinearQuality(allocated, linearCoefficients Matrix) (float64, error) {
	if allocated.Rows() != linearCoefficients.Rows() || allocated.Cols() != linearCoefficients.Cols() {
		return 0, ErrShapeMismatch
	}
	var sum float64
	for i := range allocated {
		for j := range allocated[i] {
			sum += allocated[i][j] * linearCoefficients[i][j]
		}
	}
	return sum, nil
}
