// Package model defines the domain entities of a task-allocation problem:
// trait-bearing species and robots, trait-demanding tasks, and the
// environment robots move through. Types here are immutable value objects
// by convention (constructors return fully populated structs; nothing
// mutates a Robot or Task after construction), matching the teacher's
// Vertex/Edge value-object style in lvlath/core.
package model

import (
	"errors"
	"fmt"

	"github.com/grstapse-go/stapse/geom"
)

// Sentinel errors for malformed domain entities.
var (
	ErrEmptyID           = errors.New("model: entity ID is empty")
	ErrTraitLengthMismatch = errors.New("model: trait vector length does not match species/problem dimension")
	ErrUnknownSpecies    = errors.New("model: robot references an unknown species ID")
)

// Species names a class of robot and the trait vector shared by every robot
// of that class (grounded on the original's per-species trait vector: all
// robots of a species are fungible for allocation purposes).
type Species struct {
	ID     string
	Traits []float64
}

// Robot is a single platform belonging to a Species, starting at a given
// Configuration in the environment.
type Robot struct {
	ID        string
	SpeciesID string
	Start     geom.Configuration
}

// Task demands a trait vector and a linear-coefficient vector of the same
// dimension (the coefficients used by traitsLinearQualityCalculator to
// score over-satisfaction), and occupies a Configuration in the
// environment for motion-planning lookups.
type Task struct {
	ID                string
	DesiredTraits     []float64
	LinearCoefficient []float64
	Initial           geom.Configuration
	Terminal          geom.Configuration
	StaticDuration    float64
}


// Validate checks that a Task's two trait vectors agree in length.
func (t Task) Validate() error {
	if t.ID == "" {
		return ErrEmptyID
	}
	if len(t.LinearCoefficient) != 0 && len(t.LinearCoefficient) != len(t.DesiredTraits) {
		return fmt.Errorf("%w: task %q has %d desired traits but %d linear coefficients",
			ErrTraitLengthMismatch, t.ID, len(t.DesiredTraits), len(t.LinearCoefficient))
	}
	return nil
}

// TraitDimension returns the shared trait-vector length across species,
// robots, and tasks, or an error if the problem's inputs disagree.
func TraitDimension(species []Species, tasks []Task) (int, error) {
	dim := -1
	for _, sp := range species {
		if dim == -1 {
			dim = len(sp.Traits)
			continue
		}
		if len(sp.Traits) != dim {
			return 0, fmt.Errorf("%w: species %q has %d traits, expected %d",
				ErrTraitLengthMismatch, sp.ID, len(sp.Traits), dim)
		}
	}
	for _, t := range tasks {
		if dim == -1 {
			dim = len(t.DesiredTraits)
			continue
		}
		if len(t.DesiredTraits) != dim {
			return 0, fmt.Errorf("%w: task %q has %d desired traits, expected %d",
				ErrTraitLengthMismatch, t.ID, len(t.DesiredTraits), dim)
		}
	}
	if dim == -1 {
		return 0, nil
	}
	return dim, nil
}
