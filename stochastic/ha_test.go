package stochastic_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/grstapse-go/stapse/allocnode"
	"github.com/grstapse-go/stapse/model"
	"github.com/grstapse-go/stapse/motionplan"
	"github.com/grstapse-go/stapse/stochastic"
)

// fixedSelector always returns the pre-chosen mask, letting a test pin
// exactly which scenarios get solved exactly vs left for SPRT verification.
type fixedSelector struct{ mask []bool }

func (f fixedSelector) CreateMask(int, int, float64, time.Duration) ([]bool, bool) {
	return f.mask, true
}

func TestHA_Solve_AcceptsWhenRemainingScenarioDoesNotExceedSelectedMakespan(t *testing.T) {
	tasks := []model.Task{{ID: "t0", Initial: vertex("i0"), Terminal: vertex("o0"), StaticDuration: 3}}
	robots := []model.Robot{{ID: "r0", SpeciesID: "s1", Start: vertex("start")}}
	// scenario 0 is the worse one (selected, makespan 13); scenario 1 is
	// easier (left for verification, makespan 4 <= 13 so it reads "good").
	pool := []*motionplan.Memoizer{memoizerWithDistance(10), memoizerWithDistance(1)}

	root, _ := allocnode.NewRoot(1, 1)
	alloc, _ := root.Child(0, 0)

	h := stochastic.HA{
		Tasks:         tasks,
		Robots:        robots,
		Pool:          pool,
		Beta:          1,
		Gamma:         0.5,
		GammaDelta:    0.3,
		SprtAlpha:     0.5,
		SprtBeta:      0.9,
		Selector:      fixedSelector{mask: []bool{true, false}},
		InflateFactor: 1,
		MaxInflations: 1,
	}
	sched, reason := h.Solve(alloc.Allocation)
	assert.Nil(t, reason)
	assert.Equal(t, 13.0, sched.Makespan())
}

func TestHA_Solve_EmptyPoolFails(t *testing.T) {
	h := stochastic.HA{}
	_, reason := h.Solve(allocnode.Allocation{})
	assert.NotNil(t, reason)
}
