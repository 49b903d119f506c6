// selector.go implements the scenario selector contract of spec.md §4.7:
// given a pool of Q_f sampled scenarios, pick a mask of β to solve exactly,
// leaving the rest for SPRT verification (sprt.go).
package stochastic

import (
	"math"
	"math/rand"
	"time"

	"github.com/grstapse-go/stapse/allocnode"
	"github.com/grstapse-go/stapse/model"
	"github.com/grstapse-go/stapse/motionplan"
)

// ScenarioSelector picks a mask of β true entries out of a Qf-scenario pool,
// or reports it could not within timeout. The returned mask is indexed like
// the scenario pool: HA solves the scenarios whose entry is true and leaves
// the rest for SPRT verification.
type ScenarioSelector interface {
	CreateMask(qf, beta int, gamma float64, timeout time.Duration) ([]bool, bool)
}

// ScenarioLabeler computes the heuristic selector's per-scenario label: the
// sum, over every assigned task, of the task's static duration plus its
// incoming edge cost divided by the slowest assigned robot's speed. Index i
// refers to the i-th of the Qf sampled graphs.
type ScenarioLabeler interface {
	Label(scenario int) (float64, error)
}

// AllocationLabeler is a ScenarioLabeler grounded directly on the fixed
// allocation and one motion-planning memoizer per scenario, implementing
// spec.md §4.7's labeling rule: static duration plus the slowest assigned
// robot's travel time into the task (the memoizer already divides by
// speed, per spec.md §4.9, so no separate speed lookup is needed here).
type AllocationLabeler struct {
	Tasks     []model.Task
	Robots    []model.Robot
	Alloc     allocnode.Allocation
	Memoizers []*motionplan.Memoizer // index-aligned with the Qf scenario pool
}

// Label implements ScenarioLabeler.
func (l AllocationLabeler) Label(scenario int) (float64, error) {
	mem := l.Memoizers[scenario]
	var total float64
	for m, task := range l.Tasks {
		total += task.StaticDuration
		var slowest float64
		for _, r := range l.Alloc.RobotsForTask(m) {
			robot := l.Robots[r]
			d, ok := mem.Query(robot.SpeciesID, robot.Start, task.Initial)
			if ok && d > slowest {
				slowest = d
			}
		}
		total += slowest
	}
	return total, nil
}

// HeuristicSelector is the default ScenarioSelector of spec.md §4.7: label
// every scenario, sort ascending, keep the cheapest ⌊Qf·(1-γ)⌋ of them, then
// sample β of those uniformly without replacement, always including the
// most expensive kept label so the solved subset is not biased entirely
// toward the easiest scenarios.
type HeuristicSelector struct {
	Labeler ScenarioLabeler
	Rand    *rand.Rand // nil derives a fresh, input-seeded source per call
}

// labeledScenario pairs a Qf-pool index with its computed label, the unit
// HeuristicSelector sorts and samples over.
type labeledScenario struct {
	index int
	label float64
}

// CreateMask implements ScenarioSelector.
func (s HeuristicSelector) CreateMask(qf, beta int, gamma float64, timeout time.Duration) ([]bool, bool) {
	if qf <= 0 || beta <= 0 || beta > qf {
		return nil, false
	}
	deadline := time.Now().Add(timeout)

	labels := make([]labeledScenario, 0, qf)
	for i := 0; i < qf; i++ {
		if timeout > 0 && time.Now().After(deadline) {
			return nil, false
		}
		v, err := s.Labeler.Label(i)
		if err != nil {
			continue
		}
		labels = append(labels, labeledScenario{index: i, label: v})
	}
	if len(labels) == 0 {
		return nil, false
	}

	for i := 1; i < len(labels); i++ {
		key := labels[i]
		j := i - 1
		for j >= 0 && labels[j].label > key.label {
			labels[j+1] = labels[j]
			j--
		}
		labels[j+1] = key
	}

	keep := int(float64(qf) * (1 - gamma))
	if keep > len(labels) {
		keep = len(labels)
	}
	if keep < beta {
		keep = beta
		if keep > len(labels) {
			keep = len(labels)
		}
	}
	pool := labels[:keep]
	if len(pool) < beta {
		return nil, false
	}

	r := s.Rand
	if r == nil {
		// Derive the seed from (qf, beta, labels) instead of drawing from a
		// shared package-level stream, so two calls with identical inputs
		// sample the same mask (spec.md's scheduling-idempotence property)
		// rather than depending on how many prior calls have advanced a
		// global generator.
		r = rand.New(rand.NewSource(seedFromScenarios(qf, beta, labels)))
	}

	mask := make([]bool, qf)
	mask[pool[len(pool)-1].index] = true
	remaining := make([]int, 0, len(pool)-1)
	for _, l := range pool[:len(pool)-1] {
		remaining = append(remaining, l.index)
	}
	r.Shuffle(len(remaining), func(i, j int) { remaining[i], remaining[j] = remaining[j], remaining[i] })
	for _, idx := range remaining {
		if countTrue(mask) >= beta {
			break
		}
		mask[idx] = true
	}
	if countTrue(mask) < beta {
		return nil, false
	}
	return mask, true
}

func countTrue(mask []bool) int {
	n := 0
	for _, b := range mask {
		if b {
			n++
		}
	}
	return n
}

// seedFromScenarios derives a deterministic PRNG seed from the sorted-pool
// inputs to CreateMask's sampling step, so the default (Rand-less) path is
// idempotent for a fixed (qf, beta, scenario-labels) triple.
func seedFromScenarios(qf, beta int, labels []labeledScenario) int64 {
	h := int64(qf)*1000003 + int64(beta)
	for _, l := range labels {
		h = h*31 + int64(l.index) + int64(math.Float64bits(l.label))
	}
	return h
}
