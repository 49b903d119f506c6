package heuristic_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/grstapse-go/stapse/allocnode"
	"github.com/grstapse-go/stapse/failure"
	"github.com/grstapse-go/stapse/heuristic"
	"github.com/grstapse-go/stapse/traitmath"
)

type fakeSchedule struct{ makespan float64 }

func (f fakeSchedule) Makespan() float64 { return f.makespan }

type fakeScheduler struct {
	sched  heuristic.Schedule
	reason failure.Reason
}

func (f fakeScheduler) Solve(allocnode.Allocation) (heuristic.Schedule, failure.Reason) {
	return f.sched, f.reason
}

func baseConfig() heuristic.Config {
	return heuristic.Config{
		Desired:     traitmath.Matrix{{1, 0}},
		RobotTraits: traitmath.Matrix{{1, 0}, {0, 1}},
		LinearCoeffs: traitmath.Matrix{{1, 1}},
		Reduction:   traitmath.SumReduction{},
	}
}

func TestAPR_ZeroWhenSatisfied(t *testing.T) {
	cfg := baseConfig()
	n, _ := allocnode.NewRoot(1, 2)
	n = mustChild(n, 0, 0) // robot 0 has trait {1,0}, fully satisfies desired {1,0}

	apr, err := heuristic.APR(cfg, n)
	assert.NoError(t, err)
	assert.Equal(t, 0.0, apr)
}

func TestAPR_PositiveWhenUnsatisfied(t *testing.T) {
	cfg := baseConfig()
	n, _ := allocnode.NewRoot(1, 2)
	n = mustChild(n, 0, 1) // robot 1 has trait {0,1}, does not satisfy desired trait 0

	apr, err := heuristic.APR(cfg, n)
	assert.NoError(t, err)
	assert.Equal(t, 1.0, apr)
}

func TestNAQ_ZeroAtAllOnes(t *testing.T) {
	cfg := baseConfig()
	root, _ := allocnode.NewRoot(1, 2)
	allOnes := root.Allocation.WithAssignment(0, 0)
	allOnes[0][1] = true
	n, _ := allocnode.NewChild(root, allOnes)

	naq, err := heuristic.NAQ(cfg, n)
	assert.NoError(t, err)
	assert.Equal(t, 0.0, naq)
}

func TestNSQ_NoSchedulerIsZero(t *testing.T) {
	cfg := baseConfig()
	n, _ := allocnode.NewRoot(1, 2)
	assert.Equal(t, 0.0, heuristic.NSQ(cfg, n))
}

func TestNSQ_SchedulerFailureIsInfAndFiresCallback(t *testing.T) {
	cfg := baseConfig()
	cfg.Scheduler = fakeScheduler{reason: failure.NewMilpFailure("infeasible")}
	var firedReason failure.Reason
	cfg.Callbacks.OnFailure = func(_ *allocnode.Node, r failure.Reason) { firedReason = r }

	n, _ := allocnode.NewRoot(1, 2)
	nsq := heuristic.NSQ(cfg, n)
	assert.True(t, math.IsInf(nsq, 1))
	assert.NotNil(t, firedReason)
}

func TestNSQ_NormalizesMakespan(t *testing.T) {
	cfg := baseConfig()
	cfg.Scheduler = fakeScheduler{sched: fakeSchedule{makespan: 5}}
	cfg.Bounds = heuristic.Bounds{MuBest: 0, MuMax: 2, MuWorst: 10}
	var succeeded bool
	cfg.Callbacks.OnSuccess = func(_ *allocnode.Node, _ heuristic.Schedule) { succeeded = true }

	n, _ := allocnode.NewRoot(1, 2)
	nsq := heuristic.NSQ(cfg, n)
	assert.Equal(t, 0.5, nsq) // (5-0)/(10-0)
	assert.True(t, succeeded)
}

func TestPOS_ClampsBelowMuMaxToZero(t *testing.T) {
	cfg := baseConfig()
	cfg.Scheduler = fakeScheduler{sched: fakeSchedule{makespan: 1}}
	cfg.Bounds = heuristic.Bounds{MuBest: 0, MuMax: 2, MuWorst: 10}

	n, _ := allocnode.NewRoot(1, 2)
	assert.Equal(t, 0.0, heuristic.POS(cfg, n))
}

func TestPOS_PositiveAboveMuMax(t *testing.T) {
	cfg := baseConfig()
	cfg.Scheduler = fakeScheduler{sched: fakeSchedule{makespan: 6}}
	cfg.Bounds = heuristic.Bounds{MuBest: 0, MuMax: 2, MuWorst: 10}

	n, _ := allocnode.NewRoot(1, 2)
	assert.Equal(t, 0.5, heuristic.POS(cfg, n)) // (6-2)/(10-2)
}

func TestTETAQ_BlendsAPRAndNSQ(t *testing.T) {
	cfg := baseConfig()
	cfg.Scheduler = fakeScheduler{sched: fakeSchedule{makespan: 5}}
	cfg.Bounds = heuristic.Bounds{MuBest: 0, MuMax: 2, MuWorst: 10}

	root, _ := allocnode.NewRoot(1, 2)
	n := mustChild(root, 0, 1) // APR=1 (unsatisfied), NSQ=0.5

	v, err := heuristic.TETAQ(cfg, n, 0.5)
	assert.NoError(t, err)
	assert.InDelta(t, 0.75, v, 1e-9) // 0.5*1 + 0.5*0.5
}

func TestTETAQ_InfinitePropagatesFromNSQ(t *testing.T) {
	cfg := baseConfig()
	cfg.Scheduler = fakeScheduler{reason: failure.NewMilpFailure("x")}

	n, _ := allocnode.NewRoot(1, 2)
	v, err := heuristic.TETAQ(cfg, n, 0.5)
	assert.ErrorIs(t, err, heuristic.ErrSchedulerInfeasible)
	assert.True(t, math.IsInf(v, 1))
}

func mustChild(n *allocnode.Node, task, robot int) *allocnode.Node {
	c, err := n.Child(task, robot)
	if err != nil {
		panic(err)
	}
	return c
}
