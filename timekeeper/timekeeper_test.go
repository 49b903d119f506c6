package timekeeper_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/grstapse-go/stapse/timekeeper"
)

func TestScoped_AccumulatesElapsedTime(t *testing.T) {
	r := timekeeper.New()
	stop := r.Scoped("phase")
	time.Sleep(2 * time.Millisecond)
	stop()

	assert.Greater(t, r.Time("phase"), time.Duration(0))
}

func TestSetActive_StacksConcurrentIntervals(t *testing.T) {
	r := timekeeper.New()
	r.SetActive("x")
	r.SetActive("x")
	r.SetInactive("x")
	r.SetInactive("x")
	assert.GreaterOrEqual(t, r.Time("x"), time.Duration(0))

	// a third SetInactive with nothing left on the stack is a no-op
	r.SetInactive("x")
}

func TestIncrement_AddsDirectly(t *testing.T) {
	r := timekeeper.New()
	r.Increment("phase", 5*time.Second)
	r.Increment("phase", 3*time.Second)
	assert.Equal(t, 8*time.Second, r.Time("phase"))
}

func TestReset_ClearsOneTimer(t *testing.T) {
	r := timekeeper.New()
	r.Increment("a", time.Second)
	r.Increment("b", time.Second)
	r.Reset("a")
	assert.Equal(t, time.Duration(0), r.Time("a"))
	assert.Equal(t, time.Second, r.Time("b"))
}

func TestResetAll_ClearsEverything(t *testing.T) {
	r := timekeeper.New()
	r.Increment("a", time.Second)
	r.Increment("b", time.Second)
	r.ResetAll()
	assert.Equal(t, time.Duration(0), r.Time("a"))
	assert.Equal(t, time.Duration(0), r.Time("b"))
}

func TestUnknownTimer_ReturnsZero(t *testing.T) {
	r := timekeeper.New()
	assert.Equal(t, time.Duration(0), r.Time("never-started"))
}
