package geom_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/grstapse-go/stapse/geom"
)

func TestEqual_SameVariantSameComponents(t *testing.T) {
	a := geom.EuclideanVertex{ID: "v1", X: 1, Y: 2}
	b := geom.EuclideanVertex{ID: "v1", X: 1, Y: 2}
	assert.True(t, geom.Equal(a, b))
}

func TestEqual_DifferentVariants(t *testing.T) {
	a := geom.EuclideanVertex{ID: "v1", X: 1, Y: 2}
	b := geom.SE2State{X: 1, Y: 2}
	assert.False(t, geom.Equal(a, b))
}

func TestDistance_EuclideanVertex(t *testing.T) {
	a := geom.EuclideanVertex{ID: "a", X: 0, Y: 0}
	b := geom.EuclideanVertex{ID: "b", X: 3, Y: 4}
	d, err := geom.Distance(a, b)
	assert.NoError(t, err)
	assert.Equal(t, 5.0, d)
}

func TestDistance_SE3State(t *testing.T) {
	a := geom.SE3State{X: 0, Y: 0, Z: 0, QW: 1}
	b := geom.SE3State{X: 1, Y: 2, Z: 2, QW: 1}
	d, err := geom.Distance(a, b)
	assert.NoError(t, err)
	assert.Equal(t, 3.0, d)
}

func TestDistance_VariantMismatch(t *testing.T) {
	a := geom.EuclideanVertex{ID: "a"}
	b := geom.SE2State{}
	_, err := geom.Distance(a, b)
	assert.ErrorIs(t, err, geom.ErrVariantMismatch)
}

func TestDistance_IgnoresOrientation(t *testing.T) {
	a := geom.SE2State{X: 0, Y: 0, Yaw: 0}
	b := geom.SE2State{X: 0, Y: 0, Yaw: 3.14}
	d, err := geom.Distance(a, b)
	assert.NoError(t, err)
	assert.Equal(t, 0.0, d)
	assert.False(t, geom.Equal(a, b)) // orientation does participate in equality
}
