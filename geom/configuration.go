// Package geom defines the Configuration sum type shared by tasks, robots,
// and environments, per spec.md §3.
//
// A Configuration is one of three variants: a Euclidean-graph vertex, an
// SE(2) state, or an SE(3) state. Two configurations are equal iff they are
// the same variant and their components match; Euclidean distance is
// defined only between configurations of the same variant.
package geom

import (
	"errors"
	"math"
)

// ErrVariantMismatch is returned by Distance when its two arguments are not
// the same Configuration variant.
var ErrVariantMismatch = errors.New("geom: distance requires matching configuration variants")

// Configuration is a closed sum type over EuclideanVertex, SE2State, and
// SE3State. The unexported method keeps the set of implementations closed
// to this package, mirroring the teacher's closed-option-set idiom
// (lvlath/core.GraphOption) applied to a data type instead of a functional
// option.
type Configuration interface {
	isConfiguration()
}

// EuclideanVertex is a named vertex of a Euclidean graph environment.
type EuclideanVertex struct {
	ID string
	X  float64
	Y  float64
}

func (EuclideanVertex) isConfiguration() {}

// SE2State is a planar pose (x, y, yaw radians).
type SE2State struct {
	X   float64
	Y   float64
	Yaw float64
}

func (SE2State) isConfiguration() {}

// SE3State is a spatial pose (x, y, z, unit quaternion qw,qx,qy,qz).
type SE3State struct {
	X, Y, Z         float64
	QW, QX, QY, QZ float64
}

func (SE3State) isConfiguration() {}

// Equal reports whether a and b are the same variant with identical
// components. Quaternion/yaw components participate in equality (they are
// part of the state) even though Distance ignores them.
func Equal(a, b Configuration) bool {
	switch av := a.(type) {
	case EuclideanVertex:
		bv, ok := b.(EuclideanVertex)
		return ok && av == bv
	case SE2State:
		bv, ok := b.(SE2State)
		return ok && av == bv
	case SE3State:
		bv, ok := b.(SE3State)
		return ok && av == bv
	default:
		return false
	}
}

// Distance computes the Euclidean distance between a and b. Both must be
// the same variant, else ErrVariantMismatch is returned. Orientation
// components (yaw, quaternion) do not participate: distance is purely
// positional, matching the original source's use of distance exclusively
// for motion-duration lower bounds.
func Distance(a, b Configuration) (float64, error) {
	switch av := a.(type) {
	case EuclideanVertex:
		bv, ok := b.(EuclideanVertex)
		if !ok {
			return 0, ErrVariantMismatch
		}
		return hypot2(av.X-bv.X, av.Y-bv.Y), nil
	case SE2State:
		bv, ok := b.(SE2State)
		if !ok {
			return 0, ErrVariantMismatch
		}
		return hypot2(av.X-bv.X, av.Y-bv.Y), nil
	case SE3State:
		bv, ok := b.(SE3State)
		if !ok {
			return 0, ErrVariantMismatch
		}
		dx, dy, dz := av.X-bv.X, av.Y-bv.Y, av.Z-bv.Z
		return math.Sqrt(dx*dx + dy*dy + dz*dz), nil
	default:
		return 0, ErrVariantMismatch
	}
}

func hypot2(dx, dy float64) float64 {
	return math.Sqrt(dx*dx + dy*dy)
}
