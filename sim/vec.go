package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Up is the world up axis. All agent motion happens in the plane orthogonal to it.
var Up = mgl64.Vec3{0, 1, 0}

// Forward is the local forward axis of an unrotated transform.
var Forward = mgl64.Vec3{0, 0, 1}

const headingEpsilon = 1e-9

// normalizeOrZero returns v scaled to unit length, or the zero vector when v
// is too short to have a meaningful direction.
func normalizeOrZero(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l <= headingEpsilon || math.IsNaN(l) || math.IsInf(l, 0) {
		return mgl64.Vec3{}
	}
	return v.Mul(1 / l)
}

// planarHeading returns the unit direction (cos a, 0, sin a).
func planarHeading(angle float64) mgl64.Vec3 {
	return mgl64.Vec3{math.Cos(angle), 0, math.Sin(angle)}
}

// rotateY returns a rotation of angle radians around Up.
func rotateY(angle float64) mgl64.Quat {
	return mgl64.QuatRotate(angle, Up)
}

// RotateAroundUp rotates v by degrees around the up axis.
func RotateAroundUp(v mgl64.Vec3, degrees float64) mgl64.Vec3 {
	return rotateY(mgl64.DegToRad(degrees)).Rotate(v)
}

func finite(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
