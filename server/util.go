package main

import (
	"math"

	"github.com/adoringonion/ecs-practice/sim"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// NewRunID returns a fresh identifier for one simulation run.
func NewRunID() string {
	return uuid.NewString()
}

// Clamp restricts v to [min, max]
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Yaw returns the heading angle of q around the up axis, 0 facing +Z.
func Yaw(q mgl64.Quat) float64 {
	f := q.Rotate(sim.Forward)
	return math.Atan2(f.X(), f.Z())
}

// Lerp interpolates between a and b.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
