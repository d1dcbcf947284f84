package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// PlayerSnapshot is the read-only view of the player taken once per tick.
type PlayerSnapshot struct {
	Position mgl64.Vec3
	Speed    float64 // signed; negative while reversing
	Forward  mgl64.Vec3
}

// PlayerInput is the axis input for one frame, each axis in [-1, 1].
type PlayerInput struct {
	Horizontal float64
	Vertical   float64
}

const inputDeadZone = 0.1

// minPlayerMove is the speed below which the player is treated as standing.
const minPlayerMove = 0.01

// Player is the tracked player. It integrates acceleration, unlike agents.
type Player struct {
	Position      mgl64.Vec3
	Orientation   mgl64.Quat
	CurrentSpeed  float64
	Forward       mgl64.Vec3
	MaxSpeed      float64
	Acceleration  float64
	Deceleration  float64
	RotationSpeed float64 // degrees per second at full input
}

// NewPlayer creates a player at the origin facing +Z.
func NewPlayer(cfg PlayerConfig) *Player {
	return &Player{
		Orientation:   mgl64.QuatIdent(),
		Forward:       Forward,
		MaxSpeed:      cfg.MaxSpeed,
		Acceleration:  cfg.Acceleration,
		Deceleration:  cfg.Deceleration,
		RotationSpeed: cfg.RotationSpeed,
	}
}

// Update applies one frame of input: rotation first, then speed, then motion.
func (p *Player) Update(dt float64, in PlayerInput) {
	if math.Abs(in.Horizontal) > inputDeadZone {
		turn := rotateY(mgl64.DegToRad(in.Horizontal * p.RotationSpeed * dt))
		p.Orientation = p.Orientation.Mul(turn).Normalize()
		p.Forward = p.Orientation.Rotate(Forward)
	}

	switch {
	case in.Vertical > inputDeadZone:
		p.CurrentSpeed = math.Min(p.CurrentSpeed+p.Acceleration*dt, p.MaxSpeed)
	case in.Vertical < -inputDeadZone:
		p.CurrentSpeed = math.Max(p.CurrentSpeed-p.Acceleration*dt, -p.MaxSpeed*0.5)
	default:
		p.CurrentSpeed = lerp(p.CurrentSpeed, 0, p.Deceleration*dt)
	}

	if math.Abs(p.CurrentSpeed) <= minPlayerMove {
		return
	}
	p.Position = p.Position.Add(p.Forward.Mul(p.CurrentSpeed * dt))
}

// Snapshot captures the per-tick view consumed by the simulation.
func (p *Player) Snapshot() *PlayerSnapshot {
	return &PlayerSnapshot{
		Position: p.Position,
		Speed:    p.CurrentSpeed,
		Forward:  p.Forward,
	}
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
