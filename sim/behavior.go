package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// timerEpsilon absorbs float residue so that e.g. 0.3s of death timer
// expires after exactly three 0.1s ticks.
const timerEpsilon = 1e-9

// WanderTiming bounds the random delay between heading changes.
type WanderTiming struct {
	Min, Max float64
}

// update advances one agent by dt. snap may be nil when no player is
// observed this tick. r is the stream of the worker owning the agent.
func (a *Agent) update(dt float64, snap *PlayerSnapshot, r *Rand, wander WanderTiming) {
	switch a.State {
	case Wandering:
		a.updateWandering(dt, snap, r, wander)
	case Fleeing:
		a.updateFleeing(dt, snap)
	case Dying:
		a.updateDying(dt)
	case Dead:
	}
}

func (a *Agent) updateWandering(dt float64, snap *PlayerSnapshot, r *Rand, wander WanderTiming) {
	if snap != nil {
		dist := snap.Position.Sub(a.Position).Len()
		if dist < a.DetectionRadius && math.Abs(snap.Speed) > a.EscapeThreshold {
			a.State = Fleeing
			return
		}
	}

	a.DirectionChangeTimer -= dt
	if a.DirectionChangeTimer <= 0 {
		a.Heading = planarHeading(r.Angle())
		a.DirectionChangeTimer = r.Float(wander.Min, wander.Max)
	}
	a.move(a.MoveSpeed, dt)
}

func (a *Agent) updateFleeing(dt float64, snap *PlayerSnapshot) {
	if snap == nil {
		a.State = Wandering
		return
	}
	away := a.Position.Sub(snap.Position)
	dist := away.Len()
	if dist > a.DetectionRadius*FleeExitFactor {
		a.State = Wandering
		return
	}
	if dist > FleeMinDistance {
		a.Heading = normalizeOrZero(away)
	}
	a.move(a.EscapeSpeed, dt)
}

func (a *Agent) updateDying(dt float64) {
	a.DeathTimer -= dt
	a.Orientation = a.Orientation.Mul(rotateY(mgl64.DegToRad(DyingSpinDegPerSec * dt))).Normalize()
	if a.DeathTimer <= timerEpsilon {
		a.DeathTimer = 0
		a.State = Dead
	}
}

// move advances along the heading and turns the agent to face it.
func (a *Agent) move(speed, dt float64) {
	step := a.Heading.Mul(speed * dt)
	if !finite(step) {
		return
	}
	a.Position = a.Position.Add(step)
	if speed*dt > 0 {
		a.faceHeading()
	}
}

// faceHeading sets the yaw from the planar heading. A vertical or zero
// heading leaves the orientation alone.
func (a *Agent) faceHeading() {
	x, z := a.Heading.X(), a.Heading.Z()
	if math.Hypot(x, z) <= headingEpsilon {
		return
	}
	a.Orientation = rotateY(math.Atan2(x, z))
}

// updateRange runs the behavior pass over slots [lo, hi) of the store.
func updateRange(s *Store, lo, hi int, dt float64, snap *PlayerSnapshot, r *Rand, wander WanderTiming) {
	for i := lo; i < hi; i++ {
		if a := s.agentAt(i); a != nil {
			a.update(dt, snap, r, wander)
		}
	}
}
