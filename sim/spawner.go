package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Spawner periodically creates agents around its position.
type Spawner struct {
	Template TemplateRef
	Position mgl64.Vec3
	Timer    float64 // seconds until the next spawn
	Active   bool
}

// SpawnTiming holds the random ranges used when a spawner fires.
type SpawnTiming struct {
	IntervalMin float64
	IntervalMax float64
	Radius      float64
	Wander      WanderTiming
}

// tick advances one spawner and records a create when its timer runs out.
//
// The radial distance is drawn uniformly, not by square root, so spawns
// cluster toward the spawner's center.
func (sp *Spawner) tick(dt float64, timing SpawnTiming, r *Rand, rec *Recorder) bool {
	if !sp.Active {
		return false
	}
	sp.Timer -= dt
	if sp.Timer > 0 {
		return false
	}
	sp.Timer = r.Float(timing.IntervalMin, timing.IntervalMax)

	angle := r.Angle()
	dist := r.Float(0, timing.Radius)
	offset := mgl64.Vec3{math.Cos(angle) * dist, 0, math.Sin(angle) * dist}
	pose := Pose{
		Position:    sp.Position.Add(offset),
		Orientation: rotateY(angle),
	}
	rec.Create(sp.Template, pose, r.Float(timing.Wander.Min, timing.Wander.Max))
	return true
}

// cleanupRange records a destroy for every dead agent in slots [lo, hi).
func cleanupRange(s *Store, lo, hi int, rec *Recorder) {
	for i := lo; i < hi; i++ {
		if a := s.agentAt(i); a != nil && a.State == Dead {
			rec.Destroy(a.ID)
		}
	}
}

// spawnRange ticks spawners [lo, hi).
func spawnRange(spawners []Spawner, lo, hi int, dt float64, timing SpawnTiming, r *Rand, rec *Recorder) {
	for i := lo; i < hi; i++ {
		spawners[i].tick(dt, timing, r, rec)
	}
}
