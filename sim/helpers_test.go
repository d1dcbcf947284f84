package sim

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Seed = 42
	cfg.Workers = 4
	cfg.Spawners = nil
	return cfg
}

func testAgent(pos mgl64.Vec3) Agent {
	return DefaultConfig().MobTemplate().Instantiate(DefaultTemplate, Pose{Position: pos})
}

func snapshotAt(pos mgl64.Vec3, speed float64) *PlayerSnapshot {
	return &PlayerSnapshot{Position: pos, Speed: speed, Forward: Forward}
}

// assertVecNear compares component-wise with an absolute tolerance.
// mgl64's ApproxEqual is relative and fails near zero components.
func assertVecNear(t *testing.T, want, got mgl64.Vec3, delta float64) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], delta, "component %d of %v, want %v", i, got, want)
	}
}

var defaultWander = WanderTiming{Min: 0.5, Max: 2}
