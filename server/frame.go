package main

import (
	"math"

	"github.com/adoringonion/ecs-practice/feed"
	"github.com/adoringonion/ecs-practice/sim"
)

// Visual tuning. These only shape what observers see; nothing here is fed
// back into the simulation.
const (
	BobFrequency   = 4.0 // radians per second
	BobHeight      = 0.1
	EscapeBobRate  = 2.0
	EscapeBobScale = 1.5
	EscapeWobble   = 0.1 // yaw amplitude, radians
	DyingMinScale  = 0.2
	DyingSinkDepth = -0.5
)

// FrameBuilder turns tick results into feed frames and keeps the per-agent
// bob phase between frames.
type FrameBuilder struct {
	phases  map[uint64]float64
	elapsed float64
}

func NewFrameBuilder() *FrameBuilder {
	return &FrameBuilder{phases: make(map[uint64]float64)}
}

// Build advances the visual clocks by dt and renders res.
func (b *FrameBuilder) Build(res sim.TickResult, player *sim.Player, dt float64) *feed.Frame {
	b.elapsed += dt
	for _, h := range res.Destroyed {
		delete(b.phases, h.ID())
	}

	f := &feed.Frame{
		Tick: res.Tick,
		Player: feed.PlayerFrame{
			X:     player.Position.X(),
			Z:     player.Position.Z(),
			Yaw:   Yaw(player.Orientation),
			Speed: player.CurrentSpeed,
		},
		Agents:    make([]feed.AgentFrame, 0, len(res.Agents)),
		Spawned:   len(res.Spawned),
		Killed:    len(res.Killed),
		Destroyed: len(res.Destroyed),
	}
	for _, v := range res.Agents {
		f.Agents = append(f.Agents, b.agentFrame(v, dt))
	}
	return f
}

func (b *FrameBuilder) agentFrame(v sim.AgentView, dt float64) feed.AgentFrame {
	af := feed.AgentFrame{
		ID:            v.ID.ID(),
		X:             v.Position.X(),
		Y:             v.Position.Y(),
		Z:             v.Position.Z(),
		Yaw:           Yaw(v.Orientation),
		State:         uint8(v.State),
		Scale:         1,
		MovementSpeed: v.MovementSpeed,
	}
	AnimationParams(&af, v.State)

	id := v.ID.ID()
	switch v.State {
	case sim.Wandering:
		b.phases[id] += dt * BobFrequency
		af.Y = math.Sin(b.phases[id]) * BobHeight
	case sim.Fleeing:
		b.phases[id] += dt * BobFrequency * EscapeBobRate
		af.Y = math.Sin(b.phases[id]) * BobHeight * EscapeBobScale
		af.Yaw += math.Sin(b.elapsed*15) * EscapeWobble
	case sim.Dying:
		t := dyingProgress(v.DeathTimer, v.DeathDuration)
		af.Scale = Lerp(1, DyingMinScale, t)
		af.Y = Lerp(0, DyingSinkDepth, t)
	}
	return af
}

// AnimationParams fills the animator flags for state.
func AnimationParams(af *feed.AgentFrame, state sim.AgentState) {
	af.IsMoving = state == sim.Wandering || state == sim.Fleeing
	af.IsEscaping = state == sim.Fleeing
	af.IsDying = state == sim.Dying
}

// dyingProgress is 0 when the death timer starts and 1 when it runs out.
func dyingProgress(timer, duration float64) float64 {
	if duration <= 0 {
		return 1
	}
	return Clamp(1-timer/duration, 0, 1)
}
