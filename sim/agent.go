package sim

import (
	"github.com/go-gl/mathgl/mgl64"
)

// AgentState is the behavior state of an agent.
type AgentState uint8

const (
	Wandering AgentState = iota
	Fleeing
	Dying
	Dead
)

func (s AgentState) String() string {
	switch s {
	case Wandering:
		return "wandering"
	case Fleeing:
		return "fleeing"
	case Dying:
		return "dying"
	case Dead:
		return "dead"
	default:
		return "unknown"
	}
}

// Valid reports whether s is one of the four known states.
func (s AgentState) Valid() bool {
	return s <= Dead
}

// Behavior tuning that is not part of the per-agent template.
const (
	FleeExitFactor      = 1.5  // fleeing stops beyond detectionRadius * FleeExitFactor
	FleeMinDistance     = 0.1  // below this the flee heading is kept as is
	KnockbackSpreadDeg  = 30.0 // knockback direction jitter, +/- degrees
	KnockbackMultiplier = 2.0
	DyingSpinDegPerSec  = 360.0
)

// Agent is one simulated mob.
type Agent struct {
	ID          Handle
	Template    TemplateRef
	Position    mgl64.Vec3
	Orientation mgl64.Quat
	State       AgentState

	// Heading drives displacement; unit or zero while wandering/fleeing,
	// scaled by the impact force once dying.
	Heading mgl64.Vec3

	MoveSpeed       float64
	EscapeSpeed     float64
	DetectionRadius float64
	EscapeThreshold float64

	DirectionChangeTimer float64
	DeathTimer           float64
	DeathDuration        float64
}

// MovementSpeed is the speed the agent currently moves at, as seen by
// animation consumers.
func (a *Agent) MovementSpeed() float64 {
	switch a.State {
	case Wandering:
		return a.MoveSpeed
	case Fleeing:
		return a.EscapeSpeed
	default:
		return 0
	}
}

// Alive reports whether the agent still takes part in wander/flee logic.
func (a *Agent) Alive() bool {
	return a.State == Wandering || a.State == Fleeing
}

// Pose is an initial transform for a new agent.
type Pose struct {
	Position    mgl64.Vec3
	Orientation mgl64.Quat
}

// TemplateRef names an agent blueprint in a TemplateRegistry.
type TemplateRef string

// DefaultTemplate is the blueprint registered from Config.Template.
const DefaultTemplate TemplateRef = "mob"

// Template is an agent blueprint.
type Template struct {
	MoveSpeed       float64
	EscapeSpeed     float64
	DetectionRadius float64
	EscapeThreshold float64
	DeathDuration   float64
	Heading         mgl64.Vec3
	DirectionTimer  float64
}

// Clamped returns t with every negative scalar clamped to zero.
func (t Template) Clamped() Template {
	t.MoveSpeed = nonNegative(t.MoveSpeed)
	t.EscapeSpeed = nonNegative(t.EscapeSpeed)
	t.DetectionRadius = nonNegative(t.DetectionRadius)
	t.EscapeThreshold = nonNegative(t.EscapeThreshold)
	t.DeathDuration = nonNegative(t.DeathDuration)
	t.DirectionTimer = nonNegative(t.DirectionTimer)
	if !finite(t.Heading) {
		t.Heading = mgl64.Vec3{}
	}
	return t
}

// Instantiate builds a wandering agent from the template at pose. The
// template heading is expressed in the agent's local frame.
func (t Template) Instantiate(ref TemplateRef, pose Pose) Agent {
	orientation := pose.Orientation
	if orientation.Len() == 0 {
		orientation = mgl64.QuatIdent()
	}
	return Agent{
		Template:             ref,
		Position:             pose.Position,
		Orientation:          orientation,
		State:                Wandering,
		Heading:              normalizeOrZero(orientation.Rotate(t.Heading)),
		MoveSpeed:            t.MoveSpeed,
		EscapeSpeed:          t.EscapeSpeed,
		DetectionRadius:      t.DetectionRadius,
		EscapeThreshold:      t.EscapeThreshold,
		DirectionChangeTimer: t.DirectionTimer,
		DeathTimer:           t.DeathDuration,
		DeathDuration:        t.DeathDuration,
	}
}

// TemplateRegistry resolves template handles for spawning.
type TemplateRegistry interface {
	Resolve(ref TemplateRef) (Template, bool)
}

// Templates is a map-backed TemplateRegistry.
type Templates map[TemplateRef]Template

func (t Templates) Resolve(ref TemplateRef) (Template, bool) {
	tpl, ok := t[ref]
	return tpl, ok
}

func nonNegative(v float64) float64 {
	if v < 0 || v != v {
		return 0
	}
	return v
}
