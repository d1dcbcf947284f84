package sim

import (
	"math"
)

// EntityKind classifies one side of a contact.
type EntityKind uint8

const (
	KindOther EntityKind = iota
	KindPlayer
	KindAgent
)

// EntityRef names a simulation entity in a contact event.
type EntityRef struct {
	Kind  EntityKind
	Agent Handle // set when Kind == KindAgent
}

// PlayerRef is the entity reference of the tracked player.
func PlayerRef() EntityRef { return EntityRef{Kind: KindPlayer} }

// AgentRef is the entity reference of an agent.
func AgentRef(h Handle) EntityRef { return EntityRef{Kind: KindAgent, Agent: h} }

// ContactEvent is one pairwise contact reported by the physics step.
type ContactEvent struct {
	A, B EntityRef
}

// playerAgent returns the agent side of a player/agent pair.
func (e ContactEvent) playerAgent() (Handle, bool) {
	switch {
	case e.A.Kind == KindPlayer && e.B.Kind == KindAgent:
		return e.B.Agent, true
	case e.B.Kind == KindPlayer && e.A.Kind == KindAgent:
		return e.A.Agent, true
	default:
		return Handle{}, false
	}
}

// resolveCollisions applies the lethal-contact rule to every event in order
// and returns the agents that started dying.
func resolveCollisions(s *Store, snap *PlayerSnapshot, events []ContactEvent, r *Rand) []Handle {
	var killed []Handle
	for _, ev := range events {
		h, ok := ev.playerAgent()
		if !ok {
			continue
		}
		a, err := s.Get(h)
		if err != nil {
			continue
		}
		if knockDown(a, snap, r) {
			killed = append(killed, h)
		}
	}
	return killed
}

// knockDown puts a into Dying when the player hits it hard enough.
func knockDown(a *Agent, snap *PlayerSnapshot, r *Rand) bool {
	if !a.Alive() || snap == nil {
		return false
	}
	if math.Abs(snap.Speed) <= a.EscapeThreshold {
		return false
	}
	phi := r.Float(-KnockbackSpreadDeg, KnockbackSpreadDeg)
	dir := normalizeOrZero(RotateAroundUp(snap.Forward, phi))
	a.Heading = dir.Mul(snap.Speed * KnockbackMultiplier)
	a.State = Dying
	a.DeathTimer = a.DeathDuration
	return true
}
