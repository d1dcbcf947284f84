package main

import (
	"slices"

	"github.com/adoringonion/ecs-practice/sim"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	PlayerRadius = 0.5
	AgentRadius  = 0.5
)

// CheckCollision checks if two spheres overlap
func CheckCollision(a mgl64.Vec3, ra float64, b mgl64.Vec3, rb float64) bool {
	d := b.Sub(a)
	radSum := ra + rb
	return d.Dot(d) <= radSum*radSum
}

// DetectContacts is the physics step: it reports one player/agent contact
// per overlapping agent, ordered by slot so that runs replay identically.
func DetectContacts(grid *SpatialGrid, player mgl64.Vec3, store *sim.Store) []sim.ContactEvent {
	grid.Clear()
	store.Each(func(a *sim.Agent) {
		grid.Insert(a.Position.X(), a.Position.Z(), a.ID)
	})

	near := grid.QueryBuf(player.X(), player.Z(), PlayerRadius+AgentRadius, grid.scratch[:0])
	grid.scratch = near
	slices.SortFunc(near, func(a, b sim.Handle) int { return int(a.Index) - int(b.Index) })

	var events []sim.ContactEvent
	for _, h := range near {
		a, err := store.Get(h)
		if err != nil {
			continue
		}
		if CheckCollision(player, PlayerRadius, a.Position, AgentRadius) {
			events = append(events, sim.ContactEvent{A: sim.PlayerRef(), B: sim.AgentRef(h)})
		}
	}
	return events
}
