package sim

import (
	"bytes"
	"math"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorldSpawnerCreatesWanderingAgent(t *testing.T) {
	cfg := testConfig()
	cfg.Spawners = []SpawnerConfig{{Position: [3]float64{10, 0, 0}, Timer: 0.05}}
	w := NewWorld(cfg)

	res := w.Tick(0.1, nil, nil)

	require.Len(t, res.Spawned, 1)
	assert.Equal(t, uint64(1), res.Tick)
	require.Len(t, res.Agents, 1)
	v := res.Agents[0]
	assert.Equal(t, res.Spawned[0], v.ID)
	assert.Equal(t, Wandering, v.State)
	assert.LessOrEqual(t, v.Position.Sub(mgl64.Vec3{10, 0, 0}).Len(), 5+1e-9)
	assert.Zero(t, v.Position.Y())

	a, err := w.Store().Get(v.ID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, a.DirectionChangeTimer, 0.5)
	assert.Less(t, a.DirectionChangeTimer, 2.0)
	assert.InDelta(t, 1, a.Heading.Len(), 1e-9)

	sp := w.Store().Spawners()[0]
	assert.GreaterOrEqual(t, sp.Timer, 1.0)
	assert.Less(t, sp.Timer, 5.0)
}

func TestWorldRemovesDeadAgentsInTheSameTick(t *testing.T) {
	w := NewWorld(testConfig())
	h, err := w.Spawn(DefaultTemplate, Pose{})
	require.NoError(t, err)
	a, _ := w.Store().Get(h)
	a.State = Dying
	a.DeathTimer = 0.1

	res := w.Tick(0.1, nil, nil)

	assert.Equal(t, []Handle{h}, res.Destroyed)
	assert.Empty(t, res.Agents)
	assert.False(t, w.Store().Contains(h))
}

func TestWorldFastContactKillsAgent(t *testing.T) {
	w := NewWorld(testConfig())
	h, err := w.Spawn(DefaultTemplate, Pose{Position: mgl64.Vec3{0, 0, 1}})
	require.NoError(t, err)
	slow, err := w.Spawn(DefaultTemplate, Pose{Position: mgl64.Vec3{20, 0, 0}})
	require.NoError(t, err)

	snap := &PlayerSnapshot{Position: mgl64.Vec3{}, Speed: 10, Forward: Forward}
	res := w.Tick(0.1, snap, []ContactEvent{{A: PlayerRef(), B: AgentRef(h)}})

	assert.Equal(t, []Handle{h}, res.Killed)
	views := map[Handle]AgentView{}
	for _, v := range res.Agents {
		views[v.ID] = v
	}
	assert.Equal(t, Dying, views[h].State)
	assert.Zero(t, views[h].MovementSpeed)
	assert.InDelta(t, 20, views[h].Heading.Len(), 1e-9)
	assert.Equal(t, Wandering, views[slow].State)
}

func TestWorldContactBeforeDeathCountsOnce(t *testing.T) {
	w := NewWorld(testConfig())
	h, _ := w.Spawn(DefaultTemplate, Pose{})
	snap := &PlayerSnapshot{Speed: 10, Forward: Forward}
	ev := []ContactEvent{{A: AgentRef(h), B: PlayerRef()}}

	first := w.Tick(0.1, snap, ev)
	second := w.Tick(0.1, snap, ev)

	assert.Len(t, first.Killed, 1)
	assert.Empty(t, second.Killed)
}

func TestWorldSnapshotIsCopied(t *testing.T) {
	w := NewWorld(testConfig())
	h, _ := w.Spawn(DefaultTemplate, Pose{Position: mgl64.Vec3{1, 0, 0}})
	snap := &PlayerSnapshot{Speed: 10, Forward: Forward}

	w.Tick(0.1, snap, nil)
	snap.Position = mgl64.Vec3{100, 0, 0}

	a, _ := w.Store().Get(h)
	assert.Equal(t, Fleeing, a.State)
}

func TestWorldSpawnRejectsUnknownTemplate(t *testing.T) {
	w := NewWorld(testConfig())
	_, err := w.Spawn("ghost", Pose{})
	assert.ErrorIs(t, err, ErrUnknownTemplate)

	w.RegisterTemplate("ghost", Template{MoveSpeed: -2, Heading: Forward})
	h, err := w.Spawn("ghost", Pose{})
	require.NoError(t, err)
	a, _ := w.Store().Get(h)
	assert.Zero(t, a.MoveSpeed)
}

func TestWorldLogsStructuralChanges(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	cfg := testConfig()
	cfg.Spawners = []SpawnerConfig{{Timer: 0}}
	w := NewWorld(cfg, WithLogger(logger))

	w.Tick(0.1, nil, nil)
	assert.Contains(t, buf.String(), "spawned=1")
}

func runScenario(seed uint64, ticks int) (*World, []string) {
	cfg := testConfig()
	cfg.Spawners = []SpawnerConfig{
		{Position: [3]float64{0, 0, 0}},
		{Position: [3]float64{8, 0, 8}, Timer: 0.5},
		{Position: [3]float64{-8, 0, 4}, Timer: 1},
	}
	w := NewWorld(cfg, WithSeed(seed))
	p := NewPlayer(cfg.Player)

	digests := make([]string, 0, ticks)
	for i := 0; i < ticks; i++ {
		p.Update(1.0/60, PlayerInput{Horizontal: math.Sin(float64(i) / 20), Vertical: 1})
		snap := p.Snapshot()

		var events []ContactEvent
		w.Store().Each(func(a *Agent) {
			if a.Position.Sub(snap.Position).Len() < 1 {
				events = append(events, ContactEvent{A: PlayerRef(), B: AgentRef(a.ID)})
			}
		})
		w.Tick(1.0/60, snap, events)
		digests = append(digests, w.Digest())
	}
	return w, digests
}

func TestWorldIsReproducibleForFixedSeed(t *testing.T) {
	w1, d1 := runScenario(1234, 200)
	w2, d2 := runScenario(1234, 200)

	assert.Equal(t, d1, d2)
	assert.Equal(t, w1.Views(), w2.Views())
	assert.Positive(t, w1.Store().Len(), "scenario should have spawned agents")

	_, d3 := runScenario(99, 200)
	assert.NotEqual(t, d1[len(d1)-1], d3[len(d3)-1])
}

func TestWorldStatesStayInDomain(t *testing.T) {
	cfg := testConfig()
	cfg.Spawners = []SpawnerConfig{{Position: [3]float64{0, 0, 0}}, {Position: [3]float64{3, 0, 3}}}
	w := NewWorld(cfg)
	p := NewPlayer(cfg.Player)

	for i := 0; i < 300; i++ {
		p.Update(1.0/60, PlayerInput{Horizontal: 0.5, Vertical: 1})
		snap := p.Snapshot()
		var events []ContactEvent
		w.Store().Each(func(a *Agent) {
			if a.Position.Sub(snap.Position).Len() < 1 {
				events = append(events, ContactEvent{A: PlayerRef(), B: AgentRef(a.ID)})
			}
		})
		res := w.Tick(1.0/60, snap, events)
		for _, v := range res.Agents {
			require.True(t, v.State.Valid(), "tick %d: agent %v in state %d", res.Tick, v.ID, v.State)
			require.NotEqual(t, Dead, v.State, "dead agents are removed in the tick they die")
		}
	}
}

func TestAgentStateValid(t *testing.T) {
	for _, s := range []AgentState{Wandering, Fleeing, Dying, Dead} {
		assert.True(t, s.Valid(), s.String())
	}
	assert.False(t, AgentState(Dead+1).Valid())
	assert.Equal(t, "unknown", AgentState(Dead+1).String())
}

func TestWorldWithSeedOverridesConfig(t *testing.T) {
	w := NewWorld(testConfig(), WithSeed(5))
	assert.Equal(t, uint64(5), w.Seed())
	assert.Equal(t, 4, w.Workers())
	assert.Zero(t, w.CurrentTick())
}
