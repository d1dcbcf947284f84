package sim

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"
)

// AgentView is the per-agent state published after each tick for rendering
// and animation consumers.
type AgentView struct {
	ID            Handle
	Position      mgl64.Vec3
	Orientation   mgl64.Quat
	State         AgentState
	Heading       mgl64.Vec3
	MovementSpeed float64
	DeathTimer    float64
	DeathDuration float64
}

// TickResult is what one call to World.Tick produced.
type TickResult struct {
	Tick      uint64
	Agents    []AgentView
	Spawned   []Handle
	Destroyed []Handle
	Killed    []Handle // agents that started dying this tick
}

// World runs the per-tick phases over one Store.
//
// Tick is synchronous and must not be called concurrently with itself or
// with other World methods.
type World struct {
	store     *Store
	templates Templates
	rng       *RandPool
	queue     *Queue
	workers   int
	wander    WanderTiming
	spawn     SpawnTiming
	tick      uint64
	logger    *log.Logger
}

// Option customises a World.
type Option func(*World)

// WithLogger routes simulation logs to l.
func WithLogger(l *log.Logger) Option {
	return func(w *World) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithSeed overrides the configured seed.
func WithSeed(seed uint64) Option {
	return func(w *World) {
		w.rng = NewRandPool(seed, w.workers+1)
	}
}

// NewWorld builds a world from cfg: the mob template is registered as
// DefaultTemplate and every configured spawner is added to the store.
func NewWorld(cfg Config, opts ...Option) *World {
	cfg = cfg.Normalize()
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	w := &World{
		store:     NewStore(256),
		templates: Templates{DefaultTemplate: cfg.MobTemplate()},
		workers:   cfg.Workers,
		wander:    WanderTiming{Min: cfg.Spawn.WanderMin, Max: cfg.Spawn.WanderMax},
		spawn:     cfg.SpawnTiming(),
		logger:    log.New(io.Discard),
	}
	// one stream per worker plus one for collision resolution
	w.rng = NewRandPool(seed, w.workers+1)
	w.queue = NewQueue(w.workers)
	for _, opt := range opts {
		opt(w)
	}
	for _, sp := range cfg.BuildSpawners() {
		w.store.AddSpawner(sp)
	}
	return w
}

// Store exposes the agent store. Callers must not mutate it during Tick.
func (w *World) Store() *Store { return w.store }

// Workers is the number of parallel workers per phase.
func (w *World) Workers() int { return w.workers }

// Seed is the base seed of the random streams.
func (w *World) Seed() uint64 { return w.rng.Seed() }

// CurrentTick is the number of completed ticks.
func (w *World) CurrentTick() uint64 { return w.tick }

// RegisterTemplate adds or replaces a blueprint. Negative tuning is clamped.
func (w *World) RegisterTemplate(ref TemplateRef, t Template) {
	w.templates[ref] = t.Clamped()
}

// AddSpawner registers a spawner.
func (w *World) AddSpawner(sp Spawner) int {
	return w.store.AddSpawner(sp)
}

// Spawn inserts an agent immediately. It is meant for scene setup between
// ticks; during a tick all creation goes through the mutation queue.
func (w *World) Spawn(ref TemplateRef, pose Pose) (Handle, error) {
	tpl, ok := w.templates.Resolve(ref)
	if !ok {
		return Handle{}, ErrUnknownTemplate
	}
	return w.store.Insert(tpl.Instantiate(ref, pose)), nil
}

// Tick advances the simulation by dt seconds. snap may be nil when the
// player is not observed this tick; events are the contacts reported by the
// physics step for this tick.
func (w *World) Tick(dt float64, snap *PlayerSnapshot, events []ContactEvent) TickResult {
	if snap != nil {
		s := *snap
		snap = &s
	}

	parallelFor(w.workers, w.store.capacity(), func(task, lo, hi int) {
		updateRange(w.store, lo, hi, dt, snap, w.rng.Stream(task), w.wander)
	})

	killed := resolveCollisions(w.store, snap, events, w.rng.Stream(w.workers))

	nSlots := w.store.capacity()
	spawners := w.store.spawners
	runTasks(w.workers, func(task int) {
		rec := w.queue.Recorder(task)
		lo, hi := span(task, w.workers, nSlots)
		cleanupRange(w.store, lo, hi, rec)
		lo, hi = span(task, w.workers, len(spawners))
		spawnRange(spawners, lo, hi, dt, w.spawn, w.rng.Stream(task), rec)
	})

	spawned, destroyed := w.queue.Playback(w.store, w.templates, w.logger)
	w.tick++

	if len(killed)+len(spawned)+len(destroyed) > 0 {
		w.logger.Debug("tick",
			"tick", w.tick,
			"live", w.store.Len(),
			"killed", len(killed),
			"spawned", len(spawned),
			"destroyed", len(destroyed),
		)
	}

	return TickResult{
		Tick:      w.tick,
		Agents:    w.Views(),
		Spawned:   spawned,
		Destroyed: destroyed,
		Killed:    killed,
	}
}

// Views returns the current state of every live agent in slot order.
func (w *World) Views() []AgentView {
	out := make([]AgentView, 0, w.store.Len())
	w.store.Each(func(a *Agent) {
		out = append(out, AgentView{
			ID:            a.ID,
			Position:      a.Position,
			Orientation:   a.Orientation,
			State:         a.State,
			Heading:       a.Heading,
			MovementSpeed: a.MovementSpeed(),
			DeathTimer:    a.DeathTimer,
			DeathDuration: a.DeathDuration,
		})
	})
	return out
}
