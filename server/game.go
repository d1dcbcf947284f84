package main

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/adoringonion/ecs-practice/feed"
	"github.com/adoringonion/ecs-practice/sim"
	"github.com/charmbracelet/log"
)

// BroadcastRate is the number of frames per second sent to observers.
const BroadcastRate = 30

// Broadcaster receives every published frame.
type Broadcaster interface {
	Broadcast(f *feed.Frame)
}

// GameOptions wires optional collaborators into a Game.
type GameOptions struct {
	RunID     string
	Analytics *Analytics // nil disables event recording
	Logger    *log.Logger
	Seed      uint64 // overrides the config seed when non-zero
}

// Game drives one simulation run: player input in, frames out.
type Game struct {
	mu        sync.Mutex
	world     *sim.World
	player    *sim.Player
	input     sim.PlayerInput
	grid      *SpatialGrid
	frames    *FrameBuilder
	prev      map[sim.Handle]sim.AgentView
	analytics *Analytics
	out       Broadcaster
	runID     string
	tickRate  int
	every     uint64
	logger    *log.Logger
}

// NewGame builds the world and the player from cfg.
func NewGame(cfg sim.Config, opts GameOptions) *Game {
	cfg = cfg.Normalize()
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	simOpts := []sim.Option{sim.WithLogger(logger.WithPrefix("sim"))}
	if opts.Seed != 0 {
		simOpts = append(simOpts, sim.WithSeed(opts.Seed))
	}
	runID := opts.RunID
	if runID == "" {
		runID = NewRunID()
	}
	return &Game{
		world:     sim.NewWorld(cfg, simOpts...),
		player:    sim.NewPlayer(cfg.Player),
		grid:      NewSpatialGrid(),
		frames:    NewFrameBuilder(),
		prev:      make(map[sim.Handle]sim.AgentView),
		analytics: opts.Analytics,
		runID:     runID,
		tickRate:  cfg.TickRateHz,
		every:     uint64(max(1, cfg.TickRateHz/BroadcastRate)),
		logger:    logger,
	}
}

// SetBroadcaster sets where frames are published.
func (g *Game) SetBroadcaster(b Broadcaster) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.out = b
}

// SetInput replaces the input applied on the next ticks.
func (g *Game) SetInput(in sim.PlayerInput) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.input = in
}

// Run ticks the game at the configured rate until ctx is done.
func (g *Game) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second / time.Duration(g.tickRate))
	defer ticker.Stop()

	g.logger.Info("simulation started", "run", g.runID, "seed", g.world.Seed(), "workers", g.world.Workers(), "hz", g.tickRate)
	for {
		select {
		case <-ticker.C:
			g.Step()
		case <-ctx.Done():
			g.logger.Info("simulation stopped", "run", g.runID, "tick", g.world.CurrentTick())
			return
		}
	}
}

// Step runs one fixed tick: player, contacts, simulation, analytics and
// (every few ticks) a frame broadcast. It returns the frame it built.
func (g *Game) Step() *feed.Frame {
	g.mu.Lock()
	defer g.mu.Unlock()

	dt := 1.0 / float64(g.tickRate)
	g.player.Update(dt, g.input)
	snap := g.player.Snapshot()

	events := DetectContacts(g.grid, snap.Position, g.world.Store())
	res := g.world.Tick(dt, snap, events)

	if g.analytics != nil {
		g.analytics.TrackTick(g.runID, res, g.prev)
	}
	clear(g.prev)
	for _, v := range res.Agents {
		g.prev[v.ID] = v
	}

	frame := g.frames.Build(res, g.player, dt)
	if g.out != nil && res.Tick%g.every == 0 {
		g.out.Broadcast(frame)
	}
	return frame
}

// Stats summarizes the run for /stats.
func (g *Game) Stats() StatsMsg {
	g.mu.Lock()
	defer g.mu.Unlock()
	return StatsMsg{
		RunID:  g.runID,
		Seed:   g.world.Seed(),
		Tick:   g.world.CurrentTick(),
		Live:   g.world.Store().Len(),
		Digest: g.world.Digest(),
	}
}

// RunID identifies this run in analytics.
func (g *Game) RunID() string { return g.runID }

// TickRate is the fixed simulation rate in Hz.
func (g *Game) TickRate() int { return g.tickRate }

// Seed is the seed of the simulation random streams.
func (g *Game) Seed() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.world.Seed()
}
