package main

import (
	"io"
	"sync"
	"time"

	"github.com/adoringonion/ecs-practice/sim"
	"github.com/charmbracelet/log"
)

// Event kinds recorded per tick
const (
	EvtSpawn   = "spawn"
	EvtKill    = "kill"
	EvtDestroy = "destroy"
)

// SimEvent is one structural change of the simulation.
type SimEvent struct {
	RunID     string
	Tick      uint64
	Kind      string
	Agent     uint64
	X, Z      float64
	Timestamp time.Time
}

// Analytics records simulation events with batched background writes. It
// only observes the run; nothing it stores is read back into the simulation.
type Analytics struct {
	db     *DB
	logger *log.Logger
	events chan SimEvent
	stop   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once

	mu      sync.Mutex
	dropped int
}

// NewAnalytics creates and starts the analytics background writer. A nil
// logger discards write errors.
func NewAnalytics(db *DB, logger *log.Logger) *Analytics {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	a := &Analytics{
		db:     db,
		logger: logger,
		events: make(chan SimEvent, 4096),
		stop:   make(chan struct{}),
	}
	a.wg.Add(1)
	go a.writer()
	return a
}

// Track enqueues an event for async persistence (non-blocking)
func (a *Analytics) Track(e SimEvent) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	select {
	case a.events <- e:
	default:
		// channel full: drop rather than stall the tick loop
		a.mu.Lock()
		a.dropped++
		a.mu.Unlock()
	}
}

// TrackTick records every spawn, kill and destroy of res. Destroyed agents
// are already gone from res.Agents, so last positions come from prev.
func (a *Analytics) TrackTick(runID string, res sim.TickResult, prev map[sim.Handle]sim.AgentView) {
	if len(res.Spawned)+len(res.Killed)+len(res.Destroyed) == 0 {
		return
	}
	now := time.Now().UTC()
	cur := make(map[sim.Handle]sim.AgentView, len(res.Spawned)+len(res.Killed))
	for _, v := range res.Agents {
		cur[v.ID] = v
	}
	emit := func(kind string, h sim.Handle, v sim.AgentView) {
		a.Track(SimEvent{
			RunID: runID, Tick: res.Tick, Kind: kind, Agent: h.ID(),
			X: v.Position.X(), Z: v.Position.Z(), Timestamp: now,
		})
	}
	for _, h := range res.Spawned {
		emit(EvtSpawn, h, cur[h])
	}
	for _, h := range res.Killed {
		emit(EvtKill, h, cur[h])
	}
	for _, h := range res.Destroyed {
		emit(EvtDestroy, h, prev[h])
	}
}

// Dropped is the number of events lost to a full queue.
func (a *Analytics) Dropped() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dropped
}

// Stop flushes pending events and shuts the writer down. Track must not be
// called after Stop.
func (a *Analytics) Stop() {
	a.once.Do(func() {
		close(a.stop)
		a.wg.Wait()
	})
}

// writer is the background goroutine that batches and writes events to DB
func (a *Analytics) writer() {
	defer a.wg.Done()

	batch := make([]SimEvent, 0, 256)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case evt := <-a.events:
			batch = append(batch, evt)
			if len(batch) >= 200 {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-a.stop:
			for {
				select {
				case evt := <-a.events:
					batch = append(batch, evt)
				default:
					a.flush(batch)
					return
				}
			}
		}
	}
}

// flush writes a batch of events in one transaction
func (a *Analytics) flush(events []SimEvent) {
	if a.db == nil || len(events) == 0 {
		return
	}
	tx, err := a.db.conn.Begin()
	if err != nil {
		a.logger.Error("begin tx", "err", err)
		return
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO sim_events (run_id, tick, kind, agent, x, z, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		a.logger.Error("prepare", "err", err)
		return
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.Exec(e.RunID, int64(e.Tick), e.Kind, int64(e.Agent), e.X, e.Z, e.Timestamp.Format(time.RFC3339Nano)); err != nil {
			a.logger.Error("insert", "err", err)
		}
	}
	if err := tx.Commit(); err != nil {
		a.logger.Error("commit", "err", err)
	}
}

// EventCounts returns the number of events of each kind recorded for runID.
func (a *Analytics) EventCounts(runID string) (map[string]int, error) {
	if a.db == nil {
		return nil, nil
	}
	rows, err := a.db.conn.Query(`
		SELECT kind, COUNT(*) FROM sim_events
		WHERE run_id = ?
		GROUP BY kind
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			continue
		}
		result[kind] = count
	}
	return result, rows.Err()
}
