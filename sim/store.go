package sim

import (
	"errors"
	"fmt"
)

// ErrStaleHandle is returned when a handle no longer names a live agent.
var ErrStaleHandle = errors.New("sim: stale agent handle")

// Handle is a stable reference to an agent slot. A handle stays valid until
// the agent is destroyed; the slot may then be reused under a new generation.
type Handle struct {
	Index uint32
	Gen   uint32
}

// ID packs the handle into a single integer for external consumers.
func (h Handle) ID() uint64 {
	return uint64(h.Gen)<<32 | uint64(h.Index)
}

// HandleFromID reverses Handle.ID.
func HandleFromID(id uint64) Handle {
	return Handle{Index: uint32(id), Gen: uint32(id >> 32)}
}

// IsZero reports whether h is the zero handle, which never names an agent.
func (h Handle) IsZero() bool { return h.Gen == 0 }

func (h Handle) String() string {
	return fmt.Sprintf("%d#%d", h.Index, h.Gen)
}

type slot struct {
	agent Agent
	gen   uint32
	live  bool
}

// Store is the flat arena holding every agent and spawner of the simulation.
// Removing an agent frees its slot without moving any other record.
type Store struct {
	slots    []slot
	free     []uint32
	live     int
	spawners []Spawner
}

// NewStore returns an empty store with room for capacity agents.
func NewStore(capacity int) *Store {
	return &Store{slots: make([]slot, 0, capacity)}
}

// Insert stores a and returns its handle. a.ID is overwritten.
func (s *Store) Insert(a Agent) Handle {
	var idx uint32
	if n := len(s.free); n > 0 {
		idx = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		idx = uint32(len(s.slots))
		s.slots = append(s.slots, slot{gen: 1})
	}
	sl := &s.slots[idx]
	h := Handle{Index: idx, Gen: sl.gen}
	a.ID = h
	sl.agent = a
	sl.live = true
	s.live++
	return h
}

// Remove frees the slot named by h. Removing a stale handle is a no-op and
// reports false.
func (s *Store) Remove(h Handle) bool {
	sl := s.slot(h)
	if sl == nil {
		return false
	}
	sl.live = false
	sl.agent = Agent{}
	sl.gen++
	if sl.gen == 0 {
		sl.gen = 1
	}
	s.free = append(s.free, h.Index)
	s.live--
	return true
}

// Get returns the live agent named by h.
func (s *Store) Get(h Handle) (*Agent, error) {
	sl := s.slot(h)
	if sl == nil {
		return nil, fmt.Errorf("get %s: %w", h, ErrStaleHandle)
	}
	return &sl.agent, nil
}

// Contains reports whether h names a live agent.
func (s *Store) Contains(h Handle) bool {
	return s.slot(h) != nil
}

// Len is the number of live agents.
func (s *Store) Len() int { return s.live }

// Live returns the handles of all live agents in slot order.
func (s *Store) Live() []Handle {
	out := make([]Handle, 0, s.live)
	for i := range s.slots {
		if s.slots[i].live {
			out = append(out, Handle{Index: uint32(i), Gen: s.slots[i].gen})
		}
	}
	return out
}

// Each calls fn for every live agent in slot order.
func (s *Store) Each(fn func(a *Agent)) {
	for i := range s.slots {
		if s.slots[i].live {
			fn(&s.slots[i].agent)
		}
	}
}

// AddSpawner registers a spawner for the lifetime of the store.
func (s *Store) AddSpawner(sp Spawner) int {
	s.spawners = append(s.spawners, sp)
	return len(s.spawners) - 1
}

// Spawners exposes the spawner records. The slice is owned by the store.
func (s *Store) Spawners() []Spawner { return s.spawners }

// capacity is the number of slots, live or free. Partitions index this range.
func (s *Store) capacity() int { return len(s.slots) }

// agentAt returns the live agent in slot i, or nil.
func (s *Store) agentAt(i int) *Agent {
	if !s.slots[i].live {
		return nil
	}
	return &s.slots[i].agent
}

func (s *Store) slot(h Handle) *slot {
	if h.IsZero() || int(h.Index) >= len(s.slots) {
		return nil
	}
	sl := &s.slots[h.Index]
	if !sl.live || sl.gen != h.Gen {
		return nil
	}
	return sl
}
