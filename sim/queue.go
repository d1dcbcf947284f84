package sim

import (
	"errors"
	"slices"

	"github.com/charmbracelet/log"
)

// ErrUnknownTemplate is reported when a create names an unregistered template.
var ErrUnknownTemplate = errors.New("sim: unknown agent template")

// OpKind is the kind of a deferred structural change.
type OpKind uint8

const (
	OpCreate OpKind = iota + 1
	OpDestroy
)

func (k OpKind) String() string {
	switch k {
	case OpCreate:
		return "create"
	case OpDestroy:
		return "destroy"
	default:
		return "unknown"
	}
}

// Mutation is one recorded create or destroy.
type Mutation struct {
	Kind OpKind
	Task int
	Seq  int

	// create
	Template    TemplateRef
	Pose        Pose
	WanderTimer float64

	// destroy
	Target Handle
}

// Recorder is the local buffer of one parallel task. Only the owning task
// appends to it.
type Recorder struct {
	task int
	seq  int
	ops  []Mutation
}

// Create records the creation of an agent from template at pose. The agent
// starts wandering with wanderTimer until its first heading change.
func (r *Recorder) Create(template TemplateRef, pose Pose, wanderTimer float64) {
	r.append(Mutation{Kind: OpCreate, Template: template, Pose: pose, WanderTimer: wanderTimer})
}

// Destroy records the removal of agent h.
func (r *Recorder) Destroy(h Handle) {
	r.append(Mutation{Kind: OpDestroy, Target: h})
}

func (r *Recorder) append(m Mutation) {
	m.Task = r.task
	m.Seq = r.seq
	r.seq++
	r.ops = append(r.ops, m)
}

// Queue collects structural changes from every task of a tick and plays them
// back once all tasks are done.
type Queue struct {
	recorders []*Recorder
}

// NewQueue creates a queue with one recorder per task.
func NewQueue(tasks int) *Queue {
	q := &Queue{recorders: make([]*Recorder, tasks)}
	for i := range q.recorders {
		q.recorders[i] = &Recorder{task: i}
	}
	return q
}

// Recorder returns the buffer for task i.
func (q *Queue) Recorder(i int) *Recorder { return q.recorders[i] }

// Len is the number of pending mutations.
func (q *Queue) Len() int {
	n := 0
	for _, r := range q.recorders {
		n += len(r.ops)
	}
	return n
}

// Drain returns all pending mutations ordered by task then local sequence and
// empties the queue.
func (q *Queue) Drain() []Mutation {
	out := make([]Mutation, 0, q.Len())
	for _, r := range q.recorders {
		out = append(out, r.ops...)
		r.ops = r.ops[:0]
		r.seq = 0
	}
	slices.SortStableFunc(out, func(a, b Mutation) int {
		if a.Task != b.Task {
			return a.Task - b.Task
		}
		return a.Seq - b.Seq
	})
	return out
}

// Playback drains the queue into the store. Destroying an absent agent is a
// no-op; creates naming an unknown template are skipped.
func (q *Queue) Playback(s *Store, reg TemplateRegistry, logger *log.Logger) (spawned, destroyed []Handle) {
	for _, m := range q.Drain() {
		switch m.Kind {
		case OpCreate:
			tpl, ok := reg.Resolve(m.Template)
			if !ok {
				logger.Warn("skipping create", "template", m.Template, "err", ErrUnknownTemplate)
				continue
			}
			a := tpl.Instantiate(m.Template, m.Pose)
			a.DirectionChangeTimer = m.WanderTimer
			spawned = append(spawned, s.Insert(a))
		case OpDestroy:
			if s.Remove(m.Target) {
				destroyed = append(destroyed, m.Target)
			}
		}
	}
	return spawned, destroyed
}
