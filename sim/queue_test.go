package sim

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueDrainOrdersByTaskThenSequence(t *testing.T) {
	q := NewQueue(3)
	q.Recorder(2).Destroy(Handle{Index: 1, Gen: 1})
	q.Recorder(0).Create(DefaultTemplate, Pose{}, 1)
	q.Recorder(2).Create(DefaultTemplate, Pose{}, 2)
	q.Recorder(0).Destroy(Handle{Index: 2, Gen: 1})

	require.Equal(t, 4, q.Len())
	ops := q.Drain()
	require.Len(t, ops, 4)

	var got [][2]int
	for _, m := range ops {
		got = append(got, [2]int{m.Task, m.Seq})
	}
	assert.Equal(t, [][2]int{{0, 0}, {0, 1}, {2, 0}, {2, 1}}, got)
	assert.Equal(t, OpCreate, ops[0].Kind)
	assert.Equal(t, OpDestroy, ops[2].Kind)
	assert.Zero(t, q.Len())
}

func TestQueuePlaybackAppliesCreatesAndDestroys(t *testing.T) {
	s := NewStore(4)
	victim := s.Insert(testAgent(mgl64.Vec3{}))
	reg := Templates{DefaultTemplate: DefaultConfig().MobTemplate()}

	q := NewQueue(2)
	q.Recorder(1).Create(DefaultTemplate, Pose{Position: mgl64.Vec3{3, 0, 0}, Orientation: mgl64.QuatIdent()}, 1.25)
	q.Recorder(0).Destroy(victim)

	spawned, destroyed := q.Playback(s, reg, log.New(io.Discard))

	assert.Equal(t, []Handle{victim}, destroyed)
	require.Len(t, spawned, 1)
	assert.False(t, s.Contains(victim))
	a, err := s.Get(spawned[0])
	require.NoError(t, err)
	assert.Equal(t, Wandering, a.State)
	assert.Equal(t, mgl64.Vec3{3, 0, 0}, a.Position)
	assert.Equal(t, 1.25, a.DirectionChangeTimer)
}

func TestQueuePlaybackSkipsUnknownTemplateAndAbsentTarget(t *testing.T) {
	s := NewStore(4)
	gone := s.Insert(testAgent(mgl64.Vec3{}))
	s.Remove(gone)

	q := NewQueue(1)
	q.Recorder(0).Create("nope", Pose{}, 1)
	q.Recorder(0).Destroy(gone)
	q.Recorder(0).Destroy(gone)

	spawned, destroyed := q.Playback(s, Templates{}, log.New(io.Discard))
	assert.Empty(t, spawned)
	assert.Empty(t, destroyed)
	assert.Zero(t, s.Len())
}

func TestQueueDoubleDestroyRemovesOnce(t *testing.T) {
	s := NewStore(4)
	h := s.Insert(testAgent(mgl64.Vec3{}))

	q := NewQueue(2)
	q.Recorder(0).Destroy(h)
	q.Recorder(1).Destroy(h)

	_, destroyed := q.Playback(s, Templates{}, log.New(io.Discard))
	assert.Equal(t, []Handle{h}, destroyed)
}

func TestOpKindString(t *testing.T) {
	assert.Equal(t, "create", OpCreate.String())
	assert.Equal(t, "destroy", OpDestroy.String())
	assert.Equal(t, "unknown", OpKind(0).String())
}
