package sim

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreInsertGetRemove(t *testing.T) {
	s := NewStore(2)
	h := s.Insert(testAgent(mgl64.Vec3{1, 2, 3}))

	require.True(t, s.Contains(h))
	assert.Equal(t, 1, s.Len())
	a, err := s.Get(h)
	require.NoError(t, err)
	assert.Equal(t, h, a.ID)
	assert.Equal(t, mgl64.Vec3{1, 2, 3}, a.Position)

	assert.True(t, s.Remove(h))
	assert.False(t, s.Remove(h), "second remove is a no-op")
	assert.Equal(t, 0, s.Len())

	_, err = s.Get(h)
	assert.ErrorIs(t, err, ErrStaleHandle)
}

func TestStoreReusesSlotUnderNewGeneration(t *testing.T) {
	s := NewStore(2)
	old := s.Insert(testAgent(mgl64.Vec3{}))
	s.Remove(old)

	fresh := s.Insert(testAgent(mgl64.Vec3{5, 0, 0}))
	assert.Equal(t, old.Index, fresh.Index)
	assert.NotEqual(t, old.Gen, fresh.Gen)
	assert.False(t, s.Contains(old))
	assert.True(t, s.Contains(fresh))
}

func TestStoreRemoveDoesNotMoveOthers(t *testing.T) {
	s := NewStore(4)
	var hs []Handle
	for i := 0; i < 4; i++ {
		hs = append(hs, s.Insert(testAgent(mgl64.Vec3{float64(i), 0, 0})))
	}
	s.Remove(hs[1])

	assert.Equal(t, []Handle{hs[0], hs[2], hs[3]}, s.Live())
	for _, i := range []int{0, 2, 3} {
		a, err := s.Get(hs[i])
		require.NoError(t, err)
		assert.Equal(t, float64(i), a.Position.X())
	}
}

func TestStoreEachVisitsLiveAgentsInSlotOrder(t *testing.T) {
	s := NewStore(4)
	h0 := s.Insert(testAgent(mgl64.Vec3{0, 0, 0}))
	h1 := s.Insert(testAgent(mgl64.Vec3{1, 0, 0}))
	h2 := s.Insert(testAgent(mgl64.Vec3{2, 0, 0}))
	s.Remove(h1)

	var seen []Handle
	s.Each(func(a *Agent) { seen = append(seen, a.ID) })
	assert.Equal(t, []Handle{h0, h2}, seen)
}

func TestHandleIDRoundTrip(t *testing.T) {
	h := Handle{Index: 17, Gen: 3}
	assert.Equal(t, h, HandleFromID(h.ID()))
	assert.True(t, Handle{}.IsZero())
	assert.Equal(t, "17#3", h.String())
}

func TestStoreZeroHandleNeverResolves(t *testing.T) {
	s := NewStore(1)
	s.Insert(testAgent(mgl64.Vec3{}))
	assert.False(t, s.Contains(Handle{}))
	assert.False(t, s.Contains(Handle{Index: 9, Gen: 1}))
}
