package sim

import (
	"encoding/binary"
	"encoding/hex"
	"math"

	"golang.org/x/crypto/blake2b"
)

// Digest hashes every live agent and spawner. Two worlds driven by the same
// seed and inputs have equal digests after every tick.
func (w *World) Digest() string {
	h, _ := blake2b.New256(nil)
	var buf [8]byte
	putU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
	putF := func(vs ...float64) {
		for _, v := range vs {
			putU64(math.Float64bits(v))
		}
	}

	putU64(w.tick)
	w.store.Each(func(a *Agent) {
		putU64(a.ID.ID())
		putU64(uint64(a.State))
		putF(a.Position[0], a.Position[1], a.Position[2])
		putF(a.Orientation.W, a.Orientation.V[0], a.Orientation.V[1], a.Orientation.V[2])
		putF(a.Heading[0], a.Heading[1], a.Heading[2])
		putF(a.DirectionChangeTimer, a.DeathTimer)
	})
	for _, sp := range w.store.spawners {
		putF(sp.Timer)
	}
	return hex.EncodeToString(h.Sum(nil))
}
