package sim

import (
	"math"
	"math/rand/v2"
)

const streamSalt = 0x9e3779b97f4a7c15

// Rand is one deterministic random stream. It is not safe for concurrent use;
// each worker owns exactly one.
type Rand struct {
	r *rand.Rand
}

func newRand(seed uint64, stream int) *Rand {
	return &Rand{r: rand.New(rand.NewPCG(seed, seed^(streamSalt*uint64(stream+1))))}
}

// Float returns a uniform value in [min, max).
func (r *Rand) Float(min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + r.r.Float64()*(max-min)
}

// Angle returns a uniform angle in [-pi, pi).
func (r *Rand) Angle() float64 {
	return r.Float(-math.Pi, math.Pi)
}

// RandPool holds one persistent stream per worker.
type RandPool struct {
	seed    uint64
	streams []*Rand
}

// NewRandPool seeds n streams from seed.
func NewRandPool(seed uint64, n int) *RandPool {
	p := &RandPool{seed: seed, streams: make([]*Rand, n)}
	for i := range p.streams {
		p.streams[i] = newRand(seed, i)
	}
	return p
}

// Stream returns the stream owned by worker i.
func (p *RandPool) Stream(i int) *Rand { return p.streams[i] }

// Len is the number of streams.
func (p *RandPool) Len() int { return len(p.streams) }

// Seed is the base seed the pool was created from.
func (p *RandPool) Seed() uint64 { return p.seed }
