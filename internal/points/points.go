// Package points allocates control points on a ring of a fixed range.
package points

import (
	"math/rand"
)

// MaxAttempts is the number of draws the sampling allocator makes for a single
// point before accepting a value which is already in use.
const MaxAttempts = 10

// An Allocator picks control points in [0, Range).
//
// used reports whether a value is already taken by a registration on the
// ring. Allocate returns n points along with the number of points which had to
// be accepted despite colliding with a value in use. Allocators are not
// goroutine safe.
type Allocator interface {
	Allocate(n int, used func(uint32) bool) (points []uint32, collisions int)
}

// Sampling returns an Allocator which draws random values, retrying up to
// MaxAttempts times per point when a value collides with one in use or one
// already picked in the same batch. Once the attempts are exhausted the
// colliding value is kept.
//
// Sampling stays close to O(1) per point as long as rng is large compared to
// the total number of points on the ring.
func Sampling(rng uint32, rnd *rand.Rand) Allocator {
	return &sampling{rng: rng, rnd: rnd}
}

type sampling struct {
	rng uint32
	rnd *rand.Rand
}

func (s *sampling) Allocate(n int, used func(uint32) bool) ([]uint32, int) {
	var (
		res        = make([]uint32, 0, n)
		picked     = make(map[uint32]struct{}, n)
		collisions int
	)

	for i := 0; i < n; i++ {
		var (
			p     uint32
			taken bool
		)
		for attempt := 0; attempt < MaxAttempts; attempt++ {
			p = draw(s.rnd, s.rng)
			_, taken = picked[p]
			taken = taken || used(p)
			if !taken {
				break
			}
		}
		if taken {
			collisions++
		}

		picked[p] = struct{}{}
		res = append(res, p)
	}

	return res, collisions
}

// Exact returns an Allocator which only ever picks values that are neither in
// use nor picked earlier in the batch, choosing uniformly among the remaining
// free values. Every call scans the whole range, making Exact suitable for
// small ranges that are densely populated.
//
// When the range has no free values left, Exact falls back to drawing random
// values and reports them as collisions.
func Exact(rng uint32, rnd *rand.Rand) Allocator {
	return &exact{rng: rng, rnd: rnd}
}

type exact struct {
	rng uint32
	rnd *rand.Rand
}

func (e *exact) Allocate(n int, used func(uint32) bool) ([]uint32, int) {
	free := make([]uint32, 0, e.rng)
	for p := uint32(0); p < e.rng; p++ {
		if !used(p) {
			free = append(free, p)
		}
	}

	var (
		res        = make([]uint32, 0, n)
		collisions int
	)

	// Partial Fisher-Yates: the first len(res) elements of free are the points
	// handed out so far.
	for i := 0; i < n; i++ {
		if i >= len(free) {
			res = append(res, draw(e.rnd, e.rng))
			collisions++
			continue
		}

		j := i + e.rnd.Intn(len(free)-i)
		free[i], free[j] = free[j], free[i]
		res = append(res, free[i])
	}

	return res, collisions
}

func draw(rnd *rand.Rand, rng uint32) uint32 {
	return uint32(rnd.Int63n(int64(rng)))
}
