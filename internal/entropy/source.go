// Package entropy provides the uniform random sources every stochastic rule draws from.
// A single Source is shared across threats, missions and succession rolls so a fixed
// seed reproduces a whole day.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	"math"
	mrand "math/rand"
)

// Source yields uniform floats in [0, 1).
type Source interface {
	Float() float64
}

// Seeded is a deterministic Source backed by math/rand.
type Seeded struct {
	rng *mrand.Rand
}

// NewSeeded creates a reproducible source from seed.
func NewSeeded(seed int64) *Seeded {
	return &Seeded{rng: mrand.New(mrand.NewSource(seed))}
}

// Float returns the next value in [0, 1).
func (s *Seeded) Float() float64 {
	return s.rng.Float64()
}

// Sequence replays a fixed list of values, cycling when exhausted.
// Used to script exact rolls in tests.
type Sequence struct {
	values []float64
	next   int
}

// NewSequence returns a Sequence over values. An empty sequence always yields 0.
func NewSequence(values ...float64) *Sequence {
	return &Sequence{values: append([]float64(nil), values...)}
}

// Float returns the next scripted value.
func (q *Sequence) Float() float64 {
	if len(q.values) == 0 {
		return 0
	}
	v := q.values[q.next%len(q.values)]
	q.next++
	return v
}

// Crypto draws from crypto/rand. Not reproducible.
type Crypto struct{}

// Float returns a crypto-random value in [0, 1).
func (Crypto) Float() float64 {
	return cryptoRandFloat()
}

// cryptoRandFloat generates a random float64 using crypto/rand as fallback.
func cryptoRandFloat() float64 {
	var buf [8]byte
	_, err := rand.Read(buf[:])
	if err != nil {
		// This should never happen but return 0.5 as a safe default.
		return 0.5
	}
	// Use only 53 bits for a uniform float64 in [0, 1).
	n := binary.LittleEndian.Uint64(buf[:]) >> 11
	return float64(n) / float64(1<<53)
}

// Intn returns an integer in [0, n). n <= 0 yields 0.
func Intn(src Source, n int) int {
	if n <= 0 {
		return 0
	}
	v := int(math.Floor(src.Float() * float64(n)))
	if v >= n {
		v = n - 1
	}
	if v < 0 {
		v = 0
	}
	return v
}

// Between returns an integer in [lo, hi], inclusive on both ends.
func Between(src Source, lo, hi int) int {
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo + Intn(src, hi-lo+1)
}

// D20 rolls a twenty-sided die.
func D20(src Source) int {
	return Between(src, 1, 20)
}

// Percentile rolls 1..100.
func Percentile(src Source) int {
	return Between(src, 1, 100)
}

// Chance reports whether an event of probability p happens.
func Chance(src Source, p float64) bool {
	return src.Float() < p
}
