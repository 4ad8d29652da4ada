package testutil

import (
	"math/rand"
	"sync"

	"github.com/hupe1980/sog/internal/synth"
	"github.com/hupe1980/sog/table"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0,1).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// NormFloat64 returns a standard normal value.
func (r *RNG) NormFloat64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.NormFloat64()
}

// Gaussian returns n float32 values drawn from N(mean, std²).
func (r *RNG) Gaussian(n int, mean, std float64) []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]float32, n)
	for i := range out {
		out[i] = float32(mean + std*r.rand.NormFloat64())
	}
	return out
}

// Uniform returns n float32 values in [lo,hi).
func (r *RNG) Uniform(n int, lo, hi float64) []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]float32, n)
	for i := range out {
		out[i] = float32(lo + (hi-lo)*r.rand.Float64())
	}
	return out
}

// UnitQuaternion returns a uniformly distributed unit quaternion (w, x, y, z).
func (r *RNG) UnitQuaternion() [4]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return synth.UnitQuaternion(r.rand)
}

// SplatOptions shapes a synthetic splat table.
type SplatOptions = synth.Options

// Splats returns a float32 table with every column a SOG export reads:
// x, y, z, scale_0..2, rot_0..3, f_dc_0..2, opacity and f_rest_* for the
// requested bands.
func (r *RNG) Splats(n int, opts SplatOptions) *table.Table {
	r.mu.Lock()
	defer r.mu.Unlock()
	return synth.Splats(r.rand, n, opts)
}
