package testutil

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/hupe1980/relevec"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed uint64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed uint64) *RNG {
	return &RNG{
		rand: newRand(seed),
		seed: seed,
	}
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand = newRand(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() uint64 {
	return r.seed
}

// IntN returns a non-negative pseudo-random number in [0,n).
func (r *RNG) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.IntN(n)
}

// Entries returns nnz entries with distinct indices in [0, maxIndex) and
// standard normal values. nnz is capped at maxIndex.
func (r *RNG) Entries(nnz, maxIndex int) []relevec.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entriesLocked(nnz, maxIndex)
}

func (r *RNG) entriesLocked(nnz, maxIndex int) []relevec.Entry {
	nnz = min(nnz, maxIndex)
	seen := make(map[int]struct{}, nnz)
	entries := make([]relevec.Entry, 0, nnz)
	for len(entries) < nnz {
		idx := r.rand.IntN(maxIndex)
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		entries = append(entries, relevec.At(idx, r.rand.NormFloat64()))
	}
	return entries
}

// SparseVector builds a random vector over s. For bounded and named schemas
// maxIndex is capped at the dimension count.
func (r *RNG) SparseVector(s *relevec.Schema, nnz, maxIndex int) (*relevec.Vector, error) {
	if n, ok := s.DimCount(); ok {
		maxIndex = min(maxIndex, n)
	}
	if maxIndex <= 0 {
		return relevec.NewVector(s)
	}
	return relevec.NewVector(s, r.Entries(nnz, maxIndex)...)
}

// SparseVectors builds num random vectors over s.
// Locks only once per call (preferred over calling SparseVector in a loop).
func (r *RNG) SparseVectors(s *relevec.Schema, num, nnz, maxIndex int) ([]*relevec.Vector, error) {
	if n, ok := s.DimCount(); ok {
		maxIndex = min(maxIndex, n)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	vectors := make([]*relevec.Vector, num)
	for i := range vectors {
		var entries []relevec.Entry
		if maxIndex > 0 {
			entries = r.entriesLocked(nnz, maxIndex)
		}
		v, err := relevec.NewVector(s, entries...)
		if err != nil {
			return nil, fmt.Errorf("vector %d: %w", i, err)
		}
		vectors[i] = v
	}
	return vectors, nil
}

// DenseDot computes the dot product of a and b by expanding both into dense
// slices. It ignores schemas and is only meant as a reference for tests.
func DenseDot(a, b *relevec.Vector) float64 {
	size := 0
	for _, v := range []*relevec.Vector{a, b} {
		for _, e := range v.Entries() {
			size = max(size, e.Key.Index()+1)
		}
	}
	da := dense(a, size)
	db := dense(b, size)

	var sum float64
	for i := range da {
		sum += da[i] * db[i]
	}
	return sum
}

func dense(v *relevec.Vector, size int) []float64 {
	out := make([]float64, size)
	for _, e := range v.Entries() {
		out[e.Key.Index()] = e.Value
	}
	return out
}
