package nanodecode

import (
	"math/rand"
	"sync"
	"time"
)

// Sampler selects one token id from a probability vector.
// It is safe for concurrent use.
type Sampler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSampler creates a sampler; a negative seed seeds from the wall clock
func NewSampler(seed int64) *Sampler {
	if seed < 0 {
		seed = time.Now().UnixNano()
	}
	return &Sampler{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Pick returns Argmax(probs) in greedy mode and Sample(probs) otherwise
func (s *Sampler) Pick(probs []float32, greedy bool) int {
	if greedy {
		return Argmax(probs)
	}
	return s.Sample(probs)
}

// Sample draws an index from the categorical distribution probs.
// Zero-probability entries are never selected.
func (s *Sampler) Sample(probs []float32) int {
	var total float64
	last := -1
	for i, p := range probs {
		if p > 0 {
			total += float64(p)
			last = i
		}
	}
	if last < 0 {
		return Argmax(probs)
	}

	s.mu.Lock()
	r := s.rng.Float64() * total
	s.mu.Unlock()

	var cumProb float64
	for i, p := range probs {
		if p <= 0 {
			continue
		}
		cumProb += float64(p)
		if r < cumProb {
			return i
		}
	}

	// Rounding left r at the very top of the range
	return last
}

// Argmax returns the index of the largest value, first occurrence on ties.
// It returns 0 for an empty slice.
func Argmax(x []float32) int {
	bestI := 0
	for i := 1; i < len(x); i++ {
		if x[i] > x[bestI] {
			bestI = i
		}
	}
	return bestI
}
