package nanodecode

import (
	"math"
	"sort"
)

// ApplyRepetitionPenalty penalizes every token of history in place.
// Positive logits are divided by penalty and the rest multiplied, once per
// occurrence. Ids outside the logits range are ignored.
func ApplyRepetitionPenalty(logits []float32, history []int, penalty float32) {
	if penalty == 1.0 {
		return
	}
	for _, id := range history {
		if id < 0 || id >= len(logits) {
			continue
		}
		if logits[id] > 0 {
			logits[id] /= penalty
		} else {
			logits[id] *= penalty
		}
	}
}

// ApplyTemperature divides the logits in place by temperature.
// It does nothing for a temperature of 1 or below 0.
func ApplyTemperature(logits []float32, temperature float32) {
	if temperature == 1.0 || temperature <= 0 {
		return
	}
	for i := range logits {
		logits[i] /= temperature
	}
}

// Softmax converts logits to probabilities
func Softmax(logits []float32) []float32 {
	probs := make([]float32, len(logits))
	if len(logits) == 0 {
		return probs
	}

	// Find max for numerical stability
	maxLogit := logits[0]
	for _, l := range logits[1:] {
		if l > maxLogit {
			maxLogit = l
		}
	}

	exps := make([]float64, len(logits))
	var sum float64
	for i, l := range logits {
		exps[i] = math.Exp(float64(l) - float64(maxLogit))
		sum += exps[i]
	}

	for i := range probs {
		probs[i] = float32(exps[i] / sum)
	}

	return probs
}

type indexedProb struct {
	idx  int
	prob float32
}

// sortedByProb orders indices by descending probability, ties by index
func sortedByProb(probs []float32) []indexedProb {
	indexed := make([]indexedProb, len(probs))
	for i, p := range probs {
		indexed[i] = indexedProb{i, p}
	}
	sort.SliceStable(indexed, func(i, j int) bool {
		return indexed[i].prob > indexed[j].prob
	})
	return indexed
}

// TopKFilter keeps only the k largest probabilities and zeros the rest.
// The input is returned unchanged when k <= 0 or k >= len(probs).
func TopKFilter(probs []float32, k int) []float32 {
	result := make([]float32, len(probs))
	if k <= 0 || k >= len(probs) {
		copy(result, probs)
		return result
	}

	for _, item := range sortedByProb(probs)[:k] {
		result[item.idx] = item.prob
	}
	return result
}

// TopPFilter implements nucleus filtering.
// Probabilities are accumulated in descending order until the running sum
// exceeds topP; everything sorted after that token is zeroed. The result is
// aligned to the input index space and is not renormalized.
func TopPFilter(probs []float32, topP float32) []float32 {
	result := make([]float32, len(probs))
	copy(result, probs)
	if topP >= 1.0 {
		return result
	}

	var cumProb float32
	indexed := sortedByProb(probs)
	for i, item := range indexed {
		cumProb += item.prob
		if cumProb > topP {
			for _, rest := range indexed[i+1:] {
				result[rest.idx] = 0
			}
			break
		}
	}

	return result
}

// Renormalize rescales probs in place to sum to one.
// A vector with zero mass becomes uniform.
func Renormalize(probs []float32) {
	if len(probs) == 0 {
		return
	}

	var sum float64
	for _, p := range probs {
		sum += float64(p)
	}

	if sum > 0 {
		for i := range probs {
			probs[i] = float32(float64(probs[i]) / sum)
		}
		return
	}

	uniform := float32(1.0 / float64(len(probs)))
	for i := range probs {
		probs[i] = uniform
	}
}

// Distribution runs the full transform pipeline over one row of logits.
// The row is modified in place; the returned vector is a new slice.
func Distribution(logits []float32, history []int, gc GenerationConfig) []float32 {
	ApplyRepetitionPenalty(logits, history, float32(gc.RepetitionPenalty))

	if !gc.IsGreedy() {
		ApplyTemperature(logits, float32(gc.Temperature))
	}

	probs := Softmax(logits)

	filtered := false
	if gc.TopK > 0 && gc.TopK < len(probs) {
		probs = TopKFilter(probs, gc.TopK)
		filtered = true
	}
	if gc.TopP < 1.0 {
		probs = TopPFilter(probs, float32(gc.TopP))
		filtered = true
	}
	if filtered {
		Renormalize(probs)
	}

	return probs
}
