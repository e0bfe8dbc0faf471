package nanodecode

import "math"

// GenerationConfig holds the per-request decoding parameters.
// It is captured at request start and never mutated by the generator.
type GenerationConfig struct {
	MaxNewTokens      int
	Temperature       float64
	TopP              float64
	TopK              int
	RepetitionPenalty float64
	EOSTokenID        int
	Greedy            bool
	Seed              int64
}

// GenerationOption is a functional option for GenerationConfig
type GenerationOption func(*GenerationConfig)

// NewGenerationConfig creates a GenerationConfig with default values
func NewGenerationConfig(opts ...GenerationOption) GenerationConfig {
	gc := GenerationConfig{
		MaxNewTokens:      100,
		Temperature:       0.7,
		TopP:              0.9,
		TopK:              0,
		RepetitionPenalty: 1.1,
		EOSTokenID:        2,
		Greedy:            false,
		Seed:              -1,
	}

	for _, opt := range opts {
		opt(&gc)
	}

	return gc
}

// IsGreedy reports whether the request decodes by argmax.
// A zero temperature selects greedy decoding.
func (gc GenerationConfig) IsGreedy() bool {
	return gc.Greedy || gc.Temperature == 0
}

// Validate checks the configuration before any collaborator is called
func (gc GenerationConfig) Validate() error {
	if math.IsNaN(gc.Temperature) || math.IsInf(gc.Temperature, 0) || gc.Temperature < 0 {
		return &ConfigurationError{Field: "temperature", Value: gc.Temperature, Reason: "must be a finite value >= 0"}
	}
	if math.IsNaN(gc.TopP) || gc.TopP <= 0 || gc.TopP > 1 {
		return &ConfigurationError{Field: "top_p", Value: gc.TopP, Reason: "must be in (0, 1]"}
	}
	if gc.TopK < 0 {
		return &ConfigurationError{Field: "top_k", Value: gc.TopK, Reason: "must be >= 0"}
	}
	if math.IsNaN(gc.RepetitionPenalty) || math.IsInf(gc.RepetitionPenalty, 0) || gc.RepetitionPenalty <= 0 {
		return &ConfigurationError{Field: "repetition_penalty", Value: gc.RepetitionPenalty, Reason: "must be a finite value > 0"}
	}
	return nil
}

// WithMaxNewTokens sets the maximum number of generated tokens
func WithMaxNewTokens(n int) GenerationOption {
	return func(gc *GenerationConfig) {
		gc.MaxNewTokens = n
	}
}

// WithTemperature sets the sampling temperature
func WithTemperature(t float64) GenerationOption {
	return func(gc *GenerationConfig) {
		gc.Temperature = t
	}
}

// WithTopP sets the nucleus filtering threshold
func WithTopP(p float64) GenerationOption {
	return func(gc *GenerationConfig) {
		gc.TopP = p
	}
}

// WithTopK limits sampling to the k most likely tokens
func WithTopK(k int) GenerationOption {
	return func(gc *GenerationConfig) {
		gc.TopK = k
	}
}

// WithRepetitionPenalty sets the repetition penalty
func WithRepetitionPenalty(p float64) GenerationOption {
	return func(gc *GenerationConfig) {
		gc.RepetitionPenalty = p
	}
}

// WithEOSTokenID sets the stop token
func WithEOSTokenID(id int) GenerationOption {
	return func(gc *GenerationConfig) {
		gc.EOSTokenID = id
	}
}

// WithGreedy forces argmax decoding
func WithGreedy(b bool) GenerationOption {
	return func(gc *GenerationConfig) {
		gc.Greedy = b
	}
}

// WithSeed gives the request its own random source
func WithSeed(seed int64) GenerationOption {
	return func(gc *GenerationConfig) {
		gc.Seed = seed
	}
}
