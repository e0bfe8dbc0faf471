package nanodecode

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	c := NewConfig()

	assert.Equal(t, int64(-1), c.Seed)
	assert.Equal(t, 0, c.MaxSteps)
	assert.Equal(t, time.Duration(0), c.RequestTimeout)
	assert.Equal(t, -1, c.BOSTokenID)
	assert.False(t, c.ConcurrentRuntime)
	assert.Equal(t, 4, c.MaxConcurrentRequests)
	assert.False(t, c.ShowProgress)
}

func TestNewConfigOptions(t *testing.T) {
	c := NewConfig(
		WithSamplerSeed(9),
		WithMaxSteps(32),
		WithRequestTimeout(time.Second),
		WithBOSTokenID(1),
		WithConcurrentRuntime(true),
		WithMaxConcurrentRequests(2),
		WithProgress(nil),
	)

	assert.Equal(t, int64(9), c.Seed)
	assert.Equal(t, 32, c.MaxSteps)
	assert.Equal(t, time.Second, c.RequestTimeout)
	assert.Equal(t, 1, c.BOSTokenID)
	assert.True(t, c.ConcurrentRuntime)
	assert.Equal(t, 2, c.MaxConcurrentRequests)
	assert.False(t, c.ShowProgress)
}

func TestNewConfigPanicsOnInvalid(t *testing.T) {
	tests := []struct {
		name  string
		opt   ConfigOption
		field string
	}{
		{"negative max steps", WithMaxSteps(-1), "max_steps"},
		{"negative timeout", WithRequestTimeout(-time.Second), "request_timeout"},
		{"zero concurrency", WithMaxConcurrentRequests(0), "max_concurrent_requests"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				r := recover()
				require.NotNil(t, r, "expected panic")
				err, ok := r.(error)
				require.True(t, ok)
				var cfgErr *ConfigurationError
				require.True(t, errors.As(err, &cfgErr))
				assert.Equal(t, tt.field, cfgErr.Field)
			}()
			NewConfig(tt.opt)
		})
	}
}

func TestGenerationConfigDefaults(t *testing.T) {
	gc := NewGenerationConfig()

	assert.Equal(t, 100, gc.MaxNewTokens)
	assert.Equal(t, 0.7, gc.Temperature)
	assert.Equal(t, 0.9, gc.TopP)
	assert.Equal(t, 0, gc.TopK)
	assert.Equal(t, 1.1, gc.RepetitionPenalty)
	assert.Equal(t, 2, gc.EOSTokenID)
	assert.False(t, gc.Greedy)
	assert.Equal(t, int64(-1), gc.Seed)
	assert.NoError(t, gc.Validate())
	assert.False(t, gc.IsGreedy())
}

func TestGenerationConfigIsGreedy(t *testing.T) {
	assert.True(t, NewGenerationConfig(WithGreedy(true)).IsGreedy())
	assert.True(t, NewGenerationConfig(WithTemperature(0)).IsGreedy())
	assert.False(t, NewGenerationConfig(WithTemperature(1.5)).IsGreedy())
}

func TestGenerationConfigValidate(t *testing.T) {
	tests := []struct {
		name  string
		opt   GenerationOption
		field string
	}{
		{"negative temperature", WithTemperature(-0.1), "temperature"},
		{"nan temperature", WithTemperature(math.NaN()), "temperature"},
		{"zero top_p", WithTopP(0), "top_p"},
		{"top_p above one", WithTopP(1.01), "top_p"},
		{"negative top_k", WithTopK(-1), "top_k"},
		{"zero penalty", WithRepetitionPenalty(0), "repetition_penalty"},
		{"infinite penalty", WithRepetitionPenalty(math.Inf(1)), "repetition_penalty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewGenerationConfig(tt.opt).Validate()
			var cfgErr *ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}

	assert.NoError(t, NewGenerationConfig(WithTopP(1.0), WithTemperature(0)).Validate())
}
