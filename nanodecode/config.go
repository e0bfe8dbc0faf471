package nanodecode

import (
	"io"
	"os"
	"time"
)

// Config holds the configuration for the Generator
type Config struct {
	Seed                  int64
	MaxSteps              int
	RequestTimeout        time.Duration
	BOSTokenID            int
	ConcurrentRuntime     bool
	MaxConcurrentRequests int
	ShowProgress          bool
	ProgressWriter        io.Writer
}

// ConfigOption is a functional option for Config
type ConfigOption func(*Config)

// NewConfig creates a new Config with default values
func NewConfig(opts ...ConfigOption) *Config {
	c := &Config{
		Seed:                  -1,
		MaxSteps:              0,
		RequestTimeout:        0,
		BOSTokenID:            -1,
		ConcurrentRuntime:     false,
		MaxConcurrentRequests: 4,
		ShowProgress:          false,
		ProgressWriter:        os.Stderr,
	}

	for _, opt := range opts {
		opt(c)
	}

	if err := c.validate(); err != nil {
		panic(err)
	}

	return c
}

// validate checks if the configuration is valid
func (c *Config) validate() error {
	if c.MaxSteps < 0 {
		return &ConfigurationError{Field: "max_steps", Value: c.MaxSteps, Reason: "must be >= 0"}
	}

	if c.RequestTimeout < 0 {
		return &ConfigurationError{Field: "request_timeout", Value: c.RequestTimeout, Reason: "must be >= 0"}
	}

	if c.MaxConcurrentRequests < 1 {
		return &ConfigurationError{Field: "max_concurrent_requests", Value: c.MaxConcurrentRequests, Reason: "must be >= 1"}
	}

	return nil
}

// WithSamplerSeed seeds the shared sampler; a negative seed uses the wall clock
func WithSamplerSeed(seed int64) ConfigOption {
	return func(c *Config) {
		c.Seed = seed
	}
}

// WithMaxSteps caps the number of decoding steps of any request (0 = no cap)
func WithMaxSteps(n int) ConfigOption {
	return func(c *Config) {
		c.MaxSteps = n
	}
}

// WithRequestTimeout bounds the wall-clock time of a request (0 = no limit)
func WithRequestTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.RequestTimeout = d
	}
}

// WithBOSTokenID seeds empty prompts with the given token (-1 = disabled)
func WithBOSTokenID(id int) ConfigOption {
	return func(c *Config) {
		c.BOSTokenID = id
	}
}

// WithConcurrentRuntime declares the runtime handle safe for concurrent Invoke
func WithConcurrentRuntime(b bool) ConfigOption {
	return func(c *Config) {
		c.ConcurrentRuntime = b
	}
}

// WithMaxConcurrentRequests bounds GenerateAll parallelism
func WithMaxConcurrentRequests(n int) ConfigOption {
	return func(c *Config) {
		c.MaxConcurrentRequests = n
	}
}

// WithProgress renders a progress bar per request to w
func WithProgress(w io.Writer) ConfigOption {
	return func(c *Config) {
		c.ShowProgress = w != nil
		c.ProgressWriter = w
	}
}
