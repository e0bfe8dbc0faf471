// Package config loads the nanodecode YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"nano-decode-go/nanodecode"
)

// Backends
const (
	BackendONNX = "onnx"
	BackendHTTP = "http"
	BackendMock = "mock"
)

// Tokenizers
const (
	TokenizerSimple   = "simple"
	TokenizerTikToken = "tiktoken"
	TokenizerHF       = "hf"
	TokenizerHTTP     = "http"
)

// File represents the config file (~/.config/nanodecode/config.yaml).
// Pointer fields distinguish "not set" from zero values.
type File struct {
	// Backend
	Backend       string `yaml:"backend"`
	ModelPath     string `yaml:"model_path"`
	ORTLibrary    string `yaml:"ort_library"`
	ServerURL     string `yaml:"server_url"`
	Tokenizer     string `yaml:"tokenizer"`
	TokenizerPath string `yaml:"tokenizer_path"`
	Threads       *int   `yaml:"threads"`
	VocabSize     *int   `yaml:"vocab_size"`

	// Sampling defaults
	MaxNewTokens      *int     `yaml:"max_new_tokens"`
	Temperature       *float64 `yaml:"temperature"`
	TopP              *float64 `yaml:"top_p"`
	TopK              *int     `yaml:"top_k"`
	RepetitionPenalty *float64 `yaml:"repetition_penalty"`
	EOSTokenID        *int     `yaml:"eos_token_id"`
	Greedy            *bool    `yaml:"greedy"`
	Seed              *int64   `yaml:"seed"`

	// Engine
	MaxSteps              *int           `yaml:"max_steps"`
	RequestTimeout        *time.Duration `yaml:"request_timeout"`
	BOSTokenID            *int           `yaml:"bos_token_id"`
	MaxConcurrentRequests *int           `yaml:"max_concurrent_requests"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Server
	ServerAddress string `yaml:"server_address"`
}

// DefaultPath returns the per-user config file location, or "" if unknown
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "nanodecode", "config.yaml")
}

// Load reads and validates the config file at path.
// An empty path loads DefaultPath, where a missing file yields an empty File.
func Load(path string) (*File, error) {
	optional := path == ""
	if optional {
		path = DefaultPath()
		if path == "" {
			return &File{}, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return &File{}, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes and validates YAML config data
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks the values that are set
func (f *File) Validate() error {
	switch f.Backend {
	case "", BackendONNX, BackendHTTP, BackendMock:
	default:
		return &nanodecode.ConfigurationError{Field: "backend", Value: f.Backend, Reason: "must be onnx, http or mock"}
	}

	switch f.Tokenizer {
	case "", TokenizerSimple, TokenizerTikToken, TokenizerHF, TokenizerHTTP:
	default:
		return &nanodecode.ConfigurationError{Field: "tokenizer", Value: f.Tokenizer, Reason: "must be simple, tiktoken, hf or http"}
	}

	if f.Threads != nil && *f.Threads < 0 {
		return &nanodecode.ConfigurationError{Field: "threads", Value: *f.Threads, Reason: "must be >= 0"}
	}
	if f.VocabSize != nil && *f.VocabSize < 0 {
		return &nanodecode.ConfigurationError{Field: "vocab_size", Value: *f.VocabSize, Reason: "must be >= 0"}
	}

	if err := nanodecode.NewGenerationConfig(f.GenerationOptions()...).Validate(); err != nil {
		return err
	}

	if f.MaxSteps != nil && *f.MaxSteps < 0 {
		return &nanodecode.ConfigurationError{Field: "max_steps", Value: *f.MaxSteps, Reason: "must be >= 0"}
	}
	if f.RequestTimeout != nil && *f.RequestTimeout < 0 {
		return &nanodecode.ConfigurationError{Field: "request_timeout", Value: *f.RequestTimeout, Reason: "must be >= 0"}
	}
	if f.MaxConcurrentRequests != nil && *f.MaxConcurrentRequests < 1 {
		return &nanodecode.ConfigurationError{Field: "max_concurrent_requests", Value: *f.MaxConcurrentRequests, Reason: "must be >= 1"}
	}

	return nil
}

// GenerationOptions returns an option for every sampling field that is set
func (f *File) GenerationOptions() []nanodecode.GenerationOption {
	var opts []nanodecode.GenerationOption
	if f.MaxNewTokens != nil {
		opts = append(opts, nanodecode.WithMaxNewTokens(*f.MaxNewTokens))
	}
	if f.Temperature != nil {
		opts = append(opts, nanodecode.WithTemperature(*f.Temperature))
	}
	if f.TopP != nil {
		opts = append(opts, nanodecode.WithTopP(*f.TopP))
	}
	if f.TopK != nil {
		opts = append(opts, nanodecode.WithTopK(*f.TopK))
	}
	if f.RepetitionPenalty != nil {
		opts = append(opts, nanodecode.WithRepetitionPenalty(*f.RepetitionPenalty))
	}
	if f.EOSTokenID != nil {
		opts = append(opts, nanodecode.WithEOSTokenID(*f.EOSTokenID))
	}
	if f.Greedy != nil {
		opts = append(opts, nanodecode.WithGreedy(*f.Greedy))
	}
	if f.Seed != nil {
		opts = append(opts, nanodecode.WithSeed(*f.Seed))
	}
	return opts
}

// EngineOptions returns an option for every engine field that is set
func (f *File) EngineOptions() []nanodecode.ConfigOption {
	var opts []nanodecode.ConfigOption
	if f.MaxSteps != nil {
		opts = append(opts, nanodecode.WithMaxSteps(*f.MaxSteps))
	}
	if f.RequestTimeout != nil {
		opts = append(opts, nanodecode.WithRequestTimeout(*f.RequestTimeout))
	}
	if f.BOSTokenID != nil {
		opts = append(opts, nanodecode.WithBOSTokenID(*f.BOSTokenID))
	}
	if f.MaxConcurrentRequests != nil {
		opts = append(opts, nanodecode.WithMaxConcurrentRequests(*f.MaxConcurrentRequests))
	}
	return opts
}
