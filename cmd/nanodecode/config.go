package main

import (
	"github.com/urfave/cli/v3"

	"nano-decode-go/internal/config"
	"nano-decode-go/internal/logger"
	"nano-decode-go/nanodecode"
)

// loadConfig reads the config file and applies its values to every flag
// that was not set explicitly.
func loadConfig(c *cli.Command) (*config.File, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	setString := func(flag, v string, dst *string) {
		if v != "" && !c.IsSet(flag) {
			*dst = v
		}
	}
	setInt := func(flag string, v *int, dst *int64) {
		if v != nil && !c.IsSet(flag) {
			*dst = int64(*v)
		}
	}
	setFloat := func(flag string, v *float64, dst *float64) {
		if v != nil && !c.IsSet(flag) {
			*dst = *v
		}
	}

	setString("backend", cfg.Backend, &backendName)
	setString("model", cfg.ModelPath, &modelPath)
	setString("ort-lib", cfg.ORTLibrary, &ortLibrary)
	setString("server-url", cfg.ServerURL, &serverURL)
	setString("tokenizer", cfg.Tokenizer, &tokenizerName)
	setString("tokenizer-path", cfg.TokenizerPath, &tokenizerPath)
	setString("log-level", cfg.LogLevel, &logLevel)
	setString("log-format", cfg.LogFormat, &logFormat)
	setInt("vocab-size", cfg.VocabSize, &vocabSize)
	setInt("threads", cfg.Threads, &threads)

	setInt("max-new-tokens", cfg.MaxNewTokens, &maxNewTokens)
	setFloat("temperature", cfg.Temperature, &temperature)
	setFloat("top-p", cfg.TopP, &topP)
	setInt("top-k", cfg.TopK, &topK)
	setFloat("repetition-penalty", cfg.RepetitionPenalty, &repetitionPenalty)
	setInt("eos", cfg.EOSTokenID, &eosTokenID)
	eosPinned = c.IsSet("eos") || cfg.EOSTokenID != nil
	if cfg.Greedy != nil && !c.IsSet("greedy") {
		greedy = *cfg.Greedy
	}
	if cfg.Seed != nil && !c.IsSet("seed") {
		seed = *cfg.Seed
	}

	setInt("max-steps", cfg.MaxSteps, &maxSteps)
	if cfg.RequestTimeout != nil && !c.IsSet("timeout") {
		requestTimeout = *cfg.RequestTimeout
	}
	setInt("bos", cfg.BOSTokenID, &bosTokenID)

	logger.Setup(logLevel, logFormat)

	if maxSteps < 0 {
		return nil, &nanodecode.ConfigurationError{Field: "max_steps", Value: maxSteps, Reason: "must be >= 0"}
	}
	if requestTimeout < 0 {
		return nil, &nanodecode.ConfigurationError{Field: "request_timeout", Value: requestTimeout, Reason: "must be >= 0"}
	}
	return cfg, nil
}

// generationConfig builds the per-request defaults. --seed only seeds the
// shared sampler, so requests without their own seed draw from one stream.
func generationConfig() nanodecode.GenerationConfig {
	return nanodecode.NewGenerationConfig(
		nanodecode.WithMaxNewTokens(int(maxNewTokens)),
		nanodecode.WithTemperature(temperature),
		nanodecode.WithTopP(topP),
		nanodecode.WithTopK(int(topK)),
		nanodecode.WithRepetitionPenalty(repetitionPenalty),
		nanodecode.WithEOSTokenID(int(eosTokenID)),
		nanodecode.WithGreedy(greedy),
	)
}

// engineOptions builds the generator options shared by all subcommands
func engineOptions(extra ...nanodecode.ConfigOption) []nanodecode.ConfigOption {
	opts := []nanodecode.ConfigOption{
		nanodecode.WithMaxSteps(int(maxSteps)),
		nanodecode.WithRequestTimeout(requestTimeout),
		nanodecode.WithBOSTokenID(int(bosTokenID)),
	}
	return append(opts, extra...)
}
