package main

import (
	"time"

	"github.com/urfave/cli/v3"

	"nano-decode-go/internal/config"
)

var (
	configPath    string
	backendName   string
	modelPath     string
	ortLibrary    string
	serverURL     string
	tokenizerName string
	tokenizerPath string
	vocabSize     int64
	threads       int64
	logLevel      string
	logFormat     string

	maxNewTokens      int64
	temperature       float64
	topP              float64
	topK              int64
	repetitionPenalty float64
	eosTokenID        int64
	greedy            bool
	seed              int64

	maxSteps       int64
	requestTimeout time.Duration
	bosTokenID     int64
)

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to config.yaml (default: user config dir)",
			Destination: &configPath,
		},
		&cli.StringFlag{
			Name:        "backend",
			Usage:       "model runtime (onnx, http, mock)",
			Value:       config.BackendONNX,
			Destination: &backendName,
		},
		&cli.StringFlag{
			Name:        "model",
			Aliases:     []string{"m"},
			Usage:       "path to model.onnx or its directory",
			Destination: &modelPath,
		},
		&cli.StringFlag{
			Name:        "ort-lib",
			Usage:       "path to the onnxruntime shared library",
			Destination: &ortLibrary,
		},
		&cli.StringFlag{
			Name:        "server-url",
			Usage:       "remote logits server for the http backend",
			Value:       "http://127.0.0.1:8000",
			Destination: &serverURL,
		},
		&cli.StringFlag{
			Name:        "tokenizer",
			Usage:       "tokenizer (simple, tiktoken, hf, http)",
			Value:       config.TokenizerHF,
			Destination: &tokenizerName,
		},
		&cli.StringFlag{
			Name:        "tokenizer-path",
			Usage:       "tokenizer.json for hf, encoding name for tiktoken",
			Destination: &tokenizerPath,
		},
		&cli.Int64Flag{
			Name:        "vocab-size",
			Usage:       "logits width when the model leaves it dynamic",
			Destination: &vocabSize,
		},
		&cli.Int64Flag{
			Name:        "threads",
			Usage:       "intra-op threads for onnxruntime",
			Value:       4,
			Destination: &threads,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (console, json)",
			Value:       "console",
			Destination: &logFormat,
		},
	}
}

func samplingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Int64Flag{
			Name:        "max-new-tokens",
			Aliases:     []string{"n"},
			Usage:       "maximum number of tokens to generate",
			Value:       100,
			Destination: &maxNewTokens,
		},
		&cli.FloatFlag{
			Name:        "temperature",
			Aliases:     []string{"temp", "t"},
			Usage:       "sampling temperature (0 = greedy)",
			Value:       0.7,
			Destination: &temperature,
		},
		&cli.FloatFlag{
			Name:        "top-p",
			Usage:       "nucleus sampling threshold",
			Value:       0.9,
			Destination: &topP,
		},
		&cli.Int64Flag{
			Name:        "top-k",
			Usage:       "keep only the k most likely tokens (0 = off)",
			Destination: &topK,
		},
		&cli.FloatFlag{
			Name:        "repetition-penalty",
			Usage:       "penalty for tokens already in the sequence (1 = off)",
			Value:       1.1,
			Destination: &repetitionPenalty,
		},
		&cli.Int64Flag{
			Name:        "eos",
			Usage:       "end-of-sequence token id",
			Value:       2,
			Destination: &eosTokenID,
		},
		&cli.BoolFlag{
			Name:        "greedy",
			Usage:       "always pick the most likely token",
			Destination: &greedy,
		},
		&cli.Int64Flag{
			Name:        "seed",
			Usage:       "seed for the shared sampler (-1 = random)",
			Value:       -1,
			Destination: &seed,
		},
		&cli.Int64Flag{
			Name:        "max-steps",
			Usage:       "cap on decoding steps per request (0 = none)",
			Destination: &maxSteps,
		},
		&cli.DurationFlag{
			Name:        "timeout",
			Usage:       "per-request time limit (0 = none)",
			Destination: &requestTimeout,
		},
		&cli.Int64Flag{
			Name:        "bos",
			Usage:       "token that seeds empty prompts (-1 = none)",
			Value:       -1,
			Destination: &bosTokenID,
		},
	}
}
