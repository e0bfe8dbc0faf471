package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"

	"nano-decode-go/internal/server"
	"nano-decode-go/nanodecode"
)

func serveCmd() *cli.Command {
	var (
		addr          string
		readTimeout   time.Duration
		maxConcurrent int64
		concurrentRT  bool
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the generate API over HTTP",
		Flags: append(append(commonFlags(), samplingFlags()...),
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read header timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
			&cli.Int64Flag{
				Name:        "max-concurrent",
				Usage:       "concurrent requests for batch helpers",
				Value:       4,
				Destination: &maxConcurrent,
			},
			&cli.BoolFlag{
				Name:        "concurrent-runtime",
				Usage:       "let requests call the runtime in parallel",
				Destination: &concurrentRT,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.ServerAddress != "" && !cmd.IsSet("addr") {
				addr = cfg.ServerAddress
			}
			if cfg.MaxConcurrentRequests != nil && !cmd.IsSet("max-concurrent") {
				maxConcurrent = int64(*cfg.MaxConcurrentRequests)
			}

			if maxConcurrent < 1 {
				return &nanodecode.ConfigurationError{Field: "max_concurrent_requests", Value: maxConcurrent, Reason: "must be >= 1"}
			}

			comps, err := loadComponents(ctx, cmd)
			if err != nil {
				return err
			}
			defer comps.close()

			gen := nanodecode.NewGenerator(comps.runtime, comps.tokenizer, nanodecode.NewConfig(engineOptions(
				nanodecode.WithSamplerSeed(seed),
				nanodecode.WithMaxConcurrentRequests(int(maxConcurrent)),
				nanodecode.WithConcurrentRuntime(concurrentRT),
			)...))

			defaults := generationConfig()
			if err := defaults.Validate(); err != nil {
				return err
			}

			return server.ListenAndServe(ctx, server.NewServer(gen, defaults), addr, readTimeout)
		},
	}
}
