package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"nano-decode-go/nanodecode"
)

func generateCmd() *cli.Command {
	var (
		prompt     string
		progress   bool
		showTokens bool
	)

	return &cli.Command{
		Name:      "generate",
		Usage:     "Generate a continuation for one or more prompts",
		ArgsUsage: "[prompt...]",
		Flags: append(append(commonFlags(), samplingFlags()...),
			&cli.StringFlag{
				Name:        "prompt",
				Aliases:     []string{"p"},
				Usage:       "prompt text",
				Destination: &prompt,
			},
			&cli.BoolFlag{
				Name:        "progress",
				Usage:       "show a progress bar",
				Destination: &progress,
			},
			&cli.BoolFlag{
				Name:        "show-tokens",
				Usage:       "print the token ids of each result",
				Destination: &showTokens,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if _, err := loadConfig(cmd); err != nil {
				return err
			}

			prompts := cmd.Args().Slice()
			if prompt != "" {
				prompts = append([]string{prompt}, prompts...)
			}
			if len(prompts) == 0 {
				return fmt.Errorf("no prompt given")
			}

			comps, err := loadComponents(ctx, cmd)
			if err != nil {
				return err
			}
			defer comps.close()

			extra := []nanodecode.ConfigOption{nanodecode.WithSamplerSeed(seed)}
			if progress && len(prompts) == 1 {
				extra = append(extra, nanodecode.WithProgress(os.Stderr))
			}
			llm := nanodecode.NewLLM(nanodecode.NewConfig(engineOptions(extra...)...), comps.runtime, comps.tokenizer)

			results, err := llm.GenerateAll(ctx, prompts, generationConfig())
			if err != nil {
				return err
			}

			for i, res := range results {
				if len(results) > 1 {
					fmt.Printf("--- prompt %d: %s\n", i+1, prompts[i])
				}
				fmt.Println(strings.TrimRight(res.Text, "\n"))
				if showTokens {
					fmt.Printf("tokens: %v\n", res.TokenIDs)
				}
				fmt.Fprintf(os.Stderr, "[%d prompt + %d generated tokens, %d steps, finish=%s, %s]\n",
					res.PromptTokens, res.GeneratedTokens, res.Steps, res.FinishReason, res.Duration.Round(time.Millisecond))
			}
			return nil
		},
	}
}
