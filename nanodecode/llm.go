package nanodecode

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// LLM is the user-facing API for the decoding engine
type LLM struct {
	*Generator
	config *Config
}

// NewLLM creates an LLM over the given components
func NewLLM(config *Config, runtime ModelRuntime, tokenizer Tokenizer) *LLM {
	if config == nil {
		config = NewConfig()
	}
	return &LLM{
		Generator: NewGenerator(runtime, tokenizer, config),
		config:    config,
	}
}

// GenerateAll runs one independent request per prompt.
// At most MaxConcurrentRequests run at once; results keep the prompt order.
// The first failure cancels the requests that have not finished.
func (llm *LLM) GenerateAll(ctx context.Context, prompts []string, gc GenerationConfig) ([]*Result, error) {
	if err := gc.Validate(); err != nil {
		return nil, err
	}

	results := make([]*Result, len(prompts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(llm.config.MaxConcurrentRequests)

	for i, prompt := range prompts {
		g.Go(func() error {
			res, err := llm.GenerateResult(gctx, prompt, gc)
			if err != nil {
				return fmt.Errorf("prompt %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
