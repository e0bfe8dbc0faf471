package nanodecode

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"

	"nano-decode-go/internal/logger"
)

// FinishReason explains why a request stopped decoding
type FinishReason string

const (
	FinishEOS    FinishReason = "eos"
	FinishLength FinishReason = "length"
)

// Result is the outcome of one generation request
type Result struct {
	Text            string
	TokenIDs        []int
	PromptTokens    int
	GeneratedTokens int
	Steps           int
	FinishReason    FinishReason
	Duration        time.Duration
	Fingerprint     uint64
}

// Generator drives generation requests from prompt text to generated text
type Generator struct {
	config        *Config
	runtime       ModelRuntime
	tokenizer     Tokenizer
	sampler       *Sampler
	vocabSize     int
	withPositions bool
}

// NewGenerator creates a generator over an already loaded runtime and tokenizer.
// Unless config declares the runtime concurrent-safe, calls into it are serialized.
// A positive tokenizer vocab size fixes the logits width every step must return.
func NewGenerator(runtime ModelRuntime, tokenizer Tokenizer, config *Config) *Generator {
	if config == nil {
		config = NewConfig()
	}
	if !config.ConcurrentRuntime {
		runtime = NewSerializedRuntime(runtime)
	}

	return &Generator{
		config:        config,
		runtime:       runtime,
		tokenizer:     tokenizer,
		sampler:       NewSampler(config.Seed),
		vocabSize:     tokenizer.VocabSize(),
		withPositions: DeclaresPositionIDs(runtime),
	}
}

// Close cleans up resources
func (g *Generator) Close() error {
	return g.runtime.Close()
}

// Generate returns the decoded text of prompt followed by the generated tokens
func (g *Generator) Generate(ctx context.Context, prompt string, gc GenerationConfig) (string, error) {
	res, err := g.GenerateResult(ctx, prompt, gc)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// GenerateResult runs one request and reports the sequence and statistics
// along with the text.
func (g *Generator) GenerateResult(ctx context.Context, prompt string, gc GenerationConfig) (res *Result, err error) {
	start := time.Now()
	defer func() {
		RequestsTotal.WithLabelValues(outcomeOf(err)).Inc()
		RequestDuration.Observe(time.Since(start).Seconds())
	}()

	if err := gc.Validate(); err != nil {
		return nil, err
	}

	if g.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.config.RequestTimeout)
		defer cancel()
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("generation canceled before start: %w", err)
	}

	promptIDs, err := safeEncode(g.tokenizer, prompt)
	if err != nil {
		return nil, &TokenizationError{Err: err}
	}
	if len(promptIDs) == 0 && g.config.BOSTokenID >= 0 {
		promptIDs = []int{g.config.BOSTokenID}
	}

	seq := NewTokenSequence(promptIDs)
	seq.Status = StatusTokenized
	log := logger.Log.With("seq_id", seq.SeqID)

	maxNew := gc.MaxNewTokens
	if g.config.MaxSteps > 0 && maxNew > g.config.MaxSteps {
		log.Warn("max_new_tokens exceeds step budget", "requested", maxNew, "budget", g.config.MaxSteps)
		maxNew = g.config.MaxSteps
	}

	sampler := g.sampler
	if gc.Seed >= 0 {
		sampler = NewSampler(gc.Seed)
	}
	greedy := gc.IsGreedy()

	log.Info("generation started",
		"prompt_tokens", seq.NumPromptTokens(),
		"max_new_tokens", maxNew,
		"greedy", greedy,
		"temperature", gc.Temperature,
		"top_p", gc.TopP,
		"repetition_penalty", gc.RepetitionPenalty)

	bar := g.newProgressBar(maxNew)

	finish := FinishLength
	steps := 0
	seq.Status = StatusStepping
	for step := 0; step < maxNew; step++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("generation canceled at step %d: %w", step, err)
		}

		next, err := g.step(seq, gc, sampler, greedy, step)
		if err != nil {
			log.Error("generation failed", "step", step, "tokens", seq.Len(), "err", err)
			return nil, err
		}
		steps++

		// The stop token ends the request without joining the sequence
		if next == gc.EOSTokenID {
			finish = FinishEOS
			break
		}

		seq.Append(next)
		TokensGeneratedTotal.Inc()
		if bar != nil {
			bar.Add(1)
		}
	}
	seq.Status = StatusFinished

	if bar != nil {
		bar.Finish()
	}

	ids := seq.TokenIDs()
	text, err := safeDecode(g.tokenizer, ids)
	if err != nil {
		return nil, &DetokenizationError{TokenIDs: ids, Err: err}
	}

	FinishReasonsTotal.WithLabelValues(string(finish)).Inc()

	res = &Result{
		Text:            text,
		TokenIDs:        ids,
		PromptTokens:    seq.NumPromptTokens(),
		GeneratedTokens: seq.NumCompletionTokens(),
		Steps:           steps,
		FinishReason:    finish,
		Duration:        time.Since(start),
		Fingerprint:     seq.Fingerprint(),
	}

	log.Info("generation finished",
		"generated_tokens", res.GeneratedTokens,
		"steps", res.Steps,
		"finish_reason", res.FinishReason,
		"duration", res.Duration)

	return res, nil
}

// step runs one forward pass and selects the next token
func (g *Generator) step(seq *TokenSequence, gc GenerationConfig, sampler *Sampler, greedy bool, step int) (int, error) {
	stepStart := time.Now()

	if seq.Len() == 0 {
		return 0, &RuntimeInvocationError{Step: step, TokenCount: 0, Err: ErrEmptyContext}
	}

	inputs := seq.Inputs(g.withPositions)
	ContextLengthHistogram.Observe(float64(seq.Len()))

	out, err := safeInvoke(g.runtime, inputs)
	if err != nil {
		return 0, &RuntimeInvocationError{Step: step, TokenCount: seq.Len(), Err: err}
	}
	if out == nil {
		return 0, &RuntimeInvocationError{Step: step, TokenCount: seq.Len(), Err: fmt.Errorf("%w: no output", ErrInvalidLogitsShape)}
	}

	logits, err := out.LastRow()
	if err != nil {
		return 0, &RuntimeInvocationError{Step: step, TokenCount: seq.Len(), Err: err}
	}
	if g.vocabSize > 0 && len(logits) != g.vocabSize {
		return 0, &RuntimeInvocationError{
			Step:       step,
			TokenCount: seq.Len(),
			Err:        fmt.Errorf("%w: %d logits for a vocabulary of %d", ErrInvalidLogitsShape, len(logits), g.vocabSize),
		}
	}

	probs := Distribution(logits, seq.history(), gc)
	next := sampler.Pick(probs, greedy)

	StepDuration.Observe(time.Since(stepStart).Seconds())
	logger.Log.Debug("decoding step",
		"seq_id", seq.SeqID,
		"step", step,
		"context", seq.Len(),
		"token", next,
		"prob", probs[next])

	return next, nil
}

func (g *Generator) newProgressBar(total int) *progressbar.ProgressBar {
	if !g.config.ShowProgress || g.config.ProgressWriter == nil || total <= 0 {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(g.config.ProgressWriter),
		progressbar.OptionSetDescription("Generating"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("tok"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

func outcomeOf(err error) string {
	var (
		cfgErr   *ConfigurationError
		tokErr   *TokenizationError
		rtErr    *RuntimeInvocationError
		detokErr *DetokenizationError
	)
	switch {
	case err == nil:
		return outcomeOK
	case errors.As(err, &cfgErr):
		return outcomeConfigError
	case errors.As(err, &tokErr):
		return outcomeTokenizeError
	case errors.As(err, &rtErr):
		return outcomeRuntimeError
	case errors.As(err, &detokErr):
		return outcomeDetokenizeError
	default:
		return outcomeCanceled
	}
}

func safeEncode(tok Tokenizer, text string) (ids []int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic in Encode: %v", rec)
		}
	}()
	return tok.Encode(text)
}

func safeDecode(tok Tokenizer, ids []int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic in Decode: %v", rec)
		}
	}()
	return tok.Decode(ids)
}

func safeInvoke(rt ModelRuntime, inputs Inputs) (out *LogitsTensor, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic in Invoke: %v", rec)
		}
	}()
	return rt.Invoke(inputs)
}
