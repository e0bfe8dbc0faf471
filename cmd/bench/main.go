package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"nano-decode-go/internal/logger"
	"nano-decode-go/nanodecode"
)

func main() {
	fmt.Println("Nano-Decode-Go Benchmark")
	fmt.Println("========================")
	fmt.Println()

	// Configuration
	numRequests := 64
	minInputLen := 16
	maxInputLen := 128
	maxOutputLen := 128
	vocabSize := 4096

	fmt.Printf("Configuration:\n")
	fmt.Printf("  Number of requests: %d\n", numRequests)
	fmt.Printf("  Input length: %d-%d tokens\n", minInputLen, maxInputLen)
	fmt.Printf("  Output length: %d tokens\n", maxOutputLen)
	fmt.Printf("  Vocabulary: %d\n", vocabSize)
	fmt.Println()

	logger.Setup("warn", "console")

	vocab := make([]string, vocabSize)
	for i := range vocab {
		vocab[i] = fmt.Sprintf("t%d", i)
	}
	tokenizer := nanodecode.NewMockTokenizer(vocab...)

	// Flat logits: every step samples over the full vocabulary
	runtime := nanodecode.NewMockRuntime(vocabSize)

	config := nanodecode.NewConfig(
		nanodecode.WithSamplerSeed(1),
		nanodecode.WithMaxConcurrentRequests(8),
	)
	llm := nanodecode.NewLLM(config, runtime, tokenizer)
	defer llm.Close()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	prompts := make([]string, numRequests)
	for i := range prompts {
		inputLen := minInputLen + rng.Intn(maxInputLen-minInputLen+1)
		words := make([]string, inputLen)
		for j := range words {
			words[j] = vocab[rng.Intn(vocabSize)]
		}
		prompts[i] = strings.Join(words, " ")
	}

	genConfig := nanodecode.NewGenerationConfig(
		nanodecode.WithTemperature(0.6),
		nanodecode.WithMaxNewTokens(maxOutputLen),
		nanodecode.WithEOSTokenID(-1),
	)

	fmt.Println("Starting benchmark...")
	fmt.Println()

	startTime := time.Now()
	results, err := llm.GenerateAll(context.Background(), prompts, genConfig)
	if err != nil {
		log.Fatalf("Generation failed: %v", err)
	}
	elapsed := time.Since(startTime).Seconds()

	totalOutputTokens := 0
	totalSteps := 0
	for _, res := range results {
		totalOutputTokens += res.GeneratedTokens
		totalSteps += res.Steps
	}

	throughput := float64(totalOutputTokens) / elapsed

	fmt.Println("Benchmark Results:")
	fmt.Println("==================")
	fmt.Printf("Total requests: %d\n", numRequests)
	fmt.Printf("Total output tokens: %d\n", totalOutputTokens)
	fmt.Printf("Total decoding steps: %d\n", totalSteps)
	fmt.Printf("Time elapsed: %.2f seconds\n", elapsed)
	fmt.Printf("Throughput: %.2f tokens/sec\n", throughput)
	fmt.Printf("Average latency: %.2f ms/request\n", elapsed*1000/float64(numRequests))
	fmt.Println()

	// Note about mock implementation
	fmt.Println("Note: This benchmark measures the controller over a mock runtime.")
	fmt.Println("The full-context forward pass of a real model dominates in practice.")
}
