package main

import (
	"context"
	"fmt"
	"log"

	"nano-decode-go/backend"
	"nano-decode-go/nanodecode"
)

func main() {
	fmt.Println("Nano-Decode-Go - Simple Tokenizer Example")
	fmt.Println("=========================================")
	fmt.Println()

	// This example uses the built-in tokenizer (no external files needed)
	// and a scripted runtime, so it runs without an ONNX model

	tokenizer := backend.NewSimpleTokenizer()
	fmt.Printf("Vocabulary size: %d\n", tokenizer.VocabSize())

	// Test tokenization first
	fmt.Println("\nTesting tokenization:")
	testText := "hello world this is a test"
	tokens, err := tokenizer.Encode(testText)
	if err != nil {
		log.Fatalf("Encoding failed: %v", err)
	}
	fmt.Printf("  Input: %s\n", testText)
	fmt.Printf("  Tokens: %v\n", tokens)

	decoded, err := tokenizer.Decode(tokens)
	if err != nil {
		log.Fatalf("Decoding failed: %v", err)
	}
	fmt.Printf("  Decoded: %s\n", decoded)

	// The runtime favors " the world" and then </s>
	script, err := tokenizer.Encode(" the world")
	if err != nil {
		log.Fatalf("Encoding failed: %v", err)
	}
	script = append(script, backend.SimpleEOSID)
	runtime := nanodecode.NewMockRuntime(tokenizer.VocabSize(), script...)

	config := nanodecode.NewConfig(
		nanodecode.WithSamplerSeed(1),
		nanodecode.WithMaxConcurrentRequests(1),
	)
	llm := nanodecode.NewLLM(config, runtime, tokenizer)
	defer llm.Close()

	genConfig := nanodecode.NewGenerationConfig(
		nanodecode.WithGreedy(true),
		nanodecode.WithRepetitionPenalty(1.0),
		nanodecode.WithEOSTokenID(backend.SimpleEOSID),
		nanodecode.WithMaxNewTokens(50),
	)

	prompt := "hello"
	fmt.Println("\nGenerating...")
	res, err := llm.GenerateResult(context.Background(), prompt, genConfig)
	if err != nil {
		log.Fatalf("Generation failed: %v", err)
	}

	fmt.Println("\nResult:")
	fmt.Println("=======")
	fmt.Printf("Prompt: %s\n", prompt)
	fmt.Printf("Output: %s\n", res.Text)
	fmt.Printf("Tokens: %d (%d generated, finish: %s)\n", len(res.TokenIDs), res.GeneratedTokens, res.FinishReason)

	fmt.Println("\nNote: This example uses a simple tokenizer and scripted model.")
	fmt.Println("For real inference, run `nanodecode generate` with an ONNX model.")
}
