// Package hftokenizer loads HuggingFace tokenizer.json files through the
// tokenizers Rust library. Linking requires libtokenizers.a.
package hftokenizer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/daulet/tokenizers"
)

// Tokenizer implements nanodecode.Tokenizer over a HuggingFace tokenizer
type Tokenizer struct {
	tk          *tokenizers.Tokenizer
	addSpecial  bool
	skipSpecial bool
}

// Option configures a Tokenizer
type Option func(*Tokenizer)

// WithAddSpecialTokens adds the model's special tokens (such as BOS) on Encode
func WithAddSpecialTokens(b bool) Option {
	return func(t *Tokenizer) {
		t.addSpecial = b
	}
}

// WithSkipSpecialTokens drops special tokens on Decode
func WithSkipSpecialTokens(b bool) Option {
	return func(t *Tokenizer) {
		t.skipSpecial = b
	}
}

// New loads tokenizer.json from path, which may be the file or its directory
func New(path string, opts ...Option) (*Tokenizer, error) {
	if st, err := os.Stat(path); err == nil && st.IsDir() {
		path = filepath.Join(path, "tokenizer.json")
	}

	tk, err := tokenizers.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer %s: %w", path, err)
	}

	t := &Tokenizer{tk: tk, skipSpecial: true}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Encode converts text to token IDs
func (t *Tokenizer) Encode(text string) ([]int, error) {
	ids, _ := t.tk.Encode(text, t.addSpecial)
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out, nil
}

// Decode converts token IDs to text
func (t *Tokenizer) Decode(tokenIDs []int) (string, error) {
	ids := make([]uint32, len(tokenIDs))
	for i, id := range tokenIDs {
		if id < 0 {
			return "", fmt.Errorf("negative token id %d", id)
		}
		ids[i] = uint32(id)
	}
	return t.tk.Decode(ids, t.skipSpecial), nil
}

// VocabSize returns the vocabulary size
func (t *Tokenizer) VocabSize() int {
	return int(t.tk.VocabSize())
}

// Close frees the native tokenizer
func (t *Tokenizer) Close() error {
	return t.tk.Close()
}
