package backend

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Supported tiktoken encodings
const (
	EncodingCL100kBase = "cl100k_base"
	EncodingP50kBase   = "p50k_base"
	EncodingR50kBase   = "r50k_base"
)

// TikTokenizer wraps the pkoukk/tiktoken-go library for OpenAI encodings
type TikTokenizer struct {
	encoding *tiktoken.Tiktoken
	name     string
}

// NewTikTokenizer loads the named encoding.
// The BPE ranks are fetched and cached by tiktoken-go on first use.
func NewTikTokenizer(encodingName string) (*TikTokenizer, error) {
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiktoken encoding %q: %w", encodingName, err)
	}

	return &TikTokenizer{
		encoding: encoding,
		name:     encodingName,
	}, nil
}

// Encode converts text to token IDs. Special tokens are encoded as text.
func (t *TikTokenizer) Encode(text string) ([]int, error) {
	return t.encoding.Encode(text, nil, nil), nil
}

// Decode converts token IDs to text
func (t *TikTokenizer) Decode(tokenIDs []int) (string, error) {
	if limit := t.VocabSize(); limit > 0 {
		for _, id := range tokenIDs {
			if id < 0 || id >= limit {
				return "", fmt.Errorf("token id %d out of range for %s", id, t.name)
			}
		}
	}
	return t.encoding.Decode(tokenIDs), nil
}

// VocabSize returns the number of ids including special tokens.
// tiktoken-go does not expose it, so it is fixed per encoding.
func (t *TikTokenizer) VocabSize() int {
	return encodingVocabSize(t.name)
}

// EOSTokenID returns the <|endoftext|> id of the encoding, or -1
func (t *TikTokenizer) EOSTokenID() int {
	return encodingEOS(t.name)
}

// Name returns the encoding name
func (t *TikTokenizer) Name() string {
	return t.name
}

func encodingVocabSize(name string) int {
	switch name {
	case EncodingCL100kBase:
		return 100277
	case EncodingP50kBase, EncodingR50kBase:
		return 50257
	default:
		return 0
	}
}

func encodingEOS(name string) int {
	switch name {
	case EncodingCL100kBase:
		return 100257
	case EncodingP50kBase, EncodingR50kBase:
		return 50256
	default:
		return -1
	}
}
