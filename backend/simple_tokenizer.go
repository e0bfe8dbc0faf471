package backend

import (
	"fmt"
	"strings"
)

// Special token ids of SimpleTokenizer
const (
	SimplePadID = 0
	SimpleBOSID = 1
	SimpleEOSID = 2
	SimpleUnkID = 3
)

// SimpleTokenizer is a word and character vocabulary for demonstration.
// It has no external dependencies. Text made of printable ASCII, tabs and
// newlines survives an Encode/Decode round trip.
type SimpleTokenizer struct {
	vocab  map[string]int
	invVoc []string
}

// NewSimpleTokenizer creates a simple tokenizer with a basic vocabulary
func NewSimpleTokenizer() *SimpleTokenizer {
	t := &SimpleTokenizer{vocab: make(map[string]int)}

	specialTokens := []string{"<pad>", "<s>", "</s>", "<unk>"}
	for _, token := range specialTokens {
		t.add(token)
	}

	commonWords := []string{
		"hello", "world", "the", "is", "a", "an", "in", "on", "at",
		"to", "from", "with", "for", "of", "and", "or", "but",
		"this", "that", "these", "those", "it", "he", "she", "they",
		"what", "where", "when", "why", "how", "who", "which",
		"are", "you", "was", "were", "be", "been", "have", "has", "had",
		"do", "does", "did", "can", "could", "will", "would", "should",
	}
	for _, word := range commonWords {
		t.add(word)
	}

	// Character fallback covers all of printable ASCII
	for ch := ' '; ch <= '~'; ch++ {
		t.add(string(ch))
	}
	t.add("\n")
	t.add("\t")

	return t
}

func (t *SimpleTokenizer) add(token string) {
	if _, ok := t.vocab[token]; ok {
		return
	}
	t.vocab[token] = len(t.invVoc)
	t.invVoc = append(t.invVoc, token)
}

// Encode converts text to token IDs.
// Whole words are looked up first and fall back to characters.
func (t *SimpleTokenizer) Encode(text string) ([]int, error) {
	var result []int

	var word strings.Builder
	flush := func() {
		if word.Len() == 0 {
			return
		}
		result = t.appendWord(result, word.String())
		word.Reset()
	}

	for _, ch := range text {
		if ch == ' ' || ch == '\n' || ch == '\t' {
			flush()
			result = append(result, t.vocab[string(ch)])
			continue
		}
		word.WriteRune(ch)
	}
	flush()

	return result, nil
}

func (t *SimpleTokenizer) appendWord(ids []int, word string) []int {
	if id, ok := t.vocab[word]; ok {
		return append(ids, id)
	}
	for _, ch := range word {
		if id, ok := t.vocab[string(ch)]; ok {
			ids = append(ids, id)
		} else {
			ids = append(ids, SimpleUnkID)
		}
	}
	return ids
}

// Decode converts token IDs to text. Padding is dropped.
func (t *SimpleTokenizer) Decode(tokenIDs []int) (string, error) {
	var sb strings.Builder
	for _, id := range tokenIDs {
		if id < 0 || id >= len(t.invVoc) {
			return "", fmt.Errorf("token id %d out of range [0, %d)", id, len(t.invVoc))
		}
		if id == SimplePadID {
			continue
		}
		sb.WriteString(t.invVoc[id])
	}
	return sb.String(), nil
}

// VocabSize returns the vocabulary size
func (t *SimpleTokenizer) VocabSize() int {
	return len(t.invVoc)
}
