package nanodecode

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

// SequenceStatus represents the decoding state of a sequence
type SequenceStatus int

const (
	StatusStart SequenceStatus = iota
	StatusTokenized
	StatusStepping
	StatusFinished
)

func (s SequenceStatus) String() string {
	switch s {
	case StatusStart:
		return "start"
	case StatusTokenized:
		return "tokenized"
	case StatusStepping:
		return "stepping"
	case StatusFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// TokenSequence is the append-only token history of one generation request
type TokenSequence struct {
	SeqID           int64
	Status          SequenceStatus
	tokenIDs        []int
	numPromptTokens int
}

var seqCounter int64 = 0

// NewTokenSequence creates a sequence from the encoded prompt
func NewTokenSequence(promptIDs []int) *TokenSequence {
	seqID := atomic.AddInt64(&seqCounter, 1) - 1

	// The caller keeps ownership of promptIDs
	tokens := make([]int, len(promptIDs))
	copy(tokens, promptIDs)

	return &TokenSequence{
		SeqID:           seqID,
		Status:          StatusStart,
		tokenIDs:        tokens,
		numPromptTokens: len(promptIDs),
	}
}

// Len returns the number of tokens in the sequence
func (s *TokenSequence) Len() int {
	return len(s.tokenIDs)
}

// Append adds a sampled token to the end of the sequence
func (s *TokenSequence) Append(tokenID int) {
	s.tokenIDs = append(s.tokenIDs, tokenID)
}

// LastToken returns the most recent token, or -1 for an empty sequence
func (s *TokenSequence) LastToken() int {
	if len(s.tokenIDs) == 0 {
		return -1
	}
	return s.tokenIDs[len(s.tokenIDs)-1]
}

// NumPromptTokens returns the number of prompt tokens
func (s *TokenSequence) NumPromptTokens() int {
	return s.numPromptTokens
}

// NumCompletionTokens returns the number of generated tokens
func (s *TokenSequence) NumCompletionTokens() int {
	return len(s.tokenIDs) - s.numPromptTokens
}

// TokenIDs returns a copy of all token IDs
func (s *TokenSequence) TokenIDs() []int {
	out := make([]int, len(s.tokenIDs))
	copy(out, s.tokenIDs)
	return out
}

// PromptTokenIDs returns the prompt token IDs
func (s *TokenSequence) PromptTokenIDs() []int {
	return s.tokenIDs[:s.numPromptTokens:s.numPromptTokens]
}

// CompletionTokenIDs returns the generated token IDs
func (s *TokenSequence) CompletionTokenIDs() []int {
	return s.tokenIDs[s.numPromptTokens:]
}

// history exposes the backing slice for read-only use inside the package
func (s *TokenSequence) history() []int {
	return s.tokenIDs
}

// Fingerprint hashes the token IDs. Equal sequences have equal fingerprints.
func (s *TokenSequence) Fingerprint() uint64 {
	h := xxhash.New()
	buf := make([]byte, 4)
	for _, tokenID := range s.tokenIDs {
		binary.LittleEndian.PutUint32(buf, uint32(tokenID))
		h.Write(buf)
	}
	return h.Sum64()
}

// Inputs builds the runtime inputs for the current sequence.
// Position ids are only produced when withPositions is set.
func (s *TokenSequence) Inputs(withPositions bool) Inputs {
	n := len(s.tokenIDs)
	in := Inputs{
		TokenIDs:      make([]int64, n),
		AttentionMask: make([]int64, n),
	}
	for i, id := range s.tokenIDs {
		in.TokenIDs[i] = int64(id)
		in.AttentionMask[i] = 1
	}
	if withPositions {
		in.PositionIDs = make([]int64, n)
		for i := range in.PositionIDs {
			in.PositionIDs[i] = int64(i)
		}
	}
	return in
}
