package nanodecode

import (
	"slices"
	"sync"
)

// Model input names understood by the generator
const (
	InputTokenIDs      = "input_ids"
	InputAttentionMask = "attention_mask"
	InputPositionIDs   = "position_ids"
)

// Inputs are the tensors for one forward pass, each shaped [1, len(TokenIDs)]
type Inputs struct {
	TokenIDs      []int64
	AttentionMask []int64
	PositionIDs   []int64 // nil unless the runtime declares position_ids
}

// ModelRuntime runs a full-context forward pass.
// Implementations can be backed by:
// - ONNX Runtime sessions
// - HTTP calls to a remote inference server
// - In-process mocks for tests
type ModelRuntime interface {
	// Invoke returns logits shaped [1, sequence_length, vocab_size]
	Invoke(inputs Inputs) (*LogitsTensor, error)

	// DeclaredInputNames lists the model's input names
	DeclaredInputNames() []string

	// Close cleans up resources
	Close() error
}

// Tokenizer converts between text and token IDs
type Tokenizer interface {
	// Encode converts text to token IDs
	Encode(text string) ([]int, error)

	// Decode converts token IDs to text
	Decode(tokenIDs []int) (string, error)

	// VocabSize returns the number of token IDs the tokenizer can produce
	VocabSize() int
}

// DeclaresPositionIDs reports whether the runtime expects position ids
func DeclaresPositionIDs(rt ModelRuntime) bool {
	return slices.Contains(rt.DeclaredInputNames(), InputPositionIDs)
}

// SerializedRuntime fronts a runtime that is not safe for concurrent use
type SerializedRuntime struct {
	mu    sync.Mutex
	inner ModelRuntime
}

// NewSerializedRuntime wraps rt so that only one Invoke runs at a time
func NewSerializedRuntime(rt ModelRuntime) *SerializedRuntime {
	return &SerializedRuntime{inner: rt}
}

// Invoke runs the wrapped runtime under the lock
func (r *SerializedRuntime) Invoke(inputs Inputs) (*LogitsTensor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inner.Invoke(inputs)
}

// DeclaredInputNames returns the wrapped runtime's input names
func (r *SerializedRuntime) DeclaredInputNames() []string {
	return r.inner.DeclaredInputNames()
}

// Close closes the wrapped runtime
func (r *SerializedRuntime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inner.Close()
}
