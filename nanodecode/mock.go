package nanodecode

import (
	"fmt"
	"strings"
	"sync"
)

// MockRuntime is a scripted runtime for demonstration and tests.
// Call i favors Favored[i]; once the script runs out the last entry repeats.
type MockRuntime struct {
	VocabSize  int
	Favored    []int
	InputNames []string
	FailAt     int
	Err        error

	mu     sync.Mutex
	calls  int
	inputs []Inputs
}

// NewMockRuntime creates a mock runtime without position ids
func NewMockRuntime(vocabSize int, favored ...int) *MockRuntime {
	return &MockRuntime{
		VocabSize:  vocabSize,
		Favored:    favored,
		InputNames: []string{InputTokenIDs, InputAttentionMask},
		FailAt:     -1,
		Err:        fmt.Errorf("mock runtime failure"),
	}
}

// Invoke returns logits that put a large score on the scripted token
func (m *MockRuntime) Invoke(inputs Inputs) (*LogitsTensor, error) {
	m.mu.Lock()
	call := m.calls
	m.calls++
	m.inputs = append(m.inputs, inputs)
	m.mu.Unlock()

	if call == m.FailAt {
		return nil, m.Err
	}

	seqLen := len(inputs.TokenIDs)
	data := make([]float32, seqLen*m.VocabSize)
	if len(m.Favored) > 0 && seqLen > 0 {
		favored := m.Favored[min(call, len(m.Favored)-1)]
		data[(seqLen-1)*m.VocabSize+favored] = 10
	}

	return NewLogitsTensor(seqLen, m.VocabSize, data), nil
}

// DeclaredInputNames returns the configured input names
func (m *MockRuntime) DeclaredInputNames() []string {
	return m.InputNames
}

// Calls returns the number of Invoke calls so far
func (m *MockRuntime) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Inputs returns the inputs of every Invoke call in order
func (m *MockRuntime) Inputs() []Inputs {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Inputs(nil), m.inputs...)
}

// Close cleans up resources
func (m *MockRuntime) Close() error {
	return nil
}

// MockTokenizer maps whitespace-separated words to their index in Vocab
type MockTokenizer struct {
	Vocab      []string
	FailDecode bool
	ids        map[string]int
}

// NewMockTokenizer creates a word-level tokenizer over vocab
func NewMockTokenizer(vocab ...string) *MockTokenizer {
	ids := make(map[string]int, len(vocab))
	for i, word := range vocab {
		ids[word] = i
	}
	return &MockTokenizer{
		Vocab: vocab,
		ids:   ids,
	}
}

// Encode converts words to token IDs, rejecting unknown words
func (t *MockTokenizer) Encode(text string) ([]int, error) {
	words := strings.Fields(text)
	tokens := make([]int, 0, len(words))
	for _, word := range words {
		id, ok := t.ids[word]
		if !ok {
			return nil, fmt.Errorf("unknown word %q", word)
		}
		tokens = append(tokens, id)
	}
	return tokens, nil
}

// Decode joins the words of the given token IDs with single spaces
func (t *MockTokenizer) Decode(tokenIDs []int) (string, error) {
	if t.FailDecode {
		return "", fmt.Errorf("mock decode failure")
	}
	words := make([]string, len(tokenIDs))
	for i, id := range tokenIDs {
		if id < 0 || id >= len(t.Vocab) {
			return "", fmt.Errorf("token id %d out of range", id)
		}
		words[i] = t.Vocab[id]
	}
	return strings.Join(words, " "), nil
}

// VocabSize returns the vocabulary size
func (t *MockTokenizer) VocabSize() int {
	return len(t.Vocab)
}
