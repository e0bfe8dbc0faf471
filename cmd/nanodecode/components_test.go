package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"nano-decode-go/backend"
	"nano-decode-go/nanodecode"
)

var _ eosProvider = (*backend.TikTokenizer)(nil)

type eosTokenizer struct {
	*backend.SimpleTokenizer
	eos int
}

func (t eosTokenizer) EOSTokenID() int { return t.eos }

func resetEOS(t *testing.T, id int64, pinned bool) {
	t.Helper()
	prevID, prevPinned := eosTokenID, eosPinned
	t.Cleanup(func() { eosTokenID, eosPinned = prevID, prevPinned })
	eosTokenID, eosPinned = id, pinned
}

func TestApplyTokenizerEOS(t *testing.T) {
	resetEOS(t, 2, false)

	applyTokenizerEOS(eosTokenizer{backend.NewSimpleTokenizer(), 100257})

	assert.Equal(t, int64(100257), eosTokenID)
	assert.True(t, eosPinned)
	assert.Equal(t, 100257, generationConfig().EOSTokenID)
}

func TestApplyTokenizerEOSKeepsPinned(t *testing.T) {
	resetEOS(t, 5, true)

	applyTokenizerEOS(eosTokenizer{backend.NewSimpleTokenizer(), 100257})
	assert.Equal(t, int64(5), eosTokenID)
}

func TestApplyTokenizerEOSWithoutProvider(t *testing.T) {
	resetEOS(t, 2, false)

	applyTokenizerEOS(backend.NewSimpleTokenizer())
	assert.Equal(t, int64(2), eosTokenID)
	assert.False(t, eosPinned)

	applyTokenizerEOS(eosTokenizer{backend.NewSimpleTokenizer(), -1})
	assert.Equal(t, int64(2), eosTokenID)
}

func TestGenerationConfigLeavesSeedToSampler(t *testing.T) {
	prev := seed
	t.Cleanup(func() { seed = prev })
	seed = 42

	assert.Equal(t, int64(-1), generationConfig().Seed)
	assert.Equal(t, int64(-1), nanodecode.NewGenerationConfig().Seed)
}
