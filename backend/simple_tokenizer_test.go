package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleTokenizerRoundTrip(t *testing.T) {
	tok := NewSimpleTokenizer()

	texts := []string{
		"hello world",
		"How are you?",
		"The answer is 42.",
		"  leading and trailing  ",
		"tabs\tand\nnewlines",
		`symbols: ~!@#$%^&*()_+{}|[]\;',./<>"`,
		"",
	}

	for _, text := range texts {
		ids, err := tok.Encode(text)
		require.NoError(t, err)

		got, err := tok.Decode(ids)
		require.NoError(t, err)
		assert.Equal(t, text, got)

		for _, id := range ids {
			assert.NotEqual(t, SimpleUnkID, id, "%q produced an unknown token", text)
		}
	}
}

func TestSimpleTokenizerWordsBeforeChars(t *testing.T) {
	tok := NewSimpleTokenizer()

	ids, err := tok.Encode("hello")
	require.NoError(t, err)
	assert.Len(t, ids, 1)

	ids, err = tok.Encode("hullo")
	require.NoError(t, err)
	assert.Len(t, ids, 5)
}

func TestSimpleTokenizerUnknown(t *testing.T) {
	tok := NewSimpleTokenizer()

	ids, err := tok.Encode("é")
	require.NoError(t, err)
	assert.Equal(t, []int{SimpleUnkID}, ids)
}

func TestSimpleTokenizerDecode(t *testing.T) {
	tok := NewSimpleTokenizer()

	text, err := tok.Decode([]int{SimplePadID, SimpleBOSID})
	require.NoError(t, err)
	assert.Equal(t, "<s>", text)

	_, err = tok.Decode([]int{tok.VocabSize()})
	assert.Error(t, err)
}
