package backend

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadModelInfoFromDir(t *testing.T) {
	dir := t.TempDir()
	data := `{"model_type":"llama","vocab_size":32000,"eos_token_id":2,"bos_token_id":1}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ModelInfoFile), []byte(data), 0o644))

	info, err := LoadModelInfo(dir)
	require.NoError(t, err)

	assert.Equal(t, "llama", info.ModelType)
	assert.Equal(t, 32000, info.VocabSize)
	assert.Equal(t, 2, info.EOSTokenID)
	assert.Equal(t, 1, info.BOSTokenID)
	assert.Equal(t, -1, info.PadTokenID, "absent ids stay undefined")
}

func TestLoadModelInfoFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "info.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"vocab_size":10,"input_names":["input_ids","position_ids"]}`), 0o644))

	info, err := LoadModelInfo(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"input_ids", "position_ids"}, info.InputNames)
}

func TestLoadModelInfoErrors(t *testing.T) {
	_, err := LoadModelInfo(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = ParseModelInfo([]byte(`{"vocab_size":0}`))
	assert.ErrorContains(t, err, "vocab_size")

	_, err = ParseModelInfo([]byte(`not json`))
	assert.Error(t, err)
}
