package backend

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
)

// ModelInfoFile is the metadata file written next to exported models
const ModelInfoFile = "model_info.json"

// ModelInfo describes an exported model.
// Token ids that the source does not define are -1.
type ModelInfo struct {
	ModelType  string   `json:"model_type,omitempty"`
	VocabSize  int      `json:"vocab_size"`
	EOSTokenID int      `json:"eos_token_id"`
	BOSTokenID int      `json:"bos_token_id"`
	PadTokenID int      `json:"pad_token_id"`
	InputNames []string `json:"input_names,omitempty"`
}

// ParseModelInfo decodes model metadata from JSON
func ParseModelInfo(data []byte) (*ModelInfo, error) {
	info := &ModelInfo{
		EOSTokenID: -1,
		BOSTokenID: -1,
		PadTokenID: -1,
	}
	if err := json.Unmarshal(data, info); err != nil {
		return nil, fmt.Errorf("failed to parse model info: %w", err)
	}
	if info.VocabSize <= 0 {
		return nil, fmt.Errorf("model info: vocab_size must be > 0, got %d", info.VocabSize)
	}
	return info, nil
}

// LoadModelInfo reads model_info.json from path, which may be the file
// itself or the model directory.
func LoadModelInfo(path string) (*ModelInfo, error) {
	if st, err := os.Stat(path); err == nil && st.IsDir() {
		path = filepath.Join(path, ModelInfoFile)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	info, err := ParseModelInfo(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return info, nil
}
