package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nano-decode-go/nanodecode"
)

func TestInputData(t *testing.T) {
	inputs := nanodecode.Inputs{
		TokenIDs:      []int64{5, 9, 2},
		AttentionMask: []int64{1, 1, 1},
		PositionIDs:   []int64{0, 1, 2},
	}

	tests := []struct {
		name string
		want []int64
	}{
		{nanodecode.InputTokenIDs, inputs.TokenIDs},
		{nanodecode.InputAttentionMask, inputs.AttentionMask},
		{nanodecode.InputPositionIDs, inputs.PositionIDs},
	}

	for _, tt := range tests {
		got, err := inputData(tt.name, inputs)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}
}

func TestInputDataErrors(t *testing.T) {
	_, err := inputData("past_key_values.0.key", nanodecode.Inputs{TokenIDs: []int64{1}})
	assert.ErrorContains(t, err, "unsupported model input")

	_, err = inputData(nanodecode.InputPositionIDs, nanodecode.Inputs{TokenIDs: []int64{1}})
	assert.ErrorContains(t, err, nanodecode.InputPositionIDs)
}

func TestNewONNXRuntimeRequiresModel(t *testing.T) {
	_, err := NewONNXRuntime(ONNXOptions{})
	assert.ErrorContains(t, err, "model path")
}
