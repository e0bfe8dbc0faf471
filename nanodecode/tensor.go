package nanodecode

import "fmt"

// LogitsTensor is a dense row-major float32 tensor returned by a runtime
type LogitsTensor struct {
	Shape []int64
	Data  []float32
}

// NewLogitsTensor creates a [1, seqLen, vocabSize] tensor over data
func NewLogitsTensor(seqLen, vocabSize int, data []float32) *LogitsTensor {
	return &LogitsTensor{
		Shape: []int64{1, int64(seqLen), int64(vocabSize)},
		Data:  data,
	}
}

// VocabSize returns the size of the last dimension
func (t *LogitsTensor) VocabSize() int {
	if len(t.Shape) == 0 {
		return 0
	}
	return int(t.Shape[len(t.Shape)-1])
}

// LastRow copies the logits of the final sequence position.
// The tensor must be shaped [1, seq, vocab] with seq, vocab > 0.
func (t *LogitsTensor) LastRow() ([]float32, error) {
	if len(t.Shape) != 3 || t.Shape[0] != 1 {
		return nil, fmt.Errorf("%w: got %v, want [1, seq, vocab]", ErrInvalidLogitsShape, t.Shape)
	}

	seqLen, vocabSize := t.Shape[1], t.Shape[2]
	if seqLen <= 0 || vocabSize <= 0 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidLogitsShape, t.Shape)
	}
	if int64(len(t.Data)) != seqLen*vocabSize {
		return nil, fmt.Errorf("%w: %d values for shape %v", ErrInvalidLogitsShape, len(t.Data), t.Shape)
	}

	offset := (seqLen - 1) * vocabSize
	row := make([]float32, vocabSize)
	copy(row, t.Data[offset:offset+vocabSize])
	return row, nil
}
