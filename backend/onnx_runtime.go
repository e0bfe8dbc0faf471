package backend

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"nano-decode-go/internal/logger"
	"nano-decode-go/nanodecode"
)

// ONNXOptions configures an ONNX Runtime session
type ONNXOptions struct {
	ModelPath   string
	LibraryPath string // onnxruntime shared library; empty uses the default search
	VocabSize   int    // 0 reads the last dimension of the logits output
	Threads     int
	OutputName  string // empty selects the first model output
}

// ONNXRuntime implements ModelRuntime using ONNX Runtime.
// Run calls are serialized on the session.
type ONNXRuntime struct {
	mu         sync.Mutex
	session    *ort.DynamicAdvancedSession
	modelPath  string
	inputNames []string
	outputName string
	vocabSize  int
}

var envMu sync.Mutex

func initEnvironment(libraryPath string) error {
	envMu.Lock()
	defer envMu.Unlock()

	if ort.IsInitialized() {
		return nil
	}
	if libraryPath != "" {
		ort.SetSharedLibraryPath(libraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize ONNX runtime: %w", err)
	}
	return nil
}

// NewONNXRuntime loads the model and creates a session for it
func NewONNXRuntime(opts ONNXOptions) (*ONNXRuntime, error) {
	if opts.ModelPath == "" {
		return nil, fmt.Errorf("model path is required")
	}
	if opts.Threads <= 0 {
		opts.Threads = 4
	}

	if err := initEnvironment(opts.LibraryPath); err != nil {
		return nil, err
	}

	inputs, outputs, err := ort.GetInputOutputInfo(opts.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read model info: %w", err)
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("model %s has no outputs", opts.ModelPath)
	}

	inputNames := make([]string, len(inputs))
	for i, in := range inputs {
		inputNames[i] = in.Name
	}

	logits := outputs[0]
	if opts.OutputName != "" {
		found := false
		for _, out := range outputs {
			if out.Name == opts.OutputName {
				logits, found = out, true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("model %s has no output %q", opts.ModelPath, opts.OutputName)
		}
	}

	vocabSize := opts.VocabSize
	if vocabSize <= 0 {
		if dims := logits.Dimensions; len(dims) > 0 && dims[len(dims)-1] > 0 {
			vocabSize = int(dims[len(dims)-1])
		}
	}
	if vocabSize <= 0 {
		return nil, fmt.Errorf("vocab size of output %q is dynamic; set it explicitly", logits.Name)
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer options.Destroy()

	if err := options.SetIntraOpNumThreads(opts.Threads); err != nil {
		return nil, fmt.Errorf("failed to set threads: %w", err)
	}

	session, err := ort.NewDynamicAdvancedSession(opts.ModelPath, inputNames, []string{logits.Name}, options)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	logger.Log.Info("onnx session ready",
		"model", opts.ModelPath,
		"inputs", inputNames,
		"output", logits.Name,
		"vocab_size", vocabSize)

	return &ONNXRuntime{
		session:    session,
		modelPath:  opts.ModelPath,
		inputNames: inputNames,
		outputName: logits.Name,
		vocabSize:  vocabSize,
	}, nil
}

// inputData returns the values to feed to the named model input
func inputData(name string, inputs nanodecode.Inputs) ([]int64, error) {
	switch name {
	case nanodecode.InputTokenIDs:
		return inputs.TokenIDs, nil
	case nanodecode.InputAttentionMask:
		return inputs.AttentionMask, nil
	case nanodecode.InputPositionIDs:
		if inputs.PositionIDs == nil {
			return nil, fmt.Errorf("model requires %s but none were supplied", name)
		}
		return inputs.PositionIDs, nil
	default:
		return nil, fmt.Errorf("unsupported model input %q", name)
	}
}

// Invoke runs a full-context forward pass
func (r *ONNXRuntime) Invoke(inputs nanodecode.Inputs) (*nanodecode.LogitsTensor, error) {
	seqLen := len(inputs.TokenIDs)
	if seqLen == 0 {
		return nil, nanodecode.ErrEmptyContext
	}

	values := make([]ort.Value, 0, len(r.inputNames))
	defer func() {
		for _, v := range values {
			v.Destroy()
		}
	}()

	shape := ort.NewShape(1, int64(seqLen))
	for _, name := range r.inputNames {
		data, err := inputData(name, inputs)
		if err != nil {
			return nil, err
		}
		if len(data) != seqLen {
			return nil, fmt.Errorf("input %s has %d values, want %d", name, len(data), seqLen)
		}
		tensor, err := ort.NewTensor(shape, data)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s tensor: %w", name, err)
		}
		values = append(values, tensor)
	}

	outputData := make([]float32, seqLen*r.vocabSize)
	outputTensor, err := ort.NewTensor(ort.NewShape(1, int64(seqLen), int64(r.vocabSize)), outputData)
	if err != nil {
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer outputTensor.Destroy()

	r.mu.Lock()
	err = r.session.Run(values, []ort.Value{outputTensor})
	r.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	return nanodecode.NewLogitsTensor(seqLen, r.vocabSize, outputData), nil
}

// DeclaredInputNames returns the model's input names
func (r *ONNXRuntime) DeclaredInputNames() []string {
	return r.inputNames
}

// VocabSize returns the size of the logits' last dimension
func (r *ONNXRuntime) VocabSize() int {
	return r.vocabSize
}

// Close destroys the session. The environment stays initialized for
// other sessions.
func (r *ONNXRuntime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return nil
	}
	err := r.session.Destroy()
	r.session = nil
	return err
}
