package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"nano-decode-go/backend"
	"nano-decode-go/backend/hftokenizer"
	"nano-decode-go/internal/config"
	"nano-decode-go/internal/logger"
	"nano-decode-go/nanodecode"
)

// components are the loaded runtime and tokenizer.
// close releases both.
type components struct {
	runtime   nanodecode.ModelRuntime
	tokenizer nanodecode.Tokenizer
	close     func()
}

// modelDir returns the directory holding the model files
func modelDir() string {
	if st, err := os.Stat(modelPath); err == nil && st.IsDir() {
		return modelPath
	}
	return filepath.Dir(modelPath)
}

// eosPinned is set once the stop token came from a flag, the config file
// or model info. Tokenizer defaults only apply before that.
var eosPinned bool

// eosProvider is implemented by tokenizers that know their end-of-text id
type eosProvider interface {
	EOSTokenID() int
}

// applyModelInfo fills token ids and vocab size from model_info.json
// unless they were given explicitly.
func applyModelInfo(c *cli.Command, info *backend.ModelInfo) {
	if info.EOSTokenID >= 0 && !c.IsSet("eos") {
		eosTokenID = int64(info.EOSTokenID)
		eosPinned = true
	}
	if info.BOSTokenID >= 0 && !c.IsSet("bos") {
		bosTokenID = int64(info.BOSTokenID)
	}
	if info.VocabSize > 0 && vocabSize == 0 {
		vocabSize = int64(info.VocabSize)
	}
}

func loadComponents(ctx context.Context, c *cli.Command) (*components, error) {
	var rt nanodecode.ModelRuntime

	switch backendName {
	case config.BackendONNX:
		if modelPath == "" {
			return nil, fmt.Errorf("--model is required for the onnx backend")
		}
		if info, err := backend.LoadModelInfo(modelDir()); err == nil {
			applyModelInfo(c, info)
		} else {
			logger.Log.Debug("no model info", "err", err)
		}

		path := modelPath
		if st, err := os.Stat(path); err == nil && st.IsDir() {
			path = filepath.Join(path, "model.onnx")
		}
		onnxRT, err := backend.NewONNXRuntime(backend.ONNXOptions{
			ModelPath:   path,
			LibraryPath: ortLibrary,
			VocabSize:   int(vocabSize),
			Threads:     int(threads),
		})
		if err != nil {
			return nil, err
		}
		vocabSize = int64(onnxRT.VocabSize())
		rt = onnxRT

	case config.BackendHTTP:
		httpRT, err := backend.NewHTTPRuntime(ctx, serverURL, nil)
		if err != nil {
			return nil, err
		}
		applyModelInfo(c, httpRT.Info())
		rt = httpRT

	case config.BackendMock:
	default:
		return nil, fmt.Errorf("unknown backend %q", backendName)
	}

	tok, closeTok, err := loadTokenizer()
	if err != nil {
		if rt != nil {
			rt.Close()
		}
		return nil, err
	}

	applyTokenizerEOS(tok)

	if rt == nil {
		rt = nanodecode.NewMockRuntime(tok.VocabSize())
	}

	return &components{
		runtime:   rt,
		tokenizer: tok,
		close: func() {
			closeTok()
			rt.Close()
		},
	}, nil
}

// applyTokenizerEOS takes the stop token from the tokenizer when nothing
// else chose one.
func applyTokenizerEOS(tok nanodecode.Tokenizer) {
	if eosPinned {
		return
	}
	if p, ok := tok.(eosProvider); ok && p.EOSTokenID() >= 0 {
		eosTokenID = int64(p.EOSTokenID())
		eosPinned = true
	}
}

func loadTokenizer() (nanodecode.Tokenizer, func(), error) {
	noop := func() {}

	switch tokenizerName {
	case config.TokenizerSimple:
		return backend.NewSimpleTokenizer(), noop, nil

	case config.TokenizerTikToken:
		encoding := tokenizerPath
		if encoding == "" {
			encoding = backend.EncodingCL100kBase
		}
		tok, err := backend.NewTikTokenizer(encoding)
		if err != nil {
			return nil, nil, err
		}
		logger.Log.Info("loaded tiktoken encoding", "encoding", tok.Name(), "eos", tok.EOSTokenID(), "vocab_size", tok.VocabSize())
		return tok, noop, nil

	case config.TokenizerHF:
		path := tokenizerPath
		if path == "" {
			if modelPath == "" {
				return nil, nil, fmt.Errorf("--tokenizer-path or --model is required for the hf tokenizer")
			}
			path = modelDir()
		}
		tok, err := hftokenizer.New(path)
		if err != nil {
			return nil, nil, err
		}
		return tok, func() { tok.Close() }, nil

	case config.TokenizerHTTP:
		return backend.NewHTTPTokenizer(serverURL, nil, int(vocabSize)), noop, nil

	default:
		return nil, nil, fmt.Errorf("unknown tokenizer %q", tokenizerName)
	}
}
