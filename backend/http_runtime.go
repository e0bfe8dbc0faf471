package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"nano-decode-go/internal/logger"
	"nano-decode-go/nanodecode"
)

// Remote logits server endpoints
const (
	infoPath       = "/info"
	logitsPath     = "/logits"
	tokenizePath   = "/tokenize"
	detokenizePath = "/detokenize"
)

const defaultHTTPTimeout = 60 * time.Second

type logitsRequest struct {
	InputIDs      []int64 `json:"input_ids"`
	AttentionMask []int64 `json:"attention_mask"`
	PositionIDs   []int64 `json:"position_ids,omitempty"`
}

type logitsResponse struct {
	Shape  []int64   `json:"shape"`
	Logits []float32 `json:"logits"`
}

type tokenizeRequest struct {
	Text string `json:"text"`
}

type tokensBody struct {
	Tokens []int `json:"tokens"`
}

type detokenizeResponse struct {
	Text string `json:"text"`
}

// httpClient issues JSON requests against a remote logits server
type httpClient struct {
	serverURL string
	client    *http.Client
}

func newHTTPClient(serverURL string, client *http.Client) *httpClient {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &httpClient{
		serverURL: strings.TrimRight(serverURL, "/"),
		client:    client,
	}
}

func (c *httpClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

// HTTPRuntime implements ModelRuntime by calling a remote logits server
type HTTPRuntime struct {
	http *httpClient
	info *ModelInfo
}

// NewHTTPRuntime connects to serverURL and reads the model info.
// A nil client uses a default client with a timeout.
func NewHTTPRuntime(ctx context.Context, serverURL string, client *http.Client) (*HTTPRuntime, error) {
	rt := &HTTPRuntime{http: newHTTPClient(serverURL, client)}

	var info ModelInfo
	info.EOSTokenID, info.BOSTokenID, info.PadTokenID = -1, -1, -1
	if err := rt.http.do(ctx, http.MethodGet, infoPath, nil, &info); err != nil {
		return nil, fmt.Errorf("failed to connect to server: %w", err)
	}
	if info.VocabSize <= 0 {
		return nil, fmt.Errorf("server reported vocab_size %d", info.VocabSize)
	}
	if len(info.InputNames) == 0 {
		info.InputNames = []string{nanodecode.InputTokenIDs, nanodecode.InputAttentionMask}
	}
	rt.info = &info

	logger.Log.Info("connected to model server",
		"url", rt.http.serverURL,
		"model_type", info.ModelType,
		"vocab_size", info.VocabSize,
		"eos_token_id", info.EOSTokenID)

	return rt, nil
}

// Info returns the model info reported by the server
func (r *HTTPRuntime) Info() *ModelInfo {
	return r.info
}

// Invoke posts the inputs and returns the full logits tensor
func (r *HTTPRuntime) Invoke(inputs nanodecode.Inputs) (*nanodecode.LogitsTensor, error) {
	req := logitsRequest{
		InputIDs:      inputs.TokenIDs,
		AttentionMask: inputs.AttentionMask,
		PositionIDs:   inputs.PositionIDs,
	}

	var resp logitsResponse
	if err := r.http.do(context.Background(), http.MethodPost, logitsPath, req, &resp); err != nil {
		return nil, err
	}

	return &nanodecode.LogitsTensor{Shape: resp.Shape, Data: resp.Logits}, nil
}

// DeclaredInputNames returns the input names reported by the server
func (r *HTTPRuntime) DeclaredInputNames() []string {
	return r.info.InputNames
}

// Close cleans up resources
func (r *HTTPRuntime) Close() error {
	r.http.client.CloseIdleConnections()
	return nil
}

// HTTPTokenizer implements Tokenizer using HTTP calls
type HTTPTokenizer struct {
	http      *httpClient
	vocabSize int
}

// NewHTTPTokenizer creates a tokenizer served by the same remote server
func NewHTTPTokenizer(serverURL string, client *http.Client, vocabSize int) *HTTPTokenizer {
	return &HTTPTokenizer{
		http:      newHTTPClient(serverURL, client),
		vocabSize: vocabSize,
	}
}

// Encode converts text to token IDs via HTTP
func (t *HTTPTokenizer) Encode(text string) ([]int, error) {
	var resp tokensBody
	if err := t.http.do(context.Background(), http.MethodPost, tokenizePath, tokenizeRequest{Text: text}, &resp); err != nil {
		return nil, err
	}
	return resp.Tokens, nil
}

// Decode converts token IDs to text via HTTP
func (t *HTTPTokenizer) Decode(tokenIDs []int) (string, error) {
	var resp detokenizeResponse
	if err := t.http.do(context.Background(), http.MethodPost, detokenizePath, tokensBody{Tokens: tokenIDs}, &resp); err != nil {
		return "", err
	}
	return resp.Text, nil
}

// VocabSize returns the vocabulary size
func (t *HTTPTokenizer) VocabSize() int {
	return t.vocabSize
}
