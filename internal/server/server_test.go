package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nano-decode-go/nanodecode"
)

func vocab() []string {
	words := make([]string, 10)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	return words
}

func newTestEcho(t *testing.T, gen Generator) *echo.Echo {
	t.Helper()
	defaults := nanodecode.NewGenerationConfig(
		nanodecode.WithGreedy(true),
		nanodecode.WithRepetitionPenalty(1.0),
		nanodecode.WithEOSTokenID(0),
	)
	return NewEcho(NewServer(gen, defaults))
}

func newMockGenerator(favored ...int) *nanodecode.Generator {
	return nanodecode.NewGenerator(nanodecode.NewMockRuntime(10, favored...), nanodecode.NewMockTokenizer(vocab()...), nil)
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body struct {
		Error ErrorBody `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestGenerate(t *testing.T) {
	e := newTestEcho(t, newMockGenerator(7, 7, 0))

	rec := doJSON(t, e, http.MethodPost, "/v1/generate", `{"prompt":"w5 w9 w2","max_new_tokens":3}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp GenerateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, resp.ID, rec.Header().Get(headerRequestID))
	assert.Equal(t, "w5 w9 w2 w7 w7", resp.Text)
	assert.Equal(t, []int{5, 9, 2, 7, 7}, resp.TokenIDs)
	assert.Equal(t, 3, resp.PromptTokens)
	assert.Equal(t, 2, resp.GeneratedTokens)
	assert.Equal(t, "eos", resp.FinishReason)
}

func TestGenerateKeepsRequestID(t *testing.T) {
	e := newTestEcho(t, newMockGenerator(0))

	req := httptest.NewRequest(http.MethodPost, "/v1/generate", strings.NewReader(`{"prompt":"w1"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(headerRequestID, "req-123")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-123", rec.Header().Get(headerRequestID))
}

func TestGenerateStatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		gen     Generator
		body    string
		status  int
		errType string
	}{
		{"malformed body", newMockGenerator(0), `{"prompt":`, http.StatusBadRequest, "invalid_request_error"},
		{"unknown field", newMockGenerator(0), `{"prompt":"w1","beam_width":4}`, http.StatusBadRequest, "invalid_request_error"},
		{"invalid temperature", newMockGenerator(0), `{"prompt":"w1","temperature":-1}`, http.StatusBadRequest, "invalid_request_error"},
		{"unknown word", newMockGenerator(0), `{"prompt":"hello"}`, http.StatusUnprocessableEntity, "tokenization_error"},
		{"runtime failure", failingGenerator{}, `{"prompt":"w1"}`, http.StatusInternalServerError, "server_error"},
		{"timeout", timeoutGenerator{}, `{"prompt":"w1"}`, http.StatusGatewayTimeout, "timeout_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, newTestEcho(t, tt.gen), http.MethodPost, "/v1/generate", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.errType, decodeError(t, rec).Type)
		})
	}
}

func TestGenerateConfigErrorNamesField(t *testing.T) {
	rec := doJSON(t, newTestEcho(t, newMockGenerator(0)), http.MethodPost, "/v1/generate", `{"prompt":"w1","top_p":1.5}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "top_p", decodeError(t, rec).Param)
}

type failingGenerator struct{}

func (failingGenerator) GenerateResult(context.Context, string, nanodecode.GenerationConfig) (*nanodecode.Result, error) {
	return nil, &nanodecode.RuntimeInvocationError{Step: 0, TokenCount: 1, Err: fmt.Errorf("device lost")}
}

type timeoutGenerator struct{}

func (timeoutGenerator) GenerateResult(context.Context, string, nanodecode.GenerationConfig) (*nanodecode.Result, error) {
	return nil, fmt.Errorf("generation canceled at step 4: %w", context.DeadlineExceeded)
}

type recordingGenerator struct {
	got nanodecode.GenerationConfig
}

func (g *recordingGenerator) GenerateResult(_ context.Context, _ string, gc nanodecode.GenerationConfig) (*nanodecode.Result, error) {
	g.got = gc
	return &nanodecode.Result{FinishReason: nanodecode.FinishLength}, nil
}

func TestGenerateOverridesDefaults(t *testing.T) {
	gen := &recordingGenerator{}
	e := newTestEcho(t, gen)

	rec := doJSON(t, e, http.MethodPost, "/v1/generate",
		`{"prompt":"w1","temperature":0.3,"top_k":5,"seed":9,"greedy":false}`)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 0.3, gen.got.Temperature)
	assert.Equal(t, 5, gen.got.TopK)
	assert.Equal(t, int64(9), gen.got.Seed)
	assert.False(t, gen.got.Greedy)
	assert.Equal(t, 0, gen.got.EOSTokenID, "unset fields keep defaults")
	assert.Equal(t, 1.0, gen.got.RepetitionPenalty)
}

func TestHealthz(t *testing.T) {
	rec := doJSON(t, newTestEcho(t, newMockGenerator(0)), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestMetrics(t *testing.T) {
	e := newTestEcho(t, newMockGenerator(0))
	doJSON(t, e, http.MethodPost, "/v1/generate", `{"prompt":"w1"}`)

	rec := doJSON(t, e, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "nanodecode_requests_total")
}

func generateIDs(t *testing.T, e *echo.Echo, body string) []int {
	t.Helper()
	rec := doJSON(t, e, http.MethodPost, "/v1/generate", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp GenerateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.TokenIDs
}

func TestGenerateDefaultsShareSamplerStream(t *testing.T) {
	// Flat logits with a fixed sampler seed, as with --seed 42
	gen := nanodecode.NewGenerator(
		nanodecode.NewMockRuntime(10),
		nanodecode.NewMockTokenizer(vocab()...),
		nanodecode.NewConfig(nanodecode.WithSamplerSeed(42)),
	)
	defaults := nanodecode.NewGenerationConfig(
		nanodecode.WithRepetitionPenalty(1.0),
		nanodecode.WithEOSTokenID(-1),
		nanodecode.WithMaxNewTokens(9),
	)
	require.Equal(t, int64(-1), defaults.Seed)
	e := NewEcho(NewServer(gen, defaults))

	first := generateIDs(t, e, `{"prompt":"w1"}`)
	second := generateIDs(t, e, `{"prompt":"w1"}`)
	require.Len(t, first, 10)
	assert.NotEqual(t, first, second, "requests without a seed continue one stream")

	seeded := generateIDs(t, e, `{"prompt":"w1","seed":7}`)
	assert.Equal(t, seeded, generateIDs(t, e, `{"prompt":"w1","seed":7}`))
}
