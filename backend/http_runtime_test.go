package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nano-decode-go/nanodecode"
)

const fakeVocab = 8

// fakeServer favors the token after the last input id
type fakeServer struct {
	mu       sync.Mutex
	requests []logitsRequest
	words    []string
}

func newFakeServer(t *testing.T, info string) (*fakeServer, *httptest.Server) {
	fs := &fakeServer{words: []string{"<pad>", "<s>", "</s>", "a", "b", "c", "d", "e"}}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /info", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(info))
	})
	mux.HandleFunc("POST /logits", func(w http.ResponseWriter, r *http.Request) {
		var req logitsRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		fs.mu.Lock()
		fs.requests = append(fs.requests, req)
		fs.mu.Unlock()

		n := len(req.InputIDs)
		logits := make([]float32, n*fakeVocab)
		next := (req.InputIDs[n-1] + 1) % fakeVocab
		logits[(n-1)*fakeVocab+int(next)] = 10
		json.NewEncoder(w).Encode(logitsResponse{Shape: []int64{1, int64(n), fakeVocab}, Logits: logits})
	})
	mux.HandleFunc("POST /tokenize", func(w http.ResponseWriter, r *http.Request) {
		var req tokenizeRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		var ids []int
		for _, word := range strings.Fields(req.Text) {
			for i, v := range fs.words {
				if v == word {
					ids = append(ids, i)
				}
			}
		}
		json.NewEncoder(w).Encode(tokensBody{Tokens: ids})
	})
	mux.HandleFunc("POST /detokenize", func(w http.ResponseWriter, r *http.Request) {
		var req tokensBody
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		words := make([]string, len(req.Tokens))
		for i, id := range req.Tokens {
			words[i] = fs.words[id]
		}
		json.NewEncoder(w).Encode(detokenizeResponse{Text: strings.Join(words, " ")})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return fs, srv
}

func TestHTTPRuntimeInfo(t *testing.T) {
	_, srv := newFakeServer(t, `{"model_type":"toy","vocab_size":8,"eos_token_id":2}`)

	rt, err := NewHTTPRuntime(context.Background(), srv.URL+"/", nil)
	require.NoError(t, err)
	defer rt.Close()

	assert.Equal(t, "toy", rt.Info().ModelType)
	assert.Equal(t, 8, rt.Info().VocabSize)
	assert.Equal(t, 2, rt.Info().EOSTokenID)
	assert.Equal(t, -1, rt.Info().BOSTokenID)
	assert.Equal(t, []string{nanodecode.InputTokenIDs, nanodecode.InputAttentionMask}, rt.DeclaredInputNames())
}

func TestHTTPRuntimeInvokeWireFormat(t *testing.T) {
	fs, srv := newFakeServer(t, `{"vocab_size":8,"input_names":["input_ids","attention_mask","position_ids"]}`)

	rt, err := NewHTTPRuntime(context.Background(), srv.URL, srv.Client())
	require.NoError(t, err)
	require.True(t, nanodecode.DeclaresPositionIDs(rt))

	out, err := rt.Invoke(nanodecode.Inputs{
		TokenIDs:      []int64{3, 4},
		AttentionMask: []int64{1, 1},
		PositionIDs:   []int64{0, 1},
	})
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 2, fakeVocab}, out.Shape)
	row, err := out.LastRow()
	require.NoError(t, err)
	assert.Equal(t, 5, nanodecode.Argmax(row))

	fs.mu.Lock()
	defer fs.mu.Unlock()
	require.Len(t, fs.requests, 1)
	assert.Equal(t, []int64{3, 4}, fs.requests[0].InputIDs)
	assert.Equal(t, []int64{1, 1}, fs.requests[0].AttentionMask)
	assert.Equal(t, []int64{0, 1}, fs.requests[0].PositionIDs)
}

func TestHTTPRuntimeEndToEnd(t *testing.T) {
	_, srv := newFakeServer(t, `{"vocab_size":8,"eos_token_id":7}`)

	rt, err := NewHTTPRuntime(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	tok := NewHTTPTokenizer(srv.URL, nil, rt.Info().VocabSize)

	g := nanodecode.NewGenerator(rt, tok, nanodecode.NewConfig())
	gc := nanodecode.NewGenerationConfig(
		nanodecode.WithGreedy(true),
		nanodecode.WithRepetitionPenalty(1.0),
		nanodecode.WithEOSTokenID(rt.Info().EOSTokenID),
		nanodecode.WithMaxNewTokens(10),
	)

	text, err := g.Generate(context.Background(), "a b", gc)
	require.NoError(t, err)
	assert.Equal(t, "a b c d", text)
}

func TestHTTPRuntimeErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == infoPath {
			w.Write([]byte(`{"vocab_size":4}`))
			return
		}
		http.Error(w, "model exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	rt, err := NewHTTPRuntime(context.Background(), srv.URL, nil)
	require.NoError(t, err)

	_, err = rt.Invoke(nanodecode.Inputs{TokenIDs: []int64{1}, AttentionMask: []int64{1}})
	assert.ErrorContains(t, err, "status 500")
	assert.ErrorContains(t, err, "model exploded")

	_, err = NewHTTPTokenizer(srv.URL, nil, 4).Encode("x")
	assert.ErrorContains(t, err, "status 500")
}

func TestHTTPRuntimeRejectsBadInfo(t *testing.T) {
	_, srv := newFakeServer(t, `{"vocab_size":0}`)

	_, err := NewHTTPRuntime(context.Background(), srv.URL, nil)
	assert.ErrorContains(t, err, "vocab_size")
}
