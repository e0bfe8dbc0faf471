// Package server exposes the generator over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nano-decode-go/internal/logger"
	"nano-decode-go/nanodecode"
)

const headerRequestID = "X-Request-Id"

// Generator is the part of nanodecode.Generator the server needs
type Generator interface {
	GenerateResult(ctx context.Context, prompt string, gc nanodecode.GenerationConfig) (*nanodecode.Result, error)
}

// GenerateRequest is the body of POST /v1/generate.
// Unset sampling fields take the server defaults.
type GenerateRequest struct {
	Prompt            string   `json:"prompt"`
	MaxNewTokens      *int     `json:"max_new_tokens,omitempty"`
	Temperature       *float64 `json:"temperature,omitempty"`
	TopP              *float64 `json:"top_p,omitempty"`
	TopK              *int     `json:"top_k,omitempty"`
	RepetitionPenalty *float64 `json:"repetition_penalty,omitempty"`
	EOSTokenID        *int     `json:"eos_token_id,omitempty"`
	Greedy            *bool    `json:"greedy,omitempty"`
	Seed              *int64   `json:"seed,omitempty"`
}

// GenerateResponse is the body of a successful POST /v1/generate
type GenerateResponse struct {
	ID              string  `json:"id"`
	Text            string  `json:"text"`
	TokenIDs        []int   `json:"token_ids"`
	PromptTokens    int     `json:"prompt_tokens"`
	GeneratedTokens int     `json:"generated_tokens"`
	Steps           int     `json:"steps"`
	FinishReason    string  `json:"finish_reason"`
	DurationMS      float64 `json:"duration_ms"`
}

// ErrorBody describes a failed request
type ErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Param   string `json:"param,omitempty"`
}

// Server serves generation requests
type Server struct {
	gen      Generator
	defaults nanodecode.GenerationConfig
	clock    func() time.Time
}

// NewServer creates a server whose requests start from defaults
func NewServer(gen Generator, defaults nanodecode.GenerationConfig) *Server {
	return &Server{
		gen:      gen,
		defaults: defaults,
		clock:    time.Now,
	}
}

// Register mounts the API routes on e
func (s *Server) Register(e *echo.Echo) {
	e.POST("/v1/generate", s.handleGenerate)
	e.GET("/healthz", s.handleHealth)
	e.GET("/metrics", handleMetrics)
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func handleMetrics(c *echo.Context) error {
	promhttp.Handler().ServeHTTP(c.Response(), c.Request())
	return nil
}

func (s *Server) handleGenerate(c *echo.Context) error {
	id := c.Request().Header.Get(headerRequestID)
	if id == "" {
		id = uuid.NewString()
	}
	c.Response().Header().Set(headerRequestID, id)
	log := logger.Log.With("request_id", id)

	if s.gen == nil {
		return writeError(c, http.StatusInternalServerError, "server_error", "generator not configured", "")
	}

	req, err := decodeJSON[GenerateRequest](c.Request().Body)
	if err != nil {
		return writeError(c, http.StatusBadRequest, "invalid_request_error", err.Error(), "")
	}

	gc := s.generationConfig(req)
	start := s.clock()
	res, err := s.gen.GenerateResult(c.Request().Context(), req.Prompt, gc)
	if err != nil {
		status, errType, param := classify(err)
		log.Warn("generate failed", "status", status, "err", err)
		return writeError(c, status, errType, err.Error(), param)
	}

	log.Debug("generate served",
		"generated_tokens", res.GeneratedTokens,
		"finish_reason", res.FinishReason,
		"elapsed", s.clock().Sub(start))

	return c.JSON(http.StatusOK, GenerateResponse{
		ID:              id,
		Text:            res.Text,
		TokenIDs:        res.TokenIDs,
		PromptTokens:    res.PromptTokens,
		GeneratedTokens: res.GeneratedTokens,
		Steps:           res.Steps,
		FinishReason:    string(res.FinishReason),
		DurationMS:      float64(res.Duration.Microseconds()) / 1000,
	})
}

func (s *Server) generationConfig(req GenerateRequest) nanodecode.GenerationConfig {
	gc := s.defaults
	if req.MaxNewTokens != nil {
		gc.MaxNewTokens = *req.MaxNewTokens
	}
	if req.Temperature != nil {
		gc.Temperature = *req.Temperature
	}
	if req.TopP != nil {
		gc.TopP = *req.TopP
	}
	if req.TopK != nil {
		gc.TopK = *req.TopK
	}
	if req.RepetitionPenalty != nil {
		gc.RepetitionPenalty = *req.RepetitionPenalty
	}
	if req.EOSTokenID != nil {
		gc.EOSTokenID = *req.EOSTokenID
	}
	if req.Greedy != nil {
		gc.Greedy = *req.Greedy
	}
	if req.Seed != nil {
		gc.Seed = *req.Seed
	}
	return gc
}

// classify maps an engine error to an HTTP status and error type
func classify(err error) (int, string, string) {
	var (
		cfgErr *nanodecode.ConfigurationError
		tokErr *nanodecode.TokenizationError
	)
	switch {
	case errors.As(err, &cfgErr):
		return http.StatusBadRequest, "invalid_request_error", cfgErr.Field
	case errors.As(err, &tokErr):
		return http.StatusUnprocessableEntity, "tokenization_error", "prompt"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout_error", ""
	default:
		return http.StatusInternalServerError, "server_error", ""
	}
}

func writeError(c *echo.Context, status int, errType, msg, param string) error {
	return c.JSON(status, map[string]any{
		"error": ErrorBody{
			Message: msg,
			Type:    errType,
			Param:   param,
		},
	})
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var v T
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return v, fmt.Errorf("request body is empty")
		}
		return v, fmt.Errorf("invalid request body: %w", err)
	}
	return v, nil
}
