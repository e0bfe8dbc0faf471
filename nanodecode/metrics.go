package nanodecode

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for RequestsTotal
const (
	outcomeOK              = "ok"
	outcomeConfigError     = "config_error"
	outcomeTokenizeError   = "tokenize_error"
	outcomeRuntimeError    = "runtime_error"
	outcomeDetokenizeError = "detokenize_error"
	outcomeCanceled        = "canceled"
)

var (
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nanodecode_requests_total",
		Help: "Generation requests by outcome",
	}, []string{"outcome"})

	TokensGeneratedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nanodecode_tokens_generated_total",
		Help: "Tokens appended to sequences across all requests",
	})

	FinishReasonsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nanodecode_finish_reasons_total",
		Help: "Completed requests by finish reason",
	}, []string{"reason"})

	StepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "nanodecode_step_duration_seconds",
		Help:    "Duration of one decoding step including the forward pass",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	})

	RequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "nanodecode_request_duration_seconds",
		Help:    "Duration of complete generation requests",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
	})

	ContextLengthHistogram = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "nanodecode_context_length_tokens",
		Help:    "Sequence length passed to the model runtime",
		Buckets: []float64{16, 64, 256, 512, 1024, 2048, 4096, 8192},
	})
)
