// Package textgen is the text-generation capability used by the pipelines.
// Callers send one prompt and receive one completion; they must treat the
// completion as untrusted free text.
package textgen

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/casimadrid/casi-cli/internal/resilience"
)

// Purpose labels a request for logging and cost attribution.
type Purpose string

// Purposes used by the pipelines.
const (
	PurposeNeighborhood Purpose = "neighborhood"
	PurposeName         Purpose = "name"
	PurposeSynthesis    Purpose = "synthesis"
	PurposeQuery        Purpose = "query"
	PurposeRewrite      Purpose = "rewrite"
)

// Request is a single-prompt completion request.
type Request struct {
	Purpose     Purpose
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Generator produces a completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

// Generate implements Generator.
func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// emptyCompletion is returned by backends when the service answered without text.
func emptyCompletion(service string) error {
	return &resilience.UpstreamError{Service: service, Err: eris.New("empty completion")}
}

func checkCompletion(service, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", emptyCompletion(service)
	}
	return text, nil
}

type breakerGenerator struct {
	next Generator
	cb   *resilience.CircuitBreaker
}

// WithBreaker routes every call through cb. While the circuit is open calls
// fail with resilience.ErrCircuitOpen without reaching the service.
func WithBreaker(g Generator, cb *resilience.CircuitBreaker) Generator {
	if cb == nil {
		return g
	}
	return &breakerGenerator{next: g, cb: cb}
}

func (b *breakerGenerator) Generate(ctx context.Context, req Request) (string, error) {
	return resilience.ExecuteVal(ctx, b.cb, func(ctx context.Context) (string, error) {
		return b.next.Generate(ctx, req)
	})
}

type limitedGenerator struct {
	next    Generator
	limiter *rate.Limiter
}

// WithLimiter makes every call wait on limiter first. A nil limiter returns g.
func WithLimiter(g Generator, limiter *rate.Limiter) Generator {
	if limiter == nil {
		return g
	}
	return &limitedGenerator{next: g, limiter: limiter}
}

func (l *limitedGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "textgen: rate limit wait")
	}
	return l.next.Generate(ctx, req)
}
