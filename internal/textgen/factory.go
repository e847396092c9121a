package textgen

import (
	"time"

	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/time/rate"

	"github.com/casimadrid/casi-cli/internal/config"
	"github.com/casimadrid/casi-cli/internal/resilience"
	"github.com/casimadrid/casi-cli/pkg/anthropic"
)

// FromConfig builds the configured provider wrapped with the request limiter
// and circuit breaker. The breaker is returned so callers can report how many
// calls it rejected.
func FromConfig(cfg *config.Config) (Generator, *resilience.CircuitBreaker, error) {
	var gen Generator
	switch cfg.Text.Provider {
	case "anthropic":
		if cfg.Anthropic.Key == "" {
			return nil, nil, resilience.NewConfigurationError("anthropic.key")
		}
		var opts []option.RequestOption
		if cfg.Anthropic.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.Anthropic.BaseURL))
		}
		gen = NewAnthropic(anthropic.NewClient(cfg.Anthropic.Key, opts...), cfg.Anthropic.Model)
	case "openai":
		o, err := NewOpenAI(cfg.OpenAI.Key, cfg.OpenAI.Model, cfg.OpenAI.BaseURL)
		if err != nil {
			return nil, nil, err
		}
		gen = o
	default:
		return nil, nil, &resilience.ConfigurationError{Setting: "text.provider", Reason: "unknown provider " + cfg.Text.Provider}
	}

	if cfg.Text.RequestsPerMinute > 0 {
		gen = WithLimiter(gen, rate.NewLimiter(rate.Limit(cfg.Text.RequestsPerMinute/60), 1))
	}

	cb := resilience.NewCircuitBreaker(resilience.BreakerConfig{
		Name:             "textgen",
		FailureThreshold: cfg.Text.BreakerThreshold,
		ResetTimeout:     time.Duration(cfg.Text.BreakerResetSecs) * time.Second,
		ShouldTrip:       resilience.IsTransient,
	})
	return WithBreaker(gen, cb), cb, nil
}
