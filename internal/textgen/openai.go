package textgen

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/casimadrid/casi-cli/internal/resilience"
)

// OpenAI generates completions with any OpenAI-compatible chat endpoint.
type OpenAI struct {
	model llms.Model
}

// NewOpenAI builds an OpenAI-compatible generator. baseURL may be empty for
// the default endpoint.
func NewOpenAI(apiKey, model, baseURL string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, resilience.NewConfigurationError("openai.key")
	}
	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	client, err := openai.New(opts...)
	if err != nil {
		return nil, eris.Wrap(err, "textgen: create openai client")
	}
	return &OpenAI{model: client}, nil
}

// Generate sends the prompt as a single human message.
func (o *OpenAI) Generate(ctx context.Context, req Request) (string, error) {
	text, err := llms.GenerateFromSinglePrompt(ctx, o.model, req.Prompt,
		llms.WithTemperature(req.Temperature),
		llms.WithMaxTokens(req.MaxTokens),
	)
	if err != nil {
		return "", &resilience.UpstreamError{Service: "openai", Err: err}
	}
	return checkCompletion("openai", text)
}
