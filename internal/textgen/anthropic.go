package textgen

import (
	"context"

	"github.com/casimadrid/casi-cli/pkg/anthropic"
)

// Anthropic generates completions with the Messages API.
type Anthropic struct {
	client anthropic.Client
	model  string
}

// NewAnthropic returns a Generator backed by client.
func NewAnthropic(client anthropic.Client, model string) *Anthropic {
	return &Anthropic{client: client, model: model}
}

// Generate sends the prompt as a single user message.
func (a *Anthropic) Generate(ctx context.Context, req Request) (string, error) {
	temp := req.Temperature
	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       a.model,
		MaxTokens:   int64(req.MaxTokens),
		Temperature: &temp,
		Messages:    []anthropic.Message{{Role: "user", Content: req.Prompt}},
	})
	if err != nil {
		return "", err
	}
	resp.Usage.LogCost(a.model, string(req.Purpose))
	return checkCompletion("anthropic", resp.Text())
}
