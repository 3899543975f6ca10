// Package openai provides an OpenAI-compatible Completer. It works with
// the OpenAI API as well as any compatible provider via a custom base URL.
package openai

import (
	"context"
	"errors"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"

	"ai-meeting-insights-service/internal/service/llm"
)

const (
	// defaultMaxTokens bounds the mapping response; a speaker map for a
	// realistic roster fits well within this.
	defaultMaxTokens = 300
)

// Config holds provider settings.
type Config struct {
	APIKey  string
	Model   string // e.g. "gpt-4o-mini"
	BaseURL string // optional, for OpenAI-compatible providers
}

// Completer implements llm.Completer using the OpenAI chat completions API.
// Decoding is deterministic (temperature 0) so identical transcripts
// produce identical mappings.
type Completer struct {
	client *openai.Client
	model  string
}

var _ llm.Completer = (*Completer)(nil)

// New creates an OpenAI-backed Completer.
func New(cfg Config) *Completer {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(http.DefaultClient),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)

	model := cfg.Model
	if model == "" {
		model = openai.ChatModelGPT4oMini
	}

	return &Completer{client: &client, model: model}
}

// Complete sends the prompt as a single user message and returns the raw
// response text.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: param.NewOpt(0.0),
		MaxTokens:   param.NewOpt(int64(defaultMaxTokens)),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
