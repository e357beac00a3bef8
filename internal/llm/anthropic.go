package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultAnthropicModel is used when no model is configured.
const DefaultAnthropicModel = anthropic.ModelClaude3_5HaikuLatest

// AnthropicBackend answers through the Anthropic Messages API.
type AnthropicBackend struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewAnthropicBackend creates a backend. Retries are disabled so failures
// surface immediately and are classified once.
func NewAnthropicBackend(apiKey, baseURL, model string) *AnthropicBackend {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	m := anthropic.Model(model)
	if model == "" {
		m = DefaultAnthropicModel
	}
	return &AnthropicBackend{
		client: anthropic.NewClient(opts...),
		model:  m,
	}
}

// Complete implements Backend.
func (b *AnthropicBackend) Complete(ctx context.Context, req Request) (string, error) {
	msg, err := b.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     b.model,
		MaxTokens: int64(req.MaxTokens),
		System:    []anthropic.TextBlockParam{{Text: req.System}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.User)),
		},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", classify(apiErr.StatusCode, apiErr.Error(), err)
		}
		return "", classify(0, err.Error(), err)
	}

	var out strings.Builder
	for _, block := range msg.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			out.WriteString(v.Text)
		}
	}
	if out.Len() == 0 {
		return "", &Error{Kind: KindTransient, Message: "The AI returned an empty answer.", Cause: errors.New("no text blocks in response")}
	}
	return out.String(), nil
}

var _ Backend = (*AnthropicBackend)(nil)
