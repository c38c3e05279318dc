package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicGenerator implements Generator using the Anthropic Messages API.
type AnthropicGenerator struct {
	client *anthropic.Client
	model  string
	params Params
}

// NewAnthropicGenerator creates an Anthropic generator. SDK level retries are
// disabled because Retrying owns the retry policy.
func NewAnthropicGenerator(apiKey, baseURL, model string, params Params) (*AnthropicGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic: api key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := anthropic.NewClient(opts...)

	if model == "" {
		model = string(anthropic.ModelClaudeSonnet4_20250514)
	}

	return &AnthropicGenerator{
		client: &client,
		model:  model,
		params: params,
	}, nil
}

// Generate sends the prompt as a single user message and joins the text blocks.
func (g *AnthropicGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(g.model),
		MaxTokens:   int64(g.params.MaxLength),
		Temperature: anthropic.Float(g.params.Temperature),
		TopP:        anthropic.Float(g.params.TopP),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", statusError(BackendAnthropic, apiErr.StatusCode, apiErr.Error())
		}
		return "", unavailable(BackendAnthropic, err)
	}

	var parts []string
	for _, block := range resp.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	if len(parts) == 0 {
		return "", rejected(BackendAnthropic, 0, "empty response from Anthropic")
	}

	return strings.Join(parts, "\n"), nil
}
