package generation

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIGenerator implements Generator with an OpenAI compatible chat completion API.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
	params Params
}

// NewOpenAIGenerator creates an OpenAI generator. baseURL may be empty to use the
// public API.
func NewOpenAIGenerator(apiKey, baseURL, model string, params Params) (*OpenAIGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: api key is required")
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	if model == "" {
		model = openai.GPT4oMini
	}

	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		params: params,
	}, nil
}

// Generate sends the prompt as a single user message.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   g.params.MaxLength,
		Temperature: float32(g.params.Temperature),
		TopP:        float32(g.params.TopP),
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", classifyOpenAIError(err)
	}

	if len(resp.Choices) == 0 {
		return "", rejected(BackendOpenAI, 0, "empty response from OpenAI")
	}

	return resp.Choices[0].Message.Content, nil
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return statusError(BackendOpenAI, apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return statusError(BackendOpenAI, reqErr.HTTPStatusCode, reqErr.Error())
	}
	return unavailable(BackendOpenAI, err)
}
