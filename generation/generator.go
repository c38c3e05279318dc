package generation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hairizuanbinnoorazman/testcrafter/logger"
)

// Generator sends a compiled prompt to a text-generation backend and returns the
// raw generated text. Failures are reported as *BackendError unless the caller's
// context ended first.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Params is the fixed sampling configuration sent with every request.
type Params struct {
	MaxLength   int
	Temperature float64
	TopP        float64
}

// DefaultParams keeps output bounded and close to deterministic.
func DefaultParams() Params {
	return Params{
		MaxLength:   512,
		Temperature: 0.2,
		TopP:        0.9,
	}
}

// Backend names accepted by New.
const (
	BackendHuggingFace = "huggingface"
	BackendOpenAI      = "openai"
	BackendAnthropic   = "anthropic"
	BackendBedrock     = "bedrock"
)

// Config selects and configures a generation backend.
type Config struct {
	Backend string
	// Endpoint is the inference URL for huggingface, or an API base URL override
	// for openai and anthropic.
	Endpoint  string
	Model     string
	APIKey    string
	Region    string
	AccessKey string
	SecretKey string

	Params Params

	Timeout     time.Duration
	MaxAttempts int
	BackoffBase time.Duration
	BackoffMax  time.Duration
}

// New builds the configured backend wrapped with timeout and retry handling.
func New(ctx context.Context, cfg Config, log logger.Logger) (Generator, error) {
	if cfg.Params == (Params{}) {
		cfg.Params = DefaultParams()
	}

	var (
		backend Generator
		err     error
	)
	switch strings.ToLower(cfg.Backend) {
	case BackendHuggingFace, "hf":
		backend, err = NewHuggingFaceGenerator(cfg.Endpoint, cfg.APIKey, cfg.Params)
	case BackendOpenAI:
		backend, err = NewOpenAIGenerator(cfg.APIKey, cfg.Endpoint, cfg.Model, cfg.Params)
	case BackendAnthropic, "claude":
		backend, err = NewAnthropicGenerator(cfg.APIKey, cfg.Endpoint, cfg.Model, cfg.Params)
	case BackendBedrock:
		backend, err = NewBedrockGenerator(ctx, cfg.Region, cfg.AccessKey, cfg.SecretKey, cfg.Model, cfg.Params)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	return NewRetrying(backend, RetryConfig{
		MaxAttempts: cfg.MaxAttempts,
		BackoffBase: cfg.BackoffBase,
		BackoffMax:  cfg.BackoffMax,
		Timeout:     cfg.Timeout,
	}, log.WithField("backend", strings.ToLower(cfg.Backend))), nil
}
