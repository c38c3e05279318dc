// Package embedding turns text into fixed-length vectors for the retrieval index.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownProvider is returned by New for an unsupported provider name.
	ErrUnknownProvider = errors.New("unknown embedding provider")

	// ErrEmptyText is returned when asked to embed blank text.
	ErrEmptyText = errors.New("text to embed cannot be empty")

	// ErrUnexpectedDimension is returned when a provider answers with a vector of the
	// wrong length.
	ErrUnexpectedDimension = errors.New("embedding has unexpected dimension")
)

// Embedder maps text to a vector of Dimension() components.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// Provider names accepted by New.
const (
	ProviderHashing = "hashing"
	ProviderOpenAI  = "openai"
	ProviderBedrock = "bedrock"
)

// DefaultDimension matches the sentence-transformer models the index was first
// built with.
const DefaultDimension = 384

// Config selects and configures an embedding provider.
type Config struct {
	Provider  string
	Dimension int
	Model     string
	APIKey    string
	BaseURL   string
	Region    string
	AccessKey string
	SecretKey string
}

// New builds the configured embedder.
func New(ctx context.Context, cfg Config) (Embedder, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderHashing:
		return NewHashingEmbedder(cfg.Dimension), nil
	case ProviderOpenAI:
		return NewOpenAIEmbedder(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Dimension)
	case ProviderBedrock:
		return NewBedrockEmbedder(ctx, cfg.Region, cfg.AccessKey, cfg.SecretKey, cfg.Model, cfg.Dimension)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}

func checkDimension(vec []float32, want int) error {
	if len(vec) != want {
		return fmt.Errorf("%w: got %d, want %d", ErrUnexpectedDimension, len(vec), want)
	}
	return nil
}
