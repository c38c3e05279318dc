package embedding

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/hairizuanbinnoorazman/testcrafter/internal/awsutil"
)

// DefaultTitanModel is the Bedrock embedding model used when none is configured.
const DefaultTitanModel = "amazon.titan-embed-text-v2:0"

// titanDimensions are the output sizes Titan text embeddings v2 supports.
var titanDimensions = map[int]bool{256: true, 512: true, 1024: true}

// BedrockEmbedder calls an Amazon Titan text embedding model.
type BedrockEmbedder struct {
	client  *bedrockruntime.Client
	modelID string
	dim     int
}

// NewBedrockEmbedder loads AWS configuration and creates a Titan embedder. dim
// must be one of 256, 512 or 1024; zero selects 512.
func NewBedrockEmbedder(ctx context.Context, region, accessKey, secretKey, modelID string, dim int) (*BedrockEmbedder, error) {
	cfg, err := awsutil.LoadConfig(ctx, region, accessKey, secretKey)
	if err != nil {
		return nil, err
	}
	return NewBedrockEmbedderFromConfig(cfg, modelID, dim)
}

// NewBedrockEmbedderFromConfig creates a Titan embedder from an existing AWS config.
func NewBedrockEmbedderFromConfig(cfg aws.Config, modelID string, dim int, optFns ...func(*bedrockruntime.Options)) (*BedrockEmbedder, error) {
	if dim == 0 {
		dim = 512
	}
	if !titanDimensions[dim] {
		return nil, fmt.Errorf("bedrock: unsupported titan dimension %d", dim)
	}
	if modelID == "" {
		modelID = DefaultTitanModel
	}

	return &BedrockEmbedder{
		client:  bedrockruntime.NewFromConfig(cfg, optFns...),
		modelID: modelID,
		dim:     dim,
	}, nil
}

func (e *BedrockEmbedder) Dimension() int {
	return e.dim
}

type titanRequest struct {
	InputText  string `json:"inputText"`
	Dimensions int    `json:"dimensions"`
	Normalize  bool   `json:"normalize"`
}

type titanResponse struct {
	Embedding           []float32 `json:"embedding"`
	InputTextTokenCount int       `json:"inputTextTokenCount"`
}

func (e *BedrockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if len(tokenize(text)) == 0 {
		return nil, ErrEmptyText
	}

	payload, err := json.Marshal(titanRequest{
		InputText:  text,
		Dimensions: e.dim,
		Normalize:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("bedrock: failed to marshal request: %w", err)
	}

	output, err := e.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(e.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        payload,
	})
	if err != nil {
		return nil, fmt.Errorf("bedrock: failed to invoke embedding model: %w", err)
	}

	var resp titanResponse
	if err := json.Unmarshal(output.Body, &resp); err != nil {
		return nil, fmt.Errorf("bedrock: failed to parse response: %w", err)
	}
	if err := checkDimension(resp.Embedding, e.dim); err != nil {
		return nil, err
	}
	return resp.Embedding, nil
}
