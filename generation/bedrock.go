package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/smithy-go"

	"github.com/hairizuanbinnoorazman/testcrafter/internal/awsutil"
)

// BedrockGenerator implements Generator using AWS Bedrock with an Anthropic
// messages-format model.
type BedrockGenerator struct {
	client  *bedrockruntime.Client
	modelID string
	params  Params
}

// NewBedrockGenerator loads AWS configuration for region. Static credentials are
// used when both keys are set, otherwise the default credential chain applies.
func NewBedrockGenerator(ctx context.Context, region, accessKey, secretKey, modelID string, params Params) (*BedrockGenerator, error) {
	if modelID == "" {
		return nil, fmt.Errorf("bedrock: model id is required")
	}

	cfg, err := awsutil.LoadConfig(ctx, region, accessKey, secretKey)
	if err != nil {
		return nil, err
	}

	return NewBedrockGeneratorFromConfig(cfg, modelID, params), nil
}

// NewBedrockGeneratorFromConfig builds a generator from an existing AWS config.
func NewBedrockGeneratorFromConfig(cfg aws.Config, modelID string, params Params, optFns ...func(*bedrockruntime.Options)) *BedrockGenerator {
	return &BedrockGenerator{
		client:  bedrockruntime.NewFromConfig(cfg, optFns...),
		modelID: modelID,
		params:  params,
	}
}

type bedrockResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// Generate invokes the model with the prompt as a single user message.
func (g *BedrockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	requestBody := map[string]interface{}{
		"anthropic_version": "bedrock-2023-05-31",
		"max_tokens":        g.params.MaxLength,
		"temperature":       g.params.Temperature,
		"top_p":             g.params.TopP,
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]interface{}{
					{
						"type": "text",
						"text": prompt,
					},
				},
			},
		},
	}

	payload, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("bedrock: failed to marshal request: %w", err)
	}

	output, err := g.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(g.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        payload,
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", classifyBedrockError(err)
	}

	var response bedrockResponse
	if err := json.Unmarshal(output.Body, &response); err != nil {
		return "", rejected(BackendBedrock, 0, fmt.Sprintf("unexpected response body: %v", err))
	}

	var parts []string
	for _, c := range response.Content {
		if c.Type == "text" {
			parts = append(parts, c.Text)
		}
	}
	if len(parts) == 0 {
		return "", rejected(BackendBedrock, 0, "no content in response")
	}

	return strings.Join(parts, "\n"), nil
}

var bedrockTransientCodes = map[string]bool{
	"ThrottlingException":         true,
	"ServiceUnavailableException": true,
	"InternalServerException":     true,
	"ModelTimeoutException":       true,
	"ModelNotReadyException":      true,
}

func classifyBedrockError(err error) error {
	status := 0
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		status = respErr.HTTPStatusCode()
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		kind := KindRejected
		if bedrockTransientCodes[apiErr.ErrorCode()] || (status != 0 && KindForStatus(status) == KindUnavailable) {
			kind = KindUnavailable
		}
		return &BackendError{
			Backend:    BackendBedrock,
			StatusCode: status,
			Message:    fmt.Sprintf("%s: %s", apiErr.ErrorCode(), apiErr.ErrorMessage()),
			Kind:       kind,
		}
	}

	if status != 0 {
		return statusError(BackendBedrock, status, err.Error())
	}
	return unavailable(BackendBedrock, err)
}
