package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HuggingFaceGenerator calls a text-generation inference endpoint
// (POST {"inputs", "parameters"} -> [{"generated_text"}]).
type HuggingFaceGenerator struct {
	httpClient *http.Client
	endpoint   string
	token      string
	params     Params
}

// NewHuggingFaceGenerator creates a generator for the given inference URL.
// Request deadlines come from the caller's context.
func NewHuggingFaceGenerator(endpoint, token string, params Params) (*HuggingFaceGenerator, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("huggingface: endpoint is required")
	}

	return &HuggingFaceGenerator{
		httpClient: &http.Client{},
		endpoint:   endpoint,
		token:      token,
		params:     params,
	}, nil
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfParameters struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	Temperature    float64 `json:"temperature"`
	TopP           float64 `json:"top_p"`
	ReturnFullText bool    `json:"return_full_text"`
}

type hfGeneration struct {
	GeneratedText string `json:"generated_text"`
}

// Generate sends the prompt and returns the first generated text.
func (g *HuggingFaceGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(hfRequest{
		Inputs: prompt,
		Parameters: hfParameters{
			MaxNewTokens:   g.params.MaxLength,
			Temperature:    g.params.Temperature,
			TopP:           g.params.TopP,
			ReturnFullText: true,
		},
	})
	if err != nil {
		return "", fmt.Errorf("huggingface: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("huggingface: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", unavailable(BackendHuggingFace, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", unavailable(BackendHuggingFace, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return "", statusError(BackendHuggingFace, resp.StatusCode, errorMessage(body))
	}

	var generations []hfGeneration
	if err := json.Unmarshal(body, &generations); err != nil {
		return "", rejected(BackendHuggingFace, resp.StatusCode, fmt.Sprintf("unexpected response body: %v", err))
	}
	if len(generations) == 0 {
		return "", rejected(BackendHuggingFace, resp.StatusCode, "no generated text in response")
	}

	return generations[0].GeneratedText, nil
}

// errorMessage pulls {"error": "..."} out of an error body, falling back to the raw text.
func errorMessage(body []byte) string {
	var errResp struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
		return errResp.Error
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return "empty response body"
	}
	return msg
}
