package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hairizuanbinnoorazman/testcrafter/flow"
	"github.com/hairizuanbinnoorazman/testcrafter/logger"
	"github.com/hairizuanbinnoorazman/testcrafter/pipeline"
	"github.com/hairizuanbinnoorazman/testcrafter/testcase"
)

// Converter turns raw flows into generated test steps.
type Converter interface {
	Convert(ctx context.Context, raw json.RawMessage) (*pipeline.Result, error)
}

// SimilarFinder looks up previously recorded test cases resembling a flow.
type SimilarFinder interface {
	Similar(ctx context.Context, f flow.Flow) ([]string, []*testcase.TestCase, error)
}

// FlowHandler handles flow conversion and similarity requests.
type FlowHandler struct {
	converter Converter
	similar   SimilarFinder
	logger    logger.Logger
}

// NewFlowHandler creates a new flow handler.
func NewFlowHandler(converter Converter, similar SimilarFinder, log logger.Logger) *FlowHandler {
	return &FlowHandler{
		converter: converter,
		similar:   similar,
		logger:    log,
	}
}

// FlowRequest carries a recorded flow.
type FlowRequest struct {
	Flow json.RawMessage `json:"flow"`
}

// ConvertResponse is the result of converting a flow.
type ConvertResponse struct {
	TestSteps    []string       `json:"test_steps"`
	Skipped      []flow.Skipped `json:"skipped"`
	TranscriptID string         `json:"transcript_id,omitempty"`
}

// SimilarResponse lists test cases that share keywords with a flow.
type SimilarResponse struct {
	Keywords  []string             `json:"keywords"`
	TestCases []*testcase.TestCase `json:"test_cases"`
}

// Convert handles flow-to-test-steps conversion.
func (h *FlowHandler) Convert(w http.ResponseWriter, r *http.Request) {
	var req FlowRequest
	if err := parseJSON(w, r, &req, h.logger); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.converter.Convert(r.Context(), req.Flow)
	if err != nil {
		respondConversionError(w, r, err, h.logger)
		return
	}

	skipped := result.Skipped
	if skipped == nil {
		skipped = []flow.Skipped{}
	}
	respondJSON(w, http.StatusOK, ConvertResponse{
		TestSteps:    result.Steps,
		Skipped:      skipped,
		TranscriptID: result.TranscriptID,
	})
}

// Similar handles similar test case lookups.
func (h *FlowHandler) Similar(w http.ResponseWriter, r *http.Request) {
	var req FlowRequest
	if err := parseJSON(w, r, &req, h.logger); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	f, _, err := flow.Parse(req.Flow)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	keywords, cases, err := h.similar.Similar(r.Context(), f)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		h.logger.Error(r.Context(), "failed to find similar test cases", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "failed to find similar test cases")
		return
	}

	if cases == nil {
		cases = []*testcase.TestCase{}
	}
	respondJSON(w, http.StatusOK, SimilarResponse{Keywords: keywords, TestCases: cases})
}
