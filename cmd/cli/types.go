package main

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ErrorResponse matches handlers.ErrorResponse.
type ErrorResponse struct {
	Error string `json:"error"`
}

// FlowRequest matches handlers.FlowRequest.
type FlowRequest struct {
	Flow json.RawMessage `json:"flow"`
}

// SkippedStep describes a record the server dropped from a flow.
type SkippedStep struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// ConvertResponse matches handlers.ConvertResponse.
type ConvertResponse struct {
	TestSteps    []string      `json:"test_steps"`
	Skipped      []SkippedStep `json:"skipped"`
	TranscriptID string        `json:"transcript_id,omitempty"`
}

// TestCaseResponse matches testcase.TestCase.
type TestCaseResponse struct {
	ID          uuid.UUID       `json:"id"`
	SessionName string          `json:"session_name"`
	Feature     string          `json:"feature"`
	Name        string          `json:"name"`
	RecordedBy  string          `json:"recorded_by"`
	Actions     json.RawMessage `json:"actions"`
	TestSteps   []string        `json:"test_steps"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// SimilarResponse matches handlers.SimilarResponse.
type SimilarResponse struct {
	Keywords  []string           `json:"keywords"`
	TestCases []TestCaseResponse `json:"test_cases"`
}

// ExtractRequest matches handlers.ExtractRequest.
type ExtractRequest struct {
	Text string `json:"text"`
}

// FeaturesResponse matches handlers.FeaturesResponse.
type FeaturesResponse struct {
	URL      string   `json:"url,omitempty"`
	Features []string `json:"features"`
}

// RetrieveResponse matches retrieval.Result.
type RetrieveResponse struct {
	ID       string  `json:"retrieved_feature"`
	Feature  string  `json:"feature,omitempty"`
	Text     string  `json:"text,omitempty"`
	Distance float64 `json:"distance"`
}

// CreateTestCaseRequest matches handlers.CreateTestCaseRequest.
type CreateTestCaseRequest struct {
	SessionName string          `json:"session_name"`
	Feature     string          `json:"feature"`
	Name        string          `json:"name"`
	RecordedBy  string          `json:"recorded_by"`
	Actions     json.RawMessage `json:"actions"`
}

// UpdateStepsRequest matches handlers.UpdateStepsRequest.
type UpdateStepsRequest struct {
	TestSteps []string `json:"test_steps"`
}

// SessionCheckResponse matches handlers.SessionCheckResponse.
type SessionCheckResponse struct {
	Exists bool `json:"exists"`
}

// SessionTestCasesResponse matches handlers.SessionTestCasesResponse.
type SessionTestCasesResponse struct {
	SessionName string                        `json:"session_name"`
	TestCases   map[string][]TestCaseResponse `json:"test_cases"`
}

// TranscriptResponse matches pipeline.Transcript.
type TranscriptResponse struct {
	ID        string        `json:"id"`
	CreatedAt time.Time     `json:"created_at"`
	Prompt    string        `json:"prompt"`
	RawOutput string        `json:"raw_output"`
	Steps     []string      `json:"test_steps"`
	Skipped   []SkippedStep `json:"skipped,omitempty"`
}
