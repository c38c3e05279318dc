package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/hairizuanbinnoorazman/testcrafter/logger"
	"github.com/hairizuanbinnoorazman/testcrafter/testcase"
)

// TestCaseHandler handles recorded test case requests.
type TestCaseHandler struct {
	store     testcase.Store
	converter Converter
	logger    logger.Logger
}

// NewTestCaseHandler creates a new test case handler.
func NewTestCaseHandler(store testcase.Store, converter Converter, log logger.Logger) *TestCaseHandler {
	return &TestCaseHandler{
		store:     store,
		converter: converter,
		logger:    log,
	}
}

// CreateTestCaseRequest represents a request to store a recorded flow.
type CreateTestCaseRequest struct {
	SessionName string          `json:"session_name"`
	Feature     string          `json:"feature"`
	Name        string          `json:"name"`
	RecordedBy  string          `json:"recorded_by"`
	Actions     json.RawMessage `json:"actions"`
}

// UpdateStepsRequest replaces the test steps of a test case.
type UpdateStepsRequest struct {
	TestSteps []string `json:"test_steps"`
}

// SessionCheckResponse reports whether a session has any test cases.
type SessionCheckResponse struct {
	Exists bool `json:"exists"`
}

// SessionTestCasesResponse groups a session's test cases by feature.
type SessionTestCasesResponse struct {
	SessionName string                           `json:"session_name"`
	TestCases   map[string][]*testcase.TestCase `json:"test_cases"`
}

// Create handles storing a recorded test case.
func (h *TestCaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTestCaseRequest
	if err := parseJSON(w, r, &req, h.logger); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tc := &testcase.TestCase{
		SessionName: strings.TrimSpace(req.SessionName),
		Feature:     strings.TrimSpace(req.Feature),
		Name:        strings.TrimSpace(req.Name),
		RecordedBy:  strings.TrimSpace(req.RecordedBy),
		Actions:     testcase.Actions(req.Actions),
	}
	if err := tc.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Create(r.Context(), tc); err != nil {
		h.logger.Error(r.Context(), "failed to create test case", map[string]interface{}{
			"error":        err.Error(),
			"session_name": tc.SessionName,
		})
		respondError(w, http.StatusInternalServerError, "failed to create test case")
		return
	}

	respondJSON(w, http.StatusCreated, tc)
}

// CheckSession handles GET /api/v1/sessions/check?sessionName=.
func (h *TestCaseHandler) CheckSession(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("sessionName"))
	if name == "" {
		respondError(w, http.StatusBadRequest, "sessionName is required")
		return
	}

	exists, err := h.store.SessionExists(r.Context(), name)
	if err != nil {
		h.logger.Error(r.Context(), "failed to check session", map[string]interface{}{
			"error":        err.Error(),
			"session_name": name,
		})
		respondError(w, http.StatusInternalServerError, "failed to check session")
		return
	}

	respondJSON(w, http.StatusOK, SessionCheckResponse{Exists: exists})
}

// ListBySession handles listing a session's test cases grouped by feature.
func (h *TestCaseHandler) ListBySession(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["session_name"]

	cases, err := h.store.ListBySession(r.Context(), name)
	if err != nil {
		h.logger.Error(r.Context(), "failed to list test cases", map[string]interface{}{
			"error":        err.Error(),
			"session_name": name,
		})
		respondError(w, http.StatusInternalServerError, "failed to list test cases")
		return
	}
	if len(cases) == 0 {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}

	grouped := make(map[string][]*testcase.TestCase)
	for _, tc := range cases {
		grouped[tc.Feature] = append(grouped[tc.Feature], tc)
	}

	respondJSON(w, http.StatusOK, SessionTestCasesResponse{
		SessionName: name,
		TestCases:   grouped,
	})
}

// UpdateSteps handles saving edited test steps.
func (h *TestCaseHandler) UpdateSteps(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDOrRespond(w, r, "id", "test case")
	if !ok {
		return
	}

	var req UpdateStepsRequest
	if err := parseJSON(w, r, &req, h.logger); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TestSteps == nil {
		respondError(w, http.StatusBadRequest, "test_steps is required")
		return
	}

	h.saveSteps(w, r, id, req.TestSteps)
}

// Generate converts a stored test case's actions into test steps and saves them.
func (h *TestCaseHandler) Generate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDOrRespond(w, r, "id", "test case")
	if !ok {
		return
	}

	tc, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, testcase.ErrTestCaseNotFound) {
			respondError(w, http.StatusNotFound, "test case not found")
			return
		}
		h.logger.Error(r.Context(), "failed to get test case", map[string]interface{}{
			"error":        err.Error(),
			"test_case_id": id.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to get test case")
		return
	}

	result, err := h.converter.Convert(r.Context(), json.RawMessage(tc.Actions))
	if err != nil {
		respondConversionError(w, r, err, h.logger)
		return
	}

	h.saveSteps(w, r, id, result.Steps)
}

func (h *TestCaseHandler) saveSteps(w http.ResponseWriter, r *http.Request, id uuid.UUID, steps []string) {
	if err := h.store.Update(r.Context(), id, testcase.SetSteps(steps)); err != nil {
		if errors.Is(err, testcase.ErrTestCaseNotFound) {
			respondError(w, http.StatusNotFound, "test case not found")
			return
		}
		h.logger.Error(r.Context(), "failed to save test steps", map[string]interface{}{
			"error":        err.Error(),
			"test_case_id": id.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to save test steps")
		return
	}

	updated, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error(r.Context(), "failed to reload test case", map[string]interface{}{
			"error":        err.Error(),
			"test_case_id": id.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to get test case")
		return
	}

	respondJSON(w, http.StatusOK, updated)
}
