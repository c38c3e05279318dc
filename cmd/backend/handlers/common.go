package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/hairizuanbinnoorazman/testcrafter/flow"
	"github.com/hairizuanbinnoorazman/testcrafter/generation"
	"github.com/hairizuanbinnoorazman/testcrafter/logger"
)

// maxBodySize bounds JSON request bodies.
const maxBodySize = 5 << 20

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// GenerationErrorResponse is returned when the generation backend fails.
type GenerationErrorResponse struct {
	Error         string `json:"error"`
	Backend       string `json:"backend,omitempty"`
	BackendStatus int    `json:"backend_status,omitempty"`
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response with the given status code.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// parseJSON parses JSON from the request body into the given destination.
func parseJSON(w http.ResponseWriter, r *http.Request, dest interface{}, log logger.Logger) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		log.Warn(r.Context(), "failed to parse JSON", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}
	return nil
}

// parseUUIDOrRespond parses a UUID from path parameters and responds with an error if invalid.
func parseUUIDOrRespond(w http.ResponseWriter, r *http.Request, paramName, entityName string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[paramName])
	if err != nil {
		respondError(w, http.StatusBadRequest,
			fmt.Sprintf("invalid %s ID: must be a valid UUID", entityName))
		return uuid.Nil, false
	}
	return id, true
}

// respondConversionError maps a conversion failure to a status code:
// 400 for unusable flows, 502 when the backend is unavailable, 504 when the
// request ran out of time and 500 otherwise.
func respondConversionError(w http.ResponseWriter, r *http.Request, err error, log logger.Logger) {
	var be *generation.BackendError
	switch {
	case errors.Is(err, flow.ErrInvalidFlow), errors.Is(err, flow.ErrNoValidSteps):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &be):
		status := http.StatusInternalServerError
		if be.Kind == generation.KindUnavailable {
			status = http.StatusBadGateway
		}
		respondJSON(w, status, GenerationErrorResponse{
			Error:         be.Error(),
			Backend:       be.Backend,
			BackendStatus: be.StatusCode,
		})
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "test step generation timed out")
	case errors.Is(err, context.Canceled):
		log.Info(r.Context(), "client went away during conversion", nil)
	case errors.Is(err, generation.ErrDispatcherStopped):
		respondError(w, http.StatusServiceUnavailable, "server is shutting down")
	default:
		log.Error(r.Context(), "conversion failed", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "failed to generate test steps")
	}
}
