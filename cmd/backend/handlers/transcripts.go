package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hairizuanbinnoorazman/testcrafter/logger"
	"github.com/hairizuanbinnoorazman/testcrafter/pipeline"
	"github.com/hairizuanbinnoorazman/testcrafter/storage"
)

// TranscriptHandler serves archived conversion transcripts.
type TranscriptHandler struct {
	archive storage.BlobStorage
	logger  logger.Logger
}

// NewTranscriptHandler creates a new transcript handler.
func NewTranscriptHandler(archive storage.BlobStorage, log logger.Logger) *TranscriptHandler {
	return &TranscriptHandler{
		archive: archive,
		logger:  log,
	}
}

// Get handles GET /api/v1/transcripts/{date}/{id}.
func (h *TranscriptHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		respondError(w, http.StatusNotFound, "transcript archiving is disabled")
		return
	}

	vars := mux.Vars(r)
	t, err := pipeline.LoadTranscript(r.Context(), h.archive, vars["date"], vars["id"])
	if err != nil {
		if errors.Is(err, pipeline.ErrTranscriptNotFound) {
			respondError(w, http.StatusNotFound, "transcript not found")
			return
		}
		h.logger.Error(r.Context(), "failed to load transcript", map[string]interface{}{
			"error": err.Error(),
			"date":  vars["date"],
			"id":    vars["id"],
		})
		respondError(w, http.StatusInternalServerError, "failed to load transcript")
		return
	}

	respondJSON(w, http.StatusOK, t)
}
