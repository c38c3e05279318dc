package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hairizuanbinnoorazman/testcrafter/logger"
	"github.com/hairizuanbinnoorazman/testcrafter/retrieval"
)

// Retriever finds the indexed document closest to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string) (*retrieval.Result, error)
}

// RetrievalHandler handles vector index lookups.
type RetrievalHandler struct {
	retriever Retriever
	logger    logger.Logger
}

// NewRetrievalHandler creates a new retrieval handler.
func NewRetrievalHandler(retriever Retriever, log logger.Logger) *RetrievalHandler {
	return &RetrievalHandler{
		retriever: retriever,
		logger:    log,
	}
}

// Retrieve handles GET /api/v1/retrieve/{query}.
func (h *RetrievalHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	query := mux.Vars(r)["query"]

	result, err := h.retriever.Retrieve(r.Context(), query)
	if err != nil {
		switch {
		case errors.Is(err, retrieval.ErrEmptyQuery):
			respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, retrieval.ErrNotFound):
			respondError(w, http.StatusNotFound, err.Error())
		default:
			h.logger.Error(r.Context(), "retrieval failed", map[string]interface{}{
				"error": err.Error(),
				"query": query,
			})
			respondError(w, http.StatusInternalServerError, "failed to retrieve feature")
		}
		return
	}

	respondJSON(w, http.StatusOK, result)
}
