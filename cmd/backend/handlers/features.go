package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/hairizuanbinnoorazman/testcrafter/feature"
	"github.com/hairizuanbinnoorazman/testcrafter/logger"
)

// FeatureHandler handles feature extraction requests.
type FeatureHandler struct {
	extractor *feature.Extractor
	logger    logger.Logger
}

// NewFeatureHandler creates a new feature handler.
func NewFeatureHandler(extractor *feature.Extractor, log logger.Logger) *FeatureHandler {
	return &FeatureHandler{
		extractor: extractor,
		logger:    log,
	}
}

// ExtractRequest carries requirement text.
type ExtractRequest struct {
	Text string `json:"text"`
}

// FeaturesResponse lists the features found in a document.
type FeaturesResponse struct {
	URL      string   `json:"url,omitempty"`
	Features []string `json:"features"`
}

// Extract handles feature extraction from free text.
func (h *FeatureHandler) Extract(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if err := parseJSON(w, r, &req, h.logger); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		respondError(w, http.StatusBadRequest, "text is required")
		return
	}

	features, err := h.extractor.Extract(req.Text)
	if err != nil {
		if errors.Is(err, feature.ErrNoFeatures) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to extract features")
		return
	}

	respondJSON(w, http.StatusOK, FeaturesResponse{Features: features})
}

// Upload handles feature extraction from an uploaded requirements document.
func (h *FeatureHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, feature.MaxDocumentSize+1<<20)
	if err := r.ParseMultipartForm(feature.MaxDocumentSize); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	features, err := h.extractor.ExtractDocument(contentType, file)
	if err != nil {
		switch {
		case errors.Is(err, feature.ErrUnsupportedDocument):
			respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, feature.ErrNoFeatures):
			respondError(w, http.StatusNotFound, err.Error())
		default:
			h.logger.Error(r.Context(), "failed to read uploaded document", map[string]interface{}{
				"error":    err.Error(),
				"filename": header.Filename,
			})
			respondError(w, http.StatusInternalServerError, "failed to read document")
		}
		return
	}

	h.logger.Info(r.Context(), "features extracted from document", map[string]interface{}{
		"filename": header.Filename,
		"features": len(features),
	})

	respondJSON(w, http.StatusOK, FeaturesResponse{
		URL:      r.FormValue("url"),
		Features: features,
	})
}
