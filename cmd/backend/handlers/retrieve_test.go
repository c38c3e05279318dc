package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hairizuanbinnoorazman/testcrafter/pipeline"
	"github.com/hairizuanbinnoorazman/testcrafter/retrieval"
)

func TestRetrievalHandler_Retrieve(t *testing.T) {
	t.Parallel()

	s := setupTestServer(t, echoGenerator)

	w := s.do(t, http.MethodGet, "/api/v1/retrieve/"+url.PathEscape("sign in with username and password"), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp retrieval.Result
	decode(t, w, &resp)
	assert.Equal(t, "login", resp.ID)
	assert.Greater(t, resp.Distance, 0.0)

	w = s.do(t, http.MethodGet, "/api/v1/retrieve/"+url.PathEscape("!!!"), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRetrievalHandler_EmptyIndex(t *testing.T) {
	t.Parallel()

	s := setupTestServer(t, echoGenerator)
	empty := NewRetrievalHandler(emptyRetriever{}, s.logger)
	s.router.HandleFunc("/empty/{query}", empty.Retrieve)

	w := s.do(t, http.MethodGet, "/empty/login", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "no relevant information found")
}

type emptyRetriever struct{}

func (emptyRetriever) Retrieve(context.Context, string) (*retrieval.Result, error) {
	return nil, retrieval.ErrNotFound
}

func TestTranscriptHandler_Get(t *testing.T) {
	t.Parallel()

	s := setupTestServer(t, echoGenerator)

	w := s.do(t, http.MethodPost, "/api/v1/flows/convert", `{"flow":`+loginFlow+`}`)
	require.Equal(t, http.StatusOK, w.Code)
	var converted ConvertResponse
	decode(t, w, &converted)
	require.NotEmpty(t, converted.TranscriptID)

	w = s.do(t, http.MethodGet, "/api/v1/transcripts/"+converted.TranscriptID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var transcript pipeline.Transcript
	decode(t, w, &transcript)
	assert.Equal(t, converted.TestSteps, transcript.Steps)
	assert.Contains(t, transcript.Prompt, "Navigate to 'https://app.example.com/login'.")
	assert.Contains(t, transcript.RawOutput, "3. Click Login.")
}

func TestTranscriptHandler_NotFound(t *testing.T) {
	t.Parallel()

	s := setupTestServer(t, echoGenerator)
	today := time.Now().UTC().Format("2006-01-02")

	tests := []struct {
		name string
		path string
	}{
		{"unknown id", "/api/v1/transcripts/" + today + "/" + uuid.New().String()},
		{"bad date", "/api/v1/transcripts/yesterday/" + uuid.New().String()},
		{"bad id", "/api/v1/transcripts/" + today + "/not-a-uuid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodGet, tt.path, nil)
			assert.Equal(t, http.StatusNotFound, w.Code)
		})
	}

	disabled := NewTranscriptHandler(nil, s.logger)
	w := httptest.NewRecorder()
	disabled.Get(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
