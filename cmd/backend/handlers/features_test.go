package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureHandler_Extract(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		body         string
		wantStatus   int
		wantFeatures []string
	}{
		{
			name:         "features in catalog order",
			body:         `{"text":"Users must see their Payroll and be able to LOGIN before checkout"}`,
			wantStatus:   http.StatusOK,
			wantFeatures: []string{"login", "checkout", "payroll"},
		},
		{
			name:       "no features",
			body:       `{"text":"the quick brown fox"}`,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "empty text",
			body:       `{"text":"  "}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid json",
			body:       `text`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := setupTestServer(t, echoGenerator)
			w := s.do(t, http.MethodPost, "/api/v1/features/extract", tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			if tt.wantFeatures != nil {
				var resp FeaturesResponse
				decode(t, w, &resp)
				assert.Equal(t, tt.wantFeatures, resp.Features)
			}
		})
	}
}

func newUploadRequest(t *testing.T, contentType, content, url string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if url != "" {
		require.NoError(t, mw.WriteField("url", url))
	}
	if content != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="requirements"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/features/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestFeatureHandler_Upload(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		contentType  string
		content      string
		wantStatus   int
		wantFeatures []string
	}{
		{
			name:         "plain text",
			contentType:  "text/plain; charset=utf-8",
			content:      "The signup page collects a profile picture.",
			wantStatus:   http.StatusOK,
			wantFeatures: []string{"signup", "profile"},
		},
		{
			name:         "html ignores scripts",
			contentType:  "text/html",
			content:      `<html><head><script>var payment = 1;</script></head><body><h1>Order history</h1></body></html>`,
			wantStatus:   http.StatusOK,
			wantFeatures: []string{"order"},
		},
		{
			name:        "unsupported type",
			contentType: "application/pdf",
			content:     "%PDF-1.4",
			wantStatus:  http.StatusBadRequest,
		},
		{
			name:        "no features",
			contentType: "text/plain",
			content:     "nothing to see here",
			wantStatus:  http.StatusNotFound,
		},
		{
			name:       "missing file",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := setupTestServer(t, echoGenerator)
			w := httptest.NewRecorder()
			s.router.ServeHTTP(w, newUploadRequest(t, tt.contentType, tt.content, "https://app.example.com"))
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			if tt.wantFeatures != nil {
				var resp FeaturesResponse
				decode(t, w, &resp)
				assert.Equal(t, tt.wantFeatures, resp.Features)
				assert.Equal(t, "https://app.example.com", resp.URL)
			}
		})
	}
}
