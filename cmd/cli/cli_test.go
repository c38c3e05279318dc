package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCLI executes tcctl against server and returns what it printed.
func runCLI(t *testing.T, server *httptest.Server, stdin string, args ...string) (string, error) {
	t.Helper()

	t.Setenv("HOME", t.TempDir())

	var out bytes.Buffer
	stdout = &out
	t.Cleanup(func() { stdout = os.Stdout })

	cmd := newRootCmd()
	cmd.SetArgs(append([]string{"--url", server.URL}, args...))
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	err := cmd.Execute()
	return out.String(), err
}

func TestReadFlowFile(t *testing.T) {
	dir := t.TempDir()
	bare := filepath.Join(dir, "bare.json")
	wrapped := filepath.Join(dir, "wrapped.json")
	recorded := filepath.Join(dir, "recorded.json")
	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(bare, []byte(`[{"type":"click"}]`), 0o600))
	require.NoError(t, os.WriteFile(wrapped, []byte(`{"flow":[{"type":"input"}]}`), 0o600))
	require.NoError(t, os.WriteFile(recorded, []byte(`{"session_name":"s","actions":[{"type":"navigation"}]}`), 0o600))
	require.NoError(t, os.WriteFile(broken, []byte(`[{"type":`), 0o600))

	tests := []struct {
		name    string
		path    string
		stdin   string
		want    string
		wantErr bool
	}{
		{name: "bare list", path: bare, want: `[{"type":"click"}]`},
		{name: "flow field", path: wrapped, want: `[{"type":"input"}]`},
		{name: "actions field", path: recorded, want: `[{"type":"navigation"}]`},
		{name: "stdin", path: "-", stdin: `[{"type":"click"}]`, want: `[{"type":"click"}]`},
		{name: "invalid json", path: broken, wantErr: true},
		{name: "missing file", path: filepath.Join(dir, "nope.json"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readFlowFile(tt.path, strings.NewReader(tt.stdin))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestConvertCmd(t *testing.T) {
	var gotFlow json.RawMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/flows/convert", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		var req FlowRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotFlow = req.Flow
		w.Write([]byte(`{"test_steps":["1. Open the login page.","2. Click Login."],"skipped":[]}`))
	}))
	defer server.Close()

	out, err := runCLI(t, server, `[{"type":"click","tag":"BUTTON"}]`, "convert")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"type":"click","tag":"BUTTON"}]`, string(gotFlow))
	assert.Equal(t, "1. Open the login page.\n2. Click Login.\n", out)
}

func TestConvertCmd_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":"huggingface backend unavailable: status 503: loading","backend_status":503}`))
	}))
	defer server.Close()

	_, err := runCLI(t, server, `[{"type":"click"}]`, "convert")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "backend unavailable")
}

func TestFeaturesExtractCmd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ExtractRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "users login then checkout", req.Text)
		w.Write([]byte(`{"features":["login","checkout"]}`))
	}))
	defer server.Close()

	out, err := runCLI(t, server, "", "features", "extract", "users", "login", "then", "checkout")
	require.NoError(t, err)
	assert.Equal(t, "login\ncheckout\n", out)
}

func TestFeaturesUploadCmd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()

		content, _ := io.ReadAll(file)
		assert.Equal(t, "The payroll report", string(content))
		assert.Equal(t, "text/markdown", header.Header.Get("Content-Type"))
		assert.Equal(t, "https://app.example.com", r.FormValue("url"))
		w.Write([]byte(`{"url":"https://app.example.com","features":["payroll","reports"]}`))
	}))
	defer server.Close()

	doc := filepath.Join(t.TempDir(), "requirements.md")
	require.NoError(t, os.WriteFile(doc, []byte("The payroll report"), 0o600))

	out, err := runCLI(t, server, "", "features", "upload", "-f", doc, "--page-url", "https://app.example.com")
	require.NoError(t, err)
	assert.Equal(t, "payroll\nreports\n", out)
}

func TestRetrieveCmd_JSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/retrieve/sign in", r.URL.Path)
		w.Write([]byte(`{"retrieved_feature":"login","distance":0.42}`))
	}))
	defer server.Close()

	out, err := runCLI(t, server, "", "--json", "retrieve", "sign", "in")
	require.NoError(t, err)
	assert.JSONEq(t, `{"retrieved_feature":"login","distance":0.42}`, out)
}

func TestSessionsCheckCmd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sprint 1", r.URL.Query().Get("sessionName"))
		w.Write([]byte(`{"exists":true}`))
	}))
	defer server.Close()

	out, err := runCLI(t, server, "", "sessions", "check", "sprint 1")
	require.NoError(t, err)
	assert.Equal(t, "Session \"sprint 1\" exists\n", out)
}

func TestTestCasesSetStepsCmd(t *testing.T) {
	id := "6f1c1f6e-93c5-4d43-9d0c-2f5f0d1f5a11"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/v1/testcases/"+id+"/steps", r.URL.Path)
		var req UpdateStepsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"Open the app.", "Sign in, then wait."}, req.TestSteps)
		w.Write([]byte(`{"id":"` + id + `","session_name":"s","feature":"login","test_steps":["Open the app.","Sign in, then wait."]}`))
	}))
	defer server.Close()

	out, err := runCLI(t, server, "", "testcases", "set-steps", "--id", id,
		"--step", "Open the app.", "--step", "Sign in, then wait.")
	require.NoError(t, err)
	assert.Contains(t, out, "Test case "+id+" (s / login)")
	assert.Contains(t, out, "  Sign in, then wait.")
}

func TestDocumentContentType(t *testing.T) {
	assert.Equal(t, "text/markdown", documentContentType("requirements.MD"))
	assert.Equal(t, "text/plain", documentContentType("notes.txt"))
	assert.Equal(t, "text/plain", documentContentType("README"))
	assert.True(t, strings.HasPrefix(documentContentType("page.html"), "text/html"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "a b", truncate("a\nb", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
