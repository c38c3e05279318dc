package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/hairizuanbinnoorazman/testcrafter/embedding"
	"github.com/hairizuanbinnoorazman/testcrafter/feature"
	"github.com/hairizuanbinnoorazman/testcrafter/logger"
	"github.com/hairizuanbinnoorazman/testcrafter/pipeline"
	"github.com/hairizuanbinnoorazman/testcrafter/prompt"
	"github.com/hairizuanbinnoorazman/testcrafter/retrieval"
	"github.com/hairizuanbinnoorazman/testcrafter/storage"
	"github.com/hairizuanbinnoorazman/testcrafter/testcase"
	"github.com/hairizuanbinnoorazman/testcrafter/testutil"
)

const loginFlow = `[
	{"type":"navigation","url":"https://app.example.com/login"},
	{"type":"input","tag":"INPUT","xpath":"//input[@name='username']","value":"alice"},
	{"type":"click","tag":"BUTTON","xpath":"//button[@id='login']"}
]`

// generatorFunc adapts a function to generation.Generator.
type generatorFunc func(ctx context.Context, prompt string) (string, error)

func (f generatorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// echoGenerator behaves like a backend that repeats the prompt before its answer.
var echoGenerator = generatorFunc(func(_ context.Context, p string) (string, error) {
	return p + "\n1. Open the login page.\n\n2. Enter 'alice' as username.\n3. Click Login.\n", nil
})

type testServer struct {
	router  *mux.Router
	store   *testcase.MySQLStore
	archive storage.BlobStorage
	logger  *logger.TestLogger
}

// setupTestServer builds the full router on in-memory dependencies.
func setupTestServer(t *testing.T, gen generatorFunc) *testServer {
	t.Helper()

	log := logger.NewTestLogger()

	db := testutil.SetupTestDB(t)
	testutil.AutoMigrate(t, db, &testcase.TestCase{})
	store := testcase.NewMySQLStore(db, log)

	archive, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	retriever, err := retrieval.NewVectorRetriever(embedding.NewHashingEmbedder(embedding.DefaultDimension), log)
	require.NoError(t, err)
	require.NoError(t, retriever.Ingest(context.Background(), []retrieval.Document{
		{ID: "login", Feature: "login", Text: "User signs in with a username and password"},
		{ID: "payroll", Feature: "payroll", Text: "HR runs monthly payroll and exports salary reports"},
	}))

	router := NewRouter(RouterDeps{
		Converter:      pipeline.NewConverter(gen, prompt.PostProcessor{}, archive, log),
		Similar:        retrieval.NewCaseRetriever(store, 0),
		Retriever:      retriever,
		Extractor:      feature.NewExtractor(nil),
		TestCases:      store,
		Archive:        archive,
		AllowedOrigins: []string{"http://localhost:3000"},
		Logger:         log,
	})

	return &testServer{router: router, store: store, archive: archive, logger: log}
}

// do sends a request through the router. A non-string body is JSON encoded.
func (s *testServer) do(t *testing.T, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest), w.Body.String())
}
