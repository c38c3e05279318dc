package handlers

import (
	"github.com/gorilla/mux"

	"github.com/hairizuanbinnoorazman/testcrafter/feature"
	"github.com/hairizuanbinnoorazman/testcrafter/logger"
	"github.com/hairizuanbinnoorazman/testcrafter/storage"
	"github.com/hairizuanbinnoorazman/testcrafter/testcase"
)

// RouterDeps holds everything the HTTP routes are built from.
type RouterDeps struct {
	Converter      Converter
	Similar        SimilarFinder
	Retriever      Retriever
	Extractor      *feature.Extractor
	TestCases      testcase.Store
	Archive        storage.BlobStorage
	AllowedOrigins []string
	Logger         logger.Logger
}

// NewRouter registers every route on a new router.
func NewRouter(deps RouterDeps) *mux.Router {
	router := mux.NewRouter()
	router.Use(RequestIDMiddleware, AccessLogMiddleware(deps.Logger))
	if len(deps.AllowedOrigins) > 0 {
		router.Use(CORSMiddleware(deps.AllowedOrigins))
	}

	router.HandleFunc("/health", HealthHandler).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()

	flowHandler := NewFlowHandler(deps.Converter, deps.Similar, deps.Logger)
	api.HandleFunc("/flows/convert", flowHandler.Convert).Methods("POST", "OPTIONS")
	api.HandleFunc("/flows/similar", flowHandler.Similar).Methods("POST", "OPTIONS")

	featureHandler := NewFeatureHandler(deps.Extractor, deps.Logger)
	api.HandleFunc("/features/extract", featureHandler.Extract).Methods("POST", "OPTIONS")
	api.HandleFunc("/features/upload", featureHandler.Upload).Methods("POST", "OPTIONS")

	retrievalHandler := NewRetrievalHandler(deps.Retriever, deps.Logger)
	api.HandleFunc("/retrieve/{query}", retrievalHandler.Retrieve).Methods("GET")

	testCaseHandler := NewTestCaseHandler(deps.TestCases, deps.Converter, deps.Logger)
	api.HandleFunc("/testcases", testCaseHandler.Create).Methods("POST", "OPTIONS")
	api.HandleFunc("/testcases/{id}/steps", testCaseHandler.UpdateSteps).Methods("PUT", "OPTIONS")
	api.HandleFunc("/testcases/{id}/generate", testCaseHandler.Generate).Methods("POST", "OPTIONS")
	api.HandleFunc("/sessions/check", testCaseHandler.CheckSession).Methods("GET")
	api.HandleFunc("/sessions/{session_name}/testcases", testCaseHandler.ListBySession).Methods("GET")

	transcriptHandler := NewTranscriptHandler(deps.Archive, deps.Logger)
	api.HandleFunc("/transcripts/{date}/{id}", transcriptHandler.Get).Methods("GET")

	return router
}
