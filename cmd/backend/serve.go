package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hairizuanbinnoorazman/testcrafter/cmd/backend/handlers"
	"github.com/hairizuanbinnoorazman/testcrafter/database"
	"github.com/hairizuanbinnoorazman/testcrafter/embedding"
	"github.com/hairizuanbinnoorazman/testcrafter/feature"
	"github.com/hairizuanbinnoorazman/testcrafter/generation"
	"github.com/hairizuanbinnoorazman/testcrafter/logger"
	"github.com/hairizuanbinnoorazman/testcrafter/pipeline"
	"github.com/hairizuanbinnoorazman/testcrafter/prompt"
	"github.com/hairizuanbinnoorazman/testcrafter/retrieval"
	"github.com/hairizuanbinnoorazman/testcrafter/storage"
	"github.com/hairizuanbinnoorazman/testcrafter/testcase"
	"github.com/spf13/cobra"
)

var configFile string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServer,
}

func init() {
	serveCmd.Flags().StringVarP(&configFile, "config", "c", "", "config file path")
	rootCmd.AddCommand(serveCmd)
}

func runServer(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	// Load configuration
	cfg, err := LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log := logger.NewLogrusLogger(cfg.Log.Level)
	log.Info(ctx, "starting server", map[string]interface{}{
		"version": Version,
		"commit":  Commit,
		"date":    BuildDate,
	})

	// Connect to database
	db, err := database.Connect(databaseConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	defer sqlDB.Close()

	log.Info(ctx, "database connected", map[string]interface{}{
		"host":     cfg.Database.Host,
		"port":     cfg.Database.Port,
		"database": cfg.Database.Database,
	})

	// Initialize stores
	testCaseStore := testcase.NewMySQLStore(db, log)

	// Initialize generation backend behind the worker pool
	gen, err := generation.New(ctx, generationConfig(cfg), log)
	if err != nil {
		return fmt.Errorf("failed to initialize generation backend: %w", err)
	}

	dispatcher := generation.NewDispatcher(cfg.Generation.Workers, gen, log)
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	log.Info(ctx, "generation backend initialized", map[string]interface{}{
		"backend": cfg.Generation.Backend,
		"model":   cfg.Generation.Model,
		"workers": cfg.Generation.Workers,
	})

	// Initialize vector retriever
	retriever, err := newRetriever(ctx, cfg, log)
	if err != nil {
		return err
	}

	// Initialize transcript storage
	var archive storage.BlobStorage
	if cfg.Storage.Enabled {
		archive, err = storage.New(ctx, storageConfig(cfg))
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		log.Info(ctx, "transcript storage initialized", map[string]interface{}{
			"type": cfg.Storage.Type,
		})
	}

	converter := pipeline.NewConverter(
		dispatcher,
		prompt.PostProcessor{FuzzyThreshold: cfg.Generation.FuzzyThreshold},
		archive,
		log,
	)

	// Setup router
	router := handlers.NewRouter(handlers.RouterDeps{
		Converter:      converter,
		Similar:        retrieval.NewCaseRetriever(testCaseStore, retrieval.DefaultSimilarLimit),
		Retriever:      retriever,
		Extractor:      feature.NewExtractor(cfg.Features.Keywords),
		TestCases:      testCaseStore,
		Archive:        archive,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         log,
	})

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		log.Info(ctx, "server listening", map[string]interface{}{
			"address": addr,
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "server error", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info(ctx, "shutting down server", nil)

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info(ctx, "server stopped", nil)
	return nil
}

// newRetriever builds the vector retriever and ingests the seed catalog, if any.
func newRetriever(ctx context.Context, cfg *Config, log logger.Logger) (*retrieval.VectorRetriever, error) {
	embedder, err := embedding.New(ctx, embedding.Config{
		Provider:  cfg.Embedding.Provider,
		Dimension: cfg.Embedding.Dimension,
		Model:     cfg.Embedding.Model,
		APIKey:    cfg.Embedding.APIKey,
		BaseURL:   cfg.Embedding.BaseURL,
		Region:    cfg.Embedding.Region,
		AccessKey: cfg.Embedding.AccessKey,
		SecretKey: cfg.Embedding.SecretKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	retriever, err := retrieval.NewVectorRetriever(embedder, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector index: %w", err)
	}

	if cfg.Index.SeedFile == "" {
		log.Warn(ctx, "no index seed file configured, retrieval index is empty", nil)
		return retriever, nil
	}

	docs, err := retrieval.LoadCatalog(cfg.Index.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load index seed file: %w", err)
	}
	if err := retriever.Ingest(ctx, docs); err != nil {
		return nil, fmt.Errorf("failed to index seed documents: %w", err)
	}

	log.Info(ctx, "retrieval index seeded", map[string]interface{}{
		"provider":  cfg.Embedding.Provider,
		"documents": retriever.Len(),
	})
	return retriever, nil
}

func databaseConfig(cfg *Config) database.Config {
	return database.Config{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Database:     cfg.Database.Database,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	}
}

func generationConfig(cfg *Config) generation.Config {
	return generation.Config{
		Backend:   cfg.Generation.Backend,
		Endpoint:  cfg.Generation.Endpoint,
		Model:     cfg.Generation.Model,
		APIKey:    cfg.Generation.APIKey,
		Region:    cfg.Generation.Region,
		AccessKey: cfg.Generation.AccessKey,
		SecretKey: cfg.Generation.SecretKey,
		Params: generation.Params{
			MaxLength:   cfg.Generation.MaxLength,
			Temperature: cfg.Generation.Temperature,
			TopP:        cfg.Generation.TopP,
		},
		Timeout:     cfg.Generation.Timeout,
		MaxAttempts: cfg.Generation.MaxAttempts,
		BackoffBase: cfg.Generation.BackoffBase,
		BackoffMax:  cfg.Generation.BackoffMax,
	}
}

func storageConfig(cfg *Config) storage.Config {
	return storage.Config{
		Type:      cfg.Storage.Type,
		BaseDir:   cfg.Storage.BaseDir,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		Prefix:    cfg.Storage.Prefix,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Endpoint:  cfg.Storage.Endpoint,
	}
}
