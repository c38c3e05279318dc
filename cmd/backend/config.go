package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/hairizuanbinnoorazman/testcrafter/generation"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Log        LogConfig
	Generation GenerationConfig
	Embedding  EmbeddingConfig
	Index      IndexConfig
	Storage    StorageConfig
	Features   FeaturesConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string
}

// GenerationConfig holds text-generation backend configuration.
type GenerationConfig struct {
	Backend        string // "huggingface", "openai", "anthropic" or "bedrock"
	Endpoint       string
	Model          string
	APIKey         string
	Region         string
	AccessKey      string
	SecretKey      string
	MaxLength      int
	Temperature    float64
	TopP           float64
	Timeout        time.Duration
	MaxAttempts    int
	BackoffBase    time.Duration
	BackoffMax     time.Duration
	Workers        int
	FuzzyThreshold float64
}

// EmbeddingConfig holds embedding provider configuration.
type EmbeddingConfig struct {
	Provider  string // "hashing", "openai" or "bedrock"
	Dimension int
	Model     string
	APIKey    string
	BaseURL   string
	Region    string
	AccessKey string
	SecretKey string
}

// IndexConfig holds vector index configuration.
type IndexConfig struct {
	SeedFile string
}

// StorageConfig holds transcript storage configuration.
type StorageConfig struct {
	Enabled   bool
	Type      string // "local" or "s3"
	BaseDir   string // For local: "./transcripts"
	Bucket    string // For S3: bucket name
	Region    string // For S3: AWS region
	Prefix    string
	AccessKey string
	SecretKey string
	Endpoint  string
}

// FeaturesConfig holds the feature keyword catalog.
type FeaturesConfig struct {
	Keywords []string
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Enable environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "200s")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.user", "root")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.database", "testcrafter")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("log.level", "info")

	v.SetDefault("generation.backend", "huggingface")
	v.SetDefault("generation.endpoint", "https://api-inference.huggingface.co/models/google/flan-t5-large")
	v.SetDefault("generation.model", "")
	v.SetDefault("generation.api_key", "")
	v.SetDefault("generation.region", "us-east-1")
	v.SetDefault("generation.access_key", "")
	v.SetDefault("generation.secret_key", "")
	v.SetDefault("generation.max_length", 512)
	v.SetDefault("generation.temperature", 0.2)
	v.SetDefault("generation.top_p", 0.9)
	v.SetDefault("generation.timeout", "60s")
	v.SetDefault("generation.max_attempts", 3)
	v.SetDefault("generation.backoff_base", "500ms")
	v.SetDefault("generation.backoff_max", "5s")
	v.SetDefault("generation.workers", 4)
	v.SetDefault("generation.fuzzy_threshold", 0.0)

	v.SetDefault("embedding.provider", "hashing")
	v.SetDefault("embedding.dimension", 384)
	v.SetDefault("embedding.model", "")
	v.SetDefault("embedding.api_key", "")
	v.SetDefault("embedding.base_url", "")
	v.SetDefault("embedding.region", "us-east-1")
	v.SetDefault("embedding.access_key", "")
	v.SetDefault("embedding.secret_key", "")

	v.SetDefault("index.seed_file", "")

	v.SetDefault("storage.enabled", true)
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.base_dir", "./transcripts")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.prefix", "")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.endpoint", "")

	v.SetDefault("features.keywords", []string{})

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found; using defaults
	}

	// Parse configuration
	var config Config

	config.Server.Host = v.GetString("server.host")
	config.Server.Port = v.GetInt("server.port")
	config.Server.ReadTimeout = v.GetDuration("server.read_timeout")
	config.Server.WriteTimeout = v.GetDuration("server.write_timeout")
	config.Server.AllowedOrigins = v.GetStringSlice("server.allowed_origins")

	config.Database.Host = v.GetString("database.host")
	config.Database.Port = v.GetInt("database.port")
	config.Database.User = v.GetString("database.user")
	config.Database.Password = v.GetString("database.password")
	config.Database.Database = v.GetString("database.database")
	config.Database.MaxOpenConns = v.GetInt("database.max_open_conns")
	config.Database.MaxIdleConns = v.GetInt("database.max_idle_conns")

	config.Log.Level = v.GetString("log.level")

	config.Generation.Backend = v.GetString("generation.backend")
	config.Generation.Endpoint = v.GetString("generation.endpoint")
	config.Generation.Model = v.GetString("generation.model")
	config.Generation.APIKey = v.GetString("generation.api_key")
	config.Generation.Region = v.GetString("generation.region")
	config.Generation.AccessKey = v.GetString("generation.access_key")
	config.Generation.SecretKey = v.GetString("generation.secret_key")
	config.Generation.MaxLength = v.GetInt("generation.max_length")
	config.Generation.Temperature = v.GetFloat64("generation.temperature")
	config.Generation.TopP = v.GetFloat64("generation.top_p")
	config.Generation.Timeout = v.GetDuration("generation.timeout")
	config.Generation.MaxAttempts = v.GetInt("generation.max_attempts")
	config.Generation.BackoffBase = v.GetDuration("generation.backoff_base")
	config.Generation.BackoffMax = v.GetDuration("generation.backoff_max")
	config.Generation.Workers = v.GetInt("generation.workers")
	config.Generation.FuzzyThreshold = v.GetFloat64("generation.fuzzy_threshold")

	config.Embedding.Provider = v.GetString("embedding.provider")
	config.Embedding.Dimension = v.GetInt("embedding.dimension")
	config.Embedding.Model = v.GetString("embedding.model")
	config.Embedding.APIKey = v.GetString("embedding.api_key")
	config.Embedding.BaseURL = v.GetString("embedding.base_url")
	config.Embedding.Region = v.GetString("embedding.region")
	config.Embedding.AccessKey = v.GetString("embedding.access_key")
	config.Embedding.SecretKey = v.GetString("embedding.secret_key")

	config.Index.SeedFile = v.GetString("index.seed_file")

	config.Storage.Enabled = v.GetBool("storage.enabled")
	config.Storage.Type = v.GetString("storage.type")
	config.Storage.BaseDir = v.GetString("storage.base_dir")
	config.Storage.Bucket = v.GetString("storage.bucket")
	config.Storage.Region = v.GetString("storage.region")
	config.Storage.Prefix = v.GetString("storage.prefix")
	config.Storage.AccessKey = v.GetString("storage.access_key")
	config.Storage.SecretKey = v.GetString("storage.secret_key")
	config.Storage.Endpoint = v.GetString("storage.endpoint")

	config.Features.Keywords = v.GetStringSlice("features.keywords")

	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// validate rejects settings under which a failed generation could outlive the
// response write deadline, leaving the backend error unreported.
func (c *Config) validate() error {
	if c.Server.WriteTimeout <= 0 {
		return nil
	}
	if c.Generation.Timeout <= 0 {
		return fmt.Errorf("generation.timeout must be set when server.write_timeout is %s", c.Server.WriteTimeout)
	}
	budget := generation.RetryConfig{
		MaxAttempts: c.Generation.MaxAttempts,
		BackoffBase: c.Generation.BackoffBase,
		BackoffMax:  c.Generation.BackoffMax,
		Timeout:     c.Generation.Timeout,
	}.Budget()
	if budget >= c.Server.WriteTimeout {
		return fmt.Errorf("generation may take up to %s, which is not below server.write_timeout %s", budget, c.Server.WriteTimeout)
	}
	return nil
}
