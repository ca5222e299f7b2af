// Package config provides configuration loading for researchd.
//
// Configuration is loaded from a YAML file and overridden by environment
// variables. This package covers the HTTP server, logging, telemetry, the
// relational store, the vector store backends, the LLM and embedding
// endpoints, the web-search provider, and research pipeline defaults.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the complete researchd configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Telemetry  TelemetryConfig  `koanf:"telemetry"`
	Store      StoreConfig      `koanf:"store"`
	Vector     VectorConfig     `koanf:"vector"`
	Embeddings EmbeddingsConfig `koanf:"embeddings"`
	LLM        LLMConfig        `koanf:"llm"`
	Search     SearchConfig     `koanf:"search"`
	Research   ResearchConfig   `koanf:"research"`
	Memory     MemoryConfig     `koanf:"memory"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig holds logger configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // json, console
}

// TelemetryConfig holds OpenTelemetry export configuration.
// When disabled, the global no-op providers are left in place and
// instrumentation throughout the codebase costs nothing.
type TelemetryConfig struct {
	Enabled        bool   `koanf:"enabled"`
	Endpoint       string `koanf:"endpoint"`
	Protocol       string `koanf:"protocol"` // grpc, http/protobuf
	Insecure       bool   `koanf:"insecure"`
	ServiceName    string `koanf:"service_name"`
	ServiceVersion string `koanf:"service_version"`
}

// StoreConfig holds the relational store configuration.
type StoreConfig struct {
	// Path is the SQLite database file. The parent directory is created
	// on startup if missing.
	Path string `koanf:"path"`
}

// VectorConfig holds vector store configuration.
type VectorConfig struct {
	// Provider selects the backend: "chromem" (embedded, default) or "qdrant".
	Provider string        `koanf:"provider"`
	Chromem  ChromemConfig `koanf:"chromem"`
	Qdrant   QdrantConfig  `koanf:"qdrant"`
}

// ChromemConfig holds configuration for the embedded chromem-go store.
type ChromemConfig struct {
	Path       string `koanf:"path"`
	Collection string `koanf:"collection"`
	Compress   bool   `koanf:"compress"`
}

// QdrantConfig holds configuration for the Qdrant gRPC backend.
type QdrantConfig struct {
	Host       string `koanf:"host"`
	Port       int    `koanf:"port"` // gRPC port (6334), not the HTTP port
	Collection string `koanf:"collection"`
	VectorSize int    `koanf:"vector_size"`
	UseTLS     bool   `koanf:"use_tls"`
}

// EmbeddingsConfig holds configuration for the embedding endpoint.
// Any OpenAI-compatible API works, including local TEI servers.
type EmbeddingsConfig struct {
	BaseURL string `koanf:"base_url"`
	Model   string `koanf:"model"`
	APIKey  Secret `koanf:"api_key"`
}

// LLMConfig holds configuration for the completion endpoint used by the
// query generator, the relevance scorer, and the research agent.
type LLMConfig struct {
	BaseURL string `koanf:"base_url"`
	Model   string `koanf:"model"`
	APIKey  Secret `koanf:"api_key"`
}

// SearchConfig holds web-search provider configuration.
type SearchConfig struct {
	Provider string       `koanf:"provider"` // "tavily"
	Tavily   TavilyConfig `koanf:"tavily"`
}

// TavilyConfig holds Tavily API configuration.
type TavilyConfig struct {
	BaseURL string        `koanf:"base_url"`
	APIKey  Secret        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`
}

// ResearchConfig holds research pipeline defaults. Per-request values from
// the API override these.
type ResearchConfig struct {
	NumQueries       int `koanf:"num_queries"`
	ResultsPerQuery  int `koanf:"results_per_query"`
	MaxSources       int `koanf:"max_sources"`
	MinQualityScore  int `koanf:"min_quality_score"`
	MaxToScore       int `koanf:"max_to_score"`
	ScoreConcurrency int `koanf:"score_concurrency"`
	// ScoreRate caps relevance-scoring calls per second against the LLM
	// endpoint. Zero uses the filter's default.
	ScoreRate float64 `koanf:"score_rate"`
}

// MemoryConfig holds semantic memory configuration.
type MemoryConfig struct {
	// FetchLimit bounds how many records a preference extraction reads.
	FetchLimit int `koanf:"fetch_limit"`
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8420
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "researchd"
	}
	if cfg.Telemetry.ServiceVersion == "" {
		cfg.Telemetry.ServiceVersion = "dev"
	}
	if cfg.Telemetry.Protocol == "" {
		cfg.Telemetry.Protocol = "grpc"
	}

	if cfg.Store.Path == "" {
		cfg.Store.Path = "~/.local/share/researchd/researchd.db"
	}

	if cfg.Vector.Provider == "" {
		cfg.Vector.Provider = "chromem"
	}
	if cfg.Vector.Chromem.Path == "" {
		cfg.Vector.Chromem.Path = "~/.local/share/researchd/vectors"
	}
	if cfg.Vector.Chromem.Collection == "" {
		cfg.Vector.Chromem.Collection = "research_memory"
	}
	if cfg.Vector.Qdrant.Host == "" {
		cfg.Vector.Qdrant.Host = "localhost"
	}
	if cfg.Vector.Qdrant.Port == 0 {
		cfg.Vector.Qdrant.Port = 6334
	}
	if cfg.Vector.Qdrant.Collection == "" {
		cfg.Vector.Qdrant.Collection = "research_memory"
	}
	if cfg.Vector.Qdrant.VectorSize == 0 {
		cfg.Vector.Qdrant.VectorSize = 1536 // text-embedding-3-small
	}

	if cfg.Embeddings.BaseURL == "" {
		cfg.Embeddings.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Embeddings.Model == "" {
		cfg.Embeddings.Model = "text-embedding-3-small"
	}

	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4o-mini"
	}

	if cfg.Search.Provider == "" {
		cfg.Search.Provider = "tavily"
	}
	if cfg.Search.Tavily.BaseURL == "" {
		cfg.Search.Tavily.BaseURL = "https://api.tavily.com"
	}
	if cfg.Search.Tavily.Timeout == 0 {
		cfg.Search.Tavily.Timeout = 15 * time.Second
	}

	if cfg.Research.NumQueries == 0 {
		cfg.Research.NumQueries = 7
	}
	if cfg.Research.ResultsPerQuery == 0 {
		cfg.Research.ResultsPerQuery = 30
	}
	if cfg.Research.MaxSources == 0 {
		cfg.Research.MaxSources = 50
	}
	if cfg.Research.MinQualityScore == 0 {
		cfg.Research.MinQualityScore = 60
	}
	if cfg.Research.MaxToScore == 0 {
		cfg.Research.MaxToScore = 30
	}
	if cfg.Research.ScoreConcurrency == 0 {
		cfg.Research.ScoreConcurrency = 4
	}

	if cfg.Memory.FetchLimit == 0 {
		cfg.Memory.FetchLimit = 200
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format: %q", c.Logging.Format)
	}

	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		return errors.New("telemetry endpoint required when telemetry is enabled")
	}
	switch c.Telemetry.Protocol {
	case "grpc", "http/protobuf":
	default:
		return fmt.Errorf("invalid telemetry protocol: %q", c.Telemetry.Protocol)
	}

	switch c.Vector.Provider {
	case "chromem", "qdrant":
	default:
		return fmt.Errorf("invalid vector store provider: %q", c.Vector.Provider)
	}
	if c.Vector.Provider == "qdrant" && c.Vector.Qdrant.VectorSize <= 0 {
		return errors.New("qdrant vector size must be positive")
	}

	if c.Search.Provider != "tavily" {
		return fmt.Errorf("invalid search provider: %q", c.Search.Provider)
	}

	if c.Research.MinQualityScore < 0 || c.Research.MinQualityScore > 100 {
		return fmt.Errorf("min quality score must be 0-100, got %d", c.Research.MinQualityScore)
	}
	if c.Research.MaxToScore < 0 {
		return errors.New("max to score cannot be negative")
	}
	if c.Research.ScoreConcurrency < 1 {
		return errors.New("score concurrency must be at least 1")
	}

	if c.Memory.FetchLimit < 1 {
		return errors.New("memory fetch limit must be at least 1")
	}

	return nil
}
