// Researchd is the personal research assistant daemon.
//
// It serves the research workflow over a JSON HTTP API: query
// generation, web search with AI quality filtering, semantic memory,
// persistent contexts, and usage tracking.
//
// Configuration is loaded from an optional YAML file and overridden by
// environment variables. See internal/config for details.
//
// Usage:
//
//	# Start with defaults (embedded chromem vector store)
//	researchd
//
//	# Start with a config file
//	researchd -config /etc/researchd/config.yaml
//
//	# Configure via environment
//	SERVER_PORT=9090 LLM_API_KEY=sk-... researchd
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/ferrolab/researchd/internal/assistant"
	"github.com/ferrolab/researchd/internal/config"
	"github.com/ferrolab/researchd/internal/embeddings"
	"github.com/ferrolab/researchd/internal/httpapi"
	"github.com/ferrolab/researchd/internal/llm"
	"github.com/ferrolab/researchd/internal/logging"
	"github.com/ferrolab/researchd/internal/memory"
	"github.com/ferrolab/researchd/internal/personalize"
	"github.com/ferrolab/researchd/internal/research"
	"github.com/ferrolab/researchd/internal/search"
	"github.com/ferrolab/researchd/internal/store"
	"github.com/ferrolab/researchd/internal/telemetry"
	"github.com/ferrolab/researchd/internal/vectorstore"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	if args := flag.Args(); len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  researchd           Start the researchd daemon\n")
			fmt.Fprintf(os.Stderr, "  researchd version   Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

func printVersion() {
	fmt.Printf("researchd\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the daemon and blocks until the context is cancelled.
//
// Initialization order: configuration, logger, telemetry, relational
// store, embeddings and vector store, then the services and HTTP server
// on top of them.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info(ctx, "starting researchd",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.String("vector_provider", cfg.Vector.Provider))

	tel, err := telemetry.New(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			logger.Warn(ctx, "telemetry shutdown failed", zap.Error(err))
		}
	}()

	deps, err := initDependencies(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer deps.Close()

	logger.Info(ctx, "dependencies initialized",
		zap.String("store_path", deps.store.Path()),
		zap.Bool("search_enabled", deps.searchProvider != nil))

	server, err := initServer(cfg, deps, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// dependencies holds the infrastructure the services are built on.
type dependencies struct {
	store          *store.Store
	vectors        vectorstore.Store
	llmClient      *llm.OpenAIClient
	searchProvider search.Provider
	logger         *logging.Logger
}

// Close releases infrastructure resources.
func (d *dependencies) Close() {
	if d.vectors != nil {
		if err := d.vectors.Close(); err != nil {
			d.logger.Warn(context.Background(), "vector store close failed", zap.Error(err))
		}
	}
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			d.logger.Warn(context.Background(), "store close failed", zap.Error(err))
		}
	}
}

func initDependencies(cfg *config.Config, logger *logging.Logger) (*dependencies, error) {
	storePath, err := config.ExpandPath(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve store path: %w", err)
	}
	db, err := store.New(storePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	embedder, err := embeddings.NewService(cfg.Embeddings)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create embedding service: %w", err)
	}

	if cfg.Vector.Provider == "chromem" {
		if cfg.Vector.Chromem.Path, err = config.ExpandPath(cfg.Vector.Chromem.Path); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to resolve vector store path: %w", err)
		}
	}
	vectors, err := vectorstore.New(cfg.Vector, embedder, logger.Underlying())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create vector store: %w", err)
	}

	llmClient, err := llm.NewOpenAIClient(cfg.LLM)
	if err != nil {
		vectors.Close()
		db.Close()
		return nil, fmt.Errorf("failed to create llm client: %w", err)
	}

	// The daemon runs without a search key; only the web-search step is
	// unavailable then.
	var provider search.Provider
	if cfg.Search.Tavily.APIKey.IsSet() {
		provider, err = search.NewTavily(search.TavilyConfig{
			APIKey:   cfg.Search.Tavily.APIKey.Value(),
			Endpoint: cfg.Search.Tavily.BaseURL + "/search",
			Timeout:  cfg.Search.Tavily.Timeout,
		})
		if err != nil {
			vectors.Close()
			db.Close()
			return nil, fmt.Errorf("failed to create search provider: %w", err)
		}
	} else {
		logger.Warn(context.Background(), "no search API key configured, web search disabled")
	}

	return &dependencies{
		store:          db,
		vectors:        vectors,
		llmClient:      llmClient,
		searchProvider: provider,
		logger:         logger,
	}, nil
}

func initServer(cfg *config.Config, deps *dependencies, logger *logging.Logger) (*httpapi.Server, error) {
	memories := memory.NewService(deps.vectors, deps.store, logger.Named("memory"))
	prefs := personalize.NewService(memories)
	researchSvc := research.NewService(deps.llmClient, deps.store, prefs, memories, logger.Named("research"))
	scorer := research.NewLLMScorer(deps.llmClient)
	filter := research.NewFilter(research.FilterConfig{
		MinScore:      cfg.Research.MinQualityScore,
		MaxToScore:    cfg.Research.MaxToScore,
		Concurrency:   cfg.Research.ScoreConcurrency,
		RatePerSecond: cfg.Research.ScoreRate,
	}, scorer, logger.Named("filter"))
	multi := search.NewMulti(deps.searchProvider, logger.Named("search"))
	assistantSvc := assistant.New(deps.llmClient, prefs, memories, logger.Named("assistant"))

	return httpapi.NewServer(httpapi.Config{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	}, httpapi.Deps{
		Store:     deps.store,
		Memory:    memories,
		Prefs:     prefs,
		Research:  researchSvc,
		Filter:    filter,
		Search:    multi,
		Assistant: assistantSvc,
	}, logger)
}
