// cmd/devlog-mcp is the entry point for the devlog MCP (Model Context
// Protocol) server. It wires the SQLite store, the vector index, and the
// Ollama client into the engine, then serves JSON-RPC 2.0 over stdio.
//
// Startup sequence:
//  1. Load configuration (optional YAML file, DEVLOG_* env overrides).
//  2. Open the SQLite database and apply pending migrations.
//  3. Open the configured vector index backend.
//  4. Create and start the engine with its background workers.
//  5. Serve JSON-RPC 2.0 requests from stdin, writing responses to stdout.
//
// CRITICAL: ALL logging MUST go to stderr. Any bytes written to stdout that
// are not valid JSON-RPC 2.0 response frames will corrupt the protocol.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/devlog-ai/devlog/internal/api/mcp"
	"github.com/devlog-ai/devlog/internal/config"
	"github.com/devlog-ai/devlog/internal/engine"
	"github.com/devlog-ai/devlog/internal/llm"
	"github.com/devlog-ai/devlog/internal/storage"
	"github.com/devlog-ai/devlog/internal/storage/postgres"
	"github.com/devlog-ai/devlog/internal/storage/sqlite"
)

func main() {
	// Redirect the default logger to stderr so that any incidental log calls
	// never pollute the stdout JSON-RPC stream.
	log.SetOutput(os.Stderr)
	log.SetPrefix("devlog-mcp: ")
	log.SetFlags(log.LstdFlags)

	configPath := flag.String("config", os.Getenv("DEVLOG_CONFIG"), "path to optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := os.MkdirAll(cfg.Storage.DataPath, 0o700); err != nil {
		log.Fatalf("failed to create data directory %q: %v", cfg.Storage.DataPath, err)
	}

	store, err := sqlite.Open(cfg.DatabasePath())
	if err != nil {
		log.Fatalf("failed to open database at %q: %v", cfg.DatabasePath(), err)
	}
	defer store.Close()

	index, err := openVectorIndex(cfg, store)
	if err != nil {
		log.Fatalf("failed to open vector index: %v", err)
	}
	if index != nil {
		defer index.Close()
	}

	var embedder llm.EmbeddingGenerator
	var textGen llm.TextGenerator
	if cfg.LLM.Enabled {
		client := llm.NewOllamaClient(llm.OllamaConfig{
			BaseURL:           cfg.LLM.OllamaURL,
			EmbedModel:        cfg.LLM.EmbeddingModel,
			GenerateModel:     cfg.LLM.GenerateModel,
			Timeout:           cfg.LLM.Timeout,
			RequestsPerSecond: cfg.LLM.RequestsPerSecond,
		})
		embedder = client
		textGen = client

		healthCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := client.HealthCheck(healthCtx); err != nil {
			log.Printf("WARNING: ollama unreachable, search will degrade to keyword matching: %v", err)
		}
		cancel()
	} else {
		log.Println("LLM disabled: running relational-only")
	}

	engineCfg := engine.DefaultConfig()
	engineCfg.NumWorkers = cfg.Engine.Workers
	engineCfg.QueueSize = cfg.Engine.QueueSize
	engineCfg.ShutdownTimeout = cfg.Engine.ShutdownTimeout
	engineCfg.MinReflectionDuration = time.Duration(cfg.Engine.MinReflectionMinutes) * time.Minute
	engineCfg.StaleSessionAge = time.Duration(cfg.Engine.StaleSessionHours) * time.Hour
	engineCfg.EmbedTimeout = cfg.LLM.Timeout

	eng, err := engine.New(store, index, embedder, textGen, engineCfg)
	if err != nil {
		log.Fatalf("failed to create engine: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("received shutdown signal")
		cancel()
	}()

	// Workers get a context that outlives the signal cancellation, so queued
	// jobs can still drain during the shutdown window.
	workerCtx, workerCancel := context.WithCancel(context.Background())

	if err := eng.Start(workerCtx); err != nil {
		log.Fatalf("failed to start engine: %v", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Engine.ShutdownTimeout)
		defer shutdownCancel()
		if err := eng.Shutdown(shutdownCtx); err != nil {
			log.Printf("engine shutdown error: %v", err)
		}
		workerCancel()
	}()

	srv := mcp.NewServer(eng)
	transport := mcp.NewStdioTransport(srv, os.Stdin, os.Stdout)

	log.Printf("serving MCP over stdio (db=%s, vector=%s)", cfg.DatabasePath(), cfg.Storage.VectorBackend)
	if err := transport.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("transport error: %v", err)
	}
}

// openVectorIndex opens the configured vector backend. "none" returns nil,
// which runs the engine keyword-only.
func openVectorIndex(cfg *config.Config, store *sqlite.Store) (storage.VectorIndex, error) {
	switch cfg.Storage.VectorBackend {
	case "sqlite":
		return sqlite.NewVectorIndex(store.GetDB()), nil
	case "postgres":
		return postgres.NewVectorIndex(cfg.Storage.PostgresDSN)
	case "none":
		return nil, nil
	default:
		return nil, errors.New("unknown vector backend: " + cfg.Storage.VectorBackend)
	}
}
