// cmd/devlog-reindex rebuilds the vector index from the relational store.
// The index is derived state: after restoring a database backup, switching
// embedding models, or recovering from repeated index write failures, run
// this tool to re-embed every searchable document.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/devlog-ai/devlog/internal/config"
	"github.com/devlog-ai/devlog/internal/engine"
	"github.com/devlog-ai/devlog/internal/llm"
	"github.com/devlog-ai/devlog/internal/storage"
	"github.com/devlog-ai/devlog/internal/storage/postgres"
	"github.com/devlog-ai/devlog/internal/storage/sqlite"
)

func main() {
	log.SetOutput(os.Stderr)
	log.SetPrefix("devlog-reindex: ")
	log.SetFlags(log.LstdFlags)

	configPath := flag.String("config", os.Getenv("DEVLOG_CONFIG"), "path to optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if !cfg.LLM.Enabled {
		log.Fatal("LLM is disabled; a reindex needs an embedding model (set DEVLOG_LLM_ENABLED=true)")
	}
	if cfg.Storage.VectorBackend == "none" {
		log.Fatal("vector backend is disabled (set DEVLOG_VECTOR_BACKEND to sqlite or postgres)")
	}

	store, err := sqlite.Open(cfg.DatabasePath())
	if err != nil {
		log.Fatalf("failed to open database at %q: %v", cfg.DatabasePath(), err)
	}
	defer store.Close()

	var index storage.VectorIndex
	switch cfg.Storage.VectorBackend {
	case "sqlite":
		index = sqlite.NewVectorIndex(store.GetDB())
	case "postgres":
		index, err = postgres.NewVectorIndex(cfg.Storage.PostgresDSN)
		if err != nil {
			log.Fatalf("failed to open pgvector index: %v", err)
		}
	}
	defer index.Close()

	client := llm.NewOllamaClient(llm.OllamaConfig{
		BaseURL:           cfg.LLM.OllamaURL,
		EmbedModel:        cfg.LLM.EmbeddingModel,
		GenerateModel:     cfg.LLM.GenerateModel,
		Timeout:           cfg.LLM.Timeout,
		RequestsPerSecond: cfg.LLM.RequestsPerSecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("received interrupt, stopping")
		cancel()
	}()

	healthCtx, healthCancel := context.WithTimeout(ctx, 2*time.Second)
	if err := client.HealthCheck(healthCtx); err != nil {
		healthCancel()
		log.Fatalf("ollama unreachable at %s: %v", cfg.LLM.OllamaURL, err)
	}
	healthCancel()

	engineCfg := engine.DefaultConfig()
	engineCfg.EmbedTimeout = cfg.LLM.Timeout

	eng, err := engine.New(store, index, client, client, engineCfg)
	if err != nil {
		log.Fatalf("failed to create engine: %v", err)
	}

	start := time.Now()
	indexed, failed, err := eng.RebuildIndex(ctx)
	if err != nil {
		log.Fatalf("rebuild failed: %v", err)
	}

	fmt.Printf("reindexed %d documents (%d failed) in %s\n", indexed, failed, time.Since(start).Round(time.Millisecond))
	if failed > 0 {
		os.Exit(1)
	}
}
