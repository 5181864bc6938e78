package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/devlog-ai/devlog/internal/llm"
	"github.com/devlog-ai/devlog/internal/storage"
)

// Engine is the core orchestrator. Relational writes are synchronous and
// authoritative; vector index writes and reflection generation run on a
// background worker pool and never fail the originating operation.
type Engine struct {
	config Config

	store  storage.Store
	index  storage.VectorIndex
	embed  llm.EmbeddingGenerator
	txtGen llm.TextGenerator

	jobs            chan job
	workerWaitGroup sync.WaitGroup

	started      bool
	shuttingDown bool
	mu           sync.RWMutex

	// now is swappable for tests.
	now func() time.Time
}

// New creates an engine. The store is required. The vector index, embedding
// generator, and text generator are optional: without them the engine runs
// relational-only and search degrades to keyword matching.
func New(store storage.Store, index storage.VectorIndex, embedder llm.EmbeddingGenerator, textGen llm.TextGenerator, config Config) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Engine{
		config: config,
		store:  store,
		index:  index,
		embed:  embedder,
		txtGen: textGen,
		jobs:   make(chan job, config.QueueSize),
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// Start launches the background workers. It is an error to start twice.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return fmt.Errorf("engine already started")
	}

	for i := 0; i < e.config.NumWorkers; i++ {
		e.workerWaitGroup.Add(1)
		go e.worker(ctx, i)
	}
	e.started = true

	log.Printf("engine started with %d workers", e.config.NumWorkers)
	return nil
}

// Shutdown stops accepting background jobs and waits for the workers to
// drain, up to ShutdownTimeout.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	if !e.started || e.shuttingDown {
		e.mu.Unlock()
		return nil
	}
	e.shuttingDown = true
	e.mu.Unlock()

	close(e.jobs)

	done := make(chan struct{})
	go func() {
		e.workerWaitGroup.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("all workers finished gracefully")
		return nil
	case <-time.After(e.config.ShutdownTimeout):
		log.Printf("WARNING: shutdown timeout reached, %d background jobs may be dropped", len(e.jobs))
		return nil
	case <-ctx.Done():
		log.Printf("WARNING: shutdown cancelled, %d background jobs may be dropped", len(e.jobs))
		return ctx.Err()
	}
}

// worker processes background jobs until the queue closes.
func (e *Engine) worker(ctx context.Context, workerID int) {
	defer e.workerWaitGroup.Done()

	for j := range e.jobs {
		switch j.kind {
		case jobIndexUpsert:
			e.syncUpsert(ctx, j)
		case jobReflection:
			e.generateReflection(ctx, workerID, j.sessionID)
		}
	}
}

// enqueue submits a background job. A full queue or a stopped engine drops
// the job with a log line; the rebuild operation recovers anything missed.
func (e *Engine) enqueue(j job) {
	e.mu.RLock()
	canQueue := e.started && !e.shuttingDown
	e.mu.RUnlock()
	if !canQueue {
		log.Printf("WARNING: background job dropped (engine not running): kind=%d entity=%s", j.kind, j.entityID)
		return
	}

	select {
	case e.jobs <- j:
	default:
		log.Printf("WARNING: background queue full, job dropped: kind=%d entity=%s", j.kind, j.entityID)
	}
}

// scheduleIndex queues a vector index upsert for an entity. No-op when the
// engine runs without an index or embedder.
func (e *Engine) scheduleIndex(entityType, entityID, title, text string) {
	if e.index == nil || e.embed == nil {
		return
	}
	e.enqueue(job{
		kind:       jobIndexUpsert,
		entityType: entityType,
		entityID:   entityID,
		title:      title,
		text:       text,
	})
}
