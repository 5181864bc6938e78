package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/devlog-ai/devlog/pkg/types"
)

// syncUpsert embeds the entity text and writes the vector record, retrying
// with exponential backoff. On exhaustion the entry is logged and abandoned;
// the relational row stays authoritative and a rebuild recovers the index.
func (e *Engine) syncUpsert(ctx context.Context, j job) {
	text := indexText(j.title, j.text)

	err := e.withRetry(ctx, func() error {
		embedding, embErr := e.embedText(ctx, text)
		if embErr != nil {
			return embErr
		}
		rec := &types.VectorRecord{
			EntityID:     j.entityID,
			EntityType:   j.entityType,
			Embedding:    embedding,
			TextSnapshot: text,
			UpdatedAt:    e.now(),
		}
		return e.index.Upsert(ctx, rec)
	})
	if err != nil {
		log.Printf("WARNING: vector index upsert abandoned for %s/%s: %v", j.entityType, j.entityID, err)
	}
}

// withRetry runs fn up to SyncRetries times with exponential backoff
// starting at SyncBackoffBase and capped at SyncBackoffCap.
func (e *Engine) withRetry(ctx context.Context, fn func() error) error {
	var err error
	delay := e.config.SyncBackoffBase

	for attempt := 0; attempt < e.config.SyncRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay *= 2
			if delay > e.config.SyncBackoffCap {
				delay = e.config.SyncBackoffCap
			}
		}
		if err = fn(); err == nil {
			return nil
		}
	}
	return err
}

// embedText calls the embedding generator with the configured timeout and
// widens the result to float64 for the index.
func (e *Engine) embedText(ctx context.Context, text string) ([]float64, error) {
	if e.embed == nil {
		return nil, fmt.Errorf("no embedding generator configured")
	}

	ctx, cancel := context.WithTimeout(ctx, e.config.EmbedTimeout)
	defer cancel()

	f32, err := e.embed.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	embedding := make([]float64, len(f32))
	for i, f := range f32 {
		embedding[i] = float64(f)
	}
	return embedding, nil
}

// RebuildIndex walks every searchable document and re-embeds it into the
// vector index synchronously. Per-document failures are logged and counted,
// never fatal: a partial rebuild is still an improvement over a stale index.
func (e *Engine) RebuildIndex(ctx context.Context) (indexed, failed int, err error) {
	if e.index == nil || e.embed == nil {
		return 0, 0, fmt.Errorf("vector index or embedding generator not configured")
	}

	docs, err := e.store.ListDocuments(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list documents: %w", err)
	}

	for _, doc := range docs {
		text := indexText(doc.Title, doc.Text)
		embedding, embErr := e.embedText(ctx, text)
		if embErr != nil {
			log.Printf("WARNING: rebuild skipped %s/%s: %v", doc.EntityType, doc.EntityID, embErr)
			failed++
			continue
		}
		rec := &types.VectorRecord{
			EntityID:     doc.EntityID,
			EntityType:   doc.EntityType,
			Embedding:    embedding,
			TextSnapshot: text,
			UpdatedAt:    e.now(),
		}
		if upErr := e.index.Upsert(ctx, rec); upErr != nil {
			log.Printf("WARNING: rebuild upsert failed for %s/%s: %v", doc.EntityType, doc.EntityID, upErr)
			failed++
			continue
		}
		indexed++
	}

	log.Printf("index rebuild complete: %d indexed, %d failed", indexed, failed)
	return indexed, failed, nil
}

// indexText joins title and body into the text that gets embedded.
func indexText(title, text string) string {
	if title == "" {
		return text
	}
	if text == "" {
		return title
	}
	return title + "\n" + text
}
