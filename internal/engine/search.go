package engine

import (
	"context"
	"errors"
	"log"
	"sort"

	"github.com/devlog-ai/devlog/internal/storage"
	"github.com/devlog-ai/devlog/pkg/types"
)

// SearchMemory runs hybrid search: semantic hits from the vector index
// resolved against the relational store, merged with keyword matches.
// When the embedder or index is unavailable or fails, it degrades to
// keyword-only matching and reports degraded=true rather than failing.
func (e *Engine) SearchMemory(ctx context.Context, filter storage.SearchFilter) (results []SearchResult, degraded bool, err error) {
	filter.Normalize()

	var semantic []SearchResult
	if e.index != nil && e.embed != nil {
		semantic, err = e.semanticSearch(ctx, filter)
		if err != nil {
			log.Printf("WARNING: semantic search degraded to keyword: %v", err)
			degraded = true
		}
	} else {
		degraded = true
	}

	keyword, err := e.store.KeywordSearch(ctx, filter)
	if err != nil {
		// Semantic hits alone are still an answer when the keyword pass
		// fails; a total miss on both is an error.
		if len(semantic) == 0 {
			return nil, degraded, err
		}
		log.Printf("WARNING: keyword search failed, returning semantic hits only: %v", err)
		keyword = nil
	}

	results = mergeResults(semantic, keyword, filter.Limit)
	return results, degraded, nil
}

// semanticSearch embeds the query, ranks the vector index, and resolves each
// hit back to its authoritative document. Hits whose source entity no longer
// exists are dropped silently.
func (e *Engine) semanticSearch(ctx context.Context, filter storage.SearchFilter) ([]SearchResult, error) {
	embedding, err := e.embedText(ctx, filter.Query)
	if err != nil {
		return nil, err
	}

	// Over-fetch so type and date filtering still leave enough hits.
	matches, err := e.index.Search(ctx, embedding, filter.Limit*3)
	if err != nil {
		return nil, err
	}

	var results []SearchResult
	for _, m := range matches {
		if !filter.WantsType(m.EntityType) {
			continue
		}
		doc, err := e.store.GetDocument(ctx, m.EntityType, m.EntityID)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !filter.InRange(doc.CreatedAt) {
			continue
		}
		results = append(results, SearchResult{
			EntityID:   doc.EntityID,
			EntityType: doc.EntityType,
			Title:      doc.Title,
			Snippet:    clip(doc.Text, 200),
			Score:      m.Score,
			Match:      MatchSemantic,
			CreatedAt:  doc.CreatedAt,
		})
		if len(results) >= filter.Limit {
			break
		}
	}
	return results, nil
}

// mergeResults combines semantic and keyword hits, deduplicating by entity.
// Semantic hits keep their similarity order and come first; keyword-only
// hits follow, newest first.
func mergeResults(semantic []SearchResult, keyword []types.SearchDocument, limit int) []SearchResult {
	seen := make(map[string]bool, len(semantic))
	results := make([]SearchResult, 0, len(semantic)+len(keyword))

	for _, r := range semantic {
		key := r.EntityType + "/" + r.EntityID
		if seen[key] {
			continue
		}
		seen[key] = true
		results = append(results, r)
	}

	var lexical []SearchResult
	for _, doc := range keyword {
		key := doc.EntityType + "/" + doc.EntityID
		if seen[key] {
			continue
		}
		seen[key] = true
		lexical = append(lexical, SearchResult{
			EntityID:   doc.EntityID,
			EntityType: doc.EntityType,
			Title:      doc.Title,
			Snippet:    clip(doc.Text, 200),
			Match:      MatchKeyword,
			CreatedAt:  doc.CreatedAt,
		})
	}
	sort.Slice(lexical, func(i, j int) bool {
		return lexical[i].CreatedAt.After(lexical[j].CreatedAt)
	})

	results = append(results, lexical...)
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// clip truncates s to at most n runes.
func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
