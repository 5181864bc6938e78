// Package llm provides clients for local LLM inference. The engine uses it
// for embedding generation (semantic search) and session reflection text.
package llm

import "context"

// TextGenerator produces completion text from a prompt.
type TextGenerator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// EmbeddingGenerator produces embedding vectors for text.
type EmbeddingGenerator interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// HealthChecker reports whether the backing service is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
