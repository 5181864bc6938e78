// Package engine orchestrates the memory store: it owns write operations,
// the optimistic concurrency loop for the active context, session lifecycle,
// hybrid search, and the background workers that keep the vector index and
// session reflections up to date.
package engine

import (
	"fmt"
	"time"
)

// Config holds configuration for the engine.
type Config struct {
	// NumWorkers is the number of background worker goroutines that process
	// index syncs and reflections (default: 2).
	NumWorkers int

	// QueueSize is the buffer size of the background job queue (default: 256).
	QueueSize int

	// ShutdownTimeout is the maximum time to wait for workers to drain on
	// shutdown (default: 30s).
	ShutdownTimeout time.Duration

	// ContextRetries is the total number of attempts for the active context
	// read-modify-write loop (default: 3).
	ContextRetries int

	// SyncRetries is the total number of attempts for an index sync, each
	// covering the embedding call and the record write, before the entry is
	// abandoned until the next rebuild (default: 3).
	SyncRetries int

	// SyncBackoffBase is the initial retry delay for index writes, doubled
	// per attempt (default: 1s). SyncBackoffCap bounds it (default: 10s).
	SyncBackoffBase time.Duration
	SyncBackoffCap  time.Duration

	// MinReflectionDuration is the minimum closed-session length that
	// qualifies for reflection generation (default: 15m).
	MinReflectionDuration time.Duration

	// StaleSessionAge is the default age after which an open session may be
	// force-closed by the maintenance operation (default: 12h).
	StaleSessionAge time.Duration

	// EmbedTimeout bounds a single embedding call (default: 10s).
	EmbedTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		NumWorkers:            2,
		QueueSize:             256,
		ShutdownTimeout:       30 * time.Second,
		ContextRetries:        3,
		SyncRetries:           3,
		SyncBackoffBase:       time.Second,
		SyncBackoffCap:        10 * time.Second,
		MinReflectionDuration: 15 * time.Minute,
		StaleSessionAge:       12 * time.Hour,
		EmbedTimeout:          10 * time.Second,
	}
}

// Validate checks if the config is valid.
func (c *Config) Validate() error {
	if c.NumWorkers < 1 {
		return fmt.Errorf("NumWorkers must be >= 1, got %d", c.NumWorkers)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("QueueSize must be >= 1, got %d", c.QueueSize)
	}
	if c.ShutdownTimeout < 0 {
		return fmt.Errorf("ShutdownTimeout must be >= 0, got %v", c.ShutdownTimeout)
	}
	if c.ContextRetries < 1 {
		return fmt.Errorf("ContextRetries must be >= 1, got %d", c.ContextRetries)
	}
	if c.SyncRetries < 1 {
		return fmt.Errorf("SyncRetries must be >= 1, got %d", c.SyncRetries)
	}
	if c.SyncBackoffBase <= 0 {
		return fmt.Errorf("SyncBackoffBase must be > 0, got %v", c.SyncBackoffBase)
	}
	if c.SyncBackoffCap < c.SyncBackoffBase {
		return fmt.Errorf("SyncBackoffCap must be >= SyncBackoffBase, got %v", c.SyncBackoffCap)
	}
	if c.MinReflectionDuration < 0 {
		return fmt.Errorf("MinReflectionDuration must be >= 0, got %v", c.MinReflectionDuration)
	}
	if c.StaleSessionAge <= 0 {
		return fmt.Errorf("StaleSessionAge must be > 0, got %v", c.StaleSessionAge)
	}
	if c.EmbedTimeout <= 0 {
		return fmt.Errorf("EmbedTimeout must be > 0, got %v", c.EmbedTimeout)
	}
	return nil
}

// Match kinds reported on search results.
const (
	MatchSemantic = "semantic"
	MatchKeyword  = "keyword"
)

// SearchResult is one hit returned by SearchMemory.
type SearchResult struct {
	EntityID   string    `json:"entity_id"`
	EntityType string    `json:"entity_type"`
	Title      string    `json:"title"`
	Snippet    string    `json:"snippet"`
	Score      float64   `json:"score"`
	Match      string    `json:"match"`
	CreatedAt  time.Time `json:"created_at"`
}

// jobKind selects what a background job does.
type jobKind int

const (
	jobIndexUpsert jobKind = iota
	jobReflection
)

// job is one unit of background work: a vector index write or a session
// reflection generation.
type job struct {
	kind       jobKind
	entityType string
	entityID   string
	title      string
	text       string
	sessionID  string
}
