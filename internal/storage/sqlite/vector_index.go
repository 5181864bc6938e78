package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/devlog-ai/devlog/internal/storage"
	"github.com/devlog-ai/devlog/pkg/types"
)

// VectorIndex stores embeddings as little-endian float64 BLOBs in the same
// SQLite database as the relational data and ranks them with an in-process
// cosine scan. The table is derived state: dropping it loses search recall,
// never source data.
type VectorIndex struct {
	db *sql.DB
}

// NewVectorIndex wraps an open store's database handle. The index shares the
// store's single connection, so writes serialize with relational writes.
func NewVectorIndex(db *sql.DB) *VectorIndex {
	return &VectorIndex{db: db}
}

var _ storage.VectorIndex = (*VectorIndex)(nil)

// Upsert replaces the record for (EntityType, EntityID).
func (v *VectorIndex) Upsert(ctx context.Context, rec *types.VectorRecord) error {
	if rec == nil || rec.EntityID == "" {
		return fmt.Errorf("%w: entity ID is required", storage.ErrValidation)
	}
	if !types.IsValidEntityType(rec.EntityType) {
		return fmt.Errorf("%w: unknown entity type %q", storage.ErrValidation, rec.EntityType)
	}
	if len(rec.Embedding) == 0 {
		return fmt.Errorf("%w: embedding is empty", storage.ErrValidation)
	}

	updatedAt := rec.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	_, err := v.db.ExecContext(ctx, `
		INSERT INTO vector_records (entity_type, entity_id, embedding, dimension, text_snapshot, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(entity_type, entity_id) DO UPDATE SET
			embedding = excluded.embedding,
			dimension = excluded.dimension,
			text_snapshot = excluded.text_snapshot,
			updated_at = excluded.updated_at
	`, rec.EntityType, rec.EntityID, serializeEmbedding(rec.Embedding), len(rec.Embedding), rec.TextSnapshot, updatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert vector record: %w", err)
	}
	return nil
}

// Delete removes a record. A missing target is not an error.
func (v *VectorIndex) Delete(ctx context.Context, entityType, entityID string) error {
	_, err := v.db.ExecContext(ctx,
		`DELETE FROM vector_records WHERE entity_type = ? AND entity_id = ?`,
		entityType, entityID)
	if err != nil {
		return fmt.Errorf("failed to delete vector record: %w", err)
	}
	return nil
}

// Search scans all records and returns the limit most similar, best first.
// Records whose dimension differs from the query are skipped.
func (v *VectorIndex) Search(ctx context.Context, embedding []float64, limit int) ([]storage.VectorMatch, error) {
	if len(embedding) == 0 {
		return nil, fmt.Errorf("%w: query embedding is empty", storage.ErrValidation)
	}
	if limit < 1 {
		limit = 10
	}

	rows, err := v.db.QueryContext(ctx,
		`SELECT entity_type, entity_id, embedding, dimension FROM vector_records`)
	if err != nil {
		return nil, fmt.Errorf("failed to scan vector records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var matches []storage.VectorMatch
	for rows.Next() {
		var entityType, entityID string
		var blob []byte
		var dim int
		if err := rows.Scan(&entityType, &entityID, &blob, &dim); err != nil {
			return nil, fmt.Errorf("scan vector row: %w", err)
		}
		if dim != len(embedding) {
			continue
		}
		stored, err := deserializeEmbedding(blob)
		if err != nil {
			continue
		}
		matches = append(matches, storage.VectorMatch{
			EntityID:   entityID,
			EntityType: entityType,
			Score:      cosineSimilarity(embedding, stored),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Close is a no-op: the index shares the store's database handle.
func (v *VectorIndex) Close() error {
	return nil
}

// serializeEmbedding packs float64s little-endian into a BLOB.
func serializeEmbedding(embedding []float64) []byte {
	buf := make([]byte, len(embedding)*8)
	for i, f := range embedding {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

// deserializeEmbedding unpacks a BLOB written by serializeEmbedding.
func deserializeEmbedding(blob []byte) ([]float64, error) {
	if len(blob)%8 != 0 {
		return nil, fmt.Errorf("malformed embedding blob: %d bytes", len(blob))
	}
	embedding := make([]float64, len(blob)/8)
	for i := range embedding {
		embedding[i] = math.Float64frombits(binary.LittleEndian.Uint64(blob[i*8:]))
	}
	return embedding, nil
}

// cosineSimilarity returns the cosine of the angle between a and b.
// Zero-magnitude vectors score 0.
func cosineSimilarity(a, b []float64) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
