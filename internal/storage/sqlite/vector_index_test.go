package sqlite

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/devlog-ai/devlog/internal/storage"
	"github.com/devlog-ai/devlog/pkg/types"
)

func newTestVectorIndex(t *testing.T) *VectorIndex {
	t.Helper()
	store := newTestStore(t)
	return NewVectorIndex(store.GetDB())
}

func upsertTestVector(t *testing.T, index *VectorIndex, entityType, entityID string, embedding []float64) {
	t.Helper()
	err := index.Upsert(context.Background(), &types.VectorRecord{
		EntityType: entityType,
		EntityID:   entityID,
		Embedding:  embedding,
	})
	if err != nil {
		t.Fatalf("Upsert(%s/%s) failed: %v", entityType, entityID, err)
	}
}

func TestVectorSearchOrdering(t *testing.T) {
	index := newTestVectorIndex(t)
	ctx := context.Background()

	upsertTestVector(t, index, types.EntityTypeNote, "note:x", []float64{1, 0, 0})
	upsertTestVector(t, index, types.EntityTypeNote, "note:diag", []float64{1, 1, 0})
	upsertTestVector(t, index, types.EntityTypeNote, "note:y", []float64{0, 1, 0})

	matches, err := index.Search(ctx, []float64{1, 0, 0}, 10)
	if err != nil {
		t.Fatalf("Search() failed: %v", err)
	}
	if len(matches) != 3 {
		t.Fatalf("got %d matches, want 3", len(matches))
	}
	if matches[0].EntityID != "note:x" {
		t.Errorf("best match = %q, want note:x", matches[0].EntityID)
	}
	if matches[1].EntityID != "note:diag" {
		t.Errorf("second match = %q, want note:diag", matches[1].EntityID)
	}
	if math.Abs(matches[0].Score-1.0) > 1e-9 {
		t.Errorf("identical vector score = %f, want 1.0", matches[0].Score)
	}
	if matches[0].Score <= matches[1].Score || matches[1].Score <= matches[2].Score {
		t.Error("matches not sorted by descending score")
	}

	matches, err = index.Search(ctx, []float64{1, 0, 0}, 1)
	if err != nil {
		t.Fatalf("Search() with limit failed: %v", err)
	}
	if len(matches) != 1 {
		t.Errorf("got %d matches with limit 1", len(matches))
	}
}

func TestVectorSearchSkipsDimensionMismatch(t *testing.T) {
	index := newTestVectorIndex(t)
	ctx := context.Background()

	upsertTestVector(t, index, types.EntityTypeNote, "note:3d", []float64{1, 0, 0})
	upsertTestVector(t, index, types.EntityTypeNote, "note:4d", []float64{1, 0, 0, 0})

	matches, err := index.Search(ctx, []float64{0.5, 0.5, 0}, 10)
	if err != nil {
		t.Fatalf("Search() failed: %v", err)
	}
	if len(matches) != 1 || matches[0].EntityID != "note:3d" {
		t.Errorf("matches = %+v, want only note:3d", matches)
	}
}

func TestVectorUpsertReplaces(t *testing.T) {
	index := newTestVectorIndex(t)
	ctx := context.Background()

	upsertTestVector(t, index, types.EntityTypeNote, "note:a", []float64{1, 0, 0})
	upsertTestVector(t, index, types.EntityTypeNote, "note:a", []float64{0, 1, 0})

	matches, err := index.Search(ctx, []float64{0, 1, 0}, 10)
	if err != nil {
		t.Fatalf("Search() failed: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1 after upsert", len(matches))
	}
	if math.Abs(matches[0].Score-1.0) > 1e-9 {
		t.Errorf("score = %f, want 1.0 against replaced embedding", matches[0].Score)
	}
}

func TestVectorDelete(t *testing.T) {
	index := newTestVectorIndex(t)
	ctx := context.Background()

	upsertTestVector(t, index, types.EntityTypeNote, "note:a", []float64{1, 0, 0})

	if err := index.Delete(ctx, types.EntityTypeNote, "note:a"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	// Deleting an absent record is not an error.
	if err := index.Delete(ctx, types.EntityTypeNote, "note:a"); err != nil {
		t.Fatalf("Delete() of absent record failed: %v", err)
	}

	matches, err := index.Search(ctx, []float64{1, 0, 0}, 10)
	if err != nil {
		t.Fatalf("Search() failed: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("got %d matches after delete", len(matches))
	}
}

func TestVectorValidation(t *testing.T) {
	index := newTestVectorIndex(t)
	ctx := context.Background()

	err := index.Upsert(ctx, &types.VectorRecord{EntityType: types.EntityTypeNote, EntityID: "note:a"})
	if !errors.Is(err, storage.ErrValidation) {
		t.Errorf("empty embedding error = %v, want ErrValidation", err)
	}

	err = index.Upsert(ctx, &types.VectorRecord{EntityType: "widget", EntityID: "w:1", Embedding: []float64{1}})
	if !errors.Is(err, storage.ErrValidation) {
		t.Errorf("unknown entity type error = %v, want ErrValidation", err)
	}

	_, err = index.Search(ctx, nil, 10)
	if !errors.Is(err, storage.ErrValidation) {
		t.Errorf("empty query embedding error = %v, want ErrValidation", err)
	}
}

func TestEmbeddingSerializationRoundTrip(t *testing.T) {
	original := []float64{0.125, -3.5, math.Pi, 0, 1e-12}

	decoded, err := deserializeEmbedding(serializeEmbedding(original))
	if err != nil {
		t.Fatalf("deserializeEmbedding() failed: %v", err)
	}
	if len(decoded) != len(original) {
		t.Fatalf("got %d values, want %d", len(decoded), len(original))
	}
	for i := range original {
		if decoded[i] != original[i] {
			t.Errorf("value %d = %g, want %g", i, decoded[i], original[i])
		}
	}

	if _, err := deserializeEmbedding([]byte{1, 2, 3}); err == nil {
		t.Error("malformed blob should fail to deserialize")
	}
}
