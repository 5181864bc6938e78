package types

import "time"

// Searchable entity type constants. These tag VectorRecords and search
// results so callers can filter by what kind of entity produced the text.
const (
	EntityTypeBrief      = "brief"
	EntityTypeDecision   = "decision"
	EntityTypeTask       = "task"
	EntityTypeNote       = "note"
	EntityTypeReflection = "reflection"
)

// BriefEntityID is the fixed entity ID used for the project brief singleton
// in the vector index and search results.
const BriefEntityID = "brief:project"

// ValidEntityTypes is a slice of all searchable entity types for validation.
var ValidEntityTypes = []string{
	EntityTypeBrief,
	EntityTypeDecision,
	EntityTypeTask,
	EntityTypeNote,
	EntityTypeReflection,
}

// IsValidEntityType checks if the given entity type is valid.
func IsValidEntityType(entityType string) bool {
	for _, validType := range ValidEntityTypes {
		if validType == entityType {
			return true
		}
	}
	return false
}

// VectorRecord is the shadow of a relational entity in the vector index:
// its embedding plus a snapshot of the text the embedding was derived from.
// Records are not authoritative: the index is a rebuildable cache keyed by
// (entity_type, entity_id), and it may lag the relational store.
type VectorRecord struct {
	EntityID     string    `json:"entity_id"`
	EntityType   string    `json:"entity_type"`
	Embedding    []float64 `json:"-"`
	TextSnapshot string    `json:"text_snapshot"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SearchDocument is the flat text projection of a searchable entity, used by
// both the keyword path and for resolving vector hits back to authoritative
// rows. Title is empty for entities that have no natural title.
type SearchDocument struct {
	EntityID   string    `json:"entity_id"`
	EntityType string    `json:"entity_type"`
	Title      string    `json:"title,omitempty"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}
