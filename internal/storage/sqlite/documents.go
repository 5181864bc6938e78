package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/devlog-ai/devlog/internal/storage"
	"github.com/devlog-ai/devlog/pkg/types"
)

// GetDocument returns the flat text projection of one entity. Vector hits are
// resolved through this path so a stale index entry maps to ErrNotFound.
func (s *Store) GetDocument(ctx context.Context, entityType, entityID string) (*types.SearchDocument, error) {
	if !types.IsValidEntityType(entityType) {
		return nil, fmt.Errorf("%w: unknown entity type %q", storage.ErrValidation, entityType)
	}

	switch entityType {
	case types.EntityTypeBrief:
		brief, err := s.GetProjectBrief(ctx)
		if err != nil {
			return nil, err
		}
		return briefDocument(brief), nil

	case types.EntityTypeDecision:
		d, err := s.GetDecision(ctx, entityID)
		if err != nil {
			return nil, err
		}
		return decisionDocument(d), nil

	case types.EntityTypeTask:
		t, err := s.GetTask(ctx, entityID)
		if err != nil {
			return nil, err
		}
		return taskDocument(t), nil

	case types.EntityTypeNote:
		n, err := s.GetNote(ctx, entityID)
		if err != nil {
			return nil, err
		}
		return noteDocument(n), nil

	case types.EntityTypeReflection:
		r, err := s.GetReflection(ctx, entityID)
		if err != nil {
			return nil, err
		}
		return reflectionDocument(r), nil
	}

	return nil, fmt.Errorf("%w: unknown entity type %q", storage.ErrValidation, entityType)
}

// KeywordSearch performs case-insensitive substring matching across all
// searchable entities. It is the fallback path when embeddings are not
// available, and the lexical half of hybrid search otherwise.
func (s *Store) KeywordSearch(ctx context.Context, filter storage.SearchFilter) ([]types.SearchDocument, error) {
	filter.Normalize()
	query := strings.ToLower(strings.TrimSpace(filter.Query))
	if query == "" {
		return nil, fmt.Errorf("%w: search query is required", storage.ErrValidation)
	}

	all, err := s.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}

	var matches []types.SearchDocument
	for _, doc := range all {
		if !filter.WantsType(doc.EntityType) || !filter.InRange(doc.CreatedAt) {
			continue
		}
		haystack := strings.ToLower(doc.Title + "\n" + doc.Text)
		if strings.Contains(haystack, query) {
			matches = append(matches, doc)
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	if len(matches) > filter.Limit {
		matches = matches[:filter.Limit]
	}
	return matches, nil
}

// ListDocuments returns every searchable document. The index rebuild walks
// this list; it is a full scan by design of the rebuild procedure.
func (s *Store) ListDocuments(ctx context.Context) ([]types.SearchDocument, error) {
	var docs []types.SearchDocument

	brief, err := s.GetProjectBrief(ctx)
	if err == nil {
		docs = append(docs, *briefDocument(brief))
	} else if err != storage.ErrNotFound {
		return nil, err
	}

	if docs, err = s.collectDecisions(ctx, docs); err != nil {
		return nil, err
	}
	if docs, err = s.collectTasks(ctx, docs); err != nil {
		return nil, err
	}
	if docs, err = s.collectNotes(ctx, docs); err != nil {
		return nil, err
	}
	if docs, err = s.collectReflections(ctx, docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *Store) collectDecisions(ctx context.Context, docs []types.SearchDocument) ([]types.SearchDocument, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, rationale, created_at FROM decisions ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to scan decisions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var d types.Decision
		if err := rows.Scan(&d.ID, &d.Title, &d.Rationale, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan decision row: %w", err)
		}
		docs = append(docs, *decisionDocument(&d))
	}
	return docs, rows.Err()
}

func (s *Store) collectTasks(ctx context.Context, docs []types.SearchDocument) ([]types.SearchDocument, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, description, status, created_at, updated_at FROM tasks ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to scan tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var t types.Task
		var desc sql.NullString
		if err := rows.Scan(&t.ID, &t.Title, &desc, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan task row: %w", err)
		}
		if desc.Valid {
			t.Description = desc.String
		}
		docs = append(docs, *taskDocument(&t))
	}
	return docs, rows.Err()
}

func (s *Store) collectNotes(ctx context.Context, docs []types.SearchDocument) ([]types.SearchDocument, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, content, created_at FROM notes ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to scan notes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var n types.MemoryEntry
		if err := rows.Scan(&n.ID, &n.Content, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan note row: %w", err)
		}
		docs = append(docs, *noteDocument(&n))
	}
	return docs, rows.Err()
}

func (s *Store) collectReflections(ctx context.Context, docs []types.SearchDocument) ([]types.SearchDocument, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, content, created_at FROM session_reflections ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to scan reflections: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var r types.SessionReflection
		if err := rows.Scan(&r.SessionID, &r.Content, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reflection row: %w", err)
		}
		docs = append(docs, *reflectionDocument(&r))
	}
	return docs, rows.Err()
}

func briefDocument(b *types.ProjectBrief) *types.SearchDocument {
	text := b.Description
	if len(b.Goals) > 0 {
		text += "\n" + strings.Join(b.Goals, "\n")
	}
	return &types.SearchDocument{
		EntityID:   types.BriefEntityID,
		EntityType: types.EntityTypeBrief,
		Title:      b.Name,
		Text:       text,
		CreatedAt:  b.UpdatedAt,
	}
}

func decisionDocument(d *types.Decision) *types.SearchDocument {
	return &types.SearchDocument{
		EntityID:   d.ID,
		EntityType: types.EntityTypeDecision,
		Title:      d.Title,
		Text:       d.Rationale,
		CreatedAt:  d.CreatedAt,
	}
}

func taskDocument(t *types.Task) *types.SearchDocument {
	return &types.SearchDocument{
		EntityID:   t.ID,
		EntityType: types.EntityTypeTask,
		Title:      t.Title,
		Text:       t.Description,
		CreatedAt:  t.CreatedAt,
	}
}

func noteDocument(n *types.MemoryEntry) *types.SearchDocument {
	return &types.SearchDocument{
		EntityID:   n.ID,
		EntityType: types.EntityTypeNote,
		Title:      snippet(n.Content, 80),
		Text:       n.Content,
		CreatedAt:  n.CreatedAt,
	}
}

func reflectionDocument(r *types.SessionReflection) *types.SearchDocument {
	return &types.SearchDocument{
		EntityID:   r.SessionID,
		EntityType: types.EntityTypeReflection,
		Title:      snippet(r.Content, 80),
		Text:       r.Content,
		CreatedAt:  r.CreatedAt,
	}
}

// snippet truncates s to at most n runes for display titles.
func snippet(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
