// Package knowledge stores the org's Q&A base used to ground AI answers.
package knowledge

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry is one Q&A pair.
type Entry struct {
	ID         string
	Question   string
	Answer     string
	Category   string
	UsageCount int
	Relevance  int
}

type knowledgeDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository reads and writes knowledge entries.
type Repository struct {
	db knowledgeDB
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("knowledge: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting a mock database for testing.
func NewRepositoryWithDB(db knowledgeDB) *Repository {
	return &Repository{db: db}
}

// Search matches the query against questions and answers. A question hit
// weighs 70, an answer hit 30, so entries matching both rank first.
func (r *Repository) Search(ctx context.Context, orgID, query string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 5
	}
	pattern := "%" + query + "%"
	rows, err := r.db.Query(ctx, `
		SELECT id, question, answer, COALESCE(category, ''), usage_count,
		       (CASE WHEN question ILIKE $2 THEN 70 ELSE 0 END +
		        CASE WHEN answer ILIKE $2 THEN 30 ELSE 0 END) AS relevance
		FROM knowledge_base
		WHERE organization_id = $1
		  AND (question ILIKE $2 OR answer ILIKE $2)
		ORDER BY relevance DESC, usage_count DESC
		LIMIT $3
	`, orgID, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("knowledge: search: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Question, &e.Answer, &e.Category, &e.UsageCount, &e.Relevance); err != nil {
			return nil, fmt.Errorf("knowledge: scan entry: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("knowledge: search: %w", err)
	}
	return out, nil
}

// MarkUsed bumps the entry's usage counter. Best-match bookkeeping only,
// callers ignore errors here at their discretion.
func (r *Repository) MarkUsed(ctx context.Context, orgID, entryID string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE knowledge_base
		SET usage_count = usage_count + 1, last_used_at = now()
		WHERE organization_id = $1 AND id = $2
	`, orgID, entryID)
	if err != nil {
		return fmt.Errorf("knowledge: mark used: %w", err)
	}
	return nil
}

// Count returns the number of entries the org has.
func (r *Repository) Count(ctx context.Context, orgID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM knowledge_base WHERE organization_id = $1
	`, orgID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("knowledge: count: %w", err)
	}
	return n, nil
}

// Add inserts a Q&A pair.
func (r *Repository) Add(ctx context.Context, orgID, question, answer, category string) (string, error) {
	var id string
	err := r.db.QueryRow(ctx, `
		INSERT INTO knowledge_base (organization_id, question, answer, category)
		VALUES ($1, $2, $3, NULLIF($4, ''))
		RETURNING id
	`, orgID, question, answer, category).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("knowledge: add entry: %w", err)
	}
	return id, nil
}
