package llm

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Interaction is one LLM round trip, recorded after every completion.
type Interaction struct {
	OrganizationID   string
	ContactID        string // empty for the owner agent
	Model            string
	PromptTokens     int
	CompletionTokens int
	CostCents        int
	Intent           string // tool name, "conversation" or "aurora_conversation"
}

type interactionDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// InteractionStore appends ai_interactions rows. The log is diagnostic, not
// authoritative: callers must treat write failures as non-fatal.
type InteractionStore struct {
	db interactionDB
}

// NewInteractionStore creates a store backed by a pgx pool.
func NewInteractionStore(pool *pgxpool.Pool) *InteractionStore {
	if pool == nil {
		panic("llm: pgx pool required")
	}
	return &InteractionStore{db: pool}
}

// NewInteractionStoreWithDB allows injecting a mock database for testing.
func NewInteractionStoreWithDB(db interactionDB) *InteractionStore {
	return &InteractionStore{db: db}
}

// Record inserts one interaction row.
func (s *InteractionStore) Record(ctx context.Context, in Interaction) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO ai_interactions (
			organization_id, contact_id, model,
			prompt_tokens, completion_tokens, total_cost_cents, intent_detected
		)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7)
	`, in.OrganizationID, in.ContactID, in.Model,
		in.PromptTokens, in.CompletionTokens, in.CostCents, in.Intent)
	if err != nil {
		return fmt.Errorf("llm: record interaction: %w", err)
	}
	return nil
}

// TotalCostCents sums the logged cost for an org, used by admin reporting.
func (s *InteractionStore) TotalCostCents(ctx context.Context, orgID string) (int64, error) {
	var total int64
	err := s.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(total_cost_cents), 0)
		FROM ai_interactions
		WHERE organization_id = $1
	`, orgID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("llm: sum interaction cost: %w", err)
	}
	return total, nil
}
