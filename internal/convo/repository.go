// Package convo stores WhatsApp conversations and their messages.
package convo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrConversationNotFound indicates the contact has no active conversation.
var ErrConversationNotFound = errors.New("convo: conversation not found")

// Conversation statuses.
const (
	StatusActive    = "active"
	StatusEscalated = "escalated"
	StatusClosed    = "closed"
)

// Message directions as stored.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// Conversation is one WhatsApp thread with a contact.
type Conversation struct {
	ID               string
	OrganizationID   string
	ContactID        string
	Status           string
	EscalatedAt      *time.Time
	EscalationReason string
}

// Message is one turn of a conversation.
type Message struct {
	ID             string
	ConversationID string
	Direction      string
	Content        string
	CreatedAt      time.Time
}

// Role maps the stored direction onto the chat-completion role.
func (m Message) Role() string {
	if m.Direction == DirectionInbound {
		return "user"
	}
	return "assistant"
}

type convoDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository reads and writes conversations and messages.
type Repository struct {
	db convoDB
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("convo: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting a mock database for testing.
func NewRepositoryWithDB(db convoDB) *Repository {
	return &Repository{db: db}
}

// LatestActive returns the contact's most recent active conversation.
func (r *Repository) LatestActive(ctx context.Context, orgID, contactID string) (*Conversation, error) {
	var c Conversation
	var reason *string
	err := r.db.QueryRow(ctx, `
		SELECT id, organization_id, contact_id, status, escalated_at, escalation_reason
		FROM conversations
		WHERE organization_id = $1 AND contact_id = $2 AND status = 'active'
		ORDER BY created_at DESC
		LIMIT 1
	`, orgID, contactID).Scan(&c.ID, &c.OrganizationID, &c.ContactID, &c.Status,
		&c.EscalatedAt, &reason)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("convo: latest active: %w", err)
	}
	if reason != nil {
		c.EscalationReason = *reason
	}
	return &c, nil
}

// GetOrCreateActive returns the contact's active conversation, opening a new
// one if none exists.
func (r *Repository) GetOrCreateActive(ctx context.Context, orgID, contactID string) (*Conversation, error) {
	c, err := r.LatestActive(ctx, orgID, contactID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, ErrConversationNotFound) {
		return nil, err
	}
	created := Conversation{OrganizationID: orgID, ContactID: contactID, Status: StatusActive}
	err = r.db.QueryRow(ctx, `
		INSERT INTO conversations (organization_id, contact_id, status)
		VALUES ($1, $2, 'active')
		RETURNING id
	`, orgID, contactID).Scan(&created.ID)
	if err != nil {
		return nil, fmt.Errorf("convo: create conversation: %w", err)
	}
	return &created, nil
}

// Escalate hands the conversation to a human, recording when and why.
func (r *Repository) Escalate(ctx context.Context, orgID, conversationID, reason string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE conversations
		SET status = 'escalated', escalated_at = now(), escalation_reason = $3
		WHERE organization_id = $1 AND id = $2
	`, orgID, conversationID, reason)
	if err != nil {
		return fmt.Errorf("convo: escalate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConversationNotFound
	}
	return nil
}

// AppendMessage records one turn on a conversation.
func (r *Repository) AppendMessage(ctx context.Context, conversationID, direction, content string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO messages (conversation_id, direction, content)
		VALUES ($1, $2, $3)
	`, conversationID, direction, content)
	if err != nil {
		return fmt.Errorf("convo: append message: %w", err)
	}
	return nil
}

// RecentMessages returns the conversation's last n messages in chronological
// order, ready to replay into a completion request.
func (r *Repository) RecentMessages(ctx context.Context, conversationID string, n int) ([]Message, error) {
	if n <= 0 {
		n = 5
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, conversation_id, direction, content, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, conversationID, n)
	if err != nil {
		return nil, fmt.Errorf("convo: recent messages: %w", err)
	}
	defer rows.Close()

	var newestFirst []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Direction, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("convo: scan message: %w", err)
		}
		newestFirst = append(newestFirst, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("convo: recent messages: %w", err)
	}

	out := make([]Message, 0, len(newestFirst))
	for i := len(newestFirst) - 1; i >= 0; i-- {
		out = append(out, newestFirst[i])
	}
	return out, nil
}
