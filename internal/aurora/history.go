package aurora

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// historyTTL bounds how long an idle owner conversation survives in Redis.
const historyTTL = 24 * time.Hour

const maxHistoryTurns = 20

// HistoryMessage is one turn of an owner conversation.
type HistoryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// HistoryStore keeps per-owner conversation history in Redis so the
// assistant remembers context across webhook deliveries.
type HistoryStore struct {
	rdb    *redis.Client
	tracer trace.Tracer
}

// NewHistoryStore panics on a nil client. Pass a nil tracer to use the
// global provider.
func NewHistoryStore(rdb *redis.Client, tracer trace.Tracer) *HistoryStore {
	if rdb == nil {
		panic("aurora: nil redis client")
	}
	if tracer == nil {
		tracer = otel.Tracer("aurora.history")
	}
	return &HistoryStore{rdb: rdb, tracer: tracer}
}

func historyKey(orgID, ownerPhone string) string {
	return fmt.Sprintf("aurora:history:%s:%s", orgID, ownerPhone)
}

// Load returns the stored history, oldest first. A missing key is an empty
// history, not an error.
func (s *HistoryStore) Load(ctx context.Context, orgID, ownerPhone string) ([]HistoryMessage, error) {
	ctx, span := s.tracer.Start(ctx, "HistoryStore.Load",
		trace.WithAttributes(attribute.String("org.id", orgID)))
	defer span.End()

	raw, err := s.rdb.Get(ctx, historyKey(orgID, ownerPhone)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("aurora: load history: %w", err)
	}

	var msgs []HistoryMessage
	if err := json.Unmarshal([]byte(raw), &msgs); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("aurora: decode history: %w", err)
	}
	return msgs, nil
}

// Save overwrites the history and refreshes the TTL. Only the most recent
// turns are kept so the prompt stays bounded.
func (s *HistoryStore) Save(ctx context.Context, orgID, ownerPhone string, msgs []HistoryMessage) error {
	ctx, span := s.tracer.Start(ctx, "HistoryStore.Save",
		trace.WithAttributes(
			attribute.String("org.id", orgID),
			attribute.Int("history.len", len(msgs)),
		))
	defer span.End()

	if len(msgs) > maxHistoryTurns {
		msgs = msgs[len(msgs)-maxHistoryTurns:]
	}

	raw, err := json.Marshal(msgs)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("aurora: encode history: %w", err)
	}
	if err := s.rdb.Set(ctx, historyKey(orgID, ownerPhone), raw, historyTTL).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("aurora: save history: %w", err)
	}
	return nil
}

// Clear drops the stored conversation.
func (s *HistoryStore) Clear(ctx context.Context, orgID, ownerPhone string) error {
	ctx, span := s.tracer.Start(ctx, "HistoryStore.Clear",
		trace.WithAttributes(attribute.String("org.id", orgID)))
	defer span.End()

	if err := s.rdb.Del(ctx, historyKey(orgID, ownerPhone)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("aurora: clear history: %w", err)
	}
	return nil
}
