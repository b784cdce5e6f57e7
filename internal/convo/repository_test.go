package convo

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageRole(t *testing.T) {
	assert.Equal(t, "user", Message{Direction: DirectionInbound}.Role())
	assert.Equal(t, "assistant", Message{Direction: DirectionOutbound}.Role())
}

func TestGetOrCreateActiveCreates(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT id, organization_id, contact_id").
		WithArgs("org-1", "ct-1").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("INSERT INTO conversations").
		WithArgs("org-1", "ct-1").
		WillReturnRows(mock.NewRows([]string{"id"}).AddRow("conv-1"))

	repo := NewRepositoryWithDB(mock)
	c, err := repo.GetOrCreateActive(context.Background(), "org-1", "ct-1")
	require.NoError(t, err)
	assert.Equal(t, "conv-1", c.ID)
	assert.Equal(t, StatusActive, c.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEscalateNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("UPDATE conversations").
		WithArgs("org-1", "missing", "pedido do cliente").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := NewRepositoryWithDB(mock)
	err = repo.Escalate(context.Background(), "org-1", "missing", "pedido do cliente")
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestRecentMessagesChronological(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	base := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT id, conversation_id, direction").
		WithArgs("conv-1", 5).
		WillReturnRows(mock.NewRows([]string{"id", "conversation_id", "direction", "content", "created_at"}).
			AddRow("m3", "conv-1", "outbound", "Claro!", base.Add(2*time.Minute)).
			AddRow("m2", "conv-1", "inbound", "Tem horário amanhã?", base.Add(time.Minute)).
			AddRow("m1", "conv-1", "inbound", "Oi", base))

	repo := NewRepositoryWithDB(mock)
	msgs, err := repo.RecentMessages(context.Background(), "conv-1", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "m1", msgs[0].ID)
	assert.Equal(t, "m3", msgs[2].ID)
	assert.Equal(t, "user", msgs[0].Role())
	assert.Equal(t, "assistant", msgs[2].Role())
}
