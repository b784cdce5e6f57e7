package contacts

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+55 (11) 99999-0000", "5511999990000"},
		{"5511999990000", "5511999990000"},
		{"abc", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePhone(tt.in), tt.in)
	}
}

func TestFindByPhoneNormalizesArgument(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT id, organization_id").
		WithArgs("org-1", "5511999990000").
		WillReturnRows(mock.NewRows([]string{"id", "organization_id", "full_name", "phone_number", "email"}).
			AddRow("ct-1", "org-1", "Maria Souza", "+55 11 99999-0000", ""))

	repo := NewRepositoryWithDB(mock)
	c, err := repo.FindByPhone(context.Background(), "org-1", "+55 (11) 99999-0000")
	require.NoError(t, err)
	assert.Equal(t, "ct-1", c.ID)
	assert.Equal(t, "Maria Souza", c.FullName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByPhoneEmptyAfterNormalize(t *testing.T) {
	repo := NewRepositoryWithDB(nil)
	_, err := repo.FindByPhone(context.Background(), "org-1", "sem telefone")
	assert.ErrorIs(t, err, ErrContactNotFound)
}

func TestGetNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT id, organization_id").
		WithArgs("org-1", "missing").
		WillReturnError(pgx.ErrNoRows)

	repo := NewRepositoryWithDB(mock)
	_, err = repo.Get(context.Background(), "org-1", "missing")
	assert.ErrorIs(t, err, ErrContactNotFound)
}

func TestFindInactive(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	lastAt := time.Now().AddDate(0, 0, -45)
	mock.ExpectQuery("SELECT c.id, c.organization_id").
		WithArgs("org-1", 30, 20).
		WillReturnRows(mock.NewRows([]string{"id", "organization_id", "full_name", "phone_number", "email", "last_at"}).
			AddRow("ct-1", "org-1", "Maria Souza", "5511999990000", "", lastAt))

	repo := NewRepositoryWithDB(mock)
	inactive, err := repo.FindInactive(context.Background(), "org-1", 30, 0)
	require.NoError(t, err)
	require.Len(t, inactive, 1)
	assert.Equal(t, 45, inactive[0].DaysInactive)
	require.NoError(t, mock.ExpectationsWereMet())
}
