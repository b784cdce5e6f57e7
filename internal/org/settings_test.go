package org

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsRepositoryGet(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	name := "Patas do Bairro"
	desc := "Banho, tosa e hotel para pets"
	bipe := "5511999990000"
	mock.ExpectQuery("SELECT organization_id, business_name").
		WithArgs("org-1").
		WillReturnRows(mock.NewRows([]string{
			"organization_id", "business_name", "business_description",
			"business_info", "operating_hours", "ai_personality_config", "bipe_phone_number",
		}).AddRow(
			"org-1", &name, &desc,
			[]byte(`{"address":"Rua A, 10","whatsapp":"5511988887777"}`),
			[]byte(`{"monday":{"open":"08:00","close":"18:00","closed":false}}`),
			[]byte(`{"client_ai":{"name":"Luna"}}`),
			&bipe,
		))

	repo := NewSettingsRepositoryWithDB(mock)
	got, err := repo.Get(context.Background(), "org-1")
	require.NoError(t, err)
	assert.Equal(t, "Patas do Bairro", got.BusinessName)
	assert.Equal(t, "Rua A, 10", got.BusinessInfo.Address)
	assert.Equal(t, "5511988887777", got.BusinessInfo.WhatsApp)
	assert.Equal(t, "08:00", got.OperatingHours["monday"].Open)
	assert.Equal(t, "5511999990000", got.BipePhoneNumber)
	assert.JSONEq(t, `{"client_ai":{"name":"Luna"}}`, string(got.PersonalityConfig))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsRepositoryGetNullColumns(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT organization_id, business_name").
		WithArgs("org-1").
		WillReturnRows(mock.NewRows([]string{
			"organization_id", "business_name", "business_description",
			"business_info", "operating_hours", "ai_personality_config", "bipe_phone_number",
		}).AddRow("org-1", nil, nil, []byte(nil), []byte(nil), []byte(nil), nil))

	repo := NewSettingsRepositoryWithDB(mock)
	got, err := repo.Get(context.Background(), "org-1")
	require.NoError(t, err)
	assert.Empty(t, got.BusinessName)
	assert.Nil(t, got.OperatingHours)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsRepositoryGetNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT organization_id, business_name").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	repo := NewSettingsRepositoryWithDB(mock)
	_, err = repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSettingsNotFound)
}

func TestSettingsRepositoryGetOperatingHours(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT operating_hours").
		WithArgs("org-1").
		WillReturnRows(mock.NewRows([]string{"operating_hours"}).
			AddRow([]byte(`{"sunday":{"closed":true}}`)))

	repo := NewSettingsRepositoryWithDB(mock)
	hours, err := repo.GetOperatingHours(context.Background(), "org-1")
	require.NoError(t, err)
	assert.True(t, hours["sunday"].Closed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsRepositoryGetName(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT name FROM organizations").
		WithArgs("org-1").
		WillReturnRows(mock.NewRows([]string{"name"}).AddRow("Patas do Bairro"))

	repo := NewSettingsRepositoryWithDB(mock)
	name, err := repo.GetName(context.Background(), "org-1")
	require.NoError(t, err)
	assert.Equal(t, "Patas do Bairro", name)
}
