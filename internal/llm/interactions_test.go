package llm

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
)

func TestRecordInsertsRow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec("INSERT INTO ai_interactions").
		WithArgs("org-1", "contact-1", "gpt-4o-mini", 120, 40, 1, "agendar_servico").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	store := NewInteractionStoreWithDB(mock)
	err = store.Record(context.Background(), Interaction{
		OrganizationID:   "org-1",
		ContactID:        "contact-1",
		Model:            "gpt-4o-mini",
		PromptTokens:     120,
		CompletionTokens: 40,
		CostCents:        1,
		Intent:           "agendar_servico",
	})
	if err != nil {
		t.Fatalf("Record returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTotalCostCents(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("SELECT COALESCE").
		WithArgs("org-1").
		WillReturnRows(pgxmock.NewRows([]string{"sum"}).AddRow(int64(420)))

	store := NewInteractionStoreWithDB(mock)
	total, err := store.TotalCostCents(context.Background(), "org-1")
	if err != nil {
		t.Fatalf("TotalCostCents returned error: %v", err)
	}
	if total != 420 {
		t.Fatalf("expected 420, got %d", total)
	}
}
