// Package training stores dog-training plans.
package training

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Plan statuses.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Plan is one training engagement for a pet.
type Plan struct {
	ID              string
	OrganizationID  string
	PatientID       string
	ContactID       string
	Goal            string
	SessionCount    int
	WeeklyFrequency int
	Status          string
	StartDate       time.Time
}

type planDB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository reads and writes training plans.
type Repository struct {
	db planDB
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("training: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting a mock database for testing.
func NewRepositoryWithDB(db planDB) *Repository {
	return &Repository{db: db}
}

// Create opens an active plan and returns it with its new id.
func (r *Repository) Create(ctx context.Context, p Plan) (*Plan, error) {
	p.Status = StatusActive
	if p.StartDate.IsZero() {
		p.StartDate = time.Now()
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO training_plans (organization_id, patient_id, contact_id, goal,
		                            session_count, weekly_frequency, status, start_date)
		VALUES ($1, $2, $3, $4, $5, $6, 'active', $7)
		RETURNING id
	`, p.OrganizationID, p.PatientID, p.ContactID, p.Goal,
		p.SessionCount, p.WeeklyFrequency, p.StartDate).Scan(&p.ID)
	if err != nil {
		return nil, fmt.Errorf("training: create plan: %w", err)
	}
	return &p, nil
}

// List returns the org's plans, optionally filtered to one pet, newest first.
func (r *Repository) List(ctx context.Context, orgID, patientID string) ([]Plan, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, organization_id, patient_id, contact_id, goal,
		       session_count, weekly_frequency, status, start_date
		FROM training_plans
		WHERE organization_id = $1
		  AND ($2 = '' OR patient_id = $2)
		ORDER BY start_date DESC
	`, orgID, patientID)
	if err != nil {
		return nil, fmt.Errorf("training: list plans: %w", err)
	}
	defer rows.Close()

	var out []Plan
	for rows.Next() {
		var p Plan
		if err := rows.Scan(&p.ID, &p.OrganizationID, &p.PatientID, &p.ContactID,
			&p.Goal, &p.SessionCount, &p.WeeklyFrequency, &p.Status, &p.StartDate); err != nil {
			return nil, fmt.Errorf("training: scan plan: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("training: list plans: %w", err)
	}
	return out, nil
}

// CountActive counts the org's active plans.
func (r *Repository) CountActive(ctx context.Context, orgID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM training_plans
		WHERE organization_id = $1 AND status = 'active'
	`, orgID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("training: count active: %w", err)
	}
	return n, nil
}
