// Package daycare stores hotel and daycare stays.
package daycare

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Stay statuses.
const (
	StatusReserved   = "reserved"
	StatusCheckedIn  = "checked_in"
	StatusCheckedOut = "checked_out"
	StatusCancelled  = "cancelled"
)

// Stay is one boarding or daycare reservation.
type Stay struct {
	ID             string
	OrganizationID string
	PatientID      string
	ContactID      string
	StayType       string
	CheckIn        time.Time
	CheckOut       time.Time
	Status         string
	Notes          string
}

type stayDB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository reads and writes stays.
type Repository struct {
	db stayDB
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("daycare: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting a mock database for testing.
func NewRepositoryWithDB(db stayDB) *Repository {
	return &Repository{db: db}
}

// CreateStay reserves a stay and returns it with its new id.
func (r *Repository) CreateStay(ctx context.Context, s Stay) (*Stay, error) {
	s.Status = StatusReserved
	err := r.db.QueryRow(ctx, `
		INSERT INTO daycare_stays (organization_id, patient_id, contact_id, stay_type,
		                           check_in, check_out, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, 'reserved', NULLIF($7, ''))
		RETURNING id
	`, s.OrganizationID, s.PatientID, s.ContactID, s.StayType, s.CheckIn, s.CheckOut, s.Notes).Scan(&s.ID)
	if err != nil {
		return nil, fmt.Errorf("daycare: create stay: %w", err)
	}
	return &s, nil
}

// ListStays returns stays, optionally filtered by pet and/or status,
// soonest check-in first.
func (r *Repository) ListStays(ctx context.Context, orgID, patientID, status string) ([]Stay, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, organization_id, patient_id, contact_id, stay_type,
		       check_in, check_out, status, COALESCE(notes, '')
		FROM daycare_stays
		WHERE organization_id = $1
		  AND ($2 = '' OR patient_id = $2)
		  AND ($3 = '' OR status = $3)
		ORDER BY check_in
	`, orgID, patientID, status)
	if err != nil {
		return nil, fmt.Errorf("daycare: list stays: %w", err)
	}
	defer rows.Close()

	var out []Stay
	for rows.Next() {
		var s Stay
		if err := rows.Scan(&s.ID, &s.OrganizationID, &s.PatientID, &s.ContactID,
			&s.StayType, &s.CheckIn, &s.CheckOut, &s.Status, &s.Notes); err != nil {
			return nil, fmt.Errorf("daycare: scan stay: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("daycare: list stays: %w", err)
	}
	return out, nil
}

// CheckInsBetween counts stays whose check-in falls inside [from, to).
func (r *Repository) CheckInsBetween(ctx context.Context, orgID string, from, to time.Time) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM daycare_stays
		WHERE organization_id = $1
		  AND check_in >= $2 AND check_in < $3
		  AND status <> 'cancelled'
	`, orgID, from, to).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("daycare: count check-ins: %w", err)
	}
	return n, nil
}

// CheckOutsBetween counts stays whose check-out falls inside [from, to).
func (r *Repository) CheckOutsBetween(ctx context.Context, orgID string, from, to time.Time) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM daycare_stays
		WHERE organization_id = $1
		  AND check_out >= $2 AND check_out < $3
		  AND status <> 'cancelled'
	`, orgID, from, to).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("daycare: count check-outs: %w", err)
	}
	return n, nil
}
