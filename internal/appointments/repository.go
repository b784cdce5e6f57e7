// Package appointments stores bookings and answers availability questions
// for the booking tools.
package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrAppointmentNotFound indicates no booking matched the lookup.
var ErrAppointmentNotFound = errors.New("appointments: appointment not found")

// Appointment statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no_show"
)

// Appointment is one booking.
type Appointment struct {
	ID              string
	OrganizationID  string
	ContactID       string
	PatientID       string
	ServiceID       string
	ScheduledAt     time.Time
	DurationMinutes int
	Status          string
	PriceCents      int
	Notes           string
	CreatedByAI     bool
}

// End is the moment the booking's slot frees up.
func (a Appointment) End() time.Time {
	return a.ScheduledAt.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// StatusCounts buckets bookings in a period by outcome.
type StatusCounts struct {
	Total     int
	Completed int
	Cancelled int
	NoShow    int
}

// CompletionRate is completed over total, in percent. Zero total yields zero.
func (c StatusCounts) CompletionRate() float64 {
	if c.Total == 0 {
		return 0
	}
	return float64(c.Completed) / float64(c.Total) * 100
}

type appointmentDB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository reads and writes appointments.
type Repository struct {
	db appointmentDB
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting a mock database for testing.
func NewRepositoryWithDB(db appointmentDB) *Repository {
	return &Repository{db: db}
}

// Create books an appointment. AI-created bookings always start pending so a
// human confirms them.
func (r *Repository) Create(ctx context.Context, a Appointment) (*Appointment, error) {
	a.Status = StatusPending
	a.CreatedByAI = true
	err := r.db.QueryRow(ctx, `
		INSERT INTO appointments (organization_id, contact_id, patient_id, service_id,
		                          scheduled_at, duration_minutes, status, price_cents,
		                          notes, created_by_ai)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), true)
		RETURNING id
	`, a.OrganizationID, a.ContactID, a.PatientID, a.ServiceID,
		a.ScheduledAt, a.DurationMinutes, a.Status, a.PriceCents, a.Notes).Scan(&a.ID)
	if err != nil {
		return nil, fmt.Errorf("appointments: create: %w", err)
	}
	return &a, nil
}

// ListForDay returns pending and confirmed bookings whose slot starts on the
// given calendar day, in start order. These are the rows that block slots.
func (r *Repository) ListForDay(ctx context.Context, orgID string, day time.Time) ([]Appointment, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)
	rows, err := r.db.Query(ctx, `
		SELECT id, organization_id, contact_id, patient_id, service_id,
		       scheduled_at, duration_minutes, status, price_cents,
		       COALESCE(notes, ''), created_by_ai
		FROM appointments
		WHERE organization_id = $1
		  AND scheduled_at >= $2 AND scheduled_at < $3
		  AND status IN ('pending', 'confirmed')
		ORDER BY scheduled_at
	`, orgID, start, end)
	if err != nil {
		return nil, fmt.Errorf("appointments: list for day: %w", err)
	}
	return scanAppointments(rows)
}

// ListBetween returns all bookings inside [from, to), in start order.
func (r *Repository) ListBetween(ctx context.Context, orgID string, from, to time.Time) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, organization_id, contact_id, patient_id, service_id,
		       scheduled_at, duration_minutes, status, price_cents,
		       COALESCE(notes, ''), created_by_ai
		FROM appointments
		WHERE organization_id = $1
		  AND scheduled_at >= $2 AND scheduled_at < $3
		ORDER BY scheduled_at
	`, orgID, from, to)
	if err != nil {
		return nil, fmt.Errorf("appointments: list between: %w", err)
	}
	return scanAppointments(rows)
}

// ListRecentByContact returns the contact's bookings from the trailing 30
// days plus anything upcoming, used to build conversation context.
func (r *Repository) ListRecentByContact(ctx context.Context, orgID, contactID string, now time.Time) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, organization_id, contact_id, patient_id, service_id,
		       scheduled_at, duration_minutes, status, price_cents,
		       COALESCE(notes, ''), created_by_ai
		FROM appointments
		WHERE organization_id = $1 AND contact_id = $2
		  AND scheduled_at >= $3
		ORDER BY scheduled_at
	`, orgID, contactID, now.AddDate(0, 0, -30))
	if err != nil {
		return nil, fmt.Errorf("appointments: list recent by contact: %w", err)
	}
	return scanAppointments(rows)
}

// CountsByStatus buckets bookings inside [from, to) by status.
func (r *Repository) CountsByStatus(ctx context.Context, orgID string, from, to time.Time) (StatusCounts, error) {
	var c StatusCounts
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'completed'),
		       COUNT(*) FILTER (WHERE status = 'cancelled'),
		       COUNT(*) FILTER (WHERE status = 'no_show')
		FROM appointments
		WHERE organization_id = $1
		  AND scheduled_at >= $2 AND scheduled_at < $3
	`, orgID, from, to).Scan(&c.Total, &c.Completed, &c.Cancelled, &c.NoShow)
	if err != nil {
		return StatusCounts{}, fmt.Errorf("appointments: counts by status: %w", err)
	}
	return c, nil
}

// CountBetween counts non-cancelled bookings inside [from, to).
func (r *Repository) CountBetween(ctx context.Context, orgID string, from, to time.Time) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM appointments
		WHERE organization_id = $1
		  AND scheduled_at >= $2 AND scheduled_at < $3
		  AND status <> 'cancelled'
	`, orgID, from, to).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("appointments: count between: %w", err)
	}
	return n, nil
}

// RevenueCents sums completed-booking revenue inside [from, to).
func (r *Repository) RevenueCents(ctx context.Context, orgID string, from, to time.Time) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(price_cents), 0)
		FROM appointments
		WHERE organization_id = $1
		  AND scheduled_at >= $2 AND scheduled_at < $3
		  AND status = 'completed'
	`, orgID, from, to).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("appointments: revenue: %w", err)
	}
	return total, nil
}

func scanAppointments(rows pgx.Rows) ([]Appointment, error) {
	defer rows.Close()
	var out []Appointment
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(&a.ID, &a.OrganizationID, &a.ContactID, &a.PatientID,
			&a.ServiceID, &a.ScheduledAt, &a.DurationMinutes, &a.Status,
			&a.PriceCents, &a.Notes, &a.CreatedByAI); err != nil {
			return nil, fmt.Errorf("appointments: scan: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: read rows: %w", err)
	}
	return out, nil
}
