// Package contacts stores the org's pet-owner contacts as synced from
// WhatsApp conversations.
package contacts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrContactNotFound indicates no contact matched the lookup.
var ErrContactNotFound = errors.New("contacts: contact not found")

// Contact is one pet owner reachable over WhatsApp.
type Contact struct {
	ID             string
	OrganizationID string
	FullName       string
	PhoneNumber    string
	Email          string
}

// InactiveContact is a contact whose last appointment is older than the
// configured window, surfaced as a win-back opportunity.
type InactiveContact struct {
	Contact
	LastAppointmentAt time.Time
	DaysInactive      int
}

// NormalizePhone strips everything but digits so "+55 (11) 99999-0000"
// and "5511999990000" match the same row.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

type contactDB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository reads and looks up contacts.
type Repository struct {
	db contactDB
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("contacts: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting a mock database for testing.
func NewRepositoryWithDB(db contactDB) *Repository {
	return &Repository{db: db}
}

// Get loads one contact by id.
func (r *Repository) Get(ctx context.Context, orgID, contactID string) (*Contact, error) {
	var c Contact
	err := r.db.QueryRow(ctx, `
		SELECT id, organization_id, COALESCE(full_name, ''), phone_number, COALESCE(email, '')
		FROM contacts
		WHERE organization_id = $1 AND id = $2
	`, orgID, contactID).Scan(&c.ID, &c.OrganizationID, &c.FullName, &c.PhoneNumber, &c.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrContactNotFound
		}
		return nil, fmt.Errorf("contacts: get contact: %w", err)
	}
	return &c, nil
}

// FindByPhone matches a contact by normalized phone number.
func (r *Repository) FindByPhone(ctx context.Context, orgID, phone string) (*Contact, error) {
	normalized := NormalizePhone(phone)
	if normalized == "" {
		return nil, ErrContactNotFound
	}
	var c Contact
	err := r.db.QueryRow(ctx, `
		SELECT id, organization_id, COALESCE(full_name, ''), phone_number, COALESCE(email, '')
		FROM contacts
		WHERE organization_id = $1
		  AND regexp_replace(phone_number, '\D', '', 'g') = $2
		LIMIT 1
	`, orgID, normalized).Scan(&c.ID, &c.OrganizationID, &c.FullName, &c.PhoneNumber, &c.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrContactNotFound
		}
		return nil, fmt.Errorf("contacts: find by phone: %w", err)
	}
	return &c, nil
}

// FindInactive returns contacts whose most recent appointment is at least
// `days` days old, most stale first.
func (r *Repository) FindInactive(ctx context.Context, orgID string, days, limit int) ([]InactiveContact, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(ctx, `
		SELECT c.id, c.organization_id, COALESCE(c.full_name, ''), c.phone_number,
		       COALESCE(c.email, ''), MAX(a.scheduled_at) AS last_at
		FROM contacts c
		JOIN appointments a ON a.contact_id = c.id
		WHERE c.organization_id = $1
		GROUP BY c.id, c.organization_id, c.full_name, c.phone_number, c.email
		HAVING MAX(a.scheduled_at) < now() - make_interval(days => $2)
		ORDER BY last_at ASC
		LIMIT $3
	`, orgID, days, limit)
	if err != nil {
		return nil, fmt.Errorf("contacts: find inactive: %w", err)
	}
	defer rows.Close()

	now := time.Now()
	var out []InactiveContact
	for rows.Next() {
		var ic InactiveContact
		if err := rows.Scan(&ic.ID, &ic.OrganizationID, &ic.FullName, &ic.PhoneNumber,
			&ic.Email, &ic.LastAppointmentAt); err != nil {
			return nil, fmt.Errorf("contacts: scan inactive: %w", err)
		}
		ic.DaysInactive = int(now.Sub(ic.LastAppointmentAt).Hours() / 24)
		out = append(out, ic)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("contacts: find inactive: %w", err)
	}
	return out, nil
}

// CountInactive counts contacts past the inactivity window.
func (r *Repository) CountInactive(ctx context.Context, orgID string, days int) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM (
			SELECT c.id
			FROM contacts c
			JOIN appointments a ON a.contact_id = c.id
			WHERE c.organization_id = $1
			GROUP BY c.id
			HAVING MAX(a.scheduled_at) < now() - make_interval(days => $2)
		) inactive
	`, orgID, days).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("contacts: count inactive: %w", err)
	}
	return n, nil
}
