// Package catalog holds the org's sellable services: grooming, daycare,
// training and friends. The orchestrators read it to price and describe
// what can be booked.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrServiceNotFound indicates no matching active service.
var ErrServiceNotFound = errors.New("catalog: service not found")

// Service is one bookable offering.
type Service struct {
	ID              string
	OrganizationID  string
	Name            string
	Description     string
	Category        string
	DurationMinutes int
	PriceCents      int
	Active          bool
}

// ServiceRevenue aggregates completed-appointment revenue for one service.
type ServiceRevenue struct {
	ServiceID         string
	ServiceName       string
	TotalBookings     int
	TotalRevenueCents int64
}

type serviceDB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository reads the service catalog.
type Repository struct {
	db serviceDB
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("catalog: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting a mock database for testing.
func NewRepositoryWithDB(db serviceDB) *Repository {
	return &Repository{db: db}
}

// ListActive returns the org's active services ordered by category then name.
func (r *Repository) ListActive(ctx context.Context, orgID string) ([]Service, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, organization_id, name, COALESCE(description, ''), category,
		       duration_minutes, price_cents, active
		FROM services
		WHERE organization_id = $1 AND active = true
		ORDER BY category, name
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("catalog: list services: %w", err)
	}
	defer rows.Close()

	var services []Service
	for rows.Next() {
		var s Service
		if err := rows.Scan(&s.ID, &s.OrganizationID, &s.Name, &s.Description,
			&s.Category, &s.DurationMinutes, &s.PriceCents, &s.Active); err != nil {
			return nil, fmt.Errorf("catalog: scan service: %w", err)
		}
		services = append(services, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: list services: %w", err)
	}
	return services, nil
}

// GetByCategory returns one active service in a category, or
// ErrServiceNotFound. Used by tool handlers that book by category
// (training plans, daycare stays).
func (r *Repository) GetByCategory(ctx context.Context, orgID, category string) (*Service, error) {
	var s Service
	err := r.db.QueryRow(ctx, `
		SELECT id, organization_id, name, COALESCE(description, ''), category,
		       duration_minutes, price_cents, active
		FROM services
		WHERE organization_id = $1 AND category = $2 AND active = true
		ORDER BY name
		LIMIT 1
	`, orgID, category).Scan(&s.ID, &s.OrganizationID, &s.Name, &s.Description,
		&s.Category, &s.DurationMinutes, &s.PriceCents, &s.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("catalog: get service by category: %w", err)
	}
	return &s, nil
}

// Get returns one service by id.
func (r *Repository) Get(ctx context.Context, orgID, serviceID string) (*Service, error) {
	var s Service
	err := r.db.QueryRow(ctx, `
		SELECT id, organization_id, name, COALESCE(description, ''), category,
		       duration_minutes, price_cents, active
		FROM services
		WHERE organization_id = $1 AND id = $2
	`, orgID, serviceID).Scan(&s.ID, &s.OrganizationID, &s.Name, &s.Description,
		&s.Category, &s.DurationMinutes, &s.PriceCents, &s.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("catalog: get service: %w", err)
	}
	return &s, nil
}

// Revenue aggregates completed appointments per service inside [from, to),
// highest revenue first.
func (r *Repository) Revenue(ctx context.Context, orgID string, from, to time.Time) ([]ServiceRevenue, error) {
	rows, err := r.db.Query(ctx, `
		SELECT s.id, s.name, COUNT(a.id), COALESCE(SUM(a.price_cents), 0)
		FROM services s
		JOIN appointments a ON a.service_id = s.id
		WHERE s.organization_id = $1
		  AND a.status = 'completed'
		  AND a.scheduled_at >= $2 AND a.scheduled_at < $3
		GROUP BY s.id, s.name
		ORDER BY COALESCE(SUM(a.price_cents), 0) DESC
	`, orgID, from, to)
	if err != nil {
		return nil, fmt.Errorf("catalog: service revenue: %w", err)
	}
	defer rows.Close()

	var out []ServiceRevenue
	for rows.Next() {
		var rv ServiceRevenue
		if err := rows.Scan(&rv.ServiceID, &rv.ServiceName, &rv.TotalBookings, &rv.TotalRevenueCents); err != nil {
			return nil, fmt.Errorf("catalog: scan revenue: %w", err)
		}
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: service revenue: %w", err)
	}
	return out, nil
}
