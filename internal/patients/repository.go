// Package patients stores the pets under each contact's care.
package patients

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrPatientNotFound indicates no pet matched the lookup.
var ErrPatientNotFound = errors.New("patients: patient not found")

// Known species values. Anything else is stored as "other".
const (
	SpeciesDog    = "dog"
	SpeciesCat    = "cat"
	SpeciesBird   = "bird"
	SpeciesRabbit = "rabbit"
	SpeciesOther  = "other"
)

var speciesPT = map[string]string{
	SpeciesDog:    "Cachorro",
	SpeciesCat:    "Gato",
	SpeciesBird:   "Pássaro",
	SpeciesRabbit: "Coelho",
	SpeciesOther:  "Outro",
}

// SpeciesPT renders a species value in Portuguese for prompts and replies.
func SpeciesPT(species string) string {
	if name, ok := speciesPT[species]; ok {
		return name
	}
	return species
}

// NormalizeSpecies maps free-form input onto the stored enum.
func NormalizeSpecies(species string) string {
	switch species {
	case SpeciesDog, SpeciesCat, SpeciesBird, SpeciesRabbit:
		return species
	case "cachorro", "cão", "cao":
		return SpeciesDog
	case "gato", "gata":
		return SpeciesCat
	case "passaro", "pássaro", "ave":
		return SpeciesBird
	case "coelho":
		return SpeciesRabbit
	default:
		return SpeciesOther
	}
}

// Patient is one pet.
type Patient struct {
	ID             string
	OrganizationID string
	ContactID      string
	Name           string
	Species        string
	Breed          string
	AgeYears       int
	AgeMonths      int
	Gender         string
	HealthNotes    string
	Active         bool
}

// SpeciesCount is one bucket of the species distribution.
type SpeciesCount struct {
	Species string
	Count   int
}

type patientDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository reads and writes patients.
type Repository struct {
	db patientDB
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("patients: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting a mock database for testing.
func NewRepositoryWithDB(db patientDB) *Repository {
	return &Repository{db: db}
}

// Create registers a pet for a contact and returns it with its new id.
func (r *Repository) Create(ctx context.Context, p Patient) (*Patient, error) {
	p.Species = NormalizeSpecies(p.Species)
	p.Active = true
	err := r.db.QueryRow(ctx, `
		INSERT INTO patients (organization_id, contact_id, name, species, breed,
		                      age_years, age_months, gender, active)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, NULLIF($8, ''), true)
		RETURNING id
	`, p.OrganizationID, p.ContactID, p.Name, p.Species, p.Breed,
		p.AgeYears, p.AgeMonths, p.Gender).Scan(&p.ID)
	if err != nil {
		return nil, fmt.Errorf("patients: create patient: %w", err)
	}
	return &p, nil
}

// Get loads one pet by id.
func (r *Repository) Get(ctx context.Context, orgID, patientID string) (*Patient, error) {
	var p Patient
	err := r.db.QueryRow(ctx, `
		SELECT id, organization_id, contact_id, name, species, COALESCE(breed, ''),
		       COALESCE(age_years, 0), COALESCE(age_months, 0), COALESCE(gender, ''),
		       COALESCE(health_notes, ''), active
		FROM patients
		WHERE organization_id = $1 AND id = $2
	`, orgID, patientID).Scan(&p.ID, &p.OrganizationID, &p.ContactID, &p.Name, &p.Species,
		&p.Breed, &p.AgeYears, &p.AgeMonths, &p.Gender, &p.HealthNotes, &p.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("patients: get patient: %w", err)
	}
	return &p, nil
}

// ListByContact returns the contact's active pets, oldest registration first.
func (r *Repository) ListByContact(ctx context.Context, orgID, contactID string) ([]Patient, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, organization_id, contact_id, name, species, COALESCE(breed, ''),
		       COALESCE(age_years, 0), COALESCE(age_months, 0), COALESCE(gender, ''),
		       COALESCE(health_notes, ''), active
		FROM patients
		WHERE organization_id = $1 AND contact_id = $2 AND active = true
		ORDER BY created_at
	`, orgID, contactID)
	if err != nil {
		return nil, fmt.Errorf("patients: list by contact: %w", err)
	}
	return scanPatients(rows)
}

// Search filters active pets by species and/or breed (case-insensitive
// substring), capped at 20 rows.
func (r *Repository) Search(ctx context.Context, orgID, species, breed string) ([]Patient, error) {
	if species != "" {
		species = NormalizeSpecies(species)
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, organization_id, contact_id, name, species, COALESCE(breed, ''),
		       COALESCE(age_years, 0), COALESCE(age_months, 0), COALESCE(gender, ''),
		       COALESCE(health_notes, ''), active
		FROM patients
		WHERE organization_id = $1 AND active = true
		  AND ($2 = '' OR species = $2)
		  AND ($3 = '' OR breed ILIKE '%' || $3 || '%')
		ORDER BY name
		LIMIT 20
	`, orgID, species, breed)
	if err != nil {
		return nil, fmt.Errorf("patients: search: %w", err)
	}
	return scanPatients(rows)
}

// AppendHealthNote adds a dated note to the pet's health history.
func (r *Repository) AppendHealthNote(ctx context.Context, orgID, patientID, note string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE patients
		SET health_notes = COALESCE(health_notes || E'\n', '') || $3,
		    updated_at = now()
		WHERE organization_id = $1 AND id = $2
	`, orgID, patientID, note)
	if err != nil {
		return fmt.Errorf("patients: append health note: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	return nil
}

// SpeciesDistribution counts active pets per species, largest bucket first.
func (r *Repository) SpeciesDistribution(ctx context.Context, orgID string) ([]SpeciesCount, error) {
	rows, err := r.db.Query(ctx, `
		SELECT species, COUNT(*)
		FROM patients
		WHERE organization_id = $1 AND active = true
		GROUP BY species
		ORDER BY COUNT(*) DESC
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("patients: species distribution: %w", err)
	}
	defer rows.Close()

	var out []SpeciesCount
	for rows.Next() {
		var sc SpeciesCount
		if err := rows.Scan(&sc.Species, &sc.Count); err != nil {
			return nil, fmt.Errorf("patients: scan distribution: %w", err)
		}
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("patients: species distribution: %w", err)
	}
	return out, nil
}

// CommonBreeds lists the most frequent breeds among active pets.
func (r *Repository) CommonBreeds(ctx context.Context, orgID string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := r.db.Query(ctx, `
		SELECT breed
		FROM patients
		WHERE organization_id = $1 AND active = true AND breed IS NOT NULL AND breed <> ''
		GROUP BY breed
		ORDER BY COUNT(*) DESC
		LIMIT $2
	`, orgID, limit)
	if err != nil {
		return nil, fmt.Errorf("patients: common breeds: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var breed string
		if err := rows.Scan(&breed); err != nil {
			return nil, fmt.Errorf("patients: scan breed: %w", err)
		}
		out = append(out, breed)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("patients: common breeds: %w", err)
	}
	return out, nil
}

// CountWithoutActiveTraining counts active dogs with no active training plan,
// an upsell signal on the owner dashboard.
func (r *Repository) CountWithoutActiveTraining(ctx context.Context, orgID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM patients p
		WHERE p.organization_id = $1 AND p.active = true
		  AND NOT EXISTS (
			SELECT 1 FROM training_plans t
			WHERE t.patient_id = p.id AND t.status = 'active'
		  )
	`, orgID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("patients: count without training: %w", err)
	}
	return n, nil
}

func scanPatients(rows pgx.Rows) ([]Patient, error) {
	defer rows.Close()
	var out []Patient
	for rows.Next() {
		var p Patient
		if err := rows.Scan(&p.ID, &p.OrganizationID, &p.ContactID, &p.Name, &p.Species,
			&p.Breed, &p.AgeYears, &p.AgeMonths, &p.Gender, &p.HealthNotes, &p.Active); err != nil {
			return nil, fmt.Errorf("patients: scan patient: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("patients: read patients: %w", err)
	}
	return out, nil
}
