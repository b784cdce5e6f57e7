package org

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrSettingsNotFound indicates the org has no settings row yet.
var ErrSettingsNotFound = errors.New("org: settings not found")

// BusinessInfo is the free-form contact block inside organization_settings.
type BusinessInfo struct {
	Address  string `json:"address,omitempty"`
	Phone    string `json:"phone,omitempty"`
	WhatsApp string `json:"whatsapp,omitempty"`
}

// Settings is the orchestrator-facing slice of organization_settings.
// Mutations happen in onboarding flows; the orchestrators only read it.
type Settings struct {
	OrganizationID      string
	BusinessName        string
	BusinessDescription string
	BusinessInfo        BusinessInfo
	OperatingHours      OperatingHours
	PersonalityConfig   json.RawMessage
	BipePhoneNumber     string
}

type settingsDB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SettingsRepository reads organization settings.
type SettingsRepository struct {
	db settingsDB
}

// NewSettingsRepository creates a repository backed by a pgx pool.
func NewSettingsRepository(pool *pgxpool.Pool) *SettingsRepository {
	if pool == nil {
		panic("org: pgx pool required")
	}
	return &SettingsRepository{db: pool}
}

// NewSettingsRepositoryWithDB allows injecting a mock database for testing.
func NewSettingsRepositoryWithDB(db settingsDB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get loads the settings row for an org.
func (r *SettingsRepository) Get(ctx context.Context, orgID string) (*Settings, error) {
	var (
		s           Settings
		infoJSON    []byte
		hoursJSON   []byte
		personality []byte
		name, desc  *string
		bipePhone   *string
	)
	err := r.db.QueryRow(ctx, `
		SELECT organization_id, business_name, business_description,
		       business_info, operating_hours, ai_personality_config, bipe_phone_number
		FROM organization_settings
		WHERE organization_id = $1
	`, orgID).Scan(&s.OrganizationID, &name, &desc, &infoJSON, &hoursJSON, &personality, &bipePhone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSettingsNotFound
		}
		return nil, fmt.Errorf("org: load settings: %w", err)
	}

	if name != nil {
		s.BusinessName = *name
	}
	if desc != nil {
		s.BusinessDescription = *desc
	}
	if bipePhone != nil {
		s.BipePhoneNumber = *bipePhone
	}
	if len(infoJSON) > 0 {
		if err := json.Unmarshal(infoJSON, &s.BusinessInfo); err != nil {
			return nil, fmt.Errorf("org: decode business_info: %w", err)
		}
	}
	if len(hoursJSON) > 0 {
		if err := json.Unmarshal(hoursJSON, &s.OperatingHours); err != nil {
			return nil, fmt.Errorf("org: decode operating_hours: %w", err)
		}
	}
	s.PersonalityConfig = personality
	return &s, nil
}

// GetOperatingHours loads just the hours column, used on the booking path.
func (r *SettingsRepository) GetOperatingHours(ctx context.Context, orgID string) (OperatingHours, error) {
	var hoursJSON []byte
	err := r.db.QueryRow(ctx, `
		SELECT operating_hours
		FROM organization_settings
		WHERE organization_id = $1
	`, orgID).Scan(&hoursJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSettingsNotFound
		}
		return nil, fmt.Errorf("org: load operating hours: %w", err)
	}
	if len(hoursJSON) == 0 {
		return nil, nil
	}
	var hours OperatingHours
	if err := json.Unmarshal(hoursJSON, &hours); err != nil {
		return nil, fmt.Errorf("org: decode operating_hours: %w", err)
	}
	return hours, nil
}

// GetBipePhone returns the staff phone that receives escalation alerts.
// Orgs without one configured get an empty string.
func (r *SettingsRepository) GetBipePhone(ctx context.Context, orgID string) (string, error) {
	var phone *string
	err := r.db.QueryRow(ctx, `
		SELECT bipe_phone_number
		FROM organization_settings
		WHERE organization_id = $1
	`, orgID).Scan(&phone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrSettingsNotFound
		}
		return "", fmt.Errorf("org: load bipe phone: %w", err)
	}
	if phone == nil {
		return "", nil
	}
	return *phone, nil
}

// GetName returns the organization's display name from the organizations table.
func (r *SettingsRepository) GetName(ctx context.Context, orgID string) (string, error) {
	var name string
	err := r.db.QueryRow(ctx, `SELECT name FROM organizations WHERE id = $1`, orgID).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrSettingsNotFound
		}
		return "", fmt.Errorf("org: load organization name: %w", err)
	}
	return name, nil
}
