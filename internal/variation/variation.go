// Package variation picks humanized response variations so the assistants
// never sound scripted. Orgs can store their own templates; when none match,
// a built-in fallback per template type answers.
package variation

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oxypet/petcare-ai-platform/pkg/logging"
)

// Template types.
const (
	TypeGreeting     = "greeting"
	TypeError        = "error"
	TypeConfirmation = "confirmation"
	TypeClosing      = "closing"
	TypeCelebration  = "celebration"
	TypeOpportunity  = "opportunity"
	TypeAlert        = "alert"
)

// Template contexts.
const (
	ContextGeneral          = "general"
	ContextMorning          = "morning"
	ContextAfternoon        = "afternoon"
	ContextNight            = "night"
	ContextMisunderstanding = "misunderstanding"
	ContextSystemError      = "system_error"
	ContextBookingConfirmed = "booking_confirmed"
	ContextPetRegistered    = "pet_registered"
	ContextMilestone        = "milestone"
	ContextSuggestion       = "suggestion"
	ContextWarning          = "warning"
)

var fallbacks = map[string]string{
	TypeGreeting:     "Oi! Como posso te ajudar? 😊",
	TypeError:        "Opa, não entendi muito bem. Pode reformular? 😅",
	TypeConfirmation: "Pronto! Tudo certo! ✅",
	TypeClosing:      "Qualquer coisa, estou por aqui! 😊",
	TypeCelebration:  "Que show! 🎉",
	TypeOpportunity:  "Tenho uma ideia boa! 💡",
	TypeAlert:        "Atenção para isso aqui! ⚠️",
}

// Fallback returns the built-in response for a template type.
func Fallback(templateType string) string {
	if v, ok := fallbacks[templateType]; ok {
		return v
	}
	return "Como posso ajudar?"
}

// ApplyPlaceholders substitutes {key} markers in a template.
func ApplyPlaceholders(template string, placeholders map[string]string) string {
	out := template
	for key, value := range placeholders {
		out = strings.ReplaceAll(out, "{"+key+"}", value)
	}
	return out
}

// GreetingContext maps an hour of day onto the greeting template context.
// Mornings run 06:00-11:59, nights start at 18:00.
func GreetingContext(hour int) string {
	switch {
	case hour >= 6 && hour < 12:
		return ContextMorning
	case hour >= 18:
		return ContextNight
	default:
		return ContextGeneral
	}
}

type templateDB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Service picks response variations.
type Service struct {
	db     templateDB
	logger *logging.Logger
	rand   *rand.Rand
	now    func() time.Time
}

// NewService builds a variation service over the templates table.
func NewService(pool *pgxpool.Pool, logger *logging.Logger) *Service {
	if pool == nil {
		panic("variation: pgx pool required")
	}
	return newService(pool, logger)
}

// NewServiceWithDB allows injecting a mock database for testing.
func NewServiceWithDB(db templateDB, logger *logging.Logger) *Service {
	return newService(db, logger)
}

func newService(db templateDB, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		db:     db,
		logger: logger,
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
		now:    time.Now,
	}
}

// Random returns one variation for the template type and context, with
// placeholders applied. Database trouble or an empty template set degrade to
// the built-in fallback so a reply always exists.
func (s *Service) Random(ctx context.Context, orgID, templateType, templateContext string, placeholders map[string]string) string {
	variations, err := s.load(ctx, orgID, templateType, templateContext)
	if err != nil {
		s.logger.Warn("response template lookup failed",
			"org_id", orgID, "template_type", templateType, "error", err)
	}
	var chosen string
	if len(variations) == 0 {
		chosen = Fallback(templateType)
	} else {
		chosen = variations[s.rand.Intn(len(variations))]
	}
	return ApplyPlaceholders(chosen, placeholders)
}

// TimeBasedGreeting greets according to the current hour, signed with the
// assistant's name.
func (s *Service) TimeBasedGreeting(ctx context.Context, orgID, aiName string) string {
	greeting := s.Random(ctx, orgID, TypeGreeting, GreetingContext(s.now().Hour()), nil)
	return strings.ReplaceAll(greeting, "{name}", aiName)
}

// BookingConfirmation humanizes a booking confirmation.
func (s *Service) BookingConfirmation(ctx context.Context, orgID, date, timeOfDay, serviceName string) string {
	if serviceName == "" {
		serviceName = "o serviço"
	}
	return s.Random(ctx, orgID, TypeConfirmation, ContextBookingConfirmed, map[string]string{
		"date":    date,
		"time":    timeOfDay,
		"service": serviceName,
	})
}

// PetRegistered humanizes a pet-registration confirmation.
func (s *Service) PetRegistered(ctx context.Context, orgID, petName string) string {
	return s.Random(ctx, orgID, TypeConfirmation, ContextPetRegistered, map[string]string{
		"pet_name": petName,
	})
}

// ErrorMessage returns a humanized error reply.
func (s *Service) ErrorMessage(ctx context.Context, orgID, errorContext string) string {
	if errorContext == "" {
		errorContext = ContextMisunderstanding
	}
	return s.Random(ctx, orgID, TypeError, errorContext, nil)
}

func (s *Service) load(ctx context.Context, orgID, templateType, templateContext string) ([]string, error) {
	if s.db == nil {
		return nil, nil
	}
	rows, err := s.db.Query(ctx, `
		SELECT variations
		FROM ai_response_templates
		WHERE organization_id = $1 AND template_type = $2 AND is_active = true
		  AND ($3 = '' OR context = $3 OR context IS NULL)
	`, orgID, templateType, templateContext)
	if err != nil {
		return nil, fmt.Errorf("variation: load templates: %w", err)
	}
	defer rows.Close()

	var all []string
	for rows.Next() {
		var variations []string
		if err := rows.Scan(&variations); err != nil {
			return nil, fmt.Errorf("variation: scan template: %w", err)
		}
		all = append(all, variations...)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("variation: load templates: %w", err)
	}
	return all, nil
}
