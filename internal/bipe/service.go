// Package bipe implements the BIPE escalation protocol: structured handoffs
// from the AI to the org's staff for pet-health alerts and questions the AI
// could not answer.
package bipe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oxypet/petcare-ai-platform/internal/convo"
	"github.com/oxypet/petcare-ai-platform/internal/whatsapp"
	"github.com/oxypet/petcare-ai-platform/pkg/logging"
)

// Trigger types as stored in bipe_protocol.
const (
	TriggerHealthAlert = "health_alert"
	TriggerAIUnknown   = "ai_unknown"
)

// ownerMarker prefixes questions raised from the owner assistant so staff
// can tell them apart from customer escalations.
const ownerMarker = "[OXY_ASSISTANT]"

// ErrNoActiveConversation is returned when a health alert is raised for a
// contact with no open conversation to attach it to.
var ErrNoActiveConversation = errors.New("bipe: no active conversation")

// Entry is one protocol row.
type Entry struct {
	ID             string
	OrganizationID string
	ConversationID string
	PatientID      string
	TriggerType    string
	ClientQuestion string
	Status         string
	Metadata       json.RawMessage
}

type entryDB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type conversationFinder interface {
	LatestActive(ctx context.Context, orgID, contactID string) (*convo.Conversation, error)
}

type settingsReader interface {
	GetBipePhone(ctx context.Context, orgID string) (string, error)
}

// Service raises protocol entries and notifies the configured staff phone.
type Service struct {
	db       entryDB
	convos   conversationFinder
	settings settingsReader
	sender   whatsapp.Sender
	logger   *logging.Logger
}

// NewService wires the protocol service. The pool, conversation store and
// settings reader are required.
func NewService(pool *pgxpool.Pool, convos conversationFinder, settings settingsReader, sender whatsapp.Sender, logger *logging.Logger) *Service {
	if pool == nil {
		panic("bipe: pgx pool required")
	}
	return newService(pool, convos, settings, sender, logger)
}

// NewServiceWithDB allows injecting a mock database for testing.
func NewServiceWithDB(db entryDB, convos conversationFinder, settings settingsReader, sender whatsapp.Sender, logger *logging.Logger) *Service {
	return newService(db, convos, settings, sender, logger)
}

func newService(db entryDB, convos conversationFinder, settings settingsReader, sender whatsapp.Sender, logger *logging.Logger) *Service {
	if convos == nil {
		panic("bipe: conversation store required")
	}
	if settings == nil {
		panic("bipe: settings reader required")
	}
	if sender == nil {
		sender = whatsapp.NewLogSender(logger)
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{db: db, convos: convos, settings: settings, sender: sender, logger: logger}
}

// CreateHealthAlert raises a health alert for a pet. The contact must have
// an active conversation; the alert rides on it so staff see the thread.
func (s *Service) CreateHealthAlert(ctx context.Context, orgID, contactID, patientID, description string) (*Entry, error) {
	conversation, err := s.convos.LatestActive(ctx, orgID, contactID)
	if err != nil {
		if errors.Is(err, convo.ErrConversationNotFound) {
			return nil, ErrNoActiveConversation
		}
		return nil, fmt.Errorf("bipe: find conversation: %w", err)
	}

	meta, _ := json.Marshal(map[string]string{"source": "client_ai", "patient_id": patientID})
	e := Entry{
		OrganizationID: orgID,
		ConversationID: conversation.ID,
		PatientID:      patientID,
		TriggerType:    TriggerHealthAlert,
		ClientQuestion: description,
		Status:         "pending",
		Metadata:       meta,
	}
	if err := s.insert(ctx, &e); err != nil {
		return nil, err
	}
	s.notify(ctx, orgID, fmt.Sprintf("🚨 Alerta de saúde registrado: %s", description))
	return &e, nil
}

// CreateTechnicalHelp raises an ai_unknown entry from the owner assistant.
// The question is marked so staff can tell it came from the assistant, not
// a customer.
func (s *Service) CreateTechnicalHelp(ctx context.Context, orgID, question string) (*Entry, error) {
	meta, _ := json.Marshal(map[string]string{"source": "oxy_assistant"})
	e := Entry{
		OrganizationID: orgID,
		TriggerType:    TriggerAIUnknown,
		ClientQuestion: fmt.Sprintf("%s %s", ownerMarker, question),
		Status:         "pending",
		Metadata:       meta,
	}
	if err := s.insert(ctx, &e); err != nil {
		return nil, err
	}
	s.notify(ctx, orgID, fmt.Sprintf("❓ A assistente precisou de ajuda: %s", question))
	return &e, nil
}

func (s *Service) insert(ctx context.Context, e *Entry) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO bipe_protocol (organization_id, conversation_id, patient_id,
		                           trigger_type, client_question, status, metadata)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, $5, $6, $7)
		RETURNING id
	`, e.OrganizationID, e.ConversationID, e.PatientID,
		e.TriggerType, e.ClientQuestion, e.Status, e.Metadata).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("bipe: insert entry: %w", err)
	}
	return nil
}

// notify pushes a heads-up to the org's BIPE phone. Delivery problems are
// logged, never surfaced: the protocol row is already saved.
func (s *Service) notify(ctx context.Context, orgID, text string) {
	phone, err := s.settings.GetBipePhone(ctx, orgID)
	if err != nil || phone == "" {
		s.logger.Warn("bipe phone unavailable", "org_id", orgID, "error", err)
		return
	}
	if err := s.sender.SendText(ctx, phone, text); err != nil {
		s.logger.Error("bipe notification failed", "org_id", orgID, "error", err)
	}
}
