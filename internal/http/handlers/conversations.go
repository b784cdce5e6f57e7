package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/oxypet/petcare-ai-platform/internal/tenancy"
	"github.com/oxypet/petcare-ai-platform/pkg/logging"
)

// ClientAssistant answers customer messages.
type ClientAssistant interface {
	ProcessMessage(ctx context.Context, orgID, contactID, text string) string
}

// OwnerAssistant answers business-owner messages.
type OwnerAssistant interface {
	ProcessOwnerMessage(ctx context.Context, orgID, ownerPhone, ownerName, text string) string
}

// ConversationHandler exposes both assistants over HTTP. The WhatsApp
// gateway posts inbound messages here and relays the reply back.
type ConversationHandler struct {
	client ClientAssistant
	owner  OwnerAssistant
	logger *logging.Logger
}

func NewConversationHandler(client ClientAssistant, owner OwnerAssistant, logger *logging.Logger) *ConversationHandler {
	if client == nil || owner == nil {
		panic("handlers: both assistants required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ConversationHandler{client: client, owner: owner, logger: logger}
}

type clientMessageRequest struct {
	ContactID string `json:"contact_id"`
	Message   string `json:"message"`
}

// ClientMessage handles POST /api/v1/conversations/client/messages.
func (h *ConversationHandler) ClientMessage(w http.ResponseWriter, r *http.Request) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusBadRequest, "missing organization")
		return
	}

	var req clientMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.ContactID) == "" || strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusBadRequest, "contact_id and message are required")
		return
	}

	reply := h.client.ProcessMessage(r.Context(), orgID, req.ContactID, req.Message)
	respondJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

type ownerMessageRequest struct {
	OwnerPhone string `json:"owner_phone"`
	OwnerName  string `json:"owner_name"`
	Message    string `json:"message"`
}

// OwnerMessage handles POST /api/v1/conversations/owner/messages.
func (h *ConversationHandler) OwnerMessage(w http.ResponseWriter, r *http.Request) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusBadRequest, "missing organization")
		return
	}

	var req ownerMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.OwnerPhone) == "" || strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusBadRequest, "owner_phone and message are required")
		return
	}

	reply := h.owner.ProcessOwnerMessage(r.Context(), orgID, req.OwnerPhone, req.OwnerName, req.Message)
	respondJSON(w, http.StatusOK, map[string]string{"reply": reply})
}
