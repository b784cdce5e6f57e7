package handlers

import (
	"context"
	"net/http"

	"github.com/oxypet/petcare-ai-platform/internal/tenancy"
	"github.com/oxypet/petcare-ai-platform/pkg/logging"
)

// OwnerReports produces the assistant's proactive digests.
type OwnerReports interface {
	DailySummary(ctx context.Context, orgID string) (string, error)
	Opportunities(ctx context.Context, orgID string) []string
}

// ReportsHandler serves the owner digests over HTTP so a scheduler (or the
// owner dashboard) can pull them on demand.
type ReportsHandler struct {
	reports OwnerReports
	logger  *logging.Logger
}

func NewReportsHandler(reports OwnerReports, logger *logging.Logger) *ReportsHandler {
	if reports == nil {
		panic("handlers: reports service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ReportsHandler{reports: reports, logger: logger}
}

// DailySummary handles GET /api/v1/aurora/daily-summary.
func (h *ReportsHandler) DailySummary(w http.ResponseWriter, r *http.Request) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusBadRequest, "missing organization")
		return
	}

	summary, err := h.reports.DailySummary(r.Context(), orgID)
	if err != nil {
		h.logger.Error("daily summary failed", "org_id", orgID, "error", err)
		respondError(w, http.StatusInternalServerError, "could not build summary")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"summary": summary})
}

// Opportunities handles GET /api/v1/aurora/opportunities.
func (h *ReportsHandler) Opportunities(w http.ResponseWriter, r *http.Request) {
	orgID, ok := tenancy.OrgIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusBadRequest, "missing organization")
		return
	}

	ops := h.reports.Opportunities(r.Context(), orgID)
	if ops == nil {
		ops = []string{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"opportunities": ops})
}
