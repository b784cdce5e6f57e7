package router

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/oxypet/petcare-ai-platform/internal/tenancy"
)

const orgHeader = "X-Org-Id"

// requireOrgID rejects any API request that does not name a tenant. The
// gateway in front of this service injects the header after authenticating
// the caller, so a missing value is a client bug, not an auth failure.
func requireOrgID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		orgID := strings.TrimSpace(r.Header.Get(orgHeader))
		if orgID == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "missing X-Org-Id header"})
			return
		}
		next.ServeHTTP(w, r.WithContext(tenancy.WithOrgID(r.Context(), orgID)))
	})
}

// orgIDFromRequest exposes the org id for local handlers and tests.
func orgIDFromRequest(r *http.Request) (string, bool) {
	return tenancy.OrgIDFromContext(r.Context())
}
