// Package tenancy carries the per-request organization id. Every query and
// every LLM turn is scoped by it; nothing below the HTTP layer reads the
// header directly.
package tenancy

import "context"

type ctxKey struct{}

// WithOrgID stores the org id in context.
func WithOrgID(ctx context.Context, orgID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, orgID)
}

// OrgIDFromContext extracts the org id. The second return is false when no
// tenant was attached or the value is empty.
func OrgIDFromContext(ctx context.Context) (string, bool) {
	orgID, ok := ctx.Value(ctxKey{}).(string)
	return orgID, ok && orgID != ""
}
