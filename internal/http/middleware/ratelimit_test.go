package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAllowsWithinBurst(t *testing.T) {
	rl := NewRateLimiter(1, 2)

	assert.True(t, rl.Allow("org-1"))
	assert.True(t, rl.Allow("org-1"))
	assert.False(t, rl.Allow("org-1"))
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	rl := NewRateLimiter(1, 1)

	assert.True(t, rl.Allow("org-1"))
	assert.False(t, rl.Allow("org-1"))
	assert.True(t, rl.Allow("org-2"))
}

func TestRateLimitPrefersOrgHeader(t *testing.T) {
	mw := RateLimit(1, 1)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	send := func(org string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations/client/messages", nil)
		if org != "" {
			req.Header.Set("X-Org-Id", org)
		}
		rec := httptest.NewRecorder()
		mw(next).ServeHTTP(rec, req)
		return rec.Code
	}

	// Same gateway IP, different tenants: each org gets its own bucket.
	assert.Equal(t, http.StatusOK, send("org-1"))
	assert.Equal(t, http.StatusTooManyRequests, send("org-1"))
	assert.Equal(t, http.StatusOK, send("org-2"))
}
