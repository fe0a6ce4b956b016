package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Dosada05/chess-tournament/models"
	"github.com/Dosada05/chess-tournament/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubParser map[string]*services.TokenClaims

func (p stubParser) ParseToken(token string) (*services.TokenClaims, error) {
	if c, ok := p[token]; ok {
		return c, nil
	}
	return nil, services.ErrAuthenticationFailed
}

func TestAuthenticateAndAuthorize(t *testing.T) {
	parser := stubParser{
		"admin-token":   {UserID: 1, Role: models.RoleAdmin},
		"arbiter-token": {UserID: 2, Role: models.RoleArbiter},
	}
	var seenID int64
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := GetUserIDFromContext(r.Context())
		require.NoError(t, err)
		seenID = id
		w.WriteHeader(http.StatusNoContent)
	})
	h := Authenticate(parser)(Authorize(models.RoleAdmin)(final))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic admin-token", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"wrong role", "Bearer arbiter-token", http.StatusForbidden},
		{"admin", "Bearer admin-token", http.StatusNoContent},
		{"lowercase scheme", "bearer admin-token", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/users", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status >= 400 {
				var body map[string]string
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
				assert.NotEmpty(t, body["error"])
			}
		})
	}
	assert.Equal(t, int64(1), seenID)
}

func TestContextHelpersWithoutClaims(t *testing.T) {
	_, err := GetUserIDFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.Error(t, err)

	ctx := WithClaims(httptest.NewRequest(http.MethodGet, "/", nil).Context(), &services.TokenClaims{UserID: 9, Role: models.RoleArbiter})
	role, err := GetUserRoleFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.RoleArbiter, role)
}
