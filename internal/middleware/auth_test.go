// internal/middleware/auth_test.go
package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickmatch-gg/lobby-service/internal/auth"
)

func authedEcho(t *testing.T, want uuid.UUID) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := UserID(r.Context())
		require.True(t, ok, "handler must see the authenticated user")
		assert.Equal(t, want, got)
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthAcceptsCookie(t *testing.T) {
	auth.Init()
	userID := uuid.New()
	token, err := auth.CreateJWT(userID)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/lobbies", nil)
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: token})
	rec := httptest.NewRecorder()

	Auth(authedEcho(t, userID)).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAuthAcceptsBearerHeader(t *testing.T) {
	auth.Init()
	userID := uuid.New()
	token, err := auth.CreateJWT(userID)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/lobbies", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	Auth(authedEcho(t, userID)).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAuthRejectsMissingToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/lobbies", nil)
	rec := httptest.NewRecorder()

	Auth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"authentication required","code":"unauthenticated"}`, rec.Body.String())
}

func TestAuthRejectsGarbageToken(t *testing.T) {
	auth.Init()
	req := httptest.NewRequest(http.MethodGet, "/api/lobbies", nil)
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: "garbage"})
	rec := httptest.NewRecorder()

	Auth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
