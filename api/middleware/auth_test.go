package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgAuth "github.com/ktrudeau/giftnest-backend/pkg/auth"
	"github.com/ktrudeau/giftnest-backend/pkg/auth/session"
	"github.com/ktrudeau/giftnest-backend/pkg/config"
	"github.com/ktrudeau/giftnest-backend/pkg/enums"
	"github.com/ktrudeau/giftnest-backend/pkg/logger"
)

type stubSessionChecker struct {
	active map[string]bool
	err    error
}

func (s *stubSessionChecker) HasSession(_ context.Context, accessID string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.active[accessID], nil
}

func middlewareJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "middleware-secret",
		Issuer:            "giftnest-test",
		ExpirationMinutes: 15,
	}
}

func middlewareLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func mintToken(t *testing.T, accessID string) (string, uuid.UUID) {
	t.Helper()
	userID := uuid.New()
	token, err := pkgAuth.MintAccessToken(middlewareJWTConfig(), time.Now(), pkgAuth.AccessTokenPayload{
		UserID:      userID,
		Email:       "dana@example.com",
		DisplayName: "Dana",
		Role:        enums.UserRoleMember,
		JTI:         accessID,
	})
	require.NoError(t, err)
	return token, userID
}

func authHandler(t *testing.T, checker session.AccessSessionChecker) (http.Handler, *http.Request) {
	t.Helper()
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Seen-User", UserIDFromContext(r.Context()))
		w.Header().Set("X-Seen-Access", AccessIDFromContext(r.Context()))
		w.Header().Set("X-Seen-Role", RoleFromContext(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	})
	handler := Auth(middlewareJWTConfig(), checker, middlewareLogger())(inner)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	return handler, req
}

func TestAuthAcceptsValidToken(t *testing.T) {
	accessID := session.NewAccessID()
	token, userID := mintToken(t, accessID)
	checker := &stubSessionChecker{active: map[string]bool{accessID: true}}

	handler, req := authHandler(t, checker)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, userID.String(), rec.Header().Get("X-Seen-User"))
	assert.Equal(t, accessID, rec.Header().Get("X-Seen-Access"))
	assert.Equal(t, "member", rec.Header().Get("X-Seen-Role"))
}

func TestAuthRejectsMissingHeader(t *testing.T) {
	handler, req := authHandler(t, &stubSessionChecker{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsGarbageToken(t *testing.T) {
	handler, req := authHandler(t, &stubSessionChecker{})
	req.Header.Set("Authorization", "Bearer not-a-jwt")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsRevokedSession(t *testing.T) {
	accessID := session.NewAccessID()
	token, _ := mintToken(t, accessID)
	checker := &stubSessionChecker{active: map[string]bool{}}

	handler, req := authHandler(t, checker)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := RequireAdmin(middlewareLogger())(inner)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req = req.WithContext(WithRole(req.Context(), "member"))
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req = req.WithContext(WithRole(req.Context(), "admin"))
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
