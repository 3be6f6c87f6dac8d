package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgauth "github.com/mesubash/library-management-system-sub000/pkg/auth"
	"github.com/mesubash/library-management-system-sub000/pkg/config"
	"github.com/mesubash/library-management-system-sub000/pkg/enums"
	"github.com/mesubash/library-management-system-sub000/pkg/logger"
)

type staticChecker struct {
	ok bool
}

func (s staticChecker) HasSession(ctx context.Context, accessID string) (bool, error) {
	return s.ok, nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "library-test",
		ExpirationMinutes: 15,
	}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func mintToken(t *testing.T, userID uuid.UUID, role enums.UserRole) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(testJWTConfig(), time.Now(), pkgauth.AccessTokenPayload{
		UserID: userID,
		Role:   role,
		JTI:    uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("minting token: %v", err)
	}
	return token
}

func TestAuthSeedsContext(t *testing.T) {
	userID := uuid.New()
	var gotUser uuid.UUID
	var gotRole string
	var gotAccessID string

	handler := Auth(testJWTConfig(), staticChecker{ok: true}, testLogger())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUser = UserIDFromContext(r.Context())
			gotRole = RoleFromContext(r.Context())
			gotAccessID = AccessIDFromContext(r.Context())
		}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, userID, enums.UserRoleMember))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotUser != userID {
		t.Fatalf("expected user %s in context, got %s", userID, gotUser)
	}
	if gotRole != "member" {
		t.Fatalf("expected member role, got %q", gotRole)
	}
	if gotAccessID == "" {
		t.Fatal("access id must be seeded for logout")
	}
}

func TestAuthRejectsMissingAndBadTokens(t *testing.T) {
	handler := Auth(testJWTConfig(), staticChecker{ok: true}, testLogger())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not run")
		}))

	cases := map[string]string{
		"missing header": "",
		"empty bearer":   "Bearer ",
		"garbage token":  "Bearer not-a-jwt",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestAuthRejectsRevokedSession(t *testing.T) {
	handler := Auth(testJWTConfig(), staticChecker{ok: false}, testLogger())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not run")
		}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, uuid.New(), enums.UserRoleMember))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for revoked session, got %d", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole("admin", testLogger())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithRole(req.Context(), "member"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for member, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithRole(req.Context(), "admin"))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for admin, got %d", rec.Code)
	}
}
