package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestTokenIssuer_IssueAndVerify(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	token, err := issuer.Issue("user-1", "nurse.wang", "nurse")
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	claims, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Errorf("subject = %q", claims.Subject)
	}
	if claims.Username != "nurse.wang" || claims.Role != "nurse" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestTokenIssuer_RejectsWrongSecret(t *testing.T) {
	token, err := NewTokenIssuer("secret-a", time.Hour).Issue("u", "n", "nurse")
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}
	if _, err := NewTokenIssuer("secret-b", time.Hour).Verify(token); err == nil {
		t.Fatal("expected verification failure with wrong secret")
	}
}

func TestTokenIssuer_RejectsExpired(t *testing.T) {
	issuer := NewTokenIssuer("secret", -time.Minute)
	token, err := issuer.Issue("u", "n", "nurse")
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}
	if _, err := issuer.Verify(token); err == nil {
		t.Fatal("expected verification failure for expired token")
	}
}

func TestMiddleware_SetsIdentity(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	token, _ := issuer.Issue("user-7", "nurse.chen", "nurse")

	e := echo.New()
	handler := issuer.Middleware()(func(c echo.Context) error {
		ctx := c.Request().Context()
		if UserIDFromContext(ctx) != "user-7" {
			t.Errorf("user id = %q", UserIDFromContext(ctx))
		}
		if RoleFromContext(ctx) != "nurse" {
			t.Errorf("role = %q", RoleFromContext(ctx))
		}
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	if err := handler(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMiddleware_RejectsMissingHeader(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	e := echo.New()
	handler := issuer.Middleware()(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	err := handler(e.NewContext(req, rec))
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("err = %v, want 401", err)
	}
}

func TestRequireRole(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	e := echo.New()

	run := func(role string, guard echo.MiddlewareFunc) error {
		token, _ := issuer.Issue("u", "n", role)
		handler := issuer.Middleware()(guard(func(c echo.Context) error {
			return c.String(http.StatusOK, "ok")
		}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		return handler(e.NewContext(req, httptest.NewRecorder()))
	}

	if err := run("nurse", RequireRole("nurse")); err != nil {
		t.Errorf("nurse should pass nurse guard: %v", err)
	}
	if err := run("admin", RequireRole("nurse")); err != nil {
		t.Errorf("admin should pass any guard: %v", err)
	}
	err := run("viewer", RequireRole("nurse"))
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusForbidden {
		t.Errorf("viewer err = %v, want 403", err)
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	stored, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	if !VerifyPassword("s3cret-pass", stored) {
		t.Error("expected password to verify")
	}
	if VerifyPassword("wrong-pass", stored) {
		t.Error("wrong password should not verify")
	}
	if VerifyPassword("s3cret-pass", "malformed-no-separator") {
		t.Error("malformed stored value should not verify")
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	a, _ := HashPassword("same")
	b, _ := HashPassword("same")
	if a == b {
		t.Error("expected distinct stored values for the same password")
	}
}
