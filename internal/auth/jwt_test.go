package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

var testSecret = []byte("test-secret")

func TestSignAndSubject(t *testing.T) {
	tok, err := SignToken("user-1", "a@b.com", testSecret, time.Hour, TokenTypeAccess)
	if err != nil {
		t.Fatalf("SignToken: %v", err)
	}
	sub, err := Subject(tok, testSecret)
	if err != nil {
		t.Fatalf("Subject: %v", err)
	}
	if sub != "user-1" {
		t.Fatalf("subject = %q", sub)
	}
}

func TestSubjectRejectsRefreshToken(t *testing.T) {
	tok, err := SignToken("user-1", "a@b.com", testSecret, time.Hour, TokenTypeRefresh)
	if err != nil {
		t.Fatalf("SignToken: %v", err)
	}
	if _, err := Subject(tok, testSecret); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("refresh token must not pass as access, got %v", err)
	}
}

func TestSubjectRejectsExpired(t *testing.T) {
	tok, err := SignToken("user-1", "a@b.com", testSecret, -time.Minute, TokenTypeAccess)
	if err != nil {
		t.Fatalf("SignToken: %v", err)
	}
	if _, err := Subject(tok, testSecret); err == nil {
		t.Fatalf("expired token accepted")
	}
}

func TestSubjectRejectsWrongSecret(t *testing.T) {
	tok, _ := SignToken("user-1", "a@b.com", testSecret, time.Hour, TokenTypeAccess)
	if _, err := Subject(tok, []byte("other")); err == nil {
		t.Fatalf("token signed with another secret accepted")
	}
}

func TestEchoAuthMiddleware(t *testing.T) {
	e := echo.New()
	tok, _ := SignToken("user-9", "a@b.com", testSecret, time.Hour, TokenTypeAccess)

	handler := EchoAuthMiddleware(testSecret)(func(c echo.Context) error {
		return c.String(http.StatusOK, c.Get("user_id").(string))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	if err := handler(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Body.String() != "user-9" {
		t.Fatalf("user_id = %q", rec.Body.String())
	}

	// cookie flow
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "auth", Value: tok})
	rec = httptest.NewRecorder()
	if err := handler(e.NewContext(req, rec)); err != nil {
		t.Fatalf("cookie flow: %v", err)
	}

	// missing token
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	err := handler(e.NewContext(req, rec))
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %#v", err)
	}
}

func TestOptionalAuthMiddleware(t *testing.T) {
	e := echo.New()
	handler := OptionalAuthMiddleware(testSecret)(func(c echo.Context) error {
		if id, ok := c.Get("user_id").(string); ok {
			return c.String(http.StatusOK, id)
		}
		return c.String(http.StatusOK, "anonymous")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	if err := handler(e.NewContext(req, rec)); err != nil {
		t.Fatalf("anonymous request: %v", err)
	}
	if rec.Body.String() != "anonymous" {
		t.Fatalf("got %q", rec.Body.String())
	}

	tok, _ := SignToken("user-3", "a@b.com", testSecret, time.Hour, TokenTypeAccess)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	if err := handler(e.NewContext(req, rec)); err != nil {
		t.Fatalf("authed request: %v", err)
	}
	if rec.Body.String() != "user-3" {
		t.Fatalf("got %q", rec.Body.String())
	}
}
