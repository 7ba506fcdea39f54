package server

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/learnloop/tutorbook/internal/auth"
	"github.com/learnloop/tutorbook/internal/store"
)

type AuthHandler struct {
	Store      *store.Store
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (a *AuthHandler) Register(g *echo.Group) {
	g.POST("/signup", a.signup)
	g.POST("/signin", a.signin)
	g.POST("/logout", a.logout)
}

func (a *AuthHandler) accessTTL() time.Duration {
	if a.AccessTTL > 0 {
		return a.AccessTTL
	}
	return 24 * time.Hour
}

func (a *AuthHandler) refreshTTL() time.Duration {
	if a.RefreshTTL > 0 {
		return a.RefreshTTL
	}
	return 30 * 24 * time.Hour
}

func (a *AuthHandler) signup(c echo.Context) error {
	var req AuthSignupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid email")
	}
	if len(req.Password) < 8 {
		return echo.NewHTTPError(http.StatusBadRequest, "password must be at least 8 characters")
	}
	level := req.ExperienceLevel
	if level == "" {
		level = store.DefaultExperienceLevel
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	user, err := a.Store.CreateUser(c.Request().Context(), req.Email, string(hash), req.IsTechnical, level)
	if err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			return echo.NewHTTPError(http.StatusConflict, "email already exists")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp, err := a.issueTokens(c, user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, resp)
}

func (a *AuthHandler) signin(c echo.Context) error {
	var req AuthSigninRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	user, hash, err := a.Store.GetUserByEmail(c.Request().Context(), req.Email)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	resp, err := a.issueTokens(c, user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (a *AuthHandler) logout(c echo.Context) error {
	if tok := extractBearer(c); tok != "" {
		if sub, err := auth.Subject(tok, a.Secret); err == nil {
			_ = a.Store.DeleteSessionsForUser(c.Request().Context(), sub)
		}
	}
	cookie := new(http.Cookie)
	cookie.Name = "auth"
	cookie.Value = ""
	cookie.Path = "/"
	cookie.MaxAge = -1
	c.SetCookie(cookie)
	return c.NoContent(http.StatusOK)
}

// issueTokens signs an access/refresh pair, persists the refresh session and
// sets the auth cookie.
func (a *AuthHandler) issueTokens(c echo.Context, user store.User) (AuthResponse, error) {
	accessTTL := a.accessTTL()
	access, err := auth.SignToken(user.ID, user.Email, a.Secret, accessTTL, auth.TokenTypeAccess)
	if err != nil {
		return AuthResponse{}, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	refreshTTL := a.refreshTTL()
	refresh, err := auth.SignToken(user.ID, user.Email, a.Secret, refreshTTL, auth.TokenTypeRefresh)
	if err != nil {
		return AuthResponse{}, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := a.Store.CreateSession(c.Request().Context(), user.ID, refresh, time.Now().Add(refreshTTL)); err != nil {
		return AuthResponse{}, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	cookie := new(http.Cookie)
	cookie.Name = "auth"
	cookie.Value = access
	cookie.Path = "/"
	cookie.HttpOnly = true
	cookie.SameSite = http.SameSiteLaxMode
	if os.Getenv("TUTORBOOK_ENV") == "prod" {
		cookie.Secure = true
	}
	c.SetCookie(cookie)
	c.Response().Header().Set("Authorization", "Bearer "+access)

	return AuthResponse{
		User: AuthUser{
			ID:    user.ID,
			Email: user.Email,
			UserMetadata: UserMetadata{
				IsTechnical:     user.IsTechnical,
				ExperienceLevel: user.ExperienceLevel,
			},
		},
		Session: AuthSession{
			AccessToken:  access,
			RefreshToken: refresh,
			ExpiresAt:    time.Now().Add(accessTTL).Unix(),
		},
	}, nil
}

func extractBearer(c echo.Context) string {
	h := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if ck, err := c.Cookie("auth"); err == nil {
		return ck.Value
	}
	return ""
}
