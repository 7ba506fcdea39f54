package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/learnloop/tutorbook/internal/auth"
	"github.com/learnloop/tutorbook/internal/store"
)

var validExperienceLevels = map[string]bool{
	"beginner":     true,
	"intermediate": true,
	"advanced":     true,
}

type PersonalizationHandler struct {
	Store *store.Store
}

func (p *PersonalizationHandler) Register(g *echo.Group, secret []byte) {
	g.Use(auth.EchoAuthMiddleware(secret))
	g.GET("", p.get)
	g.PUT("", p.update)
}

func (p *PersonalizationHandler) get(c echo.Context) error {
	userID := c.Get("user_id").(string)
	profile, err := p.Store.GetProfile(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, profileResponse(profile))
}

func (p *PersonalizationHandler) update(c echo.Context) error {
	userID := c.Get("user_id").(string)
	var req ProfileUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.ExperienceLevel == nil && req.Background == nil && req.Language == nil && req.IsTechnical == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "no fields to update")
	}
	if req.ExperienceLevel != nil && !validExperienceLevels[*req.ExperienceLevel] {
		return echo.NewHTTPError(http.StatusBadRequest, "experience_level must be beginner, intermediate or advanced")
	}
	profile, err := p.Store.UpdateProfile(c.Request().Context(), userID, store.ProfileUpdate{
		ExperienceLevel: req.ExperienceLevel,
		Background:      req.Background,
		Language:        req.Language,
		IsTechnical:     req.IsTechnical,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, profileResponse(profile))
}

func profileResponse(p store.Profile) ProfileResponse {
	return ProfileResponse{
		ExperienceLevel: p.ExperienceLevel,
		Background:      p.Background,
		Language:        p.Language,
		IsTechnical:     p.IsTechnical,
	}
}
