package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/learnloop/tutorbook/internal/auth"
	"github.com/learnloop/tutorbook/internal/retrieval"
	"github.com/learnloop/tutorbook/internal/tutor"
)

type ChatHandler struct {
	Tutor     *tutor.Tutor
	Retrieval *retrieval.Service
}

func (h *ChatHandler) Register(g *echo.Group, secret []byte) {
	// Chat works anonymously; a valid token personalizes the answer.
	g.POST("/chat", h.chat, auth.OptionalAuthMiddleware(secret))
	g.POST("/search", h.search)
}

func (h *ChatHandler) chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Query) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}
	userID, _ := c.Get("user_id").(string)

	ans, err := h.Tutor.Answer(c.Request().Context(), tutor.Request{
		Query:        req.Query,
		SessionID:    req.SessionID,
		UserID:       userID,
		SelectedText: req.SelectedText,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}

	sources := make([]ChatSource, 0, len(ans.Sources))
	for _, s := range ans.Sources {
		sources = append(sources, ChatSource{
			Chapter:    s.Chapter,
			Section:    s.Section,
			ChapterURL: s.ChapterURL,
			Score:      s.Score,
		})
	}
	return c.JSON(http.StatusOK, ChatResponse{
		Response:  ans.Response,
		Sources:   sources,
		SessionID: ans.SessionID,
	})
}

func (h *ChatHandler) search(c echo.Context) error {
	var req SearchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	resp := h.Retrieval.Search(c.Request().Context(), req.Query, req.SelectedText, req.TopK)
	return c.JSON(http.StatusOK, resp)
}
