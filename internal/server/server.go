package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appconfig "github.com/learnloop/tutorbook/config"
	"github.com/learnloop/tutorbook/internal/auth"
	"github.com/learnloop/tutorbook/internal/embedding"
	"github.com/learnloop/tutorbook/internal/history"
	"github.com/learnloop/tutorbook/internal/retrieval"
	"github.com/learnloop/tutorbook/internal/store"
	"github.com/learnloop/tutorbook/internal/tutor"
	"github.com/learnloop/tutorbook/internal/vectorstore"
)

// Run wires every dependency and serves the API until the listener stops.
func Run(cfg *appconfig.Config, addr string) error {
	e := newEcho(cfg)

	ctx := context.Background()
	dsn, err := cfg.Storage.Postgres.DSN()
	if err != nil {
		return err
	}
	st, err := store.NewWithDSN(ctx, dsn)
	if err != nil {
		return err
	}

	secret := cfg.Server.JWTSecret
	if secret == "" {
		return fmt.Errorf("jwt secret not configured (server.jwt_secret)")
	}

	embedder, err := embedding.NewClient(embedding.Config{
		APIKey:  cfg.Embedding.APIKey,
		BaseURL: cfg.Embedding.BaseURL,
		Model:   cfg.Embedding.Model,
		Timeout: cfg.Embedding.QueryTimeout,
	})
	if err != nil {
		return err
	}
	qdrant := vectorstore.NewClient(cfg.Vector.URL, cfg.Vector.APIKey, cfg.Vector.Timeout)
	ragLogger := log.New(log.Writer(), "[RAG] ", log.LstdFlags)
	rag := retrieval.New(embedder, qdrant, cfg.Vector.Collection, cfg.Vector.Book, ragLogger)

	var hist tutor.History
	if cfg.Storage.Redis.Host != "" {
		rh := history.NewRedisHistory(
			fmt.Sprintf("%s:%s", cfg.Storage.Redis.Host, cfg.Storage.Redis.Port),
			cfg.Storage.Redis.Password, cfg.Storage.Redis.DB, 0,
		)
		if err := rh.Ping(ctx); err != nil {
			return fmt.Errorf("redis connection failed (%s:%s): %w", cfg.Storage.Redis.Host, cfg.Storage.Redis.Port, err)
		}
		hist = rh
	} else {
		log.Printf("redis not configured, chat history is in-memory only")
		hist = history.NewMemoryHistory()
	}

	llm := tutor.NewOpenAIProvider(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.Temperature, cfg.LLM.MaxTokens, cfg.LLM.Timeout)
	tut := &tutor.Tutor{
		Search: rag,
		Profiles: func(ctx context.Context, userID string) (store.Profile, error) {
			return st.GetProfile(ctx, userID)
		},
		LLM:     llm,
		History: hist,
	}

	e.GET("/health", func(c echo.Context) error {
		status := map[string]string{"status": "ok", "database": "ok"}
		if err := st.DB.PingContext(c.Request().Context()); err != nil {
			status["status"] = "degraded"
			status["database"] = err.Error()
		}
		return c.JSON(http.StatusOK, status)
	})

	secretBytes := []byte(secret)

	ah := &AuthHandler{Store: st, Secret: secretBytes, AccessTTL: cfg.Server.AccessTokenTTL, RefreshTTL: cfg.Server.RefreshTokenTTL}
	ah.Register(e.Group("/auth"))

	me := e.Group("/me")
	me.Use(auth.EchoAuthMiddleware(secretBytes))
	me.GET("", func(c echo.Context) error {
		user, err := st.GetUserByID(c.Request().Context(), c.Get("user_id").(string))
		if err != nil {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return c.JSON(http.StatusOK, AuthUser{
			ID:    user.ID,
			Email: user.Email,
			UserMetadata: UserMetadata{
				IsTechnical:     user.IsTechnical,
				ExperienceLevel: user.ExperienceLevel,
			},
		})
	})

	api := e.Group("/api")

	ph := &PersonalizationHandler{Store: st}
	ph.Register(api.Group("/personalization"), secretBytes)

	ch := &ChatHandler{Tutor: tut, Retrieval: rag}
	ch.Register(api, secretBytes)

	if addr == "" {
		addr = cfg.Server.Address
	}
	if addr == "" {
		addr = ":8000"
	}
	log.Printf("listening on %s", addr)
	return e.Start(addr)
}

// newEcho builds the echo instance with recovery, CORS, metrics and the
// unified JSON error handler. Split out so handler tests can reuse it.
func newEcho(cfg *appconfig.Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}

	origins := []string{"*"}
	if cfg != nil && len(cfg.Server.AllowedOrigins) > 0 {
		origins = cfg.Server.AllowedOrigins
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "Cookie"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	return e
}
