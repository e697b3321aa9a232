package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohammad-safakhou/schoolchat/config"
	"github.com/mohammad-safakhou/schoolchat/internal/chat"
	"github.com/mohammad-safakhou/schoolchat/internal/runtime"
	"github.com/mohammad-safakhou/schoolchat/internal/store"
	"github.com/mohammad-safakhou/schoolchat/internal/telemetry"
	"github.com/mohammad-safakhou/schoolchat/provider"
	"github.com/mohammad-safakhou/schoolchat/repository/redishistory"
	"github.com/mohammad-safakhou/schoolchat/retrieval"
)

// Run wires the full service together and serves it: postgres log, redis
// history cache, LLM provider, knowledge index, chat engine and the HTTP
// API on top.
func Run(cfg *config.Config, addr string) error {
	e := newEcho()

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	ctx := context.Background()

	dsn, err := cfg.Storage.Postgres.DSN()
	if err != nil {
		return err
	}
	if err := store.Migrate("file://migrations", dsn, "up", 0); err != nil {
		return fmt.Errorf("migrating: %w", err)
	}
	st, err := store.NewWithDSN(ctx, dsn)
	if err != nil {
		return err
	}

	var cache *redishistory.Cache
	rdb, err := redishistory.Conn(ctx, cfg.Storage.Redis.Host, cfg.Storage.Redis.Port, cfg.Storage.Redis.Password, cfg.Storage.Redis.DB, cfg.Storage.Redis.Timeout)
	if err != nil {
		// The durable store covers history on its own; just slower.
		log.Printf("[SERVER] redis unavailable, history cache disabled: %v", err)
	} else {
		cache = redishistory.NewCache(rdb, cfg.Storage.Redis.HistoryTTL, cfg.Retrieval.HistoryDepth)
	}

	llm, err := provider.NewProvider(provider.Client(cfg.LLM.Provider), cfg.LLM)
	if err != nil {
		return err
	}

	ret, err := retrieval.NewRetriever(retrieval.IndexTypeBleve, cfg.Retrieval.IndexPath, llm)
	if err != nil {
		return fmt.Errorf("opening knowledge index: %w", err)
	}

	metrics := telemetry.New()
	engine := chat.NewEngine(cfg, llm, ret, st, historyCache(cache), metrics, nil)

	secret, err := runtime.LoadJWTSecret(cfg)
	if err != nil {
		return err
	}

	api := e.Group("/api")
	(&ChatHandler{Svc: engine}).Register(api)
	(&FeedbackHandler{Store: st, Metrics: metrics}).Register(api)
	(&AuthHandler{
		Email:        cfg.Server.AdminEmail,
		PasswordHash: cfg.Server.AdminPasswordHash,
		Secret:       secret,
	}).Register(api.Group("/auth"))
	(&AdminHandler{Store: st}).Register(api.Group("/admin"), secret)

	api.GET("/schools", func(c echo.Context) error {
		names := make([]string, 0, len(cfg.Schools))
		for name := range cfg.Schools {
			names = append(names, name)
		}
		sort.Strings(names)
		return c.JSON(http.StatusOK, map[string][]string{"schools": names})
	})

	if addr == "" {
		addr = cfg.Server.Address
	}
	log.Printf("listening on %s", addr)
	return e.Start(addr)
}

// newEcho builds the shared middleware stack: recovery, a unified JSON
// error handler with logging, and permissive CORS for the web frontend.
func newEcho() *echo.Echo {
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
			_ = c.JSON(code, HTTPError{Error: msg})
		}
	}

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cookie", "Authorization"},
		AllowCredentials: true,
	}))
	return e
}

// historyCache keeps the engine's optional cache genuinely nil when redis
// is down, instead of a typed nil inside a non-nil interface.
func historyCache(c *redishistory.Cache) chat.HistoryCache {
	if c == nil {
		return nil
	}
	return c
}
