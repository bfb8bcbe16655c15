// Package server exposes the conversational ordering core over HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/arozco/mesero/catalog"
	"github.com/arozco/mesero/delivery"
	"github.com/arozco/mesero/dialogue"
	"github.com/arozco/mesero/internal/profile"
	"github.com/arozco/mesero/order"
	"github.com/arozco/mesero/store"
)

const maxMessageLen = 1024

// ChatRequest is the body of POST /api/v1/chat. An empty SessionID starts a
// new conversation.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// ChatResponse carries the reply and the session ID to use on the next turn.
type ChatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
	Intent    string `json:"intent"`
}

// Server wires the catalog, delivery area, store and collaborator behind the
// chat endpoint.
type Server struct {
	e        *echo.Echo
	profile  *profile.Profile
	store    *store.Store
	sessions *SessionManager
}

// NewServer builds the HTTP server. The catalog and delivery area are shared
// read-only across all sessions; each session gets its own ledger and router.
func NewServer(profile *profile.Profile, st *store.Store, cat *catalog.Catalog, area *delivery.Area, collab dialogue.Collaborator) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI: true, LogStatus: true, LogMethod: true, LogLatency: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			slog.Info("http request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency.String())
			return nil
		},
	}))

	newRouter := func(sessionID string) *dialogue.Router {
		opts := []order.Option{order.WithSession(sessionID)}
		if len(profile.OrderableCategories) > 0 {
			opts = append(opts, order.WithAllowedCategories(profile.OrderableCategories))
		}
		ledger := order.NewLedger(cat, opts...)
		return dialogue.NewRouter(cat, area, ledger, st, collab)
	}

	s := &Server{
		e:        e,
		profile:  profile,
		store:    st,
		sessions: NewSessionManager(time.Duration(profile.SessionIdleMinutes)*time.Minute, newRouter),
	}

	e.GET("/healthz", s.healthz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1")
	api.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(profile.RateLimitRPS))))
	api.POST("/chat", s.chat)

	return s
}

func (s *Server) chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}
	if len(req.Message) > maxMessageLen {
		return echo.NewHTTPError(http.StatusBadRequest, "message too long")
	}

	sessionID, result := s.sessions.Handle(c.Request().Context(), req.SessionID, req.Message)

	intentsTotal.WithLabelValues(string(result.Intent)).Inc()
	if result.Confirmed != nil {
		ordersConfirmedTotal.Inc()
	}
	if result.CollabError {
		collaboratorFailuresTotal.Inc()
	}

	return c.JSON(http.StatusOK, ChatResponse{
		SessionID: sessionID,
		Reply:     result.Reply,
		Intent:    string(result.Intent),
	})
}

func (s *Server) healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.profile.Version,
	})
}

// Start begins serving in the background and returns immediately. Fatal
// listener errors are logged, not returned.
func (s *Server) Start(_ context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.profile.Addr, s.profile.Port)
	go func() {
		if err := s.e.Start(addr); err != nil && err != http.ErrServerClosed {
			slog.Error("server stopped", "error", err)
		}
	}()
	return nil
}

// Shutdown drains in-flight requests, stops session eviction and closes the
// store.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.e.Shutdown(ctx); err != nil {
		slog.Error("failed to shut down http server", "error", err)
	}
	s.sessions.Shutdown()
	if err := s.store.Close(); err != nil {
		slog.Error("failed to close store", "error", err)
	}

	slog.Info("server shut down")
}
