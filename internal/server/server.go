// Package server exposes the chat engine over HTTP: request/response chat,
// restaurant browsing, a duplex websocket endpoint, health and metrics.
package server

import (
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tastebud-ai/tastebud/internal/chat"
	"github.com/tastebud-ai/tastebud/internal/docstore"
)

// Server holds the echo instance and the handlers' dependencies.
type Server struct {
	echo *echo.Echo
}

// New builds the server and registers all routes.
func New(orch *chat.Orchestrator, store docstore.Store) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
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
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cookie"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")

	ch := &ChatHandler{Orch: orch}
	ch.Register(api)

	rh := &RestaurantsHandler{Store: store}
	rh.Register(api.Group("/restaurants"))

	wh := &WSHandler{Orch: orch, Logger: log.New(log.Writer(), "[WS] ", log.LstdFlags)}
	wh.Register(api)

	return &Server{echo: e}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.echo }

// Run blocks serving on addr.
func (s *Server) Run(addr string) error {
	log.Printf("listening on %s", addr)
	return s.echo.Start(addr)
}
