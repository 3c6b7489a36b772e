// Package server assembles the echo HTTP server
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/Ramsey-B/clover/config"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/middleware"
	"github.com/Ramsey-B/clover/pkg/routes/health"
	"github.com/Ramsey-B/clover/pkg/routes/merge"
)

// Server is the HTTP surface of the service
type Server struct {
	echo   *echo.Echo
	http   *http.Server
	logger ectologger.Logger
	errCh  chan error
}

// New builds the echo instance with middleware and routes registered
func New(cfg config.Config, logger ectologger.Logger, checker *health.Checker, mergeHandler *merge.Handler) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(logger)

	if cfg.MetricsEnabled {
		e.Use(metrics.Middleware())
	}
	e.Use(echomiddleware.Recover())
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.Use(echomiddleware.BodyLimit(cfg.MaxBodyBytes))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))

	checker.RegisterRoutes(e)
	merge.Register(e.Group("/api/v1/merge"), mergeHandler)
	if cfg.MetricsEnabled {
		e.GET("/metrics", metrics.Handler())
	}

	return &Server{
		echo: e,
		http: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           e,
			ReadTimeout:       time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second,
			WriteTimeout:      time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second,
			IdleTimeout:       time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second,
			ReadHeaderTimeout: time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second,
			MaxHeaderBytes:    cfg.MaxHeaderBytes,
		},
		logger: logger,
		errCh:  make(chan error, 1),
	}
}

// Echo exposes the router, mainly for tests
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start begins serving in the background. Listener failures after startup are reported on Errors.
func (s *Server) Start(_ context.Context) error {
	s.logger.Infof("HTTP server listening on %s", s.http.Addr)
	go func() {
		if err := s.echo.StartServer(s.http); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.WithError(err).Error("HTTP server stopped unexpectedly")
			s.errCh <- err
		}
	}()
	return nil
}

// Errors reports fatal listener errors
func (s *Server) Errors() <-chan error {
	return s.errCh
}

// Stop gracefully drains in-flight requests
func (s *Server) Stop(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
