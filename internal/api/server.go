// Package api exposes the phishing detector over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikey/llm-phish-detector/internal/config"
	"go.uber.org/zap"
)

// Server is the HTTP API server
type Server struct {
	engine *gin.Engine
	http   *http.Server
	logger *zap.Logger
}

// NewRouter builds the gin engine with all routes registered.
// metricsHandler may be nil.
func NewRouter(handler *Handler, metricsHandler http.Handler, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestIDMiddleware(), LoggerMiddleware(logger))

	group := router.Group("/api")
	group.POST("/detect-phishing", handler.DetectPhishing)
	group.GET("/health", handler.Health)

	if metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(metricsHandler))
	}

	return router
}

// NewServer creates the HTTP API server
func NewServer(cfg config.HTTPConfig, handler *Handler, metricsHandler http.Handler, logger *zap.Logger) *Server {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := NewRouter(handler, metricsHandler, logger)
	return &Server{
		engine: engine,
		http: &http.Server{
			Addr:              cfg.ListenAddress,
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Start listens on the configured address and serves in the background
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.http.Addr, err)
	}

	s.logger.Info("HTTP API starting", zap.String("address", listener.Addr().String()))

	go func() {
		if err := s.http.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler returns the underlying router
func (s *Server) Handler() http.Handler {
	return s.engine
}
