// Package httpapi is the thin HTTP adapter over the workflow engine. It
// translates requests into engine calls and the engine's error taxonomy into
// status codes; it holds no workflow rules of its own.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arjunv/procure-flow/internal/identity"
)

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server is the HTTP adapter.
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	handlers   *Handlers
	idp        identity.Provider
	logger     *zap.Logger
}

// NewServer creates the HTTP server and wires routes.
func NewServer(config ServerConfig, handlers *Handlers, idp identity.Provider, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		config:   config,
		router:   gin.New(),
		handlers: handlers,
		idp:      idp,
		logger:   logger,
	}
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
	s.setupRoutes()
	return s
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.String("latency", time.Since(start).String()),
			zap.String("client_ip", c.ClientIP()))
	}
}

// actorMiddleware resolves the acting user and aborts unauthenticated
// requests before they reach the engine.
func (s *Server) actorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := s.idp.CurrentUser(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "missing user identity",
			})
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handlers.HealthCheck)

	api := s.router.Group("/api", s.actorMiddleware())
	{
		api.POST("/flows", s.handlers.RaiseFlow)
		api.POST("/flows/:flowID/steps/:step/advance", s.handlers.AdvanceStep)
		api.POST("/flows/:flowID/steps/:step/reject", s.handlers.RejectStep)
		api.POST("/flows/:flowID/steps/:step/save", s.handlers.SaveStep)
		api.POST("/flows/:flowID/documents", s.handlers.AttachDocument)
		api.POST("/flows/:flowID/notify-vendor", s.handlers.NotifyVendor)
		api.GET("/flows/:flowID/history", s.handlers.FlowHistory)
		api.GET("/flows/:flowID/statement", s.handlers.ComparativeStatement)
		api.GET("/tasks", s.handlers.ListTasks)
		api.GET("/tasks/today", s.handlers.TodaysTasks)
	}
}

// Start starts the HTTP server and blocks until ctx is cancelled or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", zap.Error(err))
		return err
	}
}

// Stop gracefully stops the HTTP server.
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", zap.Error(err))
		return err
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}
