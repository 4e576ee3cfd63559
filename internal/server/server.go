// Package server serves the browser chat surface: a single page plus a small
// JSON API over one process-wide chat session.
package server

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/diogo/readalong/internal/session"
)

// SessionFactory opens a fresh chat session
type SessionFactory func() *session.Session

// Server owns the HTTP engine and the current chat session
type Server struct {
	factory   SessionFactory
	modelName string
	engine    *gin.Engine

	mu      sync.Mutex
	current *session.Session
}

// Option configures a Server
type Option func(*Server)

// WithModelName sets the model name shown on the chat page
func WithModelName(name string) Option {
	return func(s *Server) {
		s.modelName = name
	}
}

// New creates a server. The first session is opened immediately.
func New(factory SessionFactory, opts ...Option) *Server {
	s := &Server{
		factory: factory,
		current: factory(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine = s.setupRouter()
	return s
}

func (s *Server) setupRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())
	router.SetHTMLTemplate(template.Must(template.New(pageTemplate).Parse(pageHTML)))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/", s.Page)

	api := router.Group("/api")
	{
		api.GET("/messages", s.Messages)
		api.POST("/messages", s.Submit)
		api.POST("/session/reset", s.Reset)
		api.GET("/export", s.Export)
	}

	return router
}

// Handler returns the HTTP handler serving the chat
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Session returns the current chat session
func (s *Server) Session() *session.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Run listens on addr until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	// No WriteTimeout: a turn may take the whole poll timeout.
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "http server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.InfoContext(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}
	return s.Close(shutdownCtx)
}

// Close ends the current session
func (s *Server) Close(ctx context.Context) error {
	return s.Session().Close(ctx)
}

// requestLogger logs one debug line per request
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.DebugContext(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds())
	}
}
