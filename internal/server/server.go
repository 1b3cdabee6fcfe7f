// Package server exposes the job queue over HTTP.
//
//	POST /v1/jobs      submit a job, returns 202 with the pending record
//	GET  /v1/jobs/:id  current record of a job
//	GET  /health       liveness
//	GET  /metrics      Prometheus metrics
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/richhaase/agentic-site-builder/internal/domain"
	"github.com/richhaase/agentic-site-builder/internal/logging"
	"github.com/richhaase/agentic-site-builder/internal/queue"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = "127.0.0.1:8080"

// shutdownTimeout bounds graceful shutdown of in-flight requests.
const shutdownTimeout = 10 * time.Second

// Jobs is the subset of the queue the API needs.
type Jobs interface {
	Submit(ctx context.Context, req domain.JobRequest) (*queue.Record, error)
	Status(ctx context.Context, id string) (*queue.Record, error)
}

// Options configures the HTTP server.
type Options struct {
	// ServiceName names the server in traces.
	ServiceName string
	// Metrics serves /metrics. Nil leaves the route unregistered.
	Metrics http.Handler
	Logger  *slog.Logger
}

// Server is the HTTP front end of the queue.
type Server struct {
	jobs   Jobs
	logger *slog.Logger
	router *gin.Engine
}

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Error string `json:"error"`
}

// New builds the router.
func New(jobs Jobs, opts Options) *Server {
	if opts.ServiceName == "" {
		opts.ServiceName = "asb"
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	s := &Server{jobs: jobs, logger: opts.Logger, router: gin.New()}

	s.router.Use(gin.Recovery())
	s.router.Use(otelgin.Middleware(opts.ServiceName))
	s.router.Use(s.requestLogger())

	s.router.GET("/health", s.health)
	if opts.Metrics != nil {
		s.router.GET("/metrics", gin.WrapH(opts.Metrics))
	}
	v1 := s.router.Group("/v1")
	{
		v1.POST("/jobs", s.submit)
		v1.GET("/jobs/:id", s.status)
	}
	return s
}

// Handler returns the router for use with an http.Server or httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) submit(c *gin.Context) {
	var req domain.JobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return
	}
	rec, err := s.jobs.Submit(c.Request.Context(), req)
	switch {
	case errors.Is(err, queue.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	case errors.Is(err, queue.ErrClosed):
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	case err != nil:
		s.logger.Error("submit failed", "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "could not submit job"})
		return
	}
	c.Header("Location", "/v1/jobs/"+rec.ID)
	c.JSON(http.StatusAccepted, rec)
}

func (s *Server) status(c *gin.Context) {
	rec, err := s.jobs.Status(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, queue.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	case err != nil:
		s.logger.Error("status lookup failed", "task_id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "could not read job"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start).Round(time.Microsecond))
	}
}
