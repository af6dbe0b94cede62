// Package server exposes datasets and forecasts over HTTP for the dashboard.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sartorproj/regiocast/dataset"
	"github.com/sartorproj/regiocast/internal/store"
	"github.com/sartorproj/regiocast/pipeline"
)

// RunStore is the run history used by the API. It may be nil.
type RunStore interface {
	Save(ctx context.Context, runs ...store.Run) error
	List(ctx context.Context, f store.Filter) ([]store.Run, error)
}

// Options configures the server.
type Options struct {
	Schema         dataset.Schema
	AllowedOrigins []string
	MaxUploadMB    int
}

// Server holds uploaded datasets in memory and runs forecasts against them.
type Server struct {
	runner *pipeline.Runner
	runs   RunStore
	logger *slog.Logger
	opts   Options
	router *gin.Engine

	mu       sync.RWMutex
	datasets map[string]*dataset.Dataset
}

// New builds the server and its routes.
func New(runner *pipeline.Runner, runs RunStore, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Schema == (dataset.Schema{}) {
		opts.Schema = dataset.DefaultSchema()
	}
	if opts.MaxUploadMB <= 0 {
		opts.MaxUploadMB = 32
	}

	s := &Server{
		runner:   runner,
		runs:     runs,
		logger:   logger.With("component", "server"),
		opts:     opts,
		datasets: make(map[string]*dataset.Dataset),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.MaxMultipartMemory = int64(s.opts.MaxUploadMB) << 20

	if len(s.opts.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     s.opts.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type"},
			ExposeHeaders:    []string{"Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.POST("/datasets", s.uploadDataset)
		api.GET("/datasets/:id/regions", s.listRegions)
		api.GET("/datasets/:id/variables", s.listVariables)
		api.GET("/datasets/:id/forecast/:region/export", s.exportForecast)

		api.POST("/forecast", s.runForecast)

		api.GET("/runs", s.listRuns)
	}

	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Register adds a loaded dataset and returns its id.
func (s *Server) Register(ds *dataset.Dataset) string {
	id := uuid.NewString()
	s.mu.Lock()
	s.datasets[id] = ds
	s.mu.Unlock()
	return id
}

func (s *Server) dataset(id string) (*dataset.Dataset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ds, ok := s.datasets[id]
	return ds, ok
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
