// Package server exposes the workspace over HTTP with gin.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/asaidimu/go-tabula/core/upload"
	"github.com/asaidimu/go-tabula/core/workspace"
	"github.com/asaidimu/go-tabula/internal/metrics"
	"github.com/asaidimu/go-tabula/sqlite"
	"github.com/asaidimu/go-tabula/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Options configures a Server. Zero values select the upload package
// defaults and a ten row preview.
type Options struct {
	MaxUploadBytes int64
	AllowedTypes   []string
	PreviewRows    int
	Metrics        *metrics.Metrics
	Logger         *zap.Logger

	// Store persists uploaded datasets when set.
	Store *sqlite.Store

	// OptimizeDelay is the quiet period after dataset changes before the
	// store is optimized. Zero selects five seconds.
	OptimizeDelay time.Duration
}

// Server holds the HTTP handlers.
type Server struct {
	ws      *workspace.Workspace
	store   *sqlite.Store
	metrics *metrics.Metrics
	logger  *zap.Logger

	uploadOpts  []upload.Option
	previewRows int

	closers []func()
}

// New creates a server over ws.
func New(ws *workspace.Workspace, opts Options) *Server {
	s := &Server{
		ws:          ws,
		store:       opts.Store,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
		previewRows: opts.PreviewRows,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	s.closers = append(s.closers, s.metrics.Observe(ws))
	if s.store != nil {
		s.watchStore(opts.OptimizeDelay)
	}
	if s.previewRows <= 0 {
		s.previewRows = 10
	}
	if opts.MaxUploadBytes > 0 {
		s.uploadOpts = append(s.uploadOpts, upload.WithMaxSize(opts.MaxUploadBytes))
	}
	if len(opts.AllowedTypes) > 0 {
		s.uploadOpts = append(s.uploadOpts, upload.WithAllowedTypes(opts.AllowedTypes...))
	}
	return s
}

// watchStore optimizes the store once dataset churn settles.
func (s *Server) watchStore(delay time.Duration) {
	if delay <= 0 {
		delay = 5 * time.Second
	}
	optimize, cancel := utils.Debounce(func() {
		if err := s.store.Optimize(context.Background()); err != nil {
			s.logger.Warn("Store optimize failed", zap.Error(err))
			return
		}
		s.logger.Debug("Store optimized")
	}, delay, false)

	onChange := func(context.Context, workspace.Event) error {
		optimize()
		return nil
	}
	loaded := s.ws.Subscribe(workspace.DatasetLoaded, onChange, "store-optimize")
	removed := s.ws.Subscribe(workspace.DatasetRemoved, onChange, "store-optimize")
	s.closers = append(s.closers, cancel, func() {
		s.ws.Unsubscribe(loaded)
		s.ws.Unsubscribe(removed)
	})
}

// Close removes the server's workspace subscriptions and pending work.
func (s *Server) Close() {
	for _, fn := range s.closers {
		fn()
	}
	s.closers = nil
}

// Restore loads every stored snapshot into the workspace.
func (s *Server) Restore(ctx context.Context) (int, error) {
	if s.store == nil {
		return 0, nil
	}
	infos, err := s.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list snapshots: %w", err)
	}
	for _, info := range infos {
		snap, err := s.store.Load(ctx, info.ID)
		if err != nil {
			return 0, fmt.Errorf("failed to load snapshot %s: %w", info.ID, err)
		}
		if _, err := s.ws.Restore(snap.ID, snap.Name, snap.Table); err != nil {
			return 0, err
		}
	}
	s.logger.Info("Restored snapshots", zap.Int("count", len(infos)))
	return len(infos), nil
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.metrics.Middleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	router.POST("/upload", s.handleUpload)
	datasets := router.Group("/datasets")
	{
		datasets.GET("", s.handleList)
		datasets.GET("/:id/analysis", s.handleAnalysis)
		datasets.GET("/:id/preview", s.handlePreview)
		datasets.POST("/:id/query", s.handleQuery)
		datasets.GET("/:id/unique/:field", s.handleUnique)
		datasets.GET("/:id/anomalies/:feature", s.handleAnomalies)
		datasets.GET("/:id/clusters/:group", s.handleClusters)
		datasets.GET("/:id/export", s.handleExport)
		datasets.DELETE("/:id", s.handleDelete)
	}
	return router
}
