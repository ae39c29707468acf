package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/wilnd/excel-handle/internal/api"
	"github.com/wilnd/excel-handle/internal/config"
	"github.com/wilnd/excel-handle/internal/reconcile"
	"github.com/wilnd/excel-handle/internal/store"
)

//go:embed web/index.html
var staticFiles embed.FS

// DBFileName 任务台账文件名，位于数据目录下
const DBFileName = "excel-handle.db"

// Server HTTP服务器
type Server struct {
	router     *gin.Engine
	store      *store.Store
	api        *api.Handler
	httpServer *http.Server
	logger     zerolog.Logger
}

// NewServer 创建服务器
func NewServer(cfg *config.AppConfig, logger zerolog.Logger) (*Server, error) {
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	labels, err := reconcile.LookupLabels(cfg.Reconcile.Labels)
	if err != nil {
		return nil, err
	}

	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	// 初始化 SQLite 任务台账
	sqliteStore, err := store.New(filepath.Join(dataDir, DBFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	handler := api.NewHandler(api.Options{
		Store:          sqliteStore,
		UploadsDir:     filepath.Join(dataDir, config.UploadsDir),
		MaxUploadBytes: cfg.Server.MaxUploadMB << 20,
		Labels:         labels,
		Retention:      time.Duration(cfg.Data.RetentionHours) * time.Hour,
		Logger:         logger,
	})

	s := &Server{
		router: gin.New(),
		store:  sqliteStore,
		api:    handler,
		logger: logger,
	}
	s.setupRoutes()
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, nil
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	s.router.Use(gin.Recovery(), requestLogger(s.logger))

	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.router.Group("/api")
	{
		s.api.RegisterRoutes(api)
	}

	// 首页；每次访问顺带清理过期上传
	s.router.GET("/", func(c *gin.Context) {
		s.api.Sweep(time.Now())
		data, err := staticFiles.ReadFile("web/index.html")
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", data)
	})

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
}

// requestLogger 用 zerolog 记录每个请求
func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		ev := logger.Debug()
		if status >= http.StatusInternalServerError {
			ev = logger.Warn()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}

// Handler 返回路由（用于测试）
func (s *Server) Handler() http.Handler {
	return s.router
}

// RunSweeper 周期清理过期任务，直到 ctx 结束
func (s *Server) RunSweeper(ctx context.Context, interval time.Duration) {
	s.api.RunSweeper(ctx, interval)
}

// Run 启动服务器，阻塞直到 Shutdown
func (s *Server) Run(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 停止接收请求并关闭台账
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if cerr := s.store.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// GetStore 获取存储（用于测试）
func (s *Server) GetStore() *store.Store {
	return s.store
}
