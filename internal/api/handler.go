// Package api 核对服务的 HTTP 接口：上传两个文件、查询进度、下载结果。
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/wilnd/excel-handle/internal/reconcile"
	"github.com/wilnd/excel-handle/internal/store"
)

// Options Handler 依赖
type Options struct {
	Store          *store.Store
	UploadsDir     string // 每个任务在其下建一个子目录
	MaxUploadBytes int64
	Labels         reconcile.Labels // 请求未指定 labels 时使用
	Retention      time.Duration
	Logger         zerolog.Logger
}

// Handler API 处理器
type Handler struct {
	store          *store.Store
	uploadsDir     string
	maxUploadBytes int64
	labels         reconcile.Labels
	jobs           *jobRegistry
	logger         zerolog.Logger
}

// NewHandler 创建 API 处理器
func NewHandler(opts Options) *Handler {
	return &Handler{
		store:          opts.Store,
		uploadsDir:     opts.UploadsDir,
		maxUploadBytes: opts.MaxUploadBytes,
		labels:         opts.Labels,
		jobs:           newJobRegistry(opts.Retention),
		logger:         opts.Logger,
	}
}

// RegisterRoutes 注册 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 同步核对，完成后返回统计
	router.POST("/reconcile", h.Reconcile)
	// 同步核对，SSE 推送进度
	router.POST("/reconcile/stream", h.ReconcileStream)

	// 异步任务
	router.POST("/jobs", h.StartJob)
	router.GET("/jobs", h.ListJobs)
	router.GET("/jobs/:id", h.GetJob)
	router.GET("/jobs/:id/ws", h.JobSocket)

	// 结果下载
	router.GET("/download/:id", h.Download)
}
