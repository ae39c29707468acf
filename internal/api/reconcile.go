package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wilnd/excel-handle/internal/reconcile"
	"github.com/wilnd/excel-handle/internal/store"
)

// run 执行核对并把结果写入任务与台账
func (h *Handler) run(j *job) {
	log := h.logger.With().Str("job_id", j.id).Logger()
	log.Info().
		Str("plan", j.planName).
		Str("actual", j.actualName).
		Str("labels", j.labels.Name).
		Msg("reconcile started")

	res, err := reconcile.Run(reconcile.Options{
		PlanPath:   j.planPath,
		ActualPath: j.actualPath,
		OutputPath: j.outputPath,
		Labels:     j.labels,
		TempDir:    j.workDir,
		Progress:   j.progress,
		Logger:     &log,
	})
	if err != nil {
		log.Error().Err(err).Msg("reconcile failed")
		if ferr := h.store.FailJob(j.id, err.Error()); ferr != nil {
			log.Warn().Err(ferr).Msg("failed to record job failure")
		}
		j.fail(err)
		return
	}

	if err := h.store.CompleteJob(j.id, store.JobCounts{
		Yellow:        res.YellowCount,
		Orange:        res.OrangeCount,
		PendingUpload: res.PlannedCount,
		DataRows:      res.DataRows,
	}); err != nil {
		log.Warn().Err(err).Msg("failed to record job result")
	}
	j.complete(res)
}

// Reconcile 上传两个文件并同步核对
// POST /api/reconcile
func (h *Handler) Reconcile(c *gin.Context) {
	j, err := h.acceptUpload(c)
	if err != nil {
		respondError(c, err)
		return
	}

	h.run(j)

	s := j.snapshot()
	if s.Status != store.StatusCompleted {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":  "reconcile failed: " + s.Error,
			"job_id": j.id,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":              true,
		"job_id":               j.id,
		"yellow_count":         s.YellowCount,
		"orange_count":         s.OrangeCount,
		"pending_upload_count": s.PendingUploadCount,
		"download_url":         s.DownloadURL,
	})
}

// ReconcileStream 上传两个文件并核对（SSE 进度 + 完成后提供下载地址）
// POST /api/reconcile/stream
func (h *Handler) ReconcileStream(c *gin.Context) {
	j, err := h.acceptUpload(c)
	if err != nil {
		respondError(c, err)
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming not supported"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	send := func(event JobEvent) {
		b, err := json.Marshal(event)
		if err != nil {
			return
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", b)
		flusher.Flush()
	}

	events := j.subscribe()
	send(JobEvent{
		Type:    "start",
		Message: "reconcile started",
		Data: map[string]any{
			"job_id": j.id,
			"file1":  j.planName,
			"file2":  j.actualName,
		},
		Timestamp: time.Now(),
	})

	go h.run(j)

	lastPercent := -1
	for ev := range events {
		if data, ok := ev.Data.(map[string]any); ok && ev.Type == "progress" {
			if p, ok := data["percent"].(int); ok {
				if p == lastPercent {
					continue
				}
				lastPercent = p
			}
		}
		send(ev)
	}
}

// StartJob 上传两个文件并在后台核对，立即返回任务 ID
// POST /api/jobs
func (h *Handler) StartJob(c *gin.Context) {
	j, err := h.acceptUpload(c)
	if err != nil {
		respondError(c, err)
		return
	}

	go h.run(j)

	c.JSON(http.StatusAccepted, gin.H{
		"job_id":     j.id,
		"status_url": "/api/jobs/" + j.id,
	})
}

// GetJob 查询任务状态；进程重启后从台账读取
// GET /api/jobs/:id
func (h *Handler) GetJob(c *gin.Context) {
	id := c.Param("id")
	if j, ok := h.jobs.get(id); ok {
		c.JSON(http.StatusOK, j.snapshot())
		return
	}

	rec, err := h.store.GetJob(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, statusFromRecord(rec))
}

// ListJobs 最近的任务
// GET /api/jobs
func (h *Handler) ListJobs(c *gin.Context) {
	jobs, err := h.store.ListJobs(50)
	if err != nil {
		respondError(c, err)
		return
	}
	if jobs == nil {
		jobs = []store.JobRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"items": jobs, "total": len(jobs)})
}

func statusFromRecord(rec *store.JobRecord) JobStatus {
	s := JobStatus{
		JobID:              rec.ID,
		Status:             rec.Status,
		YellowCount:        rec.YellowCount,
		OrangeCount:        rec.OrangeCount,
		PendingUploadCount: rec.PendingUploadCount,
		Error:              rec.ErrorMessage,
	}
	switch rec.Status {
	case store.StatusCompleted:
		s.Progress = 100
		s.DownloadURL = downloadURL(rec.ID)
	case store.StatusProcessing:
		// 台账里仍是处理中，说明进程在任务结束前退出
		s.Status = store.StatusError
		s.Error = "job interrupted"
	}
	return s
}
