package api

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/wilnd/excel-handle/internal/reconcile"
	"github.com/wilnd/excel-handle/internal/store"
)

// Download 下载标注后的工作簿；文件保留到过期清理为止
// GET /api/download/:id
func (h *Handler) Download(c *gin.Context) {
	id := c.Param("id")

	var (
		path      string
		labelName string
	)
	if j, ok := h.jobs.get(id); ok {
		if j.snapshot().Status != store.StatusCompleted {
			c.JSON(http.StatusNotFound, gin.H{"error": "result not ready"})
			return
		}
		path, labelName = j.outputPath, j.labels.Name
	} else {
		rec, err := h.store.GetJob(id)
		if err != nil || rec.Status != store.StatusCompleted {
			c.JSON(http.StatusNotFound, gin.H{"error": "download link expired"})
			return
		}
		path, labelName = rec.OutputPath, rec.Labels
	}

	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "result file missing"})
		return
	}

	labels, err := reconcile.LookupLabels(labelName)
	if err != nil {
		labels = reconcile.LabelsEN
	}
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.FileAttachment(path, labels.ResultName)
}
