package api

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wilnd/excel-handle/internal/reconcile"
	"github.com/wilnd/excel-handle/internal/store"
)

const resultFileName = "result.xlsx"

var allowedExt = map[string]bool{
	".xls":  true,
	".xlsx": true,
}

// requestError 带 HTTP 状态码的请求错误
type requestError struct {
	status int
	msg    string
}

func (e *requestError) Error() string {
	return e.msg
}

func badRequest(format string, args ...any) *requestError {
	return &requestError{status: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

// acceptUpload 校验并保存两个上传文件，登记任务
func (h *Handler) acceptUpload(c *gin.Context) (*job, error) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &requestError{
				status: http.StatusRequestEntityTooLarge,
				msg:    fmt.Sprintf("upload exceeds %d MB", h.maxUploadBytes>>20),
			}
		}
		return nil, badRequest("invalid form data")
	}

	file1, err1 := c.FormFile("file1")
	file2, err2 := c.FormFile("file2")
	if err1 != nil || err2 != nil {
		return nil, badRequest("both file1 (plan) and file2 (actual uploads) are required")
	}

	ext1 := strings.ToLower(filepath.Ext(file1.Filename))
	ext2 := strings.ToLower(filepath.Ext(file2.Filename))
	if !allowedExt[ext1] || !allowedExt[ext2] {
		return nil, badRequest("only .xls / .xlsx files are supported")
	}

	labels := h.labels
	if name := c.PostForm("labels"); name != "" {
		l, err := reconcile.LookupLabels(name)
		if err != nil {
			return nil, badRequest("%v", err)
		}
		labels = l
	}

	id := uuid.NewString()
	workDir := filepath.Join(h.uploadsDir, id)
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create job directory: %w", err)
	}

	j := newJob(id, labels, workDir)
	j.planName = filepath.Base(file1.Filename)
	j.actualName = filepath.Base(file2.Filename)
	j.planPath = filepath.Join(workDir, "file1"+ext1)
	j.actualPath = filepath.Join(workDir, "file2"+ext2)
	j.outputPath = filepath.Join(workDir, resultFileName)

	if err := saveUpload(c, file1, j.planPath); err != nil {
		_ = os.RemoveAll(workDir)
		return nil, err
	}
	if err := saveUpload(c, file2, j.actualPath); err != nil {
		_ = os.RemoveAll(workDir)
		return nil, err
	}

	if err := h.store.CreateJob(store.JobRecord{
		ID:         id,
		Labels:     labels.Name,
		PlanFile:   j.planName,
		ActualFile: j.actualName,
		WorkDir:    workDir,
		OutputPath: j.outputPath,
		CreatedAt:  j.createdAt.UTC(),
	}); err != nil {
		_ = os.RemoveAll(workDir)
		return nil, err
	}

	h.jobs.put(j)
	return j, nil
}

func saveUpload(c *gin.Context, fh *multipart.FileHeader, dst string) error {
	if err := c.SaveUploadedFile(fh, dst); err != nil {
		return fmt.Errorf("failed to save %s: %w", fh.Filename, err)
	}
	return nil
}

// respondError 把错误写成 JSON
func respondError(c *gin.Context, err error) {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		c.JSON(reqErr.status, gin.H{"error": reqErr.msg})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func downloadURL(id string) string {
	return "/api/download/" + id
}
