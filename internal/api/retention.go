package api

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

// Sweep 删除超过保留期的任务目录与台账记录，返回删除的任务数。
// 不在台账里的残留目录按修改时间判断。
func (h *Handler) Sweep(now time.Time) int {
	if h.jobs.ttl <= 0 {
		return 0
	}
	threshold := now.Add(-h.jobs.ttl)
	removed := 0

	expired, err := h.store.JobsCreatedBefore(threshold)
	if err != nil {
		h.logger.Warn().Err(err).Msg("failed to list expired jobs")
	}
	for _, rec := range expired {
		if j, ok := h.jobs.get(rec.ID); ok {
			select {
			case <-j.finished:
			default:
				continue // 仍在处理
			}
		}
		if rec.WorkDir != "" {
			if err := os.RemoveAll(rec.WorkDir); err != nil {
				h.logger.Warn().Err(err).Str("job_id", rec.ID).Msg("failed to remove job directory")
				continue
			}
		}
		if err := h.store.DeleteJob(rec.ID); err != nil {
			h.logger.Warn().Err(err).Str("job_id", rec.ID).Msg("failed to delete job record")
			continue
		}
		h.jobs.delete(rec.ID)
		removed++
	}

	entries, err := os.ReadDir(h.uploadsDir)
	if err != nil {
		return removed
	}
	for _, e := range entries {
		info, err := e.Info()
		if err != nil || info.ModTime().After(threshold) {
			continue
		}
		if _, live := h.jobs.get(e.Name()); live {
			continue
		}
		_ = os.RemoveAll(filepath.Join(h.uploadsDir, e.Name()))
	}

	if removed > 0 {
		h.logger.Info().Int("jobs", removed).Msg("expired jobs removed")
	}
	return removed
}

// RunSweeper 启动时清理一次，之后每隔 interval 清理，直到 ctx 结束
func (h *Handler) RunSweeper(ctx context.Context, interval time.Duration) {
	h.Sweep(time.Now())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			h.Sweep(now)
		}
	}
}
