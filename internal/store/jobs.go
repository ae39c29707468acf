package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound 任务不存在
var ErrNotFound = errors.New("job not found")

// Job statuses.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

// JobRecord 一次核对任务的台账记录
type JobRecord struct {
	ID                 string     `json:"job_id"`
	Status             string     `json:"status"`
	Labels             string     `json:"labels"`
	PlanFile           string     `json:"plan_file"`
	ActualFile         string     `json:"actual_file"`
	WorkDir            string     `json:"-"`
	OutputPath         string     `json:"-"`
	YellowCount        int        `json:"yellow_count"`
	OrangeCount        int        `json:"orange_count"`
	PendingUploadCount int        `json:"pending_upload_count"`
	DataRows           int        `json:"data_rows"`
	ErrorMessage       string     `json:"error,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
}

// JobCounts 任务完成时写入的统计
type JobCounts struct {
	Yellow        int
	Orange        int
	PendingUpload int
	DataRows      int
}

const jobColumns = `id, status, labels, plan_file, actual_file, work_dir, output_path,
	yellow_count, orange_count, pending_upload_count, data_rows, error_message,
	created_at, completed_at`

// CreateJob 登记一个处理中的任务
func (s *Store) CreateJob(job JobRecord) error {
	if job.Status == "" {
		job.Status = StatusProcessing
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`
		INSERT INTO jobs (id, status, labels, plan_file, actual_file, work_dir, output_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, job.ID, job.Status, job.Labels, job.PlanFile, job.ActualFile, job.WorkDir, job.OutputPath, job.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// CompleteJob 记录成功完成的任务
func (s *Store) CompleteJob(id string, counts JobCounts) error {
	res, err := s.db.Exec(`
		UPDATE jobs SET
			status = ?,
			yellow_count = ?,
			orange_count = ?,
			pending_upload_count = ?,
			data_rows = ?,
			completed_at = ?
		WHERE id = ?
	`, StatusCompleted, counts.Yellow, counts.Orange, counts.PendingUpload, counts.DataRows, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}
	return requireAffected(res)
}

// FailJob 记录失败的任务
func (s *Store) FailJob(id, message string) error {
	res, err := s.db.Exec(`
		UPDATE jobs SET status = ?, error_message = ?, completed_at = ?
		WHERE id = ?
	`, StatusError, message, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	return requireAffected(res)
}

// GetJob 按 ID 查询
func (s *Store) GetJob(id string) (*JobRecord, error) {
	row := s.db.QueryRow(`SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

// ListJobs 最近的任务，按创建时间倒序
func (s *Store) ListJobs(limit int) ([]JobRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()
	return scanJobs(rows)
}

// JobsCreatedBefore 创建时间早于 t 的任务（用于过期清理）
func (s *Store) JobsCreatedBefore(t time.Time) ([]JobRecord, error) {
	rows, err := s.db.Query(`SELECT `+jobColumns+` FROM jobs WHERE created_at < ? ORDER BY created_at`, t.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query expired jobs: %w", err)
	}
	defer rows.Close()
	return scanJobs(rows)
}

// DeleteJob 删除任务记录
func (s *Store) DeleteJob(id string) error {
	if _, err := s.db.Exec(`DELETE FROM jobs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (*JobRecord, error) {
	var (
		job       JobRecord
		completed sql.NullTime
	)
	err := row.Scan(
		&job.ID, &job.Status, &job.Labels, &job.PlanFile, &job.ActualFile, &job.WorkDir, &job.OutputPath,
		&job.YellowCount, &job.OrangeCount, &job.PendingUploadCount, &job.DataRows, &job.ErrorMessage,
		&job.CreatedAt, &completed,
	)
	if err != nil {
		return nil, err
	}
	if completed.Valid {
		t := completed.Time
		job.CompletedAt = &t
	}
	return &job, nil
}

func scanJobs(rows *sql.Rows) ([]JobRecord, error) {
	var jobs []JobRecord
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
