package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	st, err := New(filepath.Join(t.TempDir(), "excel-handle.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestJobLifecycle_Completed(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	require.NoError(t, st.CreateJob(JobRecord{ID: "j1", Labels: "en", PlanFile: "plan.xlsx", ActualFile: "actual.xls"}))

	job, err := st.GetJob("j1")
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, job.Status)
	assert.Nil(t, job.CompletedAt)

	require.NoError(t, st.CompleteJob("j1", JobCounts{Yellow: 3, Orange: 2, PendingUpload: 7, DataRows: 10}))

	job, err = st.GetJob("j1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, job.Status)
	assert.Equal(t, 3, job.YellowCount)
	assert.Equal(t, 2, job.OrangeCount)
	assert.Equal(t, 7, job.PendingUploadCount)
	assert.Equal(t, "actual.xls", job.ActualFile)
	require.NotNil(t, job.CompletedAt)
}

func TestJobLifecycle_Failed(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	require.NoError(t, st.CreateJob(JobRecord{ID: "j2"}))
	require.NoError(t, st.FailJob("j2", "read plan.xlsx: missing required column: upload plan"))

	job, err := st.GetJob("j2")
	require.NoError(t, err)
	assert.Equal(t, StatusError, job.Status)
	assert.Contains(t, job.ErrorMessage, "upload plan")
}

func TestGetJob_NotFound(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	_, err := st.GetJob("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, st.CompleteJob("missing", JobCounts{}), ErrNotFound)
}

func TestListAndExpire(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	now := time.Now().UTC()
	require.NoError(t, st.CreateJob(JobRecord{ID: "old", CreatedAt: now.Add(-48 * time.Hour)}))
	require.NoError(t, st.CreateJob(JobRecord{ID: "new", CreatedAt: now}))

	jobs, err := st.ListJobs(10)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "new", jobs[0].ID)

	expired, err := st.JobsCreatedBefore(now.Add(-24 * time.Hour))
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, "old", expired[0].ID)

	require.NoError(t, st.DeleteJob("old"))
	jobs, err = st.ListJobs(0)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
}
