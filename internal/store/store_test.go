package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_CreatesDirectoryAndReopens(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "data", "excel-handle.db")
	st, err := New(path)
	require.NoError(t, err)
	require.NoError(t, st.CreateJob(JobRecord{ID: "kept", Labels: "zh"}))
	require.NoError(t, st.Close())

	st, err = New(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	job, err := st.GetJob("kept")
	require.NoError(t, err)
	assert.Equal(t, "zh", job.Labels)
}

func TestClose_ZeroStore(t *testing.T) {
	t.Parallel()

	assert.NoError(t, (&Store{}).Close())
}
