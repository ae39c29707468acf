package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPath(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		segments []string
		want     string
	}{
		{"plain", []string{"A", "B", "C"}, "A/B/C"},
		{"trimmed", []string{" A ", "\tB"}, "A/B"},
		{"gap skipped", []string{"A", "", "C"}, "A/C"},
		{"placeholders", []string{"A", "/", "//", "///", "B"}, "A/B"},
		{"four slashes kept", []string{"A", "////"}, "A/////"},
		{"all empty", []string{"", " ", "/"}, ""},
		{"none", nil, ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, BuildPath(tc.segments), tc.name)
	}
}

func TestFolderColumns_OnlyPresentLevels(t *testing.T) {
	t.Parallel()

	header := newHeaderIndex([]string{"title", "level-2-folder", "level-1-folder", "level-6-folder"})
	cols := folderColumns(header, LabelsEN)

	// 按层级顺序而不是列顺序
	assert.Equal(t, []int{2, 1, 3}, cols)
	assert.Equal(t, "root/sub/leaf", buildRowPath([]string{"x", "sub", "root", "leaf"}, cols))
}
