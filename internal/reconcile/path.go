package reconcile

import "strings"

// 占位用的文件夹值，不计入路径
var placeholderSegments = map[string]bool{
	"/":   true,
	"//":  true,
	"///": true,
}

// folderColumns 文件2中存在的层级文件夹列（0 基索引，按层级顺序）
func folderColumns(header headerIndex, labels Labels) []int {
	cols := make([]int, 0, MaxFolderLevels)
	for level := 1; level <= MaxFolderLevels; level++ {
		if i, ok := header.lookup(labels.FolderColumn(level)); ok {
			cols = append(cols, i)
		}
	}
	return cols
}

// BuildPath 用 '/' 拼接非空、非占位的文件夹段
func BuildPath(segments []string) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		s = strings.TrimSpace(s)
		if s == "" || placeholderSegments[s] {
			continue
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, "/")
}

func buildRowPath(row []string, cols []int) string {
	segments := make([]string, len(cols))
	for i, c := range cols {
		segments[i] = cellAt(row, c)
	}
	return BuildPath(segments)
}
