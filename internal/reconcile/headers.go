package reconcile

import (
	"strings"

	"golang.org/x/text/width"
)

// NormalizeHeader 规范化表头：全角转半角并去除首尾空白
func NormalizeHeader(name string) string {
	name = width.Fold.String(name)
	name = strings.ReplaceAll(name, "\n", "")
	name = strings.ReplaceAll(name, "\r", "")
	return strings.TrimSpace(name)
}

// headerIndex 表头名到 0 基列索引；重名列以第一次出现为准
type headerIndex map[string]int

func newHeaderIndex(header []string) headerIndex {
	idx := make(headerIndex, len(header))
	for i, h := range header {
		key := NormalizeHeader(h)
		if key == "" {
			continue
		}
		if _, ok := idx[key]; !ok {
			idx[key] = i
		}
	}
	return idx
}

func (h headerIndex) lookup(name string) (int, bool) {
	i, ok := h[NormalizeHeader(name)]
	return i, ok
}

// cellAt 取行内第 i 列的值，越界返回空串
func cellAt(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
