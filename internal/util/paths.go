package util

import (
	"path/filepath"
	"strings"
)

// OutputPath 输出路径：为空时用 fallback，缺少 .xlsx 扩展名时补上
func OutputPath(value, fallback string) string {
	out := strings.TrimSpace(value)
	if out == "" {
		out = fallback
	}
	if !strings.EqualFold(filepath.Ext(out), ".xlsx") {
		out += ".xlsx"
	}
	return out
}

// CleanInputPath 去掉终端拖放文件时带上的引号与空白
func CleanInputPath(value string) string {
	return strings.Trim(strings.TrimSpace(value), `"'`)
}
