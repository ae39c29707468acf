package reconcile

import (
	"errors"
	"fmt"
)

// ErrMissingColumn 文件缺少必需列
var ErrMissingColumn = errors.New("missing required column")

// ErrEmptySheet 工作表没有表头
var ErrEmptySheet = errors.New("empty sheet")

// ErrorKind 失败类型
type ErrorKind string

const (
	KindRead ErrorKind = "read" // 无法按表格读取（文件1或文件2）
	KindLoad ErrorKind = "load" // 文件2无法作为可设置样式的工作簿打开
	KindSave ErrorKind = "save" // 结果工作簿写盘失败
)

// Error 核心流程的失败，均为致命错误
type Error struct {
	Kind ErrorKind
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func readError(path string, err error) *Error {
	return &Error{Kind: KindRead, Path: path, Err: err}
}

func loadError(path string, err error) *Error {
	return &Error{Kind: KindLoad, Path: path, Err: err}
}

func saveError(path string, err error) *Error {
	return &Error{Kind: KindSave, Path: path, Err: err}
}

// IsKind 判断 err 链上是否有指定类型的核心错误
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
