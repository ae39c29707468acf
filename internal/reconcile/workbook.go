package reconcile

import (
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"
)

// Workbook 文件2：可逐单元格设置样式的活动工作表
type Workbook struct {
	File  *excelize.File
	Sheet string
	Rows  [][]string // 显示值，Rows[0] 为表头

	source    string
	converted string // .xls 转换出的临时 .xlsx，Close 时删除
}

// OpenWorkbook 打开文件2；.xls 先转换为临时 .xlsx（只保留值）
func OpenWorkbook(path, tempDir string) (*Workbook, error) {
	wb := &Workbook{source: path}
	openPath := path

	if IsLegacyFormat(path) {
		rows, err := readLegacyRows(path)
		if err != nil {
			return nil, readError(path, err)
		}
		converted, err := convertLegacy(rows, tempDir)
		if err != nil {
			return nil, loadError(path, err)
		}
		wb.converted = converted
		openPath = converted
	}

	f, err := excelize.OpenFile(openPath)
	if err != nil {
		wb.removeConverted()
		return nil, loadError(path, fmt.Errorf("failed to open excel: %w", err))
	}
	wb.File = f
	wb.Sheet = f.GetSheetName(f.GetActiveSheetIndex())

	rows, err := f.GetRows(wb.Sheet)
	if err != nil {
		_ = wb.Close()
		return nil, readError(path, fmt.Errorf("failed to read sheet %q: %w", wb.Sheet, err))
	}
	wb.Rows = rows
	return wb, nil
}

// MaxColumn 所有行中最靠右的非空列（1 基）
func (w *Workbook) MaxColumn() int {
	maxCol := 0
	for _, row := range w.Rows {
		if n := len(trimTrailingEmpty(row)); n > maxCol {
			maxCol = n
		}
	}
	return maxCol
}

// Close 关闭工作簿并删除转换产生的临时文件
func (w *Workbook) Close() error {
	var err error
	if w.File != nil {
		err = w.File.Close()
	}
	w.removeConverted()
	return err
}

func (w *Workbook) removeConverted() {
	if w.converted != "" {
		_ = os.Remove(w.converted)
		w.converted = ""
	}
}

func convertLegacy(rows [][]string, tempDir string) (string, error) {
	tmp, err := os.CreateTemp(tempDir, "excel-handle-*.xlsx")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	name := tmp.Name()
	_ = tmp.Close()

	if err := writeRowsAsXLSX(rows, name); err != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("failed to convert xls: %w", err)
	}
	return name, nil
}
