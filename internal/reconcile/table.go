package reconcile

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// IsLegacyFormat 是否为旧版 .xls 二进制格式
func IsLegacyFormat(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".xls")
}

// readTable 按表格读取第一个工作表的全部行（含表头）
func readTable(path string) ([][]string, error) {
	if IsLegacyFormat(path) {
		return readLegacyRows(path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open excel: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptySheet
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

// legacyMaxCols BIFF8 工作表的列数上限
const legacyMaxCols = 256

// readLegacyRows 读取 .xls 第一个工作表；单元格按显示文本读取
func readLegacyRows(path string) (rows [][]string, err error) {
	// xls 解析器遇到损坏文件会 panic
	defer func() {
		if r := recover(); r != nil {
			rows = nil
			err = fmt.Errorf("failed to parse xls: %v", r)
		}
	}()

	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("failed to open xls: %w", err)
	}
	if wb == nil {
		return nil, errors.New("failed to open xls: no workbook stream")
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, ErrEmptySheet
	}

	last := -1
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := legacyRow(sheet, i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		// 没有 ROW 记录的行 LastCol 为 0，只能按上限扫描
		width := row.LastCol()
		if width <= row.FirstCol() {
			width = legacyMaxCols
		}
		cells := make([]string, width)
		for c := row.FirstCol(); c < width; c++ {
			cells[c] = row.Col(c)
		}
		cells = trimTrailingEmpty(cells)
		if len(cells) > 0 {
			last = i
		}
		rows = append(rows, cells)
	}
	return rows[:last+1], nil
}

// legacyRow 取第 i 行，空行返回 nil（WorkSheet.Row 对不存在的行会 panic）
func legacyRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}

func trimTrailingEmpty(cells []string) []string {
	n := len(cells)
	for n > 0 && cells[n-1] == "" {
		n--
	}
	return cells[:n]
}

// writeRowsAsXLSX 把行数据写成只有值的 .xlsx（原有格式全部丢弃）
func writeRowsAsXLSX(rows [][]string, dst string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}
	for i, row := range rows {
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush rows: %w", err)
	}
	return f.SaveAs(dst)
}
