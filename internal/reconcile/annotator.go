package reconcile

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// 填充色
const (
	ColorYellow = "FFFF00" // 已匹配且文件编号不为空
	ColorOrange = "FFA500" // 已匹配但文件编号为空
)

// Annotator 在工作表上写数据来源并整行填色
type Annotator struct {
	file      *excelize.File
	sheet     string
	sourceCol int // 数据来源列（1 基），也是填色的最后一列

	styles map[styleKey]int
}

type styleKey struct {
	base  int
	color string
}

// NewAnnotator 创建标注器，数据来源列追加在 lastCol 之后
func NewAnnotator(f *excelize.File, sheet string, lastCol int) *Annotator {
	return &Annotator{
		file:      f,
		sheet:     sheet,
		sourceCol: lastCol + 1,
		styles:    make(map[styleKey]int),
	}
}

// SourceColumn 数据来源列（1 基）
func (a *Annotator) SourceColumn() int {
	return a.sourceCol
}

// WriteHeader 在第 1 行写入数据来源列表头
func (a *Annotator) WriteHeader(title string) error {
	cell, err := excelize.CoordinatesToCellName(a.sourceCol, 1)
	if err != nil {
		return err
	}
	return a.file.SetCellValue(a.sheet, cell, title)
}

// Annotate 写入数据来源并用 color 填充第 row 行的 1..数据来源列
func (a *Annotator) Annotate(row int, provenance, color string) error {
	cell, err := excelize.CoordinatesToCellName(a.sourceCol, row)
	if err != nil {
		return err
	}
	if err := a.file.SetCellValue(a.sheet, cell, provenance); err != nil {
		return fmt.Errorf("failed to write provenance %s: %w", cell, err)
	}

	for col := 1; col <= a.sourceCol; col++ {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		base, err := a.file.GetCellStyle(a.sheet, cell)
		if err != nil {
			return fmt.Errorf("failed to read style %s: %w", cell, err)
		}
		styleID, err := a.filledStyle(base, color)
		if err != nil {
			return err
		}
		if err := a.file.SetCellStyle(a.sheet, cell, cell, styleID); err != nil {
			return fmt.Errorf("failed to fill %s: %w", cell, err)
		}
	}
	return nil
}

// filledStyle 在原样式基础上只替换填充，字体、边框、数字格式保持不变
func (a *Annotator) filledStyle(base int, color string) (int, error) {
	key := styleKey{base: base, color: color}
	if id, ok := a.styles[key]; ok {
		return id, nil
	}

	style := &excelize.Style{}
	if base != 0 {
		s, err := a.file.GetStyle(base)
		if err != nil {
			return 0, fmt.Errorf("failed to load style %d: %w", base, err)
		}
		style = s
	}
	style.Fill = excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1}

	id, err := a.file.NewStyle(style)
	if err != nil {
		return 0, fmt.Errorf("failed to create fill style: %w", err)
	}
	a.styles[key] = id
	return id, nil
}

// fileNumberEmpty 文件编号列不存在或去空白后为空
func fileNumberEmpty(row []string, col int, present bool) bool {
	if !present {
		return true
	}
	return strings.TrimSpace(cellAt(row, col)) == ""
}
