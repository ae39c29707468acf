package reconcile

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// writeWorkbook 在临时目录生成一个单表 .xlsx，rows[0] 为表头
func writeWorkbook(t *testing.T, name string, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, f.SaveAs(path))
	return path
}

func openResult(t *testing.T, path string) (*excelize.File, string) {
	t.Helper()

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f, f.GetSheetName(f.GetActiveSheetIndex())
}

// fillColor 单元格的填充色（大写 RGB），无填充返回空串
func fillColor(t *testing.T, f *excelize.File, sheet, cell string) string {
	t.Helper()

	id, err := f.GetCellStyle(sheet, cell)
	require.NoError(t, err)
	if id == 0 {
		return ""
	}
	style, err := f.GetStyle(id)
	require.NoError(t, err)
	if len(style.Fill.Color) == 0 {
		return ""
	}
	return strings.ToUpper(strings.TrimPrefix(style.Fill.Color[0], "#"))
}

func requireFill(t *testing.T, f *excelize.File, sheet, cell, want string) {
	t.Helper()
	got := fillColor(t, f, sheet, cell)
	require.Truef(t, strings.HasSuffix(got, want), "%s fill = %q, want %s", cell, got, want)
}

func requireNoFill(t *testing.T, f *excelize.File, sheet, cell string) {
	t.Helper()
	require.Emptyf(t, fillColor(t, f, sheet, cell), "%s should not be filled", cell)
}

var planHeader = []interface{}{"upload plan", "path", "file name"}

var actualHeader = []interface{}{
	"level-1-folder", "level-2-folder", "level-3-folder", "file number", "title",
}
