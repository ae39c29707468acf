package reconcile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func runScenario(t *testing.T, planRows, actualRows [][]interface{}) (*Result, string) {
	t.Helper()

	planPath := writeWorkbook(t, "plan.xlsx", planRows)
	actualPath := writeWorkbook(t, "actual.xlsx", actualRows)
	output := filepath.Join(t.TempDir(), "out.xlsx")

	res, err := Run(Options{
		PlanPath:   planPath,
		ActualPath: actualPath,
		OutputPath: output,
		Labels:     LabelsEN,
	})
	require.NoError(t, err)
	return res, output
}

func TestRun_ExactMatchWithFileNumberIsYellow(t *testing.T) {
	t.Parallel()

	res, output := runScenario(t,
		[][]interface{}{planHeader, {"yes", "A/B", "doc1"}},
		[][]interface{}{actualHeader, {"A", "B", nil, "123", "t"}},
	)

	assert.True(t, res.Success)
	assert.Equal(t, 1, res.YellowCount)
	assert.Equal(t, 0, res.OrangeCount)
	assert.Equal(t, 1, res.PlannedCount)
	assert.Equal(t, 1, res.ExactMatches)

	f, sheet := openResult(t, output)
	header, err := f.GetCellValue(sheet, "F1")
	require.NoError(t, err)
	assert.Equal(t, "data source", header)

	prov, err := f.GetCellValue(sheet, "F2")
	require.NoError(t, err)
	assert.Equal(t, "file 1 row 2: doc1", prov)

	for _, cell := range []string{"A2", "B2", "C2", "D2", "E2", "F2"} {
		requireFill(t, f, sheet, cell, ColorYellow)
	}
	requireNoFill(t, f, sheet, "A1")
	requireNoFill(t, f, sheet, "G2")
}

func TestRun_ExactMatchWithoutFileNumberIsOrange(t *testing.T) {
	t.Parallel()

	res, output := runScenario(t,
		[][]interface{}{planHeader, {"yes", "A/B", "doc1"}},
		[][]interface{}{actualHeader, {"A", "B", nil, "  ", "t"}},
	)

	assert.Equal(t, 0, res.YellowCount)
	assert.Equal(t, 1, res.OrangeCount)

	f, sheet := openResult(t, output)
	requireFill(t, f, sheet, "A2", ColorOrange)
	requireFill(t, f, sheet, "F2", ColorOrange)
}

func TestRun_MissingFileNumberColumnIsOrange(t *testing.T) {
	t.Parallel()

	res, _ := runScenario(t,
		[][]interface{}{planHeader, {"yes", "A/B", "doc1"}},
		[][]interface{}{{"level-1-folder", "level-2-folder"}, {"A", "B"}},
	)
	assert.Equal(t, 1, res.OrangeCount)
}

func TestRun_PrefixMatch(t *testing.T) {
	t.Parallel()

	res, output := runScenario(t,
		[][]interface{}{planHeader, {"yes", "A/B", "doc1"}},
		[][]interface{}{actualHeader, {"A", "B", "C", "7", "t"}},
	)

	assert.Equal(t, 1, res.YellowCount)
	assert.Equal(t, 1, res.PrefixMatches)

	f, sheet := openResult(t, output)
	prov, err := f.GetCellValue(sheet, "F2")
	require.NoError(t, err)
	assert.Equal(t, "file 1 row 2: doc1", prov)
}

func TestRun_EmptyPathRowsUntouched(t *testing.T) {
	t.Parallel()

	res, output := runScenario(t,
		[][]interface{}{planHeader, {"yes", "A", "doc1"}},
		[][]interface{}{
			actualHeader,
			{"/", "//", "///", "1", "placeholders only"},
			{nil, nil, nil, "2", "blank folders"},
			{"Z", nil, nil, "3", "unplanned"},
			{"A", "/", nil, "4", "planned"},
		},
	)

	assert.Equal(t, 1, res.YellowCount)
	assert.Equal(t, 0, res.OrangeCount)
	assert.Equal(t, 4, res.DataRows)
	assert.LessOrEqual(t, res.YellowCount+res.OrangeCount, res.DataRows)

	f, sheet := openResult(t, output)
	for _, row := range []string{"2", "3", "4"} {
		requireNoFill(t, f, sheet, "A"+row)
		v, err := f.GetCellValue(sheet, "F"+row)
		require.NoError(t, err)
		assert.Empty(t, v)
	}
	requireFill(t, f, sheet, "A5", ColorYellow)
}

func TestRun_PlannedCountIncludesRowsWithoutPath(t *testing.T) {
	t.Parallel()

	res, _ := runScenario(t,
		[][]interface{}{planHeader, {"yes", "A", "a"}, {"yes", nil, "b"}, {nil, "C", "c"}},
		[][]interface{}{actualHeader, {"Q", nil, nil, nil, nil}},
	)
	assert.Equal(t, 2, res.PlannedCount)
	assert.Equal(t, 1, res.PlanEntries)
	assert.Zero(t, res.YellowCount+res.OrangeCount)
}

func TestRun_Deterministic(t *testing.T) {
	t.Parallel()

	planPath := writeWorkbook(t, "plan.xlsx", [][]interface{}{
		planHeader,
		{"yes", "A/B", "doc1"},
		{"yes", "A/C", "doc2"},
	})
	actualPath := writeWorkbook(t, "actual.xlsx", [][]interface{}{
		actualHeader,
		{"A", "B", nil, "1", nil},
		{"A", "C", "D", nil, nil},
		{"E", nil, nil, nil, nil},
	})
	output := filepath.Join(t.TempDir(), "out.xlsx")

	var results []*Result
	var provenance [][]string
	for i := 0; i < 2; i++ {
		res, err := Run(Options{PlanPath: planPath, ActualPath: actualPath, OutputPath: output})
		require.NoError(t, err)
		res.Duration = 0
		results = append(results, res)

		f, err := excelize.OpenFile(output)
		require.NoError(t, err)
		sheet := f.GetSheetName(f.GetActiveSheetIndex())
		var col []string
		for _, cell := range []string{"F1", "F2", "F3", "F4"} {
			v, err := f.GetCellValue(sheet, cell)
			require.NoError(t, err)
			col = append(col, v)
		}
		provenance = append(provenance, col)
		require.NoError(t, f.Close())
	}

	assert.Equal(t, results[0], results[1])
	assert.Equal(t, provenance[0], provenance[1])
	assert.Equal(t, []string{"data source", "file 1 row 2: doc1", "file 1 row 3: doc2", ""}, provenance[0])
	assert.Equal(t, 1, results[0].YellowCount)
	assert.Equal(t, 1, results[0].OrangeCount)
}

func TestRun_ChineseLabels(t *testing.T) {
	t.Parallel()

	planPath := writeWorkbook(t, "plan.xlsx", [][]interface{}{
		{"上传计划", "路径", "文件名称"},
		{"是", "制度/财务/", "报销办法"},
	})
	actualPath := writeWorkbook(t, "actual.xlsx", [][]interface{}{
		{"1级文件夹", "2级文件夹", "文件编号"},
		{"制度", "财务", "CW-001"},
	})
	output := filepath.Join(t.TempDir(), "out.xlsx")

	res, err := Run(Options{PlanPath: planPath, ActualPath: actualPath, OutputPath: output, Labels: LabelsZH})
	require.NoError(t, err)
	assert.Equal(t, 1, res.YellowCount)

	f, sheet := openResult(t, output)
	header, _ := f.GetCellValue(sheet, "D1")
	assert.Equal(t, "数据来源", header)
	prov, _ := f.GetCellValue(sheet, "D2")
	assert.Equal(t, "文件1第2行: 报销办法", prov)
}

func TestRun_KeepsExistingCellFormatting(t *testing.T) {
	t.Parallel()

	f := excelize.NewFile()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	row1 := []interface{}{"level-1-folder", "file number"}
	row2 := []interface{}{"A", "9"}
	require.NoError(t, f.SetSheetRow(sheet, "A1", &row1))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &row2))
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle(sheet, "A2", "A2", bold))
	actualPath := filepath.Join(t.TempDir(), "actual.xlsx")
	require.NoError(t, f.SaveAs(actualPath))
	require.NoError(t, f.Close())

	planPath := writeWorkbook(t, "plan.xlsx", [][]interface{}{planHeader, {"yes", "A", "doc"}})
	output := filepath.Join(t.TempDir(), "out.xlsx")
	_, err = Run(Options{PlanPath: planPath, ActualPath: actualPath, OutputPath: output})
	require.NoError(t, err)

	out, outSheet := openResult(t, output)
	requireFill(t, out, outSheet, "A2", ColorYellow)
	id, err := out.GetCellStyle(outSheet, "A2")
	require.NoError(t, err)
	style, err := out.GetStyle(id)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.True(t, style.Font.Bold)
}

func TestRun_ProgressIsCoarseAndEndsAt100(t *testing.T) {
	t.Parallel()

	actual := [][]interface{}{actualHeader}
	for i := 0; i < 200; i++ {
		actual = append(actual, []interface{}{"A", nil, nil, nil, nil})
	}
	planPath := writeWorkbook(t, "plan.xlsx", [][]interface{}{planHeader, {"yes", "A", "doc"}})
	actualPath := writeWorkbook(t, "actual.xlsx", actual)

	var percents []int
	res, err := Run(Options{
		PlanPath:   planPath,
		ActualPath: actualPath,
		OutputPath: filepath.Join(t.TempDir(), "out.xlsx"),
		Progress: func(p int, _ string) {
			percents = append(percents, p)
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 200, res.OrangeCount)

	require.NotEmpty(t, percents)
	assert.Equal(t, 10, percents[0])
	assert.Equal(t, 100, percents[len(percents)-1])
	assert.LessOrEqual(t, len(percents), 60)
	for i := 1; i < len(percents); i++ {
		assert.GreaterOrEqual(t, percents[i], percents[i-1])
	}
}

func TestRun_ReadFailureForMissingPlan(t *testing.T) {
	t.Parallel()

	actualPath := writeWorkbook(t, "actual.xlsx", [][]interface{}{actualHeader})
	_, err := Run(Options{
		PlanPath:   filepath.Join(t.TempDir(), "missing.xlsx"),
		ActualPath: actualPath,
		OutputPath: filepath.Join(t.TempDir(), "out.xlsx"),
	})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindRead))
}

func TestRun_LoadFailureForCorruptActual(t *testing.T) {
	t.Parallel()

	planPath := writeWorkbook(t, "plan.xlsx", [][]interface{}{planHeader, {"yes", "A", "doc"}})
	actualPath := filepath.Join(t.TempDir(), "actual.xlsx")
	require.NoError(t, os.WriteFile(actualPath, []byte("not a workbook"), 0o644))

	_, err := Run(Options{
		PlanPath:   planPath,
		ActualPath: actualPath,
		OutputPath: filepath.Join(t.TempDir(), "out.xlsx"),
	})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindLoad))
}

func TestRun_SaveFailureLeavesNoOutput(t *testing.T) {
	t.Parallel()

	planPath := writeWorkbook(t, "plan.xlsx", [][]interface{}{planHeader, {"yes", "A", "doc"}})
	actualPath := writeWorkbook(t, "actual.xlsx", [][]interface{}{actualHeader, {"A", nil, nil, "1", nil}})
	output := filepath.Join(t.TempDir(), "no-such-dir", "out.xlsx")

	_, err := Run(Options{PlanPath: planPath, ActualPath: actualPath, OutputPath: output})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindSave))
	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_LegacyWorkbooks(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	output := filepath.Join(t.TempDir(), "out.xlsx")
	res, err := Run(Options{
		PlanPath:   filepath.Join("testdata", "plan.xls"),
		ActualPath: filepath.Join("testdata", "actual.xls"),
		OutputPath: output,
		Labels:     LabelsEN,
		TempDir:    tempDir,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, res.YellowCount)
	assert.Equal(t, 1, res.OrangeCount)
	assert.Equal(t, 3, res.PlannedCount)
	assert.Equal(t, 2, res.PlanEntries)
	assert.Equal(t, 4, res.DataRows)

	f, sheet := openResult(t, output)
	for cell, want := range map[string]string{
		"E1": "data source",
		"E2": "file 1 row 2: doc1",
		"E4": "file 1 row 3: doc2",
		"C2": "123",
	} {
		got, err := f.GetCellValue(sheet, cell)
		require.NoError(t, err)
		assert.Equal(t, want, got, cell)
	}
	requireFill(t, f, sheet, "E2", ColorYellow)
	requireFill(t, f, sheet, "A4", ColorOrange)
	requireNoFill(t, f, sheet, "A3")
	requireNoFill(t, f, sheet, "A5")

	left, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Empty(t, left, "converted workbook should be removed")
}

func TestRun_CorruptLegacyActualIsReadError(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	actualPath := filepath.Join(t.TempDir(), "actual.xls")
	require.NoError(t, os.WriteFile(actualPath, []byte("not a workbook"), 0o644))
	output := filepath.Join(t.TempDir(), "out.xlsx")

	_, err := Run(Options{
		PlanPath:   filepath.Join("testdata", "plan.xls"),
		ActualPath: actualPath,
		OutputPath: output,
		TempDir:    tempDir,
	})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindRead))
	assert.NoFileExists(t, output)

	left, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestRun_OutputIsWorldReadable(t *testing.T) {
	t.Parallel()

	_, output := runScenario(t,
		[][]interface{}{planHeader, {"yes", "A", "doc"}},
		[][]interface{}{actualHeader, {"A", nil, nil, "1", nil}},
	)
	info, err := os.Stat(output)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestRun_OverwriteKeepsExistingMode(t *testing.T) {
	t.Parallel()

	planPath := writeWorkbook(t, "plan.xlsx", [][]interface{}{planHeader, {"yes", "A", "doc"}})
	actualPath := writeWorkbook(t, "actual.xlsx", [][]interface{}{actualHeader, {"A", nil, nil, "1", nil}})
	output := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, os.WriteFile(output, []byte("old"), 0o640))
	require.NoError(t, os.Chmod(output, 0o640))

	_, err := Run(Options{PlanPath: planPath, ActualPath: actualPath, OutputPath: output})
	require.NoError(t, err)

	info, err := os.Stat(output)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
}
