package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutputPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "default.xlsx", OutputPath("  ", "default.xlsx"))
	assert.Equal(t, "report.xlsx", OutputPath("report", "default.xlsx"))
	assert.Equal(t, "Report.XLSX", OutputPath("Report.XLSX", "default.xlsx"))
	assert.Equal(t, "old.xls.xlsx", OutputPath("old.xls", "default.xlsx"))
}

func TestCleanInputPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/tmp/plan.xlsx", CleanInputPath(` "/tmp/plan.xlsx" `))
	assert.Equal(t, "/tmp/a b.xlsx", CleanInputPath(`'/tmp/a b.xlsx'`))
}
