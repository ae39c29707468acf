// Package reconcile 对照文件1（上传计划）与文件2（实际上传情况），
// 在文件2上逐行写入数据来源并按完整度填色。
package reconcile

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Options 一次核对所需的输入
type Options struct {
	PlanPath   string // 文件1
	ActualPath string // 文件2
	OutputPath string // 结果 .xlsx
	Labels     Labels
	TempDir    string // .xls 转换用的临时目录，空则使用系统临时目录
	Progress   ProgressFunc
	Logger     *zerolog.Logger
}

// Result 核对统计
type Result struct {
	Success       bool          `json:"success" yaml:"success"`
	YellowCount   int           `json:"yellow_count" yaml:"yellow_count"`
	OrangeCount   int           `json:"orange_count" yaml:"orange_count"`
	PlannedCount  int           `json:"pending_upload_count" yaml:"pending_upload_count"`
	PlanEntries   int           `json:"plan_entries" yaml:"plan_entries"`
	DataRows      int           `json:"data_rows" yaml:"data_rows"`
	ExactMatches  int           `json:"exact_matches" yaml:"exact_matches"`
	PrefixMatches int           `json:"prefix_matches" yaml:"prefix_matches"`
	OutputPath    string        `json:"output_path" yaml:"output_path"`
	Duration      time.Duration `json:"duration" yaml:"duration"`
}

// Summary 完成时的一行摘要
func (r *Result) Summary() string {
	return fmt.Sprintf("done: yellow %d rows, orange %d rows, pending upload %d",
		r.YellowCount, r.OrangeCount, r.PlannedCount)
}

// Run 执行一次完整核对：读取计划、标注文件2并保存。
// 任一步失败都返回 *Error，不产出可用的结果文件。
func Run(opts Options) (*Result, error) {
	start := time.Now()
	labels := opts.Labels.orDefault()
	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	plan, err := LoadPlan(opts.PlanPath, labels)
	if err != nil {
		return nil, err
	}
	logger.Debug().
		Str("file", filepath.Base(opts.PlanPath)).
		Int("planned", plan.PlannedCount).
		Int("paths", plan.Map.Len()).
		Msg("plan loaded")
	reportProgress(opts.Progress, 10, "processing plan file...")

	reportProgress(opts.Progress, 20, "processing actual upload file...")
	wb, err := OpenWorkbook(opts.ActualPath, opts.TempDir)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	result := &Result{
		PlannedCount: plan.PlannedCount,
		PlanEntries:  plan.Map.Len(),
	}
	if err := annotate(wb, plan.Map, labels, result, opts.Progress, logger); err != nil {
		return nil, loadError(opts.ActualPath, err)
	}

	reportProgress(opts.Progress, 90, "saving result...")
	if err := saveWorkbook(wb, opts.OutputPath); err != nil {
		return nil, saveError(opts.OutputPath, err)
	}

	result.Success = true
	result.OutputPath = opts.OutputPath
	result.Duration = time.Since(start)
	logger.Info().
		Int("yellow", result.YellowCount).
		Int("orange", result.OrangeCount).
		Int("pending", result.PlannedCount).
		Int("rows", result.DataRows).
		Dur("duration", result.Duration).
		Msg("reconcile finished")
	reportProgress(opts.Progress, 100, result.Summary())
	return result, nil
}

func annotate(wb *Workbook, plans *PlanMap, labels Labels, result *Result, progress ProgressFunc, logger *zerolog.Logger) error {
	var header headerIndex
	if len(wb.Rows) > 0 {
		header = newHeaderIndex(wb.Rows[0])
	}
	folders := folderColumns(header, labels)
	numberCol, hasNumber := header.lookup(labels.FileNumber)
	logger.Debug().
		Ints("folder_columns", folders).
		Bool("file_number", hasNumber).
		Msg("actual file columns")

	ann := NewAnnotator(wb.File, wb.Sheet, wb.MaxColumn())
	if err := ann.WriteHeader(labels.DataSource); err != nil {
		return err
	}
	logger.Debug().
		Int("source_column", ann.SourceColumn()).
		Msg("data source column")

	totalRows := len(wb.Rows)
	step := rowProgressStep(totalRows)
	for i := 1; i < totalRows; i++ {
		rowNum := i + 1
		row := wb.Rows[i]
		result.DataRows++

		m := Match(buildRowPath(row, folders), plans)
		if m.Planned && m.Path != "" {
			color := ColorYellow
			if fileNumberEmpty(row, numberCol, hasNumber) {
				color = ColorOrange
			}
			if err := ann.Annotate(rowNum, labels.ProvenanceText(m.Record), color); err != nil {
				return fmt.Errorf("row %d: %w", rowNum, err)
			}
			if color == ColorYellow {
				result.YellowCount++
			} else {
				result.OrangeCount++
			}
			if m.Kind == MatchExact {
				result.ExactMatches++
			} else {
				result.PrefixMatches++
			}
		}

		if rowNum%step == 0 {
			reportProgress(progress, rowProgressPercent(rowNum, totalRows),
				fmt.Sprintf("processing row %d/%d...", rowNum, totalRows))
		}
	}
	return nil
}

// saveWorkbook 先写同目录临时文件再改名，失败时不留下半成品
func saveWorkbook(wb *Workbook, dst string) error {
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".excel-handle-*.xlsx")
	if err != nil {
		return fmt.Errorf("failed to create temp output: %w", err)
	}
	name := tmp.Name()
	_ = tmp.Close()

	if err := wb.File.SaveAs(name); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	// CreateTemp 建出的文件为 0600，改名前恢复为普通输出文件的权限
	mode := os.FileMode(0o644)
	if info, err := os.Stat(dst); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.Chmod(name, mode); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("failed to set output permissions: %w", err)
	}
	if err := os.Rename(name, dst); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("failed to move workbook into place: %w", err)
	}
	return nil
}
