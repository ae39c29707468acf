package reconcile

import (
	"fmt"
	"strings"
)

// MaxFolderLevels 文件2最多识别的文件夹层级
const MaxFolderLevels = 6

// Labels 两个文件的列名以及数据来源文本格式
type Labels struct {
	Name         string `json:"name"`
	UploadPlan   string `json:"uploadPlan"`   // 文件1：上传计划标记列
	Path         string `json:"path"`         // 文件1：路径列
	FileName     string `json:"fileName"`     // 文件1：文件名称列
	FolderFormat string `json:"folderFormat"` // 文件2：层级文件夹列，%d 为层级
	FileNumber   string `json:"fileNumber"`   // 文件2：文件编号列
	DataSource   string `json:"dataSource"`   // 文件2：追加的数据来源列
	Provenance   string `json:"provenance"`   // 数据来源文本，%d 行号，%s 文件名称
	ResultName   string `json:"resultName"`   // 下载时的结果文件名
}

// LabelsEN 英文列名（默认）
var LabelsEN = Labels{
	Name:         "en",
	UploadPlan:   "upload plan",
	Path:         "path",
	FileName:     "file name",
	FolderFormat: "level-%d-folder",
	FileNumber:   "file number",
	DataSource:   "data source",
	Provenance:   "file 1 row %d: %s",
	ResultName:   "reconcile-result.xlsx",
}

// LabelsZH 中文列名
var LabelsZH = Labels{
	Name:         "zh",
	UploadPlan:   "上传计划",
	Path:         "路径",
	FileName:     "文件名称",
	FolderFormat: "%d级文件夹",
	FileNumber:   "文件编号",
	DataSource:   "数据来源",
	Provenance:   "文件1第%d行: %s",
	ResultName:   "分析结果.xlsx",
}

// LookupLabels 按名称查找列名集合，空名称返回默认集合
func LookupLabels(name string) (Labels, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "en":
		return LabelsEN, nil
	case "zh", "cn", "zh-cn":
		return LabelsZH, nil
	default:
		return Labels{}, fmt.Errorf("unknown label set %q (want en or zh)", name)
	}
}

// FolderColumn 第 level 级文件夹列名
func (l Labels) FolderColumn(level int) string {
	return fmt.Sprintf(l.FolderFormat, level)
}

// ProvenanceText 数据来源单元格文本
func (l Labels) ProvenanceText(rec PlanRecord) string {
	return fmt.Sprintf(l.Provenance, rec.SourceRow, rec.FileName)
}

func (l Labels) orDefault() Labels {
	if l.UploadPlan == "" {
		return LabelsEN
	}
	return l
}
