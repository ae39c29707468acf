package reconcile

import "strings"

// PlanRecord 文件1中一条计划上传记录
type PlanRecord struct {
	SourceRow int    `json:"sourceRow"` // 文件1中的行号（含表头，1 基）
	FileName  string `json:"fileName"`
}

// PlanMap 规范化路径 -> 计划记录，按首次插入顺序遍历。
// 重复路径覆盖记录但保留原位置。
type PlanMap struct {
	keys    []string
	records map[string]PlanRecord
}

// NewPlanMap 创建空的计划表
func NewPlanMap() *PlanMap {
	return &PlanMap{records: make(map[string]PlanRecord)}
}

// Put 写入或覆盖一条记录
func (m *PlanMap) Put(path string, rec PlanRecord) {
	if _, ok := m.records[path]; !ok {
		m.keys = append(m.keys, path)
	}
	m.records[path] = rec
}

// Get 精确查找
func (m *PlanMap) Get(path string) (PlanRecord, bool) {
	rec, ok := m.records[path]
	return rec, ok
}

// Len 记录数
func (m *PlanMap) Len() int {
	return len(m.keys)
}

// Keys 按插入顺序返回全部路径
func (m *PlanMap) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// NormalizePath 去除首尾空白以及末尾所有的 '/'
func NormalizePath(p string) string {
	return strings.TrimRight(strings.TrimSpace(p), "/")
}

// Plan 文件1的加载结果
type Plan struct {
	Map          *PlanMap
	PlannedCount int // "上传计划"非空的行数，不论是否有路径
}

// LoadPlan 读取文件1并构建计划表
func LoadPlan(path string, labels Labels) (*Plan, error) {
	rows, err := readTable(path)
	if err != nil {
		return nil, readError(path, err)
	}
	plan, err := buildPlan(rows, labels.orDefault())
	if err != nil {
		return nil, readError(path, err)
	}
	return plan, nil
}

func buildPlan(rows [][]string, labels Labels) (*Plan, error) {
	if len(rows) == 0 {
		return nil, ErrEmptySheet
	}

	header := newHeaderIndex(rows[0])
	planCol, ok := header.lookup(labels.UploadPlan)
	if !ok {
		return nil, &columnError{column: labels.UploadPlan}
	}
	pathCol, hasPath := header.lookup(labels.Path)
	nameCol, hasName := header.lookup(labels.FileName)

	plan := &Plan{Map: NewPlanMap()}
	for i, row := range rows[1:] {
		if planCell(row, planCol) == "" {
			continue
		}
		plan.PlannedCount++

		if !hasPath {
			continue
		}
		p := NormalizePath(planCell(row, pathCol))
		if p == "" {
			continue
		}
		name := ""
		if hasName {
			name = planCell(row, nameCol)
		}
		plan.Map.Put(p, PlanRecord{SourceRow: i + 2, FileName: name})
	}
	return plan, nil
}

// naTokens 表格工具读取时按缺失值处理的文本，文件1中等同空单元格
var naTokens = map[string]struct{}{
	"#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {},
	"N/A": {}, "NA": {}, "NULL": {}, "NaN": {}, "None": {},
	"n/a": {}, "nan": {}, "null": {},
}

// planCell 读取文件1的单元格，缺失值记号返回空串
func planCell(row []string, i int) string {
	v := cellAt(row, i)
	if _, ok := naTokens[v]; ok {
		return ""
	}
	return v
}

type columnError struct {
	column string
}

func (e *columnError) Error() string {
	return ErrMissingColumn.Error() + ": " + e.column
}

func (e *columnError) Unwrap() error {
	return ErrMissingColumn
}
