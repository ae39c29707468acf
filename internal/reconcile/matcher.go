package reconcile

import "strings"

// MatchKind 匹配方式
type MatchKind int

const (
	MatchNone   MatchKind = iota // 未匹配
	MatchExact                   // 路径完全相同
	MatchPrefix                  // 一方是另一方的前缀
)

func (k MatchKind) String() string {
	switch k {
	case MatchExact:
		return "exact"
	case MatchPrefix:
		return "prefix"
	default:
		return "none"
	}
}

// MatchResult 单行匹配结果
type MatchResult struct {
	Planned bool
	Record  PlanRecord
	Path    string
	Kind    MatchKind
}

// Match 先精确匹配，再按插入顺序取第一个互为前缀的计划路径。
// 前缀判断是纯字符串比较，不按路径段切分；多个候选时结果依赖文件1的行顺序。
func Match(path string, plans *PlanMap) MatchResult {
	res := MatchResult{Path: path}
	if path == "" {
		return res
	}

	if rec, ok := plans.Get(path); ok {
		res.Planned = true
		res.Record = rec
		res.Kind = MatchExact
		return res
	}

	for _, key := range plans.keys {
		if strings.HasPrefix(key, path) || strings.HasPrefix(path, key) {
			res.Planned = true
			res.Record = plans.records[key]
			res.Kind = MatchPrefix
			return res
		}
	}
	return res
}
