package reconcile

// ProgressFunc 进度回调，percent 取值 0-100；仅用于展示
type ProgressFunc func(percent int, message string)

func reportProgress(progress ProgressFunc, percent int, message string) {
	if progress == nil {
		return
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	progress(percent, message)
}

// rowProgressStep 逐行处理时每隔多少行回调一次（约 50 次）
func rowProgressStep(totalRows int) int {
	step := totalRows / 50
	if step < 1 {
		step = 1
	}
	return step
}

// rowProgressPercent 行处理阶段映射到 20-90 区间
func rowProgressPercent(row, totalRows int) int {
	if totalRows <= 0 {
		return 20
	}
	return 20 + 70*row/totalRows
}
