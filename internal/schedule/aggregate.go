package schedule

import (
	"math"
	"time"
)

// ProjectTotal はプロジェクトごとの時間集計結果を表す。
// ProjectID 0はプロジェクトに紐付かないアイテムの集計を意味する。
type ProjectTotal struct {
	ProjectID            int64
	TotalDurationSeconds int64
	PercentOfTotal       int
}

// AggregateByProject はプロジェクトごとの合計時間と全体比を集計する。
//
// 結果はプロジェクトの初出順に並ぶ。全体比は最も近い整数に丸め、
// 総計が0の場合はゼロ除算を避けるため全エントリ0%とする。
// 保存則: 全エントリのTotalDurationSecondsの合計は入力アイテムの
// DurationSecondsの合計と常に一致する。
func AggregateByProject(items []DisplayItem) []ProjectTotal {
	totals := make(map[int64]int64)
	order := make([]int64, 0)

	for _, item := range items {
		var pid int64
		if item.ProjectID != nil {
			pid = *item.ProjectID
		}
		if _, seen := totals[pid]; !seen {
			order = append(order, pid)
		}
		totals[pid] += item.DurationSeconds
	}

	var grand int64
	for _, v := range totals {
		grand += v
	}

	out := make([]ProjectTotal, 0, len(order))
	for _, pid := range order {
		percent := 0
		if grand > 0 {
			percent = int(math.Round(float64(totals[pid]) / float64(grand) * 100))
		}
		out = append(out, ProjectTotal{
			ProjectID:            pid,
			TotalDurationSeconds: totals[pid],
			PercentOfTotal:       percent,
		})
	}
	return out
}

// AggregateByDay は暦日（"2006-01-02"形式、loc基準）ごとの合計時間を集計する。
// 時間フィールドを持たないアイテム（タスク・プロジェクト）は0秒で寄与する。
func AggregateByDay(items []DisplayItem, loc *time.Location) map[string]int64 {
	if loc == nil {
		loc = time.UTC
	}
	out := make(map[string]int64)
	for _, item := range items {
		out[dayKey(item.Start.In(loc))] += item.DurationSeconds
	}
	return out
}

// CountByStatus はステータスごとの件数を集計する。
// 時間を持たないアイテムも件数には数えられる。
func CountByStatus(items []DisplayItem) map[string]int {
	out := make(map[string]int)
	for _, item := range items {
		out[item.Status]++
	}
	return out
}
