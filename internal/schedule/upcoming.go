package schedule

import (
	"sort"
	"time"
)

// DefaultHorizon は直近予定抽出のデフォルト時間窓。
const DefaultHorizon = 24 * time.Hour

// Upcoming はnowからhorizon以内に開始するアイテムを開始時刻の昇順で返す。
//
// 選択条件は start >= now かつ start <= now + horizon（両端を含む）。
// 同時刻のアイテムは入力順を保持する（安定ソート）。horizonが0以下の
// 場合はDefaultHorizonを使用する。入力は変更しない。
func Upcoming(items []DisplayItem, now time.Time, horizon time.Duration) []DisplayItem {
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	limit := now.Add(horizon)

	out := make([]DisplayItem, 0)
	for _, item := range items {
		if item.Start.Before(now) || item.Start.After(limit) {
			continue
		}
		out = append(out, item)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})

	return out
}
