package schedule

import (
	"time"
)

// GridCells は月グリッドのセル数（6週 × 7日）。
// グレゴリオ暦の1か月（28〜31日）は先行日・後続日を含めても必ず42セルに収まる。
const GridCells = 42

// BuildMonthGrid は指定された年月の42セル月グリッドを構築する。
//
// グリッドは対象月の1日以前で最も近い日曜日から始まる連続した42暦日で、
// InDisplayedMonthはセルの日付が対象月に含まれる場合のみtrueとなる。
// 各DisplayItemは開始時刻の暦日に一致するセルにのみ振り分けられる
// （複数日にまたがるアイテムを複数セルに展開することはしない）。
// セル内のアイテム順は入力順を保持する。
//
// monthはGoの暦の慣例に従い1〜12（time.Month）。呼び出し側は範囲外の値を
// 事前に正規化すること（例: 0月 → 前年の12月）。locはグリッドの暦日を
// 解釈するタイムゾーン（nilならUTC)。
func BuildMonthGrid(year int, month time.Month, items []DisplayItem, loc *time.Location) []DayBucket {
	if loc == nil {
		loc = time.UTC
	}

	firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	leadingDays := int(firstOfMonth.Weekday()) // 0=日曜
	gridStart := firstOfMonth.AddDate(0, 0, -leadingDays)

	buckets := make([]DayBucket, GridCells)
	index := make(map[string]int, GridCells)
	for i := 0; i < GridCells; i++ {
		date := gridStart.AddDate(0, 0, i)
		buckets[i] = DayBucket{
			Date:             date,
			InDisplayedMonth: date.Month() == month && date.Year() == year,
		}
		index[dayKey(date)] = i
	}

	for _, item := range items {
		key := dayKey(item.Start.In(loc))
		if i, ok := index[key]; ok {
			buckets[i].Items = append(buckets[i].Items, item)
		}
	}

	return buckets
}

// dayKey は暦日単位の比較キーを返す。
func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
