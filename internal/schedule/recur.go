package schedule

import (
	"log/slog"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/hitoshi/catchup/internal/model"
)

// maxOccurrencesPerEvent は1イベントあたりの展開数の上限。
// 不正なRRULEによる膨張を防ぐための安全弁。
const maxOccurrencesPerEvent = 500

// ExpandEvents は繰り返しルールを持つイベントを[from, to]の範囲内の
// 個別イベントに展開する。
//
// Recurrenceが空のイベントはそのまま通す。RRULEのパースに失敗した場合は
// ログに記録し、元のイベント1件のみを通す（バッチ全体は失敗しない）。
// 各オカレンスは元イベントのコピーで、開始時刻のみが置き換わり、
// 元の所要時間が保持される。
func ExpandEvents(events []model.Event, from, to time.Time, logger *slog.Logger) []model.Event {
	if logger == nil {
		logger = slog.Default()
	}

	out := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if ev.Recurrence == "" {
			out = append(out, ev)
			continue
		}

		r, err := rrule.StrToRRule(ev.Recurrence)
		if err != nil {
			logger.Warn("RRULEの解析に失敗しました",
				slog.Int64("event_id", ev.ID),
				slog.String("rrule", ev.Recurrence),
				slog.String("error", err.Error()),
			)
			out = append(out, ev)
			continue
		}
		r.DTStart(ev.StartTime)

		// Betweenはイベント自身のタイムゾーンで評価する
		loc := ev.StartTime.Location()
		occStarts := r.Between(from.In(loc), to.In(loc), true)
		if len(occStarts) > maxOccurrencesPerEvent {
			logger.Warn("繰り返し展開が上限に達しました",
				slog.Int64("event_id", ev.ID),
				slog.Int("cap", maxOccurrencesPerEvent),
			)
			occStarts = occStarts[:maxOccurrencesPerEvent]
		}

		duration := ev.EndTime.Sub(ev.StartTime)
		for _, start := range occStarts {
			occ := ev
			occ.StartTime = start
			occ.EndTime = start.Add(duration)
			out = append(out, occ)
		}
	}
	return out
}
