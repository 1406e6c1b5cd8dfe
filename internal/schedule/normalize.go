package schedule

import (
	"log/slog"
	"time"

	"github.com/hitoshi/catchup/internal/model"
)

// bookingDateTimeLayout は予約の日付・時刻文字列の結合パース用レイアウト。
const bookingDateTimeLayout = "2006-01-02 15:04"

// bookingDateLayout は時刻未指定の予約（終日扱い）のパース用レイアウト。
const bookingDateLayout = "2006-01-02"

// Normalize は全種別のレコードスナップショットを共通のDisplayItemに正規化する。
//
// 出力はイベント→予約→タスク→プロジェクトの順で、各種別内は入力順を保持する。
// 時刻フィールドをパースできないレコードはログに記録して落とし、バッチ全体は
// 失敗させない。locは予約の日付・時刻文字列を解釈するタイムゾーン（nilならUTC）。
func Normalize(set model.RecordSet, loc *time.Location, logger *slog.Logger) []DisplayItem {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}

	items := make([]DisplayItem, 0, len(set.Events)+len(set.Bookings)+len(set.Tasks)+len(set.Projects))

	for _, ev := range set.Events {
		item, ok := normalizeEvent(ev, logger)
		if ok {
			items = append(items, item)
		}
	}
	for _, b := range set.Bookings {
		item, ok := normalizeBooking(b, loc, logger)
		if ok {
			items = append(items, item)
		}
	}
	for _, t := range set.Tasks {
		item, ok := normalizeTask(t, logger)
		if ok {
			items = append(items, item)
		}
	}
	for _, p := range set.Projects {
		item, ok := normalizeProject(p, logger)
		if ok {
			items = append(items, item)
		}
	}

	return items
}

// normalizeEvent はイベントをDisplayItemに変換する。
// 開始時刻がゼロ値の場合は不正レコードとして落とす。
// 終了時刻が開始時刻より前の場合は開始時刻に切り上げてEnd >= Startを保証する。
func normalizeEvent(ev model.Event, logger *slog.Logger) (DisplayItem, bool) {
	if ev.StartTime.IsZero() {
		logger.Warn("不正なイベントを除外しました",
			slog.Int64("event_id", ev.ID),
			slog.String("reason", "開始時刻が未設定"),
		)
		return DisplayItem{}, false
	}

	end := ev.EndTime
	if end.IsZero() || end.Before(ev.StartTime) {
		end = ev.StartTime
	}

	status := "pending"
	if ev.IsConfirmed {
		status = "confirmed"
	}

	return DisplayItem{
		Kind:            model.KindEvent,
		ID:              ev.ID,
		EventType:       ev.EventType,
		Title:           ev.Title,
		Start:           ev.StartTime,
		End:             end,
		AllDay:          end.Equal(ev.StartTime),
		Color:           ColorFor(model.KindEvent, ev.EventType, ev.Color),
		Confirmed:       ev.IsConfirmed,
		ClientID:        ev.ClientID,
		ProjectID:       ev.ProjectID,
		Note:            ev.Description,
		Status:          status,
		DurationSeconds: int64(end.Sub(ev.StartTime) / time.Second),
	}, true
}

// normalizeBooking は予約をDisplayItemに変換する。
// 日付・時刻文字列のパースに失敗した場合は不正レコードとして落とす。
// 時刻が未指定の予約は終日扱い（End == Start, AllDay = true）になる。
func normalizeBooking(b model.Booking, loc *time.Location, logger *slog.Logger) (DisplayItem, bool) {
	var start time.Time
	var err error
	allDay := false

	if b.Time != "" {
		start, err = time.ParseInLocation(bookingDateTimeLayout, b.Date+" "+b.Time, loc)
	} else {
		start, err = time.ParseInLocation(bookingDateLayout, b.Date, loc)
		allDay = true
	}
	if err != nil {
		logger.Warn("不正な予約を除外しました",
			slog.Int64("booking_id", b.ID),
			slog.String("date", b.Date),
			slog.String("time", b.Time),
			slog.String("error", err.Error()),
		)
		return DisplayItem{}, false
	}

	end := start
	durationSec := int64(0)
	if !allDay && b.Duration > 0 {
		end = start.Add(time.Duration(b.Duration) * time.Minute)
		durationSec = int64(b.Duration) * 60
	}

	title := b.Type
	if b.ClientName != "" {
		title = b.ClientName + " - " + b.Type
	}

	return DisplayItem{
		Kind:            model.KindBooking,
		ID:              b.ID,
		Title:           title,
		Start:           start,
		End:             end,
		AllDay:          allDay,
		Color:           ColorFor(model.KindBooking, "", ""),
		Confirmed:       b.Status != model.BookingStatusCanceled,
		Note:            b.Notes,
		Status:          string(b.Status),
		DurationSeconds: durationSec,
	}, true
}

// normalizeTask はタスクをDisplayItemに変換する。
// タスクには自然な終了時刻がないためEnd == Start、AllDay = trueとなり、
// 時間集計には0秒で寄与する。確認フラグの概念がないためConfirmedは常にtrue
// （確定のみフィルタでタスクが隠れることはない）。
func normalizeTask(t model.Task, logger *slog.Logger) (DisplayItem, bool) {
	if t.Deadline.IsZero() {
		logger.Warn("不正なタスクを除外しました",
			slog.Int64("task_id", t.ID),
			slog.String("reason", "締め切りが未設定"),
		)
		return DisplayItem{}, false
	}

	status := t.Status
	if t.Completed {
		status = "completed"
	}

	return DisplayItem{
		Kind:            model.KindTask,
		ID:              t.ID,
		Title:           t.Title,
		Start:           t.Deadline,
		End:             t.Deadline,
		AllDay:          true,
		Color:           ColorFor(model.KindTask, "", ""),
		Confirmed:       true,
		ProjectID:       t.ProjectID,
		Note:            t.Description,
		Status:          status,
		DurationSeconds: 0,
	}, true
}

// normalizeProject はプロジェクトをDisplayItemに変換する。
// 開始日を表示上のアンカーとし、終了日があればEndに設定する。
// 確認フラグの概念がないためConfirmedは常にtrue。
func normalizeProject(p model.Project, logger *slog.Logger) (DisplayItem, bool) {
	if p.StartDate.IsZero() {
		logger.Warn("不正なプロジェクトを除外しました",
			slog.Int64("project_id", p.ID),
			slog.String("reason", "開始日が未設定"),
		)
		return DisplayItem{}, false
	}

	end := p.StartDate
	if p.EndDate != nil && p.EndDate.After(p.StartDate) {
		end = *p.EndDate
	}

	projectID := p.ID

	return DisplayItem{
		Kind:            model.KindProject,
		ID:              p.ID,
		Title:           p.Name,
		Start:           p.StartDate,
		End:             end,
		AllDay:          true,
		Color:           ColorFor(model.KindProject, "", ""),
		Confirmed:       true,
		ClientID:        p.ClientID,
		ProjectID:       &projectID,
		Note:            p.Description,
		Status:          p.Status,
		DurationSeconds: 0,
	}, true
}
