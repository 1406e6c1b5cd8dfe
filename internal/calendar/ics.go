package calendar

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/hitoshi/catchup/internal/model"
)

// defaultMaxICSSize はICS取り込み時のレスポンスサイズ上限のデフォルト（5MB）。
const defaultMaxICSSize = 5 * 1024 * 1024

// defaultImportTimeout はICS取り込みのHTTPタイムアウトのデフォルト。
const defaultImportTimeout = 10 * time.Second

// icsProductID はエクスポートするICSのPRODID。
const icsProductID = "-//CatchUp//Calendar//JA"

// ExportICS は指定ユーザーのイベント・予約・タスクをICS形式で書き出す。
//
// 繰り返しイベントは展開せず、RRULEプロパティとして書き出す（展開は
// 取り込み側カレンダーの責務）。キャンセル済みの予約は含めない。
// タスクは締め切り日の終日予定として書き出す。
func (s *Service) ExportICS(ctx context.Context, userID string) (string, error) {
	loc, err := s.userLocation(ctx, userID)
	if err != nil {
		return "", err
	}

	events, err := s.events.ListByUser(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("イベントの取得に失敗しました: %w", err)
	}
	bookings, err := s.bookings.ListByUser(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("予約の取得に失敗しました: %w", err)
	}
	tasks, err := s.tasks.ListByUser(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("タスクの取得に失敗しました: %w", err)
	}

	now := s.now()
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(icsProductID)

	for _, ev := range events {
		ve := cal.AddEvent(fmt.Sprintf("event-%d@catchup", ev.ID))
		ve.SetDtStampTime(now)
		ve.SetSummary(ev.Title)
		ve.SetStartAt(ev.StartTime)
		if !ev.EndTime.IsZero() {
			ve.SetEndAt(ev.EndTime)
		} else {
			ve.SetEndAt(ev.StartTime)
		}
		if ev.Description != "" {
			ve.SetDescription(ev.Description)
		}
		if ev.Location != "" {
			ve.SetLocation(ev.Location)
		}
		if ev.Recurrence != "" {
			ve.SetProperty(ical.ComponentPropertyRrule, ev.Recurrence)
		}
	}

	for _, b := range bookings {
		if b.Status == model.BookingStatusCanceled {
			continue
		}
		start, ok := bookingStart(b, loc)
		if !ok {
			s.logger.Warn("予約の日時を解析できないためエクスポートから除外します",
				slog.Int64("booking_id", b.ID),
				slog.String("date", b.Date),
				slog.String("time", b.Time),
			)
			continue
		}
		ve := cal.AddEvent(fmt.Sprintf("booking-%d@catchup", b.ID))
		ve.SetDtStampTime(now)
		ve.SetSummary(bookingSummary(b))
		if b.Time == "" {
			ve.SetAllDayStartAt(start)
			ve.SetAllDayEndAt(start.AddDate(0, 0, 1))
		} else {
			ve.SetStartAt(start)
			ve.SetEndAt(start.Add(time.Duration(b.Duration) * time.Minute))
		}
		if b.Notes != "" {
			ve.SetDescription(b.Notes)
		}
	}

	for _, t := range tasks {
		if t.Completed || t.Deadline.IsZero() {
			continue
		}
		ve := cal.AddEvent(fmt.Sprintf("task-%d@catchup", t.ID))
		ve.SetDtStampTime(now)
		ve.SetSummary(fmt.Sprintf("【締切】%s", t.Title))
		day := t.Deadline.In(loc)
		ve.SetAllDayStartAt(time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc))
		ve.SetAllDayEndAt(time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1))
	}

	return cal.Serialize(), nil
}

// ImportICS は外部カレンダーのICSを取得し、VEVENTをイベントとして取り込む。
//
// 取得先URLはSSRF検証を通し、プライベートネットワーク宛のURLは拒否する。
// 解析できないVEVENTはログに記録してスキップし、残りの取り込みは継続する。
// 戻り値は取り込んだイベント数。
func (s *Service) ImportICS(ctx context.Context, userID string, icsURL string) (int, error) {
	if err := s.guard.ValidateURL(icsURL); err != nil {
		s.logger.Warn("ICS取り込み: SSRFブロック",
			slog.String("url", icsURL),
			slog.String("error", err.Error()),
		)
		return 0, model.NewSSRFBlockedError()
	}

	body, err := s.fetchICS(ctx, icsURL)
	if err != nil {
		return 0, err
	}

	cal, err := ical.ParseCalendar(body)
	if err != nil {
		s.logger.Warn("ICS取り込み: 解析失敗",
			slog.String("url", icsURL),
			slog.String("error", err.Error()),
		)
		return 0, model.NewImportFailedError("ICSの解析に失敗しました")
	}

	imported := 0
	for _, ve := range cal.Events() {
		ev, ok := s.eventFromVEvent(ve)
		if !ok {
			continue
		}
		ev.UserID = userID
		if err := s.events.Create(ctx, ev); err != nil {
			return imported, fmt.Errorf("取り込みイベントの保存に失敗しました: %w", err)
		}
		imported++
	}

	s.logger.Info("ICS取り込みが完了しました",
		slog.String("user_id", userID),
		slog.Int("imported", imported),
	)
	return imported, nil
}

// fetchICS はSSRF防止付きクライアントでICSを取得する。
func (s *Service) fetchICS(ctx context.Context, icsURL string) (io.Reader, error) {
	client := s.guard.NewSafeClient(s.importTimeout, s.importMaxSize)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, icsURL, nil)
	if err != nil {
		return nil, model.NewInvalidURLError(icsURL)
	}
	req.Header.Set("User-Agent", "CatchUp/1.0")
	req.Header.Set("Accept", "text/calendar, */*")

	resp, err := client.Do(req)
	if err != nil {
		s.logger.Warn("ICS取り込み: HTTPリクエスト失敗",
			slog.String("url", icsURL),
			slog.String("error", err.Error()),
		)
		return nil, model.NewImportFailedError("カレンダーの取得に失敗しました")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, model.NewImportFailedError(fmt.Sprintf("カレンダーの取得に失敗しました（HTTP %d）", resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.importMaxSize))
	if err != nil {
		return nil, model.NewImportFailedError("カレンダーの読み込みに失敗しました")
	}
	return bytes.NewReader(data), nil
}

// eventFromVEvent はVEVENTをイベントモデルに変換する。
// 開始時刻のないVEVENTはスキップ対象としてfalseを返す。
func (s *Service) eventFromVEvent(ve *ical.VEvent) (*model.Event, bool) {
	start, err := ve.GetStartAt()
	if err != nil || start.IsZero() {
		s.logger.Warn("ICS取り込み: 開始時刻のないVEVENTをスキップします")
		return nil, false
	}

	end, err := ve.GetEndAt()
	if err != nil || end.IsZero() || end.Before(start) {
		end = start
	}

	ev := &model.Event{
		Title:     "（無題の予定）",
		StartTime: start,
		EndTime:   end,
		EventType: model.EventTypeOther,
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil && p.Value != "" {
		ev.Title = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		ev.Description = s.sanitizer.Sanitize(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		ev.Location = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil && p.Value != "" {
		if _, rerr := rrule.StrToRRule(p.Value); rerr != nil {
			s.logger.Warn("ICS取り込み: 解析できないRRULEを除外します",
				slog.String("rrule", p.Value),
			)
		} else {
			ev.Recurrence = p.Value
		}
	}

	now := s.now()
	ev.CreatedAt = now
	ev.UpdatedAt = now
	return ev, true
}

// bookingStart は予約の日付・時刻文字列を開始時刻に変換する。
func bookingStart(b model.Booking, loc *time.Location) (time.Time, bool) {
	if b.Time == "" {
		t, err := time.ParseInLocation("2006-01-02", b.Date, loc)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", b.Date+" "+b.Time, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// bookingSummary は予約のICS上の表題を組み立てる。
func bookingSummary(b model.Booking) string {
	if b.Type != "" {
		return fmt.Sprintf("%s（%s）", b.Type, b.ClientName)
	}
	return fmt.Sprintf("予約（%s）", b.ClientName)
}
