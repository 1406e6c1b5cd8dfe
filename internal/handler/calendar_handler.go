package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hitoshi/catchup/internal/calendar"
	"github.com/hitoshi/catchup/internal/model"
	"github.com/hitoshi/catchup/internal/schedule"
)

// CalendarServiceInterface はカレンダーハンドラーが必要とするサービスインターフェース。
type CalendarServiceInterface interface {
	MonthGrid(ctx context.Context, userID string, year int, month int, filter schedule.FilterState) ([]schedule.DayBucket, error)
	Upcoming(ctx context.Context, userID string, horizon time.Duration) ([]schedule.DisplayItem, error)
	SummaryBetween(ctx context.Context, userID string, from, to time.Time) (*calendar.Summary, error)
	ExportICS(ctx context.Context, userID string) (string, error)
	ImportICS(ctx context.Context, userID string, icsURL string) (int, error)
}

// CalendarHandler はカレンダー表示・集計・ICS連携のHTTPハンドラー。
type CalendarHandler struct {
	service CalendarServiceInterface
}

// NewCalendarHandler はCalendarHandlerを生成する。
func NewCalendarHandler(service CalendarServiceInterface) *CalendarHandler {
	return &CalendarHandler{service: service}
}

// displayItemResponse は正規化済みアイテムのAPIレスポンス。
type displayItemResponse struct {
	Kind            string    `json:"kind"`
	ID              int64     `json:"id"`
	EventType       string    `json:"event_type,omitempty"`
	Title           string    `json:"title"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	AllDay          bool      `json:"all_day"`
	Color           string    `json:"color"`
	Confirmed       bool      `json:"confirmed"`
	ClientID        *int64    `json:"client_id"`
	ProjectID       *int64    `json:"project_id"`
	Note            string    `json:"note"`
	Status          string    `json:"status"`
	DurationSeconds int64     `json:"duration_seconds"`
}

// dayBucketResponse は月グリッドの1セルのAPIレスポンス。
type dayBucketResponse struct {
	Date             string                `json:"date"`
	InDisplayedMonth bool                  `json:"in_displayed_month"`
	Items            []displayItemResponse `json:"items"`
}

// monthGridResponse は月グリッドのAPIレスポンス。
type monthGridResponse struct {
	Year  int                 `json:"year"`
	Month int                 `json:"month"`
	Days  []dayBucketResponse `json:"days"`
}

// projectTotalResponse はプロジェクト別集計のAPIレスポンス。
type projectTotalResponse struct {
	ProjectID            int64 `json:"project_id"`
	TotalDurationSeconds int64 `json:"total_duration_seconds"`
	PercentOfTotal       int   `json:"percent_of_total"`
}

// summaryResponse は期間サマリーのAPIレスポンス。
type summaryResponse struct {
	From          string                 `json:"from"`
	To            string                 `json:"to"`
	ItemCount     int                    `json:"item_count"`
	ProjectTotals []projectTotalResponse `json:"project_totals"`
	DailySeconds  map[string]int64       `json:"daily_seconds"`
	StatusCounts  map[string]int         `json:"status_counts"`
}

// importRequest は外部カレンダー取り込みリクエストのボディ。
type importRequest struct {
	URL string `json:"url"`
}

// MonthGrid は月グリッドを取得する。
// GET /api/calendar/month?year=2025&month=5
//
// フィルタ用クエリパラメータ:
//
//	kinds, event_types, client_ids, project_ids（カンマ区切り）、
//	confirmed_only=true、q（フリーテキスト）、from/to（日付範囲）
func (h *CalendarHandler) MonthGrid(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("yearは整数で指定してください"))
		return
	}
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("monthは整数で指定してください"))
		return
	}

	filter, ferr := parseFilterState(r)
	if ferr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, ferr)
		return
	}

	buckets, err := h.service.MonthGrid(r.Context(), userID, year, month, filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	days := make([]dayBucketResponse, len(buckets))
	for i, b := range buckets {
		items := make([]displayItemResponse, len(b.Items))
		for j, item := range b.Items {
			items[j] = toDisplayItemResponse(item)
		}
		days[i] = dayBucketResponse{
			Date:             b.Date.Format("2006-01-02"),
			InDisplayedMonth: b.InDisplayedMonth,
			Items:            items,
		}
	}
	writeJSON(w, http.StatusOK, monthGridResponse{Year: year, Month: month, Days: days})
}

// Upcoming は直近の予定一覧を取得する。
// GET /api/calendar/upcoming?hours=24
func (h *CalendarHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	horizon := time.Duration(0)
	if raw := r.URL.Query().Get("hours"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours < 1 || hours > 24*31 {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("hoursは1から744の整数で指定してください"))
			return
		}
		horizon = time.Duration(hours) * time.Hour
	}

	items, err := h.service.Upcoming(r.Context(), userID, horizon)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]displayItemResponse, len(items))
	for i, item := range items {
		out[i] = toDisplayItemResponse(item)
	}
	writeJSON(w, http.StatusOK, out)
}

// Summary は期間サマリーを取得する。
// GET /api/calendar/summary?from=2025-05-01&to=2025-05-31
func (h *CalendarHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	from, ok2 := parseDateParam(r.URL.Query().Get("from"), false)
	to, ok3 := parseDateParam(r.URL.Query().Get("to"), true)
	if !ok2 || !ok3 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("from/toはYYYY-MM-DD形式で指定してください"))
		return
	}

	sum, err := h.service.SummaryBetween(r.Context(), userID, from, to)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	totals := make([]projectTotalResponse, len(sum.ProjectTotals))
	for i, pt := range sum.ProjectTotals {
		totals[i] = projectTotalResponse{
			ProjectID:            pt.ProjectID,
			TotalDurationSeconds: pt.TotalDurationSeconds,
			PercentOfTotal:       pt.PercentOfTotal,
		}
	}
	writeJSON(w, http.StatusOK, summaryResponse{
		From:          sum.From.Format("2006-01-02"),
		To:            sum.To.Format("2006-01-02"),
		ItemCount:     sum.ItemCount,
		ProjectTotals: totals,
		DailySeconds:  sum.DailySeconds,
		StatusCounts:  sum.StatusCounts,
	})
}

// Export はカレンダーをICS形式でダウンロードさせる。
// GET /api/calendar/export.ics
func (h *CalendarHandler) Export(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	ics, err := h.service.ExportICS(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="catchup.ics"`)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(ics))
}

// Import は外部カレンダーのICSを取り込む。
// POST /api/calendar/import
func (h *CalendarHandler) Import(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidJSON(w)
		return
	}
	if req.URL == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidURLError("URLが空です"))
		return
	}

	imported, err := h.service.ImportICS(r.Context(), userID, req.URL)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": imported})
}

// parseFilterState はクエリパラメータからフィルタ条件を組み立てる。
func parseFilterState(r *http.Request) (schedule.FilterState, *model.APIError) {
	q := r.URL.Query()
	var state schedule.FilterState

	for _, raw := range splitParam(q.Get("kinds")) {
		state.Kinds = append(state.Kinds, model.RecordKind(raw))
	}
	for _, raw := range splitParam(q.Get("event_types")) {
		state.EventTypes = append(state.EventTypes, model.EventType(raw))
	}

	clientIDs, err := parseIDList(q.Get("client_ids"))
	if err != nil {
		return state, model.NewInvalidRequestError("client_idsは整数のカンマ区切りで指定してください")
	}
	state.ClientIDs = clientIDs

	projectIDs, err := parseIDList(q.Get("project_ids"))
	if err != nil {
		return state, model.NewInvalidRequestError("project_idsは整数のカンマ区切りで指定してください")
	}
	state.ProjectIDs = projectIDs

	state.OnlyConfirmed = q.Get("confirmed_only") == "true"
	state.SearchText = q.Get("q")

	if raw := q.Get("from"); raw != "" {
		from, ok := parseDateParam(raw, false)
		if !ok {
			return state, model.NewInvalidRequestError("fromはYYYY-MM-DD形式で指定してください")
		}
		state.DateRange.Start = from
	}
	if raw := q.Get("to"); raw != "" {
		to, ok := parseDateParam(raw, true)
		if !ok {
			return state, model.NewInvalidRequestError("toはYYYY-MM-DD形式で指定してください")
		}
		state.DateRange.End = to
	}

	return state, nil
}

// parseDateParam は"2006-01-02"またはRFC 3339形式の日付パラメータを解析する。
// endOfDayがtrueの場合、日付のみの指定はその日の終端（23:59:59）に丸める。
func parseDateParam(raw string, endOfDay bool) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		if endOfDay {
			t = t.Add(24*time.Hour - time.Second)
		}
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// splitParam はカンマ区切りパラメータを空白を除いて分割する。
func splitParam(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseIDList はカンマ区切りのID列を解析する。
func parseIDList(raw string) ([]int64, error) {
	parts := splitParam(raw)
	if len(parts) == 0 {
		return nil, nil
	}
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// toDisplayItemResponse は正規化済みアイテムをAPIレスポンスに変換する。
func toDisplayItemResponse(item schedule.DisplayItem) displayItemResponse {
	return displayItemResponse{
		Kind:            string(item.Kind),
		ID:              item.ID,
		EventType:       string(item.EventType),
		Title:           item.Title,
		Start:           item.Start,
		End:             item.End,
		AllDay:          item.AllDay,
		Color:           item.Color,
		Confirmed:       item.Confirmed,
		ClientID:        item.ClientID,
		ProjectID:       item.ProjectID,
		Note:            item.Note,
		Status:          item.Status,
		DurationSeconds: item.DurationSeconds,
	}
}
