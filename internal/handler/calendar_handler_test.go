package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/catchup/internal/calendar"
	"github.com/hitoshi/catchup/internal/model"
	"github.com/hitoshi/catchup/internal/schedule"
)

// mockCalendarService はCalendarServiceInterfaceのモック実装。
type mockCalendarService struct {
	monthGridFn      func(ctx context.Context, userID string, year, month int, filter schedule.FilterState) ([]schedule.DayBucket, error)
	upcomingFn       func(ctx context.Context, userID string, horizon time.Duration) ([]schedule.DisplayItem, error)
	summaryBetweenFn func(ctx context.Context, userID string, from, to time.Time) (*calendar.Summary, error)
	exportICSFn      func(ctx context.Context, userID string) (string, error)
	importICSFn      func(ctx context.Context, userID, icsURL string) (int, error)
}

func (m *mockCalendarService) MonthGrid(ctx context.Context, userID string, year, month int, filter schedule.FilterState) ([]schedule.DayBucket, error) {
	if m.monthGridFn != nil {
		return m.monthGridFn(ctx, userID, year, month, filter)
	}
	return nil, nil
}

func (m *mockCalendarService) Upcoming(ctx context.Context, userID string, horizon time.Duration) ([]schedule.DisplayItem, error) {
	if m.upcomingFn != nil {
		return m.upcomingFn(ctx, userID, horizon)
	}
	return nil, nil
}

func (m *mockCalendarService) SummaryBetween(ctx context.Context, userID string, from, to time.Time) (*calendar.Summary, error) {
	if m.summaryBetweenFn != nil {
		return m.summaryBetweenFn(ctx, userID, from, to)
	}
	return &calendar.Summary{}, nil
}

func (m *mockCalendarService) ExportICS(ctx context.Context, userID string) (string, error) {
	if m.exportICSFn != nil {
		return m.exportICSFn(ctx, userID)
	}
	return "", nil
}

func (m *mockCalendarService) ImportICS(ctx context.Context, userID, icsURL string) (int, error) {
	if m.importICSFn != nil {
		return m.importICSFn(ctx, userID, icsURL)
	}
	return 0, nil
}

// --- GET /api/calendar/month テスト ---

func TestCalendarHandler_MonthGrid_Success(t *testing.T) {
	svc := &mockCalendarService{
		monthGridFn: func(ctx context.Context, userID string, year, month int, filter schedule.FilterState) ([]schedule.DayBucket, error) {
			if year != 2025 || month != 5 {
				t.Errorf("year/month = %d/%d, want 2025/5", year, month)
			}
			return []schedule.DayBucket{
				{
					Date:             time.Date(2025, 4, 27, 0, 0, 0, 0, time.UTC),
					InDisplayedMonth: false,
					Items:            []schedule.DisplayItem{},
				},
				{
					Date:             time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
					InDisplayedMonth: true,
					Items: []schedule.DisplayItem{
						{Kind: model.KindEvent, ID: 1, Title: "打ち合わせ", Color: "#3b82f6"},
					},
				},
			}, nil
		},
	}
	h := NewCalendarHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/calendar/month?year=2025&month=5", nil)
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.MonthGrid(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp monthGridResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Year != 2025 || resp.Month != 5 {
		t.Errorf("year/month = %d/%d, want 2025/5", resp.Year, resp.Month)
	}
	if len(resp.Days) != 2 {
		t.Fatalf("len(Days) = %d, want 2", len(resp.Days))
	}
	if resp.Days[0].Date != "2025-04-27" {
		t.Errorf("Days[0].Date = %q, want 2025-04-27", resp.Days[0].Date)
	}
	if resp.Days[0].InDisplayedMonth {
		t.Error("Days[0] should be outside the displayed month")
	}
	if len(resp.Days[1].Items) != 1 || resp.Days[1].Items[0].Title != "打ち合わせ" {
		t.Errorf("Days[1].Items = %+v, want 1 item titled 打ち合わせ", resp.Days[1].Items)
	}
}

func TestCalendarHandler_MonthGrid_ParsesFilter(t *testing.T) {
	var got schedule.FilterState
	svc := &mockCalendarService{
		monthGridFn: func(ctx context.Context, userID string, year, month int, filter schedule.FilterState) ([]schedule.DayBucket, error) {
			got = filter
			return nil, nil
		},
	}
	h := NewCalendarHandler(svc)

	url := "/api/calendar/month?year=2025&month=5" +
		"&kinds=event,booking&event_types=meeting&client_ids=1,2&project_ids=3" +
		"&confirmed_only=true&q=現場&from=2025-05-01&to=2025-05-15"
	req := httptest.NewRequest(http.MethodGet, url, nil)
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.MonthGrid(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if len(got.Kinds) != 2 || got.Kinds[0] != model.KindEvent || got.Kinds[1] != model.KindBooking {
		t.Errorf("Kinds = %v, want [event booking]", got.Kinds)
	}
	if len(got.EventTypes) != 1 || got.EventTypes[0] != model.EventTypeMeeting {
		t.Errorf("EventTypes = %v, want [meeting]", got.EventTypes)
	}
	if len(got.ClientIDs) != 2 || got.ClientIDs[0] != 1 || got.ClientIDs[1] != 2 {
		t.Errorf("ClientIDs = %v, want [1 2]", got.ClientIDs)
	}
	if len(got.ProjectIDs) != 1 || got.ProjectIDs[0] != 3 {
		t.Errorf("ProjectIDs = %v, want [3]", got.ProjectIDs)
	}
	if !got.OnlyConfirmed {
		t.Error("OnlyConfirmed should be true")
	}
	if got.SearchText != "現場" {
		t.Errorf("SearchText = %q, want 現場", got.SearchText)
	}
	wantFrom := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	if !got.DateRange.Start.Equal(wantFrom) {
		t.Errorf("DateRange.Start = %v, want %v", got.DateRange.Start, wantFrom)
	}
	wantTo := time.Date(2025, 5, 15, 23, 59, 59, 0, time.UTC)
	if !got.DateRange.End.Equal(wantTo) {
		t.Errorf("DateRange.End = %v, want %v", got.DateRange.End, wantTo)
	}
}

func TestCalendarHandler_MonthGrid_MissingYear(t *testing.T) {
	h := NewCalendarHandler(&mockCalendarService{})

	req := httptest.NewRequest(http.MethodGet, "/api/calendar/month?month=5", nil)
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.MonthGrid(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestCalendarHandler_MonthGrid_InvalidClientIDs(t *testing.T) {
	h := NewCalendarHandler(&mockCalendarService{})

	req := httptest.NewRequest(http.MethodGet, "/api/calendar/month?year=2025&month=5&client_ids=1,abc", nil)
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.MonthGrid(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestCalendarHandler_MonthGrid_InvalidMonthFromService(t *testing.T) {
	svc := &mockCalendarService{
		monthGridFn: func(ctx context.Context, userID string, year, month int, filter schedule.FilterState) ([]schedule.DayBucket, error) {
			return nil, model.NewInvalidMonthError(year, month)
		},
	}
	h := NewCalendarHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/calendar/month?year=2025&month=13", nil)
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.MonthGrid(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	resp := parseAPIErrorResponse(t, w)
	if resp["code"] != "INVALID_MONTH" {
		t.Errorf("code = %q, want INVALID_MONTH", resp["code"])
	}
}

// --- GET /api/calendar/upcoming テスト ---

func TestCalendarHandler_Upcoming_DefaultHorizon(t *testing.T) {
	var gotHorizon time.Duration = -1
	svc := &mockCalendarService{
		upcomingFn: func(ctx context.Context, userID string, horizon time.Duration) ([]schedule.DisplayItem, error) {
			gotHorizon = horizon
			return []schedule.DisplayItem{}, nil
		},
	}
	h := NewCalendarHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/calendar/upcoming", nil)
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.Upcoming(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	// hours未指定時は0を渡し、サービス側でデフォルトの24時間に解決される
	if gotHorizon != 0 {
		t.Errorf("horizon = %v, want 0", gotHorizon)
	}
}

func TestCalendarHandler_Upcoming_CustomHours(t *testing.T) {
	var gotHorizon time.Duration
	svc := &mockCalendarService{
		upcomingFn: func(ctx context.Context, userID string, horizon time.Duration) ([]schedule.DisplayItem, error) {
			gotHorizon = horizon
			return nil, nil
		},
	}
	h := NewCalendarHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/calendar/upcoming?hours=48", nil)
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.Upcoming(w, req)

	if gotHorizon != 48*time.Hour {
		t.Errorf("horizon = %v, want 48h", gotHorizon)
	}
}

func TestCalendarHandler_Upcoming_InvalidHours(t *testing.T) {
	h := NewCalendarHandler(&mockCalendarService{})

	for _, hours := range []string{"0", "-1", "745", "abc"} {
		req := httptest.NewRequest(http.MethodGet, "/api/calendar/upcoming?hours="+hours, nil)
		req = withUserID(req, "user-123")
		w := httptest.NewRecorder()

		h.Upcoming(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("hours=%s: status = %d, want %d", hours, w.Code, http.StatusBadRequest)
		}
	}
}

// --- GET /api/calendar/summary テスト ---

func TestCalendarHandler_Summary_Success(t *testing.T) {
	svc := &mockCalendarService{
		summaryBetweenFn: func(ctx context.Context, userID string, from, to time.Time) (*calendar.Summary, error) {
			wantFrom := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
			if !from.Equal(wantFrom) {
				t.Errorf("from = %v, want %v", from, wantFrom)
			}
			wantTo := time.Date(2025, 5, 31, 23, 59, 59, 0, time.UTC)
			if !to.Equal(wantTo) {
				t.Errorf("to = %v, want %v", to, wantTo)
			}
			return &calendar.Summary{
				From:      from,
				To:        to,
				ItemCount: 3,
				ProjectTotals: []schedule.ProjectTotal{
					{ProjectID: 1, TotalDurationSeconds: 7200, PercentOfTotal: 100},
				},
				DailySeconds: map[string]int64{"2025-05-12": 7200},
				StatusCounts: map[string]int{"confirmed": 2},
			}, nil
		},
	}
	h := NewCalendarHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/calendar/summary?from=2025-05-01&to=2025-05-31", nil)
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.Summary(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp summaryResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ItemCount != 3 {
		t.Errorf("ItemCount = %d, want 3", resp.ItemCount)
	}
	if len(resp.ProjectTotals) != 1 || resp.ProjectTotals[0].TotalDurationSeconds != 7200 {
		t.Errorf("ProjectTotals = %+v, want 1 entry with 7200 seconds", resp.ProjectTotals)
	}
	if resp.DailySeconds["2025-05-12"] != 7200 {
		t.Errorf("DailySeconds[2025-05-12] = %d, want 7200", resp.DailySeconds["2025-05-12"])
	}
}

func TestCalendarHandler_Summary_MissingDates(t *testing.T) {
	h := NewCalendarHandler(&mockCalendarService{})

	req := httptest.NewRequest(http.MethodGet, "/api/calendar/summary?from=2025-05-01", nil)
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.Summary(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// --- GET /api/calendar/export.ics テスト ---

func TestCalendarHandler_Export_Success(t *testing.T) {
	svc := &mockCalendarService{
		exportICSFn: func(ctx context.Context, userID string) (string, error) {
			return "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n", nil
		},
	}
	h := NewCalendarHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/calendar/export.ics", nil)
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.Export(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/calendar; charset=utf-8" {
		t.Errorf("Content-Type = %q, want text/calendar; charset=utf-8", ct)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("BEGIN:VCALENDAR")) {
		t.Errorf("body = %q, want VCALENDAR content", w.Body.String())
	}
}

// --- POST /api/calendar/import テスト ---

func TestCalendarHandler_Import_Success(t *testing.T) {
	svc := &mockCalendarService{
		importICSFn: func(ctx context.Context, userID, icsURL string) (int, error) {
			if icsURL != "https://example.com/calendar.ics" {
				t.Errorf("icsURL = %q, want https://example.com/calendar.ics", icsURL)
			}
			return 5, nil
		},
	}
	h := NewCalendarHandler(svc)

	body := `{"url": "https://example.com/calendar.ics"}`
	req := httptest.NewRequest(http.MethodPost, "/api/calendar/import", bytes.NewBufferString(body))
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.Import(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp map[string]int
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["imported"] != 5 {
		t.Errorf("imported = %d, want 5", resp["imported"])
	}
}

func TestCalendarHandler_Import_EmptyURL(t *testing.T) {
	h := NewCalendarHandler(&mockCalendarService{})

	req := httptest.NewRequest(http.MethodPost, "/api/calendar/import", bytes.NewBufferString(`{"url": ""}`))
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.Import(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestCalendarHandler_Import_SSRFBlocked(t *testing.T) {
	svc := &mockCalendarService{
		importICSFn: func(ctx context.Context, userID, icsURL string) (int, error) {
			return 0, model.NewSSRFBlockedError()
		},
	}
	h := NewCalendarHandler(svc)

	body := `{"url": "http://169.254.169.254/latest/meta-data"}`
	req := httptest.NewRequest(http.MethodPost, "/api/calendar/import", bytes.NewBufferString(body))
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.Import(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
	resp := parseAPIErrorResponse(t, w)
	if resp["code"] != "SSRF_BLOCKED" {
		t.Errorf("code = %q, want SSRF_BLOCKED", resp["code"])
	}
}
