// Package calendar はカレンダーエンジンの上にAPI向けのオーケストレーションを提供する。
//
// リポジトリからレコードのスナップショットを取得し、繰り返し展開・正規化・
// フィルタ適用を経て、月グリッド・直近予定・集計サマリーを組み立てる。
// エンジン本体（internal/schedule）は純粋関数のため、I/Oとタイムゾーン解決は
// すべてこの層が担う。
package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/catchup/internal/model"
	"github.com/hitoshi/catchup/internal/repository"
	"github.com/hitoshi/catchup/internal/schedule"
	"github.com/hitoshi/catchup/internal/security"
)

// Summary は指定期間の集計サマリーを表す。
type Summary struct {
	From          time.Time
	To            time.Time
	ItemCount     int
	ProjectTotals []schedule.ProjectTotal
	DailySeconds  map[string]int64
	StatusCounts  map[string]int
}

// Service はカレンダーAPIのオーケストレーション層。
type Service struct {
	events        repository.EventRepository
	bookings      repository.BookingRepository
	tasks         repository.TaskRepository
	projects      repository.ProjectRepository
	users         repository.UserRepository
	guard         security.SSRFGuardService
	sanitizer     security.ContentSanitizerService
	logger        *slog.Logger
	gridBuildHook func(d time.Duration) // グリッド構築レイテンシの計測フック
	importTimeout time.Duration
	importMaxSize int64
	now           func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	events repository.EventRepository,
	bookings repository.BookingRepository,
	tasks repository.TaskRepository,
	projects repository.ProjectRepository,
	users repository.UserRepository,
	guard security.SSRFGuardService,
	sanitizer security.ContentSanitizerService,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		events:        events,
		bookings:      bookings,
		tasks:         tasks,
		projects:      projects,
		users:         users,
		guard:         guard,
		sanitizer:     sanitizer,
		logger:        logger,
		importTimeout: defaultImportTimeout,
		importMaxSize: defaultMaxICSSize,
		now:           time.Now,
	}
}

// SetImportLimits はICS取り込みのHTTPタイムアウトとレスポンスサイズ上限を設定する。
// 0以下の値を渡した項目はデフォルト値のまま変更しない。
func (s *Service) SetImportLimits(timeout time.Duration, maxSize int64) {
	if timeout > 0 {
		s.importTimeout = timeout
	}
	if maxSize > 0 {
		s.importMaxSize = maxSize
	}
}

// SetGridBuildHook は月グリッド構築の所要時間を通知するフックを設定する。
// メトリクス収集用で、未設定の場合は何もしない。
func (s *Service) SetGridBuildHook(fn func(d time.Duration)) {
	s.gridBuildHook = fn
}

// MonthGrid は指定ユーザーの指定年月の42セル月グリッドを構築する。
//
// グリッドの暦日はユーザーのタイムゾーンで解釈され、表示範囲
// （対象月の直前の日曜日からの42日間）に開始する繰り返しイベントは
// 個別のオカレンスに展開される。フィルタ条件はグリッド振り分けの前に
// 適用される。
func (s *Service) MonthGrid(ctx context.Context, userID string, year int, month int, filter schedule.FilterState) ([]schedule.DayBucket, error) {
	if month < 1 || month > 12 || year < 1970 || year > 2100 {
		return nil, model.NewInvalidMonthError(year, month)
	}

	loc, err := s.userLocation(ctx, userID)
	if err != nil {
		return nil, err
	}

	firstOfMonth := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	gridStart := firstOfMonth.AddDate(0, 0, -int(firstOfMonth.Weekday()))
	gridEnd := gridStart.AddDate(0, 0, schedule.GridCells)

	items, err := s.loadItems(ctx, userID, gridStart, gridEnd, loc)
	if err != nil {
		return nil, err
	}
	items = schedule.Apply(items, filter)

	buildStart := time.Now()
	buckets := schedule.BuildMonthGrid(year, time.Month(month), items, loc)
	if s.gridBuildHook != nil {
		s.gridBuildHook(time.Since(buildStart))
	}
	return buckets, nil
}

// Upcoming は現在時刻から指定期間内に開始するアイテムを開始時刻昇順で返す。
// horizonが0以下の場合はデフォルトの24時間を使用する。
func (s *Service) Upcoming(ctx context.Context, userID string, horizon time.Duration) ([]schedule.DisplayItem, error) {
	if horizon <= 0 {
		horizon = schedule.DefaultHorizon
	}

	loc, err := s.userLocation(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	items, err := s.loadItems(ctx, userID, now, now.Add(horizon), loc)
	if err != nil {
		return nil, err
	}
	return schedule.Upcoming(items, now, horizon), nil
}

// SummaryBetween は指定期間のプロジェクト別・日別・状態別の集計サマリーを返す。
// 期間の両端は含まれる。toがfromより前の場合はエラーを返す。
func (s *Service) SummaryBetween(ctx context.Context, userID string, from, to time.Time) (*Summary, error) {
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return nil, model.NewInvalidDateRangeError()
	}

	loc, err := s.userLocation(ctx, userID)
	if err != nil {
		return nil, err
	}

	items, err := s.loadItems(ctx, userID, from, to, loc)
	if err != nil {
		return nil, err
	}
	items = schedule.Apply(items, schedule.FilterState{
		DateRange: schedule.DateRange{Start: from, End: to},
	})

	return &Summary{
		From:          from,
		To:            to,
		ItemCount:     len(items),
		ProjectTotals: schedule.AggregateByProject(items),
		DailySeconds:  schedule.AggregateByDay(items, loc),
		StatusCounts:  schedule.CountByStatus(items),
	}, nil
}

// loadItems は指定期間のレコードスナップショットを取得し、繰り返しイベントを
// 展開した上で正規化済みのDisplayItemを返す。
func (s *Service) loadItems(ctx context.Context, userID string, from, to time.Time, loc *time.Location) ([]schedule.DisplayItem, error) {
	set, err := s.snapshot(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	set.Events = schedule.ExpandEvents(set.Events, from, to, s.logger)
	return schedule.Normalize(set, loc, s.logger), nil
}

// snapshot は指定ユーザーの全種別のレコードスナップショットを取得する。
// イベントは期間で絞り込み（繰り返しイベントは全件含まれる）、
// 予約・タスク・プロジェクトは全件取得してNormalizer以降に委ねる。
func (s *Service) snapshot(ctx context.Context, userID string, from, to time.Time) (model.RecordSet, error) {
	var set model.RecordSet
	var err error

	set.Events, err = s.events.ListStartingBetween(ctx, userID, from, to)
	if err != nil {
		return set, fmt.Errorf("イベントの取得に失敗しました: %w", err)
	}
	set.Bookings, err = s.bookings.ListByUser(ctx, userID)
	if err != nil {
		return set, fmt.Errorf("予約の取得に失敗しました: %w", err)
	}
	set.Tasks, err = s.tasks.ListByUser(ctx, userID)
	if err != nil {
		return set, fmt.Errorf("タスクの取得に失敗しました: %w", err)
	}
	set.Projects, err = s.projects.ListByUser(ctx, userID)
	if err != nil {
		return set, fmt.Errorf("プロジェクトの取得に失敗しました: %w", err)
	}
	return set, nil
}

// userLocation はユーザーのタイムゾーン設定からtime.Locationを解決する。
// タイムゾーンが未設定または解決不能な場合はUTCにフォールバックする。
func (s *Service) userLocation(ctx context.Context, userID string) (*time.Location, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	if user.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(user.Timezone)
	if err != nil {
		s.logger.Warn("タイムゾーンの解決に失敗しました。UTCを使用します",
			slog.String("user_id", userID),
			slog.String("timezone", user.Timezone),
		)
		return time.UTC, nil
	}
	return loc, nil
}
