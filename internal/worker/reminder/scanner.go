// Package reminder は直近の予定に対する通知生成ワーカーを提供する。
// 一定間隔で全ユーザーのスケジュールを走査し、リマインド対象期間に
// 開始する予定ごとに通知を冪等に生成する。
package reminder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/catchup/internal/model"
	"github.com/hitoshi/catchup/internal/repository"
	"github.com/hitoshi/catchup/internal/schedule"
)

// UserIDLister はユーザーIDの列挙インターフェース。
// repository.UserRepositoryの部分集合として定義する。
type UserIDLister interface {
	ListIDs(ctx context.Context) ([]string, error)
}

// UpcomingProvider は直近予定の取得インターフェース。
// 通常はcalendar.Serviceが渡される。
type UpcomingProvider interface {
	Upcoming(ctx context.Context, userID string, horizon time.Duration) ([]schedule.DisplayItem, error)
}

// MetricsRecorder はリマインダー生成数の記録インターフェース。
type MetricsRecorder interface {
	RecordRemindersGenerated(count int)
}

// Scanner はリマインダー通知の走査と生成を行う。
// semaphoreパターンで最大並列数を制御しながらユーザーごとに走査する。
type Scanner struct {
	users          UserIDLister
	upcoming       UpcomingProvider
	notifRepo      repository.NotificationRepository
	metrics        MetricsRecorder
	logger         *slog.Logger
	lookahead      time.Duration
	maxConcurrency int
}

// NewScanner はScannerの新しいインスタンスを生成する。
// lookaheadが0以下の場合はデフォルトの24時間、
// maxConcurrencyが0以下の場合はデフォルト値10を使用する。
func NewScanner(
	users UserIDLister,
	upcoming UpcomingProvider,
	notifRepo repository.NotificationRepository,
	metrics MetricsRecorder,
	logger *slog.Logger,
	lookahead time.Duration,
	maxConcurrency int,
) *Scanner {
	if lookahead <= 0 {
		lookahead = schedule.DefaultHorizon
	}
	if maxConcurrency <= 0 {
		maxConcurrency = 10
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		users:          users,
		upcoming:       upcoming,
		notifRepo:      notifRepo,
		metrics:        metrics,
		logger:         logger,
		lookahead:      lookahead,
		maxConcurrency: maxConcurrency,
	}
}

// Start は指定間隔のティッカーでスキャナーを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (s *Scanner) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("リマインダースキャナーを開始しました",
		slog.Duration("interval", interval),
		slog.Duration("lookahead", s.lookahead),
		slog.Int("max_concurrency", s.maxConcurrency),
	)

	// 起動直後に1回実行
	if err := s.RunOnce(ctx); err != nil {
		s.logger.Error("リマインダー走査の実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("リマインダースキャナーを停止しました")
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logger.Error("リマインダー走査の実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce は全ユーザーを1回走査し、リマインド対象の通知を生成する。
// 通知の生成は(user_id, kind, record_id, starts_at)をキーとした冪等な
// アップサートであり、同じ予定に対して重複通知は作られない。
func (s *Scanner) RunOnce(ctx context.Context) error {
	start := time.Now()

	userIDs, err := s.users.ListIDs(ctx)
	if err != nil {
		return err
	}

	if len(userIDs) == 0 {
		s.logger.Info("走査対象のユーザーはいません")
		return nil
	}

	// semaphoreパターンで並列数を制御
	sem := make(chan struct{}, s.maxConcurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	totalCreated := 0

	for _, userID := range userIDs {
		wg.Add(1)
		sem <- struct{}{} // semaphore取得（ブロック）

		go func(uid string) {
			defer wg.Done()
			defer func() { <-sem }() // semaphore解放

			created, err := s.scanUser(ctx, uid)
			if err != nil {
				s.logger.Error("ユーザーのリマインダー走査に失敗しました",
					slog.String("user_id", uid),
					slog.String("error", err.Error()),
				)
				return
			}
			mu.Lock()
			totalCreated += created
			mu.Unlock()
		}(userID)
	}

	wg.Wait()

	if s.metrics != nil && totalCreated > 0 {
		s.metrics.RecordRemindersGenerated(totalCreated)
	}

	duration := time.Since(start)
	s.logger.Info("リマインダー走査が完了しました",
		slog.Int("user_count", len(userIDs)),
		slog.Int("created_count", totalCreated),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// scanUser は1ユーザーの直近予定を走査し、通知を生成する。
// 作成した通知の件数を返す。
func (s *Scanner) scanUser(ctx context.Context, userID string) (int, error) {
	items, err := s.upcoming.Upcoming(ctx, userID, s.lookahead)
	if err != nil {
		return 0, err
	}

	created := 0
	now := time.Now()
	for _, item := range items {
		n := &model.Notification{
			UserID:    userID,
			Kind:      item.Kind,
			RecordID:  item.ID,
			Title:     item.Title,
			StartsAt:  item.Start,
			CreatedAt: now,
		}
		inserted, err := s.notifRepo.Upsert(ctx, n)
		if err != nil {
			return created, err
		}
		if inserted {
			created++
		}
	}
	return created, nil
}
