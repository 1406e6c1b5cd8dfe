package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	"github.com/hitoshi/catchup/internal/auth"
	"github.com/hitoshi/catchup/internal/booking"
	"github.com/hitoshi/catchup/internal/calendar"
	"github.com/hitoshi/catchup/internal/client"
	"github.com/hitoshi/catchup/internal/config"
	"github.com/hitoshi/catchup/internal/database"
	"github.com/hitoshi/catchup/internal/event"
	"github.com/hitoshi/catchup/internal/handler"
	"github.com/hitoshi/catchup/internal/logger"
	"github.com/hitoshi/catchup/internal/metrics"
	"github.com/hitoshi/catchup/internal/middleware"
	"github.com/hitoshi/catchup/internal/project"
	"github.com/hitoshi/catchup/internal/repository"
	"github.com/hitoshi/catchup/internal/security"
	"github.com/hitoshi/catchup/internal/task"
	"github.com/hitoshi/catchup/internal/worker/cleanup"
	"github.com/hitoshi/catchup/internal/worker/reminder"
)

// reminderMaxConcurrency はリマインダー走査の最大並列ユーザー数。
const reminderMaxConcurrency = 10

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	identRepo := repository.NewPostgresIdentityRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	eventRepo := repository.NewPostgresEventRepo(db)
	bookingRepo := repository.NewPostgresBookingRepo(db)
	taskRepo := repository.NewPostgresTaskRepo(db)
	projectRepo := repository.NewPostgresProjectRepo(db)
	clientRepo := repository.NewPostgresClientRepo(db)
	notifRepo := repository.NewPostgresNotificationRepo(db)

	// 3. セキュリティサービスの初期化
	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewContentSanitizer()

	// 4. ドメインサービスの初期化
	oauthProvider := auth.NewGoogleOAuthProvider(auth.GoogleOAuthConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
	})
	authService := auth.NewService(
		oauthProvider, userRepo, identRepo, sessionRepo,
		auth.ServiceConfig{
			SessionMaxAge:   cfg.SessionMaxAge,
			DefaultTimezone: cfg.DefaultTimezone,
		},
	)

	eventService := event.NewService(eventRepo, sanitizer)
	bookingService := booking.NewService(bookingRepo, sanitizer)
	taskService := task.NewService(taskRepo, sanitizer)
	projectService := project.NewService(projectRepo, sanitizer)

	faviconFetcher := client.NewFaviconFetcher(ssrfGuard)
	clientService := client.NewService(clientRepo, faviconFetcher, ssrfGuard)

	calendarService := calendar.NewService(
		eventRepo, bookingRepo, taskRepo, projectRepo, userRepo,
		ssrfGuard, sanitizer, slog.Default(),
	)
	calendarService.SetImportLimits(cfg.ImportTimeout, cfg.ImportMaxSize)

	// 5. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)
	calendarService.SetGridBuildHook(collector.RecordGridBuildLatency)

	// 6. ルーターの構築
	deps := &handler.RouterDeps{
		SessionFinder:     sessionRepo,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig()),

		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			BaseURL:       cfg.BaseURL,
			CookieDomain:  cfg.CookieDomain,
			CookieSecure:  cfg.CookieSecure,
			SessionMaxAge: cfg.SessionMaxAge,
		},

		EventService:   eventService,
		BookingService: bookingService,
		TaskService:    taskService,
		ProjectService: projectService,

		ClientService:   clientService,
		CalendarService: calendarService,

		NotificationService: notifRepo,

		HealthChecker: db,
	}

	router := handler.NewRouter(deps)

	// /metrics はセッション認証の外に置く（Prometheusスクレイプ用）
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(registry))
	mux.Handle("/", router)

	// 7. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// DB接続を開き、リマインダースキャナと通知クリーンアップジョブを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (worker)")

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	eventRepo := repository.NewPostgresEventRepo(db)
	bookingRepo := repository.NewPostgresBookingRepo(db)
	taskRepo := repository.NewPostgresTaskRepo(db)
	projectRepo := repository.NewPostgresProjectRepo(db)
	notifRepo := repository.NewPostgresNotificationRepo(db)

	// 3. セキュリティサービスの初期化
	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewContentSanitizer()

	// 4. カレンダーサービスの初期化（直近予定の走査に使用）
	calendarService := calendar.NewService(
		eventRepo, bookingRepo, taskRepo, projectRepo, userRepo,
		ssrfGuard, sanitizer, slog.Default(),
	)

	// 5. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 6. リマインダースキャナの初期化
	scanner := reminder.NewScanner(
		userRepo, calendarService, notifRepo, collector,
		slog.Default(), cfg.ReminderHorizon, reminderMaxConcurrency,
	)

	// 7. クリーンアップジョブの初期化（cron式でスケジュール）
	cleanupJob := cleanup.NewCleanupJob(db, slog.Default())
	cleanupJob.RetentionDays = cfg.NotificationRetentionDays

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting",
		slog.Duration("reminder_tick", cfg.ReminderTick),
		slog.Duration("reminder_horizon", cfg.ReminderHorizon),
		slog.String("cleanup_schedule", cfg.CleanupSchedule),
	)

	// クリーンアップジョブをcronスケジュールでバックグラウンド実行
	c := cron.New()
	if _, err := c.AddFunc(cfg.CleanupSchedule, func() {
		if err := cleanupJob.Run(ctx); err != nil {
			slog.Error("cleanup job failed", slog.String("error", err.Error()))
		}
	}); err != nil {
		return fmt.Errorf("invalid cleanup schedule %q: %w", cfg.CleanupSchedule, err)
	}
	c.Start()
	defer c.Stop()

	// リマインダースキャナをメインgoroutineで実行（ブロッキング）
	scanner.Start(ctx, cfg.ReminderTick)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
