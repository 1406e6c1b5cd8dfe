package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/catchup/internal/middleware"
)

// SetupAuthRoutes は認証関連のルーティングを設定したchi.Routerを返す。
func SetupAuthRoutes(service AuthServiceInterface, config AuthHandlerConfig) http.Handler {
	r := chi.NewRouter()
	h := NewAuthHandler(service, config)

	r.Route("/auth", func(r chi.Router) {
		// OAuthフロー
		r.Get("/google/login", h.Login)
		r.Get("/google/callback", h.Callback)

		// セッション管理とアカウント設定
		r.Post("/logout", h.Logout)
		r.Get("/me", h.Me)
		r.Patch("/me", h.UpdateMe)
		r.Delete("/me", h.DeleteMe)
	})

	return r
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// スケジュールレコード
	EventService   EventServiceInterface
	BookingService BookingServiceInterface
	TaskService    TaskServiceInterface
	ProjectService ProjectServiceInterface

	// 顧客
	ClientService ClientServiceInterface

	// カレンダー集約
	CalendarService CalendarServiceInterface

	// 通知
	NotificationService NotificationServiceInterface

	// ヘルスチェック（DB疎通確認）
	HealthChecker HealthCheckerInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORSMiddleware → SessionMiddleware → RateLimitMiddleware(GeneralMiddleware)
//
// 認証ルート（/auth/*）とヘルスチェックはミドルウェアチェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// CORS ミドルウェアを最上位に適用（全ルートに効く）
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	eventHandler := NewEventHandler(deps.EventService)
	bookingHandler := NewBookingHandler(deps.BookingService)
	taskHandler := NewTaskHandler(deps.TaskService)
	projectHandler := NewProjectHandler(deps.ProjectService)
	clientHandler := NewClientHandler(deps.ClientService)
	calendarHandler := NewCalendarHandler(deps.CalendarService)
	notificationHandler := NewNotificationHandler(deps.NotificationService)

	// --- 認証不要のルート ---

	// ヘルスチェック
	r.Get("/health", NewHealthHandler(deps.HealthChecker).Check)

	// 認証ルート（OAuthフロー・アカウント設定）
	r.Route("/auth", func(r chi.Router) {
		r.Get("/google/login", authHandler.Login)
		r.Get("/google/callback", authHandler.Callback)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
		r.Patch("/me", authHandler.UpdateMe)
		r.Delete("/me", authHandler.DeleteMe)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// イベント管理
		r.Route("/api/events", func(r chi.Router) {
			r.Get("/", eventHandler.List)
			r.Post("/", eventHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", eventHandler.Get)
				r.Patch("/", eventHandler.Update)
				r.Delete("/", eventHandler.Delete)
			})
		})

		// 予約管理
		r.Route("/api/bookings", func(r chi.Router) {
			r.Get("/", bookingHandler.List)
			r.Post("/", bookingHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", bookingHandler.Get)
				r.Patch("/", bookingHandler.Update)
				r.Delete("/", bookingHandler.Delete)
			})
		})

		// タスク管理
		r.Route("/api/tasks", func(r chi.Router) {
			r.Get("/", taskHandler.List)
			r.Post("/", taskHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", taskHandler.Get)
				r.Patch("/", taskHandler.Update)
				r.Delete("/", taskHandler.Delete)
			})
		})

		// プロジェクト管理
		r.Route("/api/projects", func(r chi.Router) {
			r.Get("/", projectHandler.List)
			r.Post("/", projectHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", projectHandler.Get)
				r.Patch("/", projectHandler.Update)
				r.Delete("/", projectHandler.Delete)
			})
		})

		// 顧客管理
		r.Route("/api/clients", func(r chi.Router) {
			r.Get("/", clientHandler.List)
			r.Post("/", clientHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", clientHandler.Get)
				r.Patch("/", clientHandler.Update)
				r.Delete("/", clientHandler.Delete)
				r.Get("/favicon", clientHandler.Favicon)
			})
		})

		// カレンダー集約・ICS連携
		r.Route("/api/calendar", func(r chi.Router) {
			r.Get("/month", calendarHandler.MonthGrid)
			r.Get("/upcoming", calendarHandler.Upcoming)
			r.Get("/summary", calendarHandler.Summary)
			r.Get("/export.ics", calendarHandler.Export)

			// POST /api/calendar/import - 外部カレンダー取り込み（取り込み専用レート制限を追加）
			r.With(deps.RateLimiter.ImportMiddleware()).Post("/import", calendarHandler.Import)
		})

		// 通知
		r.Route("/api/notifications", func(r chi.Router) {
			r.Get("/", notificationHandler.List)
			r.Post("/{id}/read", notificationHandler.MarkRead)
		})
	})

	return r
}
