// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/catchup/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// CreateWithIdentity はユーザーとidentityを同一トランザクションで作成する。
	CreateWithIdentity(ctx context.Context, user *model.User, identity *model.Identity) error

	// UpdateSettings はユーザーの表示名・屋号・タイムゾーンを更新する。
	UpdateSettings(ctx context.Context, user *model.User) error

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するidentities、sessions、全ビジネスレコードはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error

	// ListIDs は全ユーザーのIDを返す。リマインダーワーカーの走査に使用する。
	ListIDs(ctx context.Context) ([]string, error)
}

// IdentityRepository は外部IdP紐付け情報の永続化インターフェース。
type IdentityRepository interface {
	// FindByProviderAndProviderUserID はproviderとprovider_user_idでidentityを検索する。
	// 見つからない場合はnilを返す。
	FindByProviderAndProviderUserID(ctx context.Context, provider, providerUserID string) (*model.Identity, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// EventRepository はイベントデータの永続化インターフェース。
type EventRepository interface {
	// FindByID は指定ユーザーの指定IDのイベントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, userID string, id int64) (*model.Event, error)

	// ListByUser は指定ユーザーの全イベントをstart_time昇順で返す。
	ListByUser(ctx context.Context, userID string) ([]model.Event, error)

	// ListStartingBetween は指定期間内に開始するイベントを返す。
	// 繰り返しイベントは期間に関わらず全件含める（展開は呼び出し側の責務）。
	ListStartingBetween(ctx context.Context, userID string, from, to time.Time) ([]model.Event, error)

	// Create はイベントを作成し、採番されたIDを設定する。
	Create(ctx context.Context, event *model.Event) error

	// Update は指定ユーザーのイベントを更新する。対象が存在しない場合はfalseを返す。
	Update(ctx context.Context, userID string, event *model.Event) (bool, error)

	// Delete は指定ユーザーのイベントを削除する。対象が存在しない場合はfalseを返す。
	Delete(ctx context.Context, userID string, id int64) (bool, error)
}

// BookingRepository は予約データの永続化インターフェース。
type BookingRepository interface {
	// FindByID は指定ユーザーの指定IDの予約を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, userID string, id int64) (*model.Booking, error)

	// ListByUser は指定ユーザーの全予約をdate, time昇順で返す。
	ListByUser(ctx context.Context, userID string) ([]model.Booking, error)

	// Create は予約を作成し、採番されたIDを設定する。
	Create(ctx context.Context, booking *model.Booking) error

	// Update は指定ユーザーの予約を更新する。対象が存在しない場合はfalseを返す。
	Update(ctx context.Context, userID string, booking *model.Booking) (bool, error)

	// Delete は指定ユーザーの予約を削除する。対象が存在しない場合はfalseを返す。
	Delete(ctx context.Context, userID string, id int64) (bool, error)
}

// TaskRepository はタスクデータの永続化インターフェース。
type TaskRepository interface {
	// FindByID は指定ユーザーの指定IDのタスクを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, userID string, id int64) (*model.Task, error)

	// ListByUser は指定ユーザーの全タスクをdeadline昇順で返す。
	ListByUser(ctx context.Context, userID string) ([]model.Task, error)

	// Create はタスクを作成し、採番されたIDを設定する。
	Create(ctx context.Context, task *model.Task) error

	// Update は指定ユーザーのタスクを更新する。対象が存在しない場合はfalseを返す。
	Update(ctx context.Context, userID string, task *model.Task) (bool, error)

	// Delete は指定ユーザーのタスクを削除する。対象が存在しない場合はfalseを返す。
	Delete(ctx context.Context, userID string, id int64) (bool, error)
}

// ProjectRepository はプロジェクトデータの永続化インターフェース。
type ProjectRepository interface {
	// FindByID は指定ユーザーの指定IDのプロジェクトを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, userID string, id int64) (*model.Project, error)

	// ListByUser は指定ユーザーの全プロジェクトをstart_date昇順で返す。
	ListByUser(ctx context.Context, userID string) ([]model.Project, error)

	// Create はプロジェクトを作成し、採番されたIDを設定する。
	Create(ctx context.Context, project *model.Project) error

	// Update は指定ユーザーのプロジェクトを更新する。対象が存在しない場合はfalseを返す。
	Update(ctx context.Context, userID string, project *model.Project) (bool, error)

	// Delete は指定ユーザーのプロジェクトを削除する。対象が存在しない場合はfalseを返す。
	Delete(ctx context.Context, userID string, id int64) (bool, error)
}

// ClientRepository は顧客データの永続化インターフェース。
type ClientRepository interface {
	// FindByID は指定ユーザーの指定IDの顧客を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, userID string, id int64) (*model.Client, error)

	// ListByUser は指定ユーザーの全顧客をname昇順で返す。
	ListByUser(ctx context.Context, userID string) ([]model.Client, error)

	// Create は顧客を作成し、採番されたIDを設定する。
	Create(ctx context.Context, client *model.Client) error

	// Update は指定ユーザーの顧客を更新する。対象が存在しない場合はfalseを返す。
	Update(ctx context.Context, userID string, client *model.Client) (bool, error)

	// UpdateFavicon は顧客のfaviconデータを更新する。
	UpdateFavicon(ctx context.Context, clientID int64, faviconData []byte, faviconMime string) error

	// Delete は指定ユーザーの顧客を削除する。対象が存在しない場合はfalseを返す。
	Delete(ctx context.Context, userID string, id int64) (bool, error)
}

// NotificationRepository は予定通知の永続化インターフェース。
type NotificationRepository interface {
	// Upsert は通知を冪等に作成する。
	// 同一の(user_id, kind, record_id, starts_at)が既に存在する場合は何もせず
	// falseを返し、新規作成時はtrueを返す。
	Upsert(ctx context.Context, n *model.Notification) (bool, error)

	// ListByUser は指定ユーザーの通知をcreated_at降順で返す。
	ListByUser(ctx context.Context, userID string, limit int) ([]model.Notification, error)

	// MarkRead は指定ユーザーの通知を既読にする。対象が存在しない場合はfalseを返す。
	MarkRead(ctx context.Context, userID string, id int64) (bool, error)
}
