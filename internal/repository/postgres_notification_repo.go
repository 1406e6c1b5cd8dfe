package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/catchup/internal/model"
)

// PostgresNotificationRepo はPostgreSQLを使用した通知リポジトリ。
type PostgresNotificationRepo struct {
	db *sql.DB
}

// NewPostgresNotificationRepo はPostgresNotificationRepoを生成する。
func NewPostgresNotificationRepo(db *sql.DB) *PostgresNotificationRepo {
	return &PostgresNotificationRepo{db: db}
}

// Upsert は通知を冪等に作成する。
// ユニーク制約(user_id, kind, record_id, starts_at)に衝突した場合は何もせず
// falseを返し、新規作成時はtrueを返す。
func (r *PostgresNotificationRepo) Upsert(ctx context.Context, n *model.Notification) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (user_id, kind, record_id, title, starts_at, is_read, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (user_id, kind, record_id, starts_at) DO NOTHING`,
		n.UserID, string(n.Kind), n.RecordID, n.Title, n.StartsAt, n.IsRead, n.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("通知の作成に失敗しました: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("通知作成件数の取得に失敗しました: %w", err)
	}
	return affected > 0, nil
}

// ListByUser は指定ユーザーの通知をcreated_at降順で返す。
func (r *PostgresNotificationRepo) ListByUser(ctx context.Context, userID string, limit int) ([]model.Notification, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, kind, record_id, title, starts_at, is_read, created_at
		 FROM notifications
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("通知一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		var n model.Notification
		var kind string
		err := rows.Scan(&n.ID, &n.UserID, &kind, &n.RecordID, &n.Title,
			&n.StartsAt, &n.IsRead, &n.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("通知行の読み取りに失敗しました: %w", err)
		}
		n.Kind = model.RecordKind(kind)
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("通知一覧の走査に失敗しました: %w", err)
	}
	return notifications, nil
}

// MarkRead は指定ユーザーの通知を既読にする。対象が存在しない場合はfalseを返す。
func (r *PostgresNotificationRepo) MarkRead(ctx context.Context, userID string, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND id = $2`,
		userID, id,
	)
	if err != nil {
		return false, fmt.Errorf("通知の既読化に失敗しました: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("通知更新件数の取得に失敗しました: %w", err)
	}
	return affected > 0, nil
}

// compile-time interface check
var _ NotificationRepository = (*PostgresNotificationRepo)(nil)
