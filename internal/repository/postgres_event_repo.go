package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/catchup/internal/model"
)

// PostgresEventRepo はPostgreSQLを使用したイベントリポジトリ。
type PostgresEventRepo struct {
	db *sql.DB
}

// NewPostgresEventRepo はPostgresEventRepoを生成する。
func NewPostgresEventRepo(db *sql.DB) *PostgresEventRepo {
	return &PostgresEventRepo{db: db}
}

// eventColumns はイベント取得クエリの共通カラムリスト。
const eventColumns = `id, user_id, title, description, location, start_time, end_time,
       client_id, project_id, invoice_id, is_confirmed, event_type, color, recurrence,
       created_at, updated_at`

// scanEvent は1行分のイベントをスキャンする。
func scanEvent(row interface{ Scan(...any) error }) (*model.Event, error) {
	ev := &model.Event{}
	var clientID, projectID, invoiceID sql.NullInt64

	err := row.Scan(
		&ev.ID, &ev.UserID, &ev.Title, &ev.Description, &ev.Location,
		&ev.StartTime, &ev.EndTime,
		&clientID, &projectID, &invoiceID,
		&ev.IsConfirmed, &ev.EventType, &ev.Color, &ev.Recurrence,
		&ev.CreatedAt, &ev.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	ev.ClientID = nullInt64Value(clientID)
	ev.ProjectID = nullInt64Value(projectID)
	ev.InvoiceID = nullInt64Value(invoiceID)
	return ev, nil
}

// FindByID は指定ユーザーの指定IDのイベントを取得する。見つからない場合はnilを返す。
func (r *PostgresEventRepo) FindByID(ctx context.Context, userID string, id int64) (*model.Event, error) {
	ev, err := scanEvent(r.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE user_id = $1 AND id = $2`,
		userID, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("イベントの取得に失敗しました: %w", err)
	}
	return ev, nil
}

// ListByUser は指定ユーザーの全イベントをstart_time昇順で返す。
func (r *PostgresEventRepo) ListByUser(ctx context.Context, userID string) ([]model.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE user_id = $1 ORDER BY start_time ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("イベント一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

// ListStartingBetween は指定期間内に開始するイベントを返す。
// 繰り返しイベント（recurrenceが非空）は期間に関わらず全件含める。
// 展開は呼び出し側の責務。
func (r *PostgresEventRepo) ListStartingBetween(ctx context.Context, userID string, from, to time.Time) ([]model.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events
		 WHERE user_id = $1 AND (recurrence <> '' OR (start_time >= $2 AND start_time <= $3))
		 ORDER BY start_time ASC`,
		userID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("期間内イベントの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

// collectEvents は結果セットの全行をスキャンする。
func collectEvents(rows *sql.Rows) ([]model.Event, error) {
	var events []model.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("イベント行の読み取りに失敗しました: %w", err)
		}
		events = append(events, *ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("イベント一覧の走査に失敗しました: %w", err)
	}
	return events, nil
}

// Create はイベントを作成し、採番されたIDを設定する。
func (r *PostgresEventRepo) Create(ctx context.Context, event *model.Event) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO events (user_id, title, description, location, start_time, end_time,
		                     client_id, project_id, invoice_id, is_confirmed, event_type,
		                     color, recurrence, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 RETURNING id`,
		event.UserID, event.Title, event.Description, event.Location,
		event.StartTime, event.EndTime,
		nullInt64(event.ClientID), nullInt64(event.ProjectID), nullInt64(event.InvoiceID),
		event.IsConfirmed, event.EventType, event.Color, event.Recurrence,
		event.CreatedAt, event.UpdatedAt,
	).Scan(&event.ID)
	if err != nil {
		return fmt.Errorf("イベントの作成に失敗しました: %w", err)
	}
	return nil
}

// Update は指定ユーザーのイベントを更新する。対象が存在しない場合はfalseを返す。
func (r *PostgresEventRepo) Update(ctx context.Context, userID string, event *model.Event) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE events SET
		    title = $3, description = $4, location = $5, start_time = $6, end_time = $7,
		    client_id = $8, project_id = $9, invoice_id = $10, is_confirmed = $11,
		    event_type = $12, color = $13, recurrence = $14, updated_at = $15
		 WHERE user_id = $1 AND id = $2`,
		userID, event.ID,
		event.Title, event.Description, event.Location, event.StartTime, event.EndTime,
		nullInt64(event.ClientID), nullInt64(event.ProjectID), nullInt64(event.InvoiceID),
		event.IsConfirmed, event.EventType, event.Color, event.Recurrence, event.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("イベントの更新に失敗しました: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("イベント更新件数の取得に失敗しました: %w", err)
	}
	return affected > 0, nil
}

// Delete は指定ユーザーのイベントを削除する。対象が存在しない場合はfalseを返す。
func (r *PostgresEventRepo) Delete(ctx context.Context, userID string, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM events WHERE user_id = $1 AND id = $2`,
		userID, id,
	)
	if err != nil {
		return false, fmt.Errorf("イベントの削除に失敗しました: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("イベント削除件数の取得に失敗しました: %w", err)
	}
	return affected > 0, nil
}

// compile-time interface check
var _ EventRepository = (*PostgresEventRepo)(nil)
