package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/catchup/internal/model"
)

// PostgresBookingRepo はPostgreSQLを使用した予約リポジトリ。
type PostgresBookingRepo struct {
	db *sql.DB
}

// NewPostgresBookingRepo はPostgresBookingRepoを生成する。
func NewPostgresBookingRepo(db *sql.DB) *PostgresBookingRepo {
	return &PostgresBookingRepo{db: db}
}

// bookingColumns は予約取得クエリの共通カラムリスト。
const bookingColumns = `id, user_id, date, time, duration, type, status,
       client_name, client_email, notes, created_at, updated_at`

// scanBooking は1行分の予約をスキャンする。
func scanBooking(row interface{ Scan(...any) error }) (*model.Booking, error) {
	b := &model.Booking{}
	err := row.Scan(
		&b.ID, &b.UserID, &b.Date, &b.Time, &b.Duration, &b.Type, &b.Status,
		&b.ClientName, &b.ClientEmail, &b.Notes, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// FindByID は指定ユーザーの指定IDの予約を取得する。見つからない場合はnilを返す。
func (r *PostgresBookingRepo) FindByID(ctx context.Context, userID string, id int64) (*model.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE user_id = $1 AND id = $2`,
		userID, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("予約の取得に失敗しました: %w", err)
	}
	return b, nil
}

// ListByUser は指定ユーザーの全予約をdate, time昇順で返す。
func (r *PostgresBookingRepo) ListByUser(ctx context.Context, userID string) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE user_id = $1 ORDER BY date ASC, time ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("予約一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var bookings []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("予約行の読み取りに失敗しました: %w", err)
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("予約一覧の走査に失敗しました: %w", err)
	}
	return bookings, nil
}

// Create は予約を作成し、採番されたIDを設定する。
func (r *PostgresBookingRepo) Create(ctx context.Context, booking *model.Booking) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO bookings (user_id, date, time, duration, type, status,
		                       client_name, client_email, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id`,
		booking.UserID, booking.Date, booking.Time, booking.Duration,
		booking.Type, booking.Status, booking.ClientName, booking.ClientEmail,
		booking.Notes, booking.CreatedAt, booking.UpdatedAt,
	).Scan(&booking.ID)
	if err != nil {
		return fmt.Errorf("予約の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は指定ユーザーの予約を更新する。対象が存在しない場合はfalseを返す。
func (r *PostgresBookingRepo) Update(ctx context.Context, userID string, booking *model.Booking) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET
		    date = $3, time = $4, duration = $5, type = $6, status = $7,
		    client_name = $8, client_email = $9, notes = $10, updated_at = $11
		 WHERE user_id = $1 AND id = $2`,
		userID, booking.ID,
		booking.Date, booking.Time, booking.Duration, booking.Type, booking.Status,
		booking.ClientName, booking.ClientEmail, booking.Notes, booking.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("予約の更新に失敗しました: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("予約更新件数の取得に失敗しました: %w", err)
	}
	return affected > 0, nil
}

// Delete は指定ユーザーの予約を削除する。対象が存在しない場合はfalseを返す。
func (r *PostgresBookingRepo) Delete(ctx context.Context, userID string, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM bookings WHERE user_id = $1 AND id = $2`,
		userID, id,
	)
	if err != nil {
		return false, fmt.Errorf("予約の削除に失敗しました: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("予約削除件数の取得に失敗しました: %w", err)
	}
	return affected > 0, nil
}

// compile-time interface check
var _ BookingRepository = (*PostgresBookingRepo)(nil)
