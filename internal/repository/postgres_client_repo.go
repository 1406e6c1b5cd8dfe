package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/catchup/internal/model"
)

// PostgresClientRepo はPostgreSQLを使用した顧客リポジトリ。
type PostgresClientRepo struct {
	db *sql.DB
}

// NewPostgresClientRepo はPostgresClientRepoを生成する。
func NewPostgresClientRepo(db *sql.DB) *PostgresClientRepo {
	return &PostgresClientRepo{db: db}
}

// clientColumns は顧客取得クエリの共通カラムリスト。
const clientColumns = `id, user_id, name, email, phone, company, website,
       favicon_data, favicon_mime, created_at, updated_at`

// scanClient は1行分の顧客をスキャンする。
func scanClient(row interface{ Scan(...any) error }) (*model.Client, error) {
	c := &model.Client{}
	var faviconMime sql.NullString

	err := row.Scan(
		&c.ID, &c.UserID, &c.Name, &c.Email, &c.Phone, &c.Company, &c.Website,
		&c.FaviconData, &faviconMime,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.FaviconMime = faviconMime.String
	return c, nil
}

// FindByID は指定ユーザーの指定IDの顧客を取得する。見つからない場合はnilを返す。
func (r *PostgresClientRepo) FindByID(ctx context.Context, userID string, id int64) (*model.Client, error) {
	c, err := scanClient(r.db.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE user_id = $1 AND id = $2`,
		userID, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("顧客の取得に失敗しました: %w", err)
	}
	return c, nil
}

// ListByUser は指定ユーザーの全顧客をname昇順で返す。
func (r *PostgresClientRepo) ListByUser(ctx context.Context, userID string) ([]model.Client, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE user_id = $1 ORDER BY name ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("顧客一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var clients []model.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("顧客行の読み取りに失敗しました: %w", err)
		}
		clients = append(clients, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("顧客一覧の走査に失敗しました: %w", err)
	}
	return clients, nil
}

// Create は顧客を作成し、採番されたIDを設定する。
func (r *PostgresClientRepo) Create(ctx context.Context, client *model.Client) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO clients (user_id, name, email, phone, company, website, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		client.UserID, client.Name, client.Email, client.Phone, client.Company,
		client.Website, client.CreatedAt, client.UpdatedAt,
	).Scan(&client.ID)
	if err != nil {
		return fmt.Errorf("顧客の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は指定ユーザーの顧客を更新する。対象が存在しない場合はfalseを返す。
// faviconデータはUpdateFaviconでのみ更新する。
func (r *PostgresClientRepo) Update(ctx context.Context, userID string, client *model.Client) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE clients SET
		    name = $3, email = $4, phone = $5, company = $6, website = $7, updated_at = $8
		 WHERE user_id = $1 AND id = $2`,
		userID, client.ID,
		client.Name, client.Email, client.Phone, client.Company, client.Website,
		client.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("顧客の更新に失敗しました: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("顧客更新件数の取得に失敗しました: %w", err)
	}
	return affected > 0, nil
}

// UpdateFavicon は顧客のfaviconデータを更新する。
func (r *PostgresClientRepo) UpdateFavicon(ctx context.Context, clientID int64, faviconData []byte, faviconMime string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE clients SET favicon_data = $2, favicon_mime = $3, updated_at = now() WHERE id = $1`,
		clientID, faviconData, nullString(faviconMime),
	)
	if err != nil {
		return fmt.Errorf("faviconの更新に失敗しました: %w", err)
	}
	return nil
}

// Delete は指定ユーザーの顧客を削除する。対象が存在しない場合はfalseを返す。
func (r *PostgresClientRepo) Delete(ctx context.Context, userID string, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM clients WHERE user_id = $1 AND id = $2`,
		userID, id,
	)
	if err != nil {
		return false, fmt.Errorf("顧客の削除に失敗しました: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("顧客削除件数の取得に失敗しました: %w", err)
	}
	return affected > 0, nil
}

// compile-time interface check
var _ ClientRepository = (*PostgresClientRepo)(nil)
