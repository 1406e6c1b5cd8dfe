package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/catchup/internal/model"
)

// PostgresProjectRepo はPostgreSQLを使用したプロジェクトリポジトリ。
type PostgresProjectRepo struct {
	db *sql.DB
}

// NewPostgresProjectRepo はPostgresProjectRepoを生成する。
func NewPostgresProjectRepo(db *sql.DB) *PostgresProjectRepo {
	return &PostgresProjectRepo{db: db}
}

// projectColumns はプロジェクト取得クエリの共通カラムリスト。
const projectColumns = `id, user_id, name, client_id, description, start_date, end_date,
       status, created_at, updated_at`

// scanProject は1行分のプロジェクトをスキャンする。
func scanProject(row interface{ Scan(...any) error }) (*model.Project, error) {
	p := &model.Project{}
	var clientID sql.NullInt64
	var endDate sql.NullTime

	err := row.Scan(
		&p.ID, &p.UserID, &p.Name, &clientID, &p.Description,
		&p.StartDate, &endDate, &p.Status,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.ClientID = nullInt64Value(clientID)
	if endDate.Valid {
		p.EndDate = &endDate.Time
	}
	return p, nil
}

// FindByID は指定ユーザーの指定IDのプロジェクトを取得する。見つからない場合はnilを返す。
func (r *PostgresProjectRepo) FindByID(ctx context.Context, userID string, id int64) (*model.Project, error) {
	p, err := scanProject(r.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE user_id = $1 AND id = $2`,
		userID, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("プロジェクトの取得に失敗しました: %w", err)
	}
	return p, nil
}

// ListByUser は指定ユーザーの全プロジェクトをstart_date昇順で返す。
func (r *PostgresProjectRepo) ListByUser(ctx context.Context, userID string) ([]model.Project, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE user_id = $1 ORDER BY start_date ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("プロジェクト一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("プロジェクト行の読み取りに失敗しました: %w", err)
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("プロジェクト一覧の走査に失敗しました: %w", err)
	}
	return projects, nil
}

// Create はプロジェクトを作成し、採番されたIDを設定する。
func (r *PostgresProjectRepo) Create(ctx context.Context, project *model.Project) error {
	var endDate sql.NullTime
	if project.EndDate != nil {
		endDate = sql.NullTime{Time: *project.EndDate, Valid: true}
	}

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO projects (user_id, name, client_id, description, start_date, end_date,
		                       status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id`,
		project.UserID, project.Name, nullInt64(project.ClientID), project.Description,
		project.StartDate, endDate, project.Status,
		project.CreatedAt, project.UpdatedAt,
	).Scan(&project.ID)
	if err != nil {
		return fmt.Errorf("プロジェクトの作成に失敗しました: %w", err)
	}
	return nil
}

// Update は指定ユーザーのプロジェクトを更新する。対象が存在しない場合はfalseを返す。
func (r *PostgresProjectRepo) Update(ctx context.Context, userID string, project *model.Project) (bool, error) {
	var endDate sql.NullTime
	if project.EndDate != nil {
		endDate = sql.NullTime{Time: *project.EndDate, Valid: true}
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE projects SET
		    name = $3, client_id = $4, description = $5, start_date = $6, end_date = $7,
		    status = $8, updated_at = $9
		 WHERE user_id = $1 AND id = $2`,
		userID, project.ID,
		project.Name, nullInt64(project.ClientID), project.Description,
		project.StartDate, endDate, project.Status, project.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("プロジェクトの更新に失敗しました: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("プロジェクト更新件数の取得に失敗しました: %w", err)
	}
	return affected > 0, nil
}

// Delete は指定ユーザーのプロジェクトを削除する。対象が存在しない場合はfalseを返す。
func (r *PostgresProjectRepo) Delete(ctx context.Context, userID string, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM projects WHERE user_id = $1 AND id = $2`,
		userID, id,
	)
	if err != nil {
		return false, fmt.Errorf("プロジェクトの削除に失敗しました: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("プロジェクト削除件数の取得に失敗しました: %w", err)
	}
	return affected > 0, nil
}

// compile-time interface check
var _ ProjectRepository = (*PostgresProjectRepo)(nil)
