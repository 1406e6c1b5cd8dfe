package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/catchup/internal/model"
)

// PostgresTaskRepo はPostgreSQLを使用したタスクリポジトリ。
type PostgresTaskRepo struct {
	db *sql.DB
}

// NewPostgresTaskRepo はPostgresTaskRepoを生成する。
func NewPostgresTaskRepo(db *sql.DB) *PostgresTaskRepo {
	return &PostgresTaskRepo{db: db}
}

// taskColumns はタスク取得クエリの共通カラムリスト。
const taskColumns = `id, user_id, title, description, deadline, priority, status,
       completed, project_id, created_at, updated_at`

// scanTask は1行分のタスクをスキャンする。
func scanTask(row interface{ Scan(...any) error }) (*model.Task, error) {
	t := &model.Task{}
	var projectID sql.NullInt64

	err := row.Scan(
		&t.ID, &t.UserID, &t.Title, &t.Description, &t.Deadline,
		&t.Priority, &t.Status, &t.Completed, &projectID,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.ProjectID = nullInt64Value(projectID)
	return t, nil
}

// FindByID は指定ユーザーの指定IDのタスクを取得する。見つからない場合はnilを返す。
func (r *PostgresTaskRepo) FindByID(ctx context.Context, userID string, id int64) (*model.Task, error) {
	t, err := scanTask(r.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = $1 AND id = $2`,
		userID, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("タスクの取得に失敗しました: %w", err)
	}
	return t, nil
}

// ListByUser は指定ユーザーの全タスクをdeadline昇順で返す。
func (r *PostgresTaskRepo) ListByUser(ctx context.Context, userID string) ([]model.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = $1 ORDER BY deadline ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("タスク一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("タスク行の読み取りに失敗しました: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("タスク一覧の走査に失敗しました: %w", err)
	}
	return tasks, nil
}

// Create はタスクを作成し、採番されたIDを設定する。
func (r *PostgresTaskRepo) Create(ctx context.Context, task *model.Task) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO tasks (user_id, title, description, deadline, priority, status,
		                    completed, project_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		task.UserID, task.Title, task.Description, task.Deadline,
		task.Priority, task.Status, task.Completed, nullInt64(task.ProjectID),
		task.CreatedAt, task.UpdatedAt,
	).Scan(&task.ID)
	if err != nil {
		return fmt.Errorf("タスクの作成に失敗しました: %w", err)
	}
	return nil
}

// Update は指定ユーザーのタスクを更新する。対象が存在しない場合はfalseを返す。
func (r *PostgresTaskRepo) Update(ctx context.Context, userID string, task *model.Task) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET
		    title = $3, description = $4, deadline = $5, priority = $6, status = $7,
		    completed = $8, project_id = $9, updated_at = $10
		 WHERE user_id = $1 AND id = $2`,
		userID, task.ID,
		task.Title, task.Description, task.Deadline, task.Priority, task.Status,
		task.Completed, nullInt64(task.ProjectID), task.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("タスクの更新に失敗しました: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("タスク更新件数の取得に失敗しました: %w", err)
	}
	return affected > 0, nil
}

// Delete は指定ユーザーのタスクを削除する。対象が存在しない場合はfalseを返す。
func (r *PostgresTaskRepo) Delete(ctx context.Context, userID string, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE user_id = $1 AND id = $2`,
		userID, id,
	)
	if err != nil {
		return false, fmt.Errorf("タスクの削除に失敗しました: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("タスク削除件数の取得に失敗しました: %w", err)
	}
	return affected > 0, nil
}

// compile-time interface check
var _ TaskRepository = (*PostgresTaskRepo)(nil)
