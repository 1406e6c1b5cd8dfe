// Package task はタスク管理のドメインロジックを提供する。
package task

import (
	"context"
	"fmt"
	"time"

	"github.com/hitoshi/catchup/internal/model"
	"github.com/hitoshi/catchup/internal/repository"
	"github.com/hitoshi/catchup/internal/security"
)

// Service はタスクCRUDのサービス層。
type Service struct {
	repo      repository.TaskRepository
	sanitizer security.ContentSanitizerService
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.TaskRepository, sanitizer security.ContentSanitizerService) *Service {
	return &Service{repo: repo, sanitizer: sanitizer}
}

// List は指定ユーザーの全タスクを返す。
func (s *Service) List(ctx context.Context, userID string) ([]model.Task, error) {
	tasks, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("タスク一覧の取得に失敗しました: %w", err)
	}
	return tasks, nil
}

// Get は指定IDのタスクを返す。
func (s *Service) Get(ctx context.Context, userID string, id int64) (*model.Task, error) {
	task, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("タスクの取得に失敗しました: %w", err)
	}
	if task == nil {
		return nil, model.NewRecordNotFoundError(model.KindTask, id)
	}
	return task, nil
}

// Create はタスクを検証して作成する。
func (s *Service) Create(ctx context.Context, userID string, task *model.Task) (*model.Task, error) {
	if err := s.validate(task); err != nil {
		return nil, err
	}

	now := time.Now()
	task.UserID = userID
	task.Description = s.sanitizer.Sanitize(task.Description)
	task.CreatedAt = now
	task.UpdatedAt = now

	if err := s.repo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("タスクの作成に失敗しました: %w", err)
	}
	return task, nil
}

// Update は既存タスクを検証して更新する。
func (s *Service) Update(ctx context.Context, userID string, task *model.Task) (*model.Task, error) {
	if err := s.validate(task); err != nil {
		return nil, err
	}

	task.Description = s.sanitizer.Sanitize(task.Description)
	task.UpdatedAt = time.Now()

	ok, err := s.repo.Update(ctx, userID, task)
	if err != nil {
		return nil, fmt.Errorf("タスクの更新に失敗しました: %w", err)
	}
	if !ok {
		return nil, model.NewRecordNotFoundError(model.KindTask, task.ID)
	}
	return task, nil
}

// Delete は指定IDのタスクを削除する。
func (s *Service) Delete(ctx context.Context, userID string, id int64) error {
	ok, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("タスクの削除に失敗しました: %w", err)
	}
	if !ok {
		return model.NewRecordNotFoundError(model.KindTask, id)
	}
	return nil
}

// validate はタスクの入力値を検証する。
// タイトルと締め切りは必須。優先度は省略時にmediumとする。
func (s *Service) validate(task *model.Task) error {
	if task.Title == "" {
		return model.NewInvalidRequestError("タイトルは必須です")
	}
	if task.Deadline.IsZero() {
		return model.NewInvalidRequestError("締め切りは必須です")
	}

	if task.Priority == "" {
		task.Priority = model.TaskPriorityMedium
	}
	switch task.Priority {
	case model.TaskPriorityLow, model.TaskPriorityMedium, model.TaskPriorityHigh:
	default:
		return model.NewInvalidRequestError(fmt.Sprintf("不正な優先度です: %s", task.Priority))
	}
	return nil
}
