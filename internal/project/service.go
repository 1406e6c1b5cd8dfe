// Package project はプロジェクト管理のドメインロジックを提供する。
package project

import (
	"context"
	"fmt"
	"time"

	"github.com/hitoshi/catchup/internal/model"
	"github.com/hitoshi/catchup/internal/repository"
	"github.com/hitoshi/catchup/internal/security"
)

// Service はプロジェクトCRUDのサービス層。
type Service struct {
	repo      repository.ProjectRepository
	sanitizer security.ContentSanitizerService
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.ProjectRepository, sanitizer security.ContentSanitizerService) *Service {
	return &Service{repo: repo, sanitizer: sanitizer}
}

// List は指定ユーザーの全プロジェクトを返す。
func (s *Service) List(ctx context.Context, userID string) ([]model.Project, error) {
	projects, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("プロジェクト一覧の取得に失敗しました: %w", err)
	}
	return projects, nil
}

// Get は指定IDのプロジェクトを返す。
func (s *Service) Get(ctx context.Context, userID string, id int64) (*model.Project, error) {
	p, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("プロジェクトの取得に失敗しました: %w", err)
	}
	if p == nil {
		return nil, model.NewRecordNotFoundError(model.KindProject, id)
	}
	return p, nil
}

// Create はプロジェクトを検証して作成する。
func (s *Service) Create(ctx context.Context, userID string, p *model.Project) (*model.Project, error) {
	if err := s.validate(p); err != nil {
		return nil, err
	}

	now := time.Now()
	p.UserID = userID
	p.Description = s.sanitizer.Sanitize(p.Description)
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("プロジェクトの作成に失敗しました: %w", err)
	}
	return p, nil
}

// Update は既存プロジェクトを検証して更新する。
func (s *Service) Update(ctx context.Context, userID string, p *model.Project) (*model.Project, error) {
	if err := s.validate(p); err != nil {
		return nil, err
	}

	p.Description = s.sanitizer.Sanitize(p.Description)
	p.UpdatedAt = time.Now()

	ok, err := s.repo.Update(ctx, userID, p)
	if err != nil {
		return nil, fmt.Errorf("プロジェクトの更新に失敗しました: %w", err)
	}
	if !ok {
		return nil, model.NewRecordNotFoundError(model.KindProject, p.ID)
	}
	return p, nil
}

// Delete は指定IDのプロジェクトを削除する。
// 紐づくイベント・タスクの外部キーはON DELETE SET NULLで解除される。
func (s *Service) Delete(ctx context.Context, userID string, id int64) error {
	ok, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("プロジェクトの削除に失敗しました: %w", err)
	}
	if !ok {
		return model.NewRecordNotFoundError(model.KindProject, id)
	}
	return nil
}

// validate はプロジェクトの入力値を検証する。
// 名前と開始日は必須。終了日を指定する場合は開始日以降でなければならない。
func (s *Service) validate(p *model.Project) error {
	if p.Name == "" {
		return model.NewInvalidRequestError("プロジェクト名は必須です")
	}
	if p.StartDate.IsZero() {
		return model.NewInvalidRequestError("開始日は必須です")
	}
	if p.EndDate != nil && p.EndDate.Before(p.StartDate) {
		return model.NewInvalidDateRangeError()
	}
	if p.Status == "" {
		p.Status = "active"
	}
	return nil
}
