package project

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/catchup/internal/model"
	"github.com/hitoshi/catchup/internal/repository"
)

// --- モック定義 ---

type mockProjectRepo struct {
	findByIDFn   func(ctx context.Context, userID string, id int64) (*model.Project, error)
	listByUserFn func(ctx context.Context, userID string) ([]model.Project, error)
	createFn     func(ctx context.Context, project *model.Project) error
	updateFn     func(ctx context.Context, userID string, project *model.Project) (bool, error)
	deleteFn     func(ctx context.Context, userID string, id int64) (bool, error)
}

func (m *mockProjectRepo) FindByID(ctx context.Context, userID string, id int64) (*model.Project, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, userID, id)
	}
	return nil, nil
}

func (m *mockProjectRepo) ListByUser(ctx context.Context, userID string) ([]model.Project, error) {
	if m.listByUserFn != nil {
		return m.listByUserFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockProjectRepo) Create(ctx context.Context, project *model.Project) error {
	if m.createFn != nil {
		return m.createFn(ctx, project)
	}
	return nil
}

func (m *mockProjectRepo) Update(ctx context.Context, userID string, project *model.Project) (bool, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, userID, project)
	}
	return true, nil
}

func (m *mockProjectRepo) Delete(ctx context.Context, userID string, id int64) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, id)
	}
	return true, nil
}

type passthroughSanitizer struct{}

func (s *passthroughSanitizer) Sanitize(rawHTML string) string { return rawHTML }

var _ repository.ProjectRepository = (*mockProjectRepo)(nil)

// --- テスト ---

// validProject はテスト用の有効なプロジェクトを返す。
func validProject() *model.Project {
	return &model.Project{
		Name:      "店舗改装工事",
		StartDate: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

// TestCreate_Valid は有効なプロジェクトの作成を検証する。
func TestCreate_Valid(t *testing.T) {
	var created *model.Project
	repo := &mockProjectRepo{
		createFn: func(ctx context.Context, project *model.Project) error {
			created = project
			return nil
		},
	}
	svc := NewService(repo, &passthroughSanitizer{})

	p, err := svc.Create(context.Background(), "user-1", validProject())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if created == nil {
		t.Fatal("expected project to be created")
	}
	if p.UserID != "user-1" {
		t.Errorf("userID = %q, want %q", p.UserID, "user-1")
	}
	// ステータス省略時はactiveで初期化されること
	if p.Status != "active" {
		t.Errorf("status = %q, want %q", p.Status, "active")
	}
}

// TestCreate_MissingName は名前なしのプロジェクトが拒否されることを検証する。
func TestCreate_MissingName(t *testing.T) {
	svc := NewService(&mockProjectRepo{}, &passthroughSanitizer{})

	p := validProject()
	p.Name = ""

	if _, err := svc.Create(context.Background(), "user-1", p); err == nil {
		t.Fatal("expected error for missing name")
	}
}

// TestCreate_EndBeforeStart は終了日が開始日より前のプロジェクトが拒否されることを検証する。
func TestCreate_EndBeforeStart(t *testing.T) {
	svc := NewService(&mockProjectRepo{}, &passthroughSanitizer{})

	p := validProject()
	end := p.StartDate.AddDate(0, 0, -7)
	p.EndDate = &end

	_, err := svc.Create(context.Background(), "user-1", p)
	if err == nil {
		t.Fatal("expected error for end before start")
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidDateRange {
		t.Errorf("expected INVALID_DATE_RANGE, got %v", err)
	}
}

// TestCreate_OpenEnded は終了日なし（進行中）のプロジェクトが許可されることを検証する。
func TestCreate_OpenEnded(t *testing.T) {
	svc := NewService(&mockProjectRepo{}, &passthroughSanitizer{})

	p := validProject()
	p.EndDate = nil

	if _, err := svc.Create(context.Background(), "user-1", p); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
}

// TestGet_NotFound は存在しないプロジェクトの取得がRECORD_NOT_FOUNDになることを検証する。
func TestGet_NotFound(t *testing.T) {
	svc := NewService(&mockProjectRepo{}, &passthroughSanitizer{})

	_, err := svc.Get(context.Background(), "user-1", 999)
	if err == nil {
		t.Fatal("expected error for missing project")
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeRecordNotFound {
		t.Errorf("expected RECORD_NOT_FOUND, got %v", err)
	}
}

// TestDelete_NotFound は存在しないプロジェクトの削除がRECORD_NOT_FOUNDになることを検証する。
func TestDelete_NotFound(t *testing.T) {
	repo := &mockProjectRepo{
		deleteFn: func(ctx context.Context, userID string, id int64) (bool, error) {
			return false, nil
		},
	}
	svc := NewService(repo, &passthroughSanitizer{})

	if err := svc.Delete(context.Background(), "user-1", 42); err == nil {
		t.Fatal("expected error for missing project")
	}
}
