package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/catchup/internal/model"
	"github.com/hitoshi/catchup/internal/repository"
)

// --- モック定義 ---

type mockTaskRepo struct {
	findByIDFn   func(ctx context.Context, userID string, id int64) (*model.Task, error)
	listByUserFn func(ctx context.Context, userID string) ([]model.Task, error)
	createFn     func(ctx context.Context, task *model.Task) error
	updateFn     func(ctx context.Context, userID string, task *model.Task) (bool, error)
	deleteFn     func(ctx context.Context, userID string, id int64) (bool, error)
}

func (m *mockTaskRepo) FindByID(ctx context.Context, userID string, id int64) (*model.Task, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, userID, id)
	}
	return nil, nil
}

func (m *mockTaskRepo) ListByUser(ctx context.Context, userID string) ([]model.Task, error) {
	if m.listByUserFn != nil {
		return m.listByUserFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockTaskRepo) Create(ctx context.Context, task *model.Task) error {
	if m.createFn != nil {
		return m.createFn(ctx, task)
	}
	return nil
}

func (m *mockTaskRepo) Update(ctx context.Context, userID string, task *model.Task) (bool, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, userID, task)
	}
	return true, nil
}

func (m *mockTaskRepo) Delete(ctx context.Context, userID string, id int64) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, id)
	}
	return true, nil
}

type passthroughSanitizer struct{}

func (s *passthroughSanitizer) Sanitize(rawHTML string) string { return rawHTML }

var _ repository.TaskRepository = (*mockTaskRepo)(nil)

// --- テスト ---

// validTask はテスト用の有効なタスクを返す。
func validTask() *model.Task {
	return &model.Task{
		Title:    "見積書送付",
		Deadline: time.Date(2025, 5, 20, 17, 0, 0, 0, time.UTC),
		Priority: model.TaskPriorityHigh,
	}
}

// TestCreate_Valid は有効なタスクの作成を検証する。
func TestCreate_Valid(t *testing.T) {
	var created *model.Task
	repo := &mockTaskRepo{
		createFn: func(ctx context.Context, task *model.Task) error {
			created = task
			return nil
		},
	}
	svc := NewService(repo, &passthroughSanitizer{})

	task, err := svc.Create(context.Background(), "user-1", validTask())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if created == nil {
		t.Fatal("expected task to be created")
	}
	if task.UserID != "user-1" {
		t.Errorf("userID = %q, want %q", task.UserID, "user-1")
	}
}

// TestCreate_MissingDeadline は締め切りなしのタスクが拒否されることを検証する。
func TestCreate_MissingDeadline(t *testing.T) {
	svc := NewService(&mockTaskRepo{}, &passthroughSanitizer{})

	task := validTask()
	task.Deadline = time.Time{}

	if _, err := svc.Create(context.Background(), "user-1", task); err == nil {
		t.Fatal("expected error for missing deadline")
	}
}

// TestCreate_MissingTitle はタイトルなしのタスクが拒否されることを検証する。
func TestCreate_MissingTitle(t *testing.T) {
	svc := NewService(&mockTaskRepo{}, &passthroughSanitizer{})

	task := validTask()
	task.Title = ""

	if _, err := svc.Create(context.Background(), "user-1", task); err == nil {
		t.Fatal("expected error for missing title")
	}
}

// TestCreate_DefaultPriority は優先度省略時にmediumが設定されることを検証する。
func TestCreate_DefaultPriority(t *testing.T) {
	svc := NewService(&mockTaskRepo{}, &passthroughSanitizer{})

	task := validTask()
	task.Priority = ""

	result, err := svc.Create(context.Background(), "user-1", task)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if result.Priority != model.TaskPriorityMedium {
		t.Errorf("priority = %q, want %q", result.Priority, model.TaskPriorityMedium)
	}
}

// TestCreate_InvalidPriority は定義外の優先度が拒否されることを検証する。
func TestCreate_InvalidPriority(t *testing.T) {
	svc := NewService(&mockTaskRepo{}, &passthroughSanitizer{})

	task := validTask()
	task.Priority = "urgent"

	if _, err := svc.Create(context.Background(), "user-1", task); err == nil {
		t.Fatal("expected error for invalid priority")
	}
}

// TestGet_NotFound は存在しないタスクの取得がRECORD_NOT_FOUNDになることを検証する。
func TestGet_NotFound(t *testing.T) {
	svc := NewService(&mockTaskRepo{}, &passthroughSanitizer{})

	_, err := svc.Get(context.Background(), "user-1", 999)
	if err == nil {
		t.Fatal("expected error for missing task")
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeRecordNotFound {
		t.Errorf("expected RECORD_NOT_FOUND, got %v", err)
	}
}

// TestUpdate_NotFound は存在しないタスクの更新がRECORD_NOT_FOUNDになることを検証する。
func TestUpdate_NotFound(t *testing.T) {
	repo := &mockTaskRepo{
		updateFn: func(ctx context.Context, userID string, task *model.Task) (bool, error) {
			return false, nil
		},
	}
	svc := NewService(repo, &passthroughSanitizer{})

	task := validTask()
	task.ID = 42

	if _, err := svc.Update(context.Background(), "user-1", task); err == nil {
		t.Fatal("expected error for missing task")
	}
}

// TestDelete_NotFound は存在しないタスクの削除がRECORD_NOT_FOUNDになることを検証する。
func TestDelete_NotFound(t *testing.T) {
	repo := &mockTaskRepo{
		deleteFn: func(ctx context.Context, userID string, id int64) (bool, error) {
			return false, nil
		},
	}
	svc := NewService(repo, &passthroughSanitizer{})

	if err := svc.Delete(context.Background(), "user-1", 42); err == nil {
		t.Fatal("expected error for missing task")
	}
}
