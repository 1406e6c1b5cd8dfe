// Package event はカレンダーイベントのドメインロジックを提供する。
package event

import (
	"context"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/hitoshi/catchup/internal/model"
	"github.com/hitoshi/catchup/internal/repository"
	"github.com/hitoshi/catchup/internal/security"
)

// Service はイベントCRUDのサービス層。
// 入力検証、繰り返しルールの検証、説明文のサニタイズを行う。
type Service struct {
	repo      repository.EventRepository
	sanitizer security.ContentSanitizerService
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.EventRepository, sanitizer security.ContentSanitizerService) *Service {
	return &Service{repo: repo, sanitizer: sanitizer}
}

// List は指定ユーザーの全イベントを返す。
func (s *Service) List(ctx context.Context, userID string) ([]model.Event, error) {
	events, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("イベント一覧の取得に失敗しました: %w", err)
	}
	return events, nil
}

// Get は指定IDのイベントを返す。
func (s *Service) Get(ctx context.Context, userID string, id int64) (*model.Event, error) {
	ev, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("イベントの取得に失敗しました: %w", err)
	}
	if ev == nil {
		return nil, model.NewRecordNotFoundError(model.KindEvent, id)
	}
	return ev, nil
}

// Create はイベントを検証して作成する。
func (s *Service) Create(ctx context.Context, userID string, ev *model.Event) (*model.Event, error) {
	if err := s.validate(ev); err != nil {
		return nil, err
	}

	now := time.Now()
	ev.UserID = userID
	ev.Description = s.sanitizer.Sanitize(ev.Description)
	ev.CreatedAt = now
	ev.UpdatedAt = now

	if err := s.repo.Create(ctx, ev); err != nil {
		return nil, fmt.Errorf("イベントの作成に失敗しました: %w", err)
	}
	return ev, nil
}

// Update は既存イベントを検証して更新する。
func (s *Service) Update(ctx context.Context, userID string, ev *model.Event) (*model.Event, error) {
	if err := s.validate(ev); err != nil {
		return nil, err
	}

	ev.Description = s.sanitizer.Sanitize(ev.Description)
	ev.UpdatedAt = time.Now()

	ok, err := s.repo.Update(ctx, userID, ev)
	if err != nil {
		return nil, fmt.Errorf("イベントの更新に失敗しました: %w", err)
	}
	if !ok {
		return nil, model.NewRecordNotFoundError(model.KindEvent, ev.ID)
	}
	return ev, nil
}

// Delete は指定IDのイベントを削除する。
func (s *Service) Delete(ctx context.Context, userID string, id int64) error {
	ok, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("イベントの削除に失敗しました: %w", err)
	}
	if !ok {
		return model.NewRecordNotFoundError(model.KindEvent, id)
	}
	return nil
}

// validate はイベントの入力値を検証する。
// タイトルと開始時刻は必須。終了時刻は開始時刻以降でなければならない。
// 繰り返しルールが指定されている場合はRRULEとして解析できることを確認する。
func (s *Service) validate(ev *model.Event) error {
	if ev.Title == "" {
		return model.NewInvalidRequestError("タイトルは必須です")
	}
	if ev.StartTime.IsZero() {
		return model.NewInvalidRequestError("開始時刻は必須です")
	}
	if !ev.EndTime.IsZero() && ev.EndTime.Before(ev.StartTime) {
		return model.NewInvalidDateRangeError()
	}
	if ev.EventType == "" {
		ev.EventType = model.EventTypeOther
	}
	if ev.Recurrence != "" {
		if _, err := rrule.StrToRRule(ev.Recurrence); err != nil {
			return model.NewInvalidRecurrenceError(ev.Recurrence)
		}
	}
	return nil
}
