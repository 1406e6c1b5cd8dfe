// Package booking は顧客予約のドメインロジックを提供する。
package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/hitoshi/catchup/internal/model"
	"github.com/hitoshi/catchup/internal/repository"
	"github.com/hitoshi/catchup/internal/security"
)

// 予約の日付・時刻フィールドのフォーマット。
// API契約上は文字列で授受し、カレンダーエンジン側でタイムゾーンを適用して解釈する。
const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Service は予約CRUDのサービス層。
// 日付・時刻文字列の形式検証、ステータス検証、メモのサニタイズを行う。
type Service struct {
	repo      repository.BookingRepository
	sanitizer security.ContentSanitizerService
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.BookingRepository, sanitizer security.ContentSanitizerService) *Service {
	return &Service{repo: repo, sanitizer: sanitizer}
}

// List は指定ユーザーの全予約を返す。
func (s *Service) List(ctx context.Context, userID string) ([]model.Booking, error) {
	bookings, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("予約一覧の取得に失敗しました: %w", err)
	}
	return bookings, nil
}

// Get は指定IDの予約を返す。
func (s *Service) Get(ctx context.Context, userID string, id int64) (*model.Booking, error) {
	b, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("予約の取得に失敗しました: %w", err)
	}
	if b == nil {
		return nil, model.NewRecordNotFoundError(model.KindBooking, id)
	}
	return b, nil
}

// Create は予約を検証して作成する。
func (s *Service) Create(ctx context.Context, userID string, b *model.Booking) (*model.Booking, error) {
	if err := s.validate(b); err != nil {
		return nil, err
	}

	now := time.Now()
	b.UserID = userID
	b.Notes = s.sanitizer.Sanitize(b.Notes)
	b.CreatedAt = now
	b.UpdatedAt = now

	if err := s.repo.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("予約の作成に失敗しました: %w", err)
	}
	return b, nil
}

// Update は既存予約を検証して更新する。
func (s *Service) Update(ctx context.Context, userID string, b *model.Booking) (*model.Booking, error) {
	if err := s.validate(b); err != nil {
		return nil, err
	}

	b.Notes = s.sanitizer.Sanitize(b.Notes)
	b.UpdatedAt = time.Now()

	ok, err := s.repo.Update(ctx, userID, b)
	if err != nil {
		return nil, fmt.Errorf("予約の更新に失敗しました: %w", err)
	}
	if !ok {
		return nil, model.NewRecordNotFoundError(model.KindBooking, b.ID)
	}
	return b, nil
}

// Delete は指定IDの予約を削除する。
func (s *Service) Delete(ctx context.Context, userID string, id int64) error {
	ok, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("予約の削除に失敗しました: %w", err)
	}
	if !ok {
		return model.NewRecordNotFoundError(model.KindBooking, id)
	}
	return nil
}

// validate は予約の入力値を検証する。
// 日付は"2006-01-02"形式で必須、時刻は"15:04"形式（省略時は終日扱い）。
// 所要時間は0以上、ステータスは定義済みの値のみ許可する。
func (s *Service) validate(b *model.Booking) error {
	if b.ClientName == "" {
		return model.NewInvalidRequestError("顧客名は必須です")
	}
	if b.Date == "" {
		return model.NewInvalidRequestError("日付は必須です")
	}
	if _, err := time.Parse(dateLayout, b.Date); err != nil {
		return model.NewInvalidRequestError(fmt.Sprintf("日付の形式が不正です: %s", b.Date))
	}
	if b.Time != "" {
		if _, err := time.Parse(timeLayout, b.Time); err != nil {
			return model.NewInvalidRequestError(fmt.Sprintf("時刻の形式が不正です: %s", b.Time))
		}
	}
	if b.Duration < 0 {
		return model.NewInvalidRequestError("所要時間は0以上を指定してください")
	}

	if b.Status == "" {
		b.Status = model.BookingStatusConfirmed
	}
	switch b.Status {
	case model.BookingStatusConfirmed, model.BookingStatusRescheduled,
		model.BookingStatusCanceled, model.BookingStatusEmergency:
	default:
		return model.NewInvalidRequestError(fmt.Sprintf("不正なステータスです: %s", b.Status))
	}
	return nil
}
