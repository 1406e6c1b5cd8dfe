// Package client は顧客管理のドメインロジックを提供する。
package client

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/catchup/internal/model"
	"github.com/hitoshi/catchup/internal/repository"
)

// Service は顧客CRUDのサービス層。
// 会社サイトURLのSSRF検証と、登録時のfavicon取得を行う。
type Service struct {
	repo    repository.ClientRepository
	favicon FaviconFetcherService
	guard   SSRFValidator
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.ClientRepository, favicon FaviconFetcherService, guard SSRFValidator) *Service {
	return &Service{repo: repo, favicon: favicon, guard: guard}
}

// List は指定ユーザーの全顧客を返す。
func (s *Service) List(ctx context.Context, userID string) ([]model.Client, error) {
	clients, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("顧客一覧の取得に失敗しました: %w", err)
	}
	return clients, nil
}

// Get は指定IDの顧客を返す。
func (s *Service) Get(ctx context.Context, userID string, id int64) (*model.Client, error) {
	c, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("顧客の取得に失敗しました: %w", err)
	}
	if c == nil {
		return nil, model.NewClientNotFoundError(id)
	}
	return c, nil
}

// Create は顧客を検証して作成する。
// WebサイトURLが指定されている場合はfaviconを取得して保存する。
func (s *Service) Create(ctx context.Context, userID string, c *model.Client) (*model.Client, error) {
	if err := s.validate(c); err != nil {
		return nil, err
	}

	now := time.Now()
	c.UserID = userID
	c.CreatedAt = now
	c.UpdatedAt = now

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("顧客の作成に失敗しました: %w", err)
	}

	s.refreshFavicon(ctx, c)
	return c, nil
}

// Update は既存顧客を検証して更新する。
// WebサイトURLが変わった場合はfaviconを取り直す。
func (s *Service) Update(ctx context.Context, userID string, c *model.Client) (*model.Client, error) {
	if err := s.validate(c); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByID(ctx, userID, c.ID)
	if err != nil {
		return nil, fmt.Errorf("顧客の取得に失敗しました: %w", err)
	}
	if existing == nil {
		return nil, model.NewClientNotFoundError(c.ID)
	}

	c.UpdatedAt = time.Now()
	ok, err := s.repo.Update(ctx, userID, c)
	if err != nil {
		return nil, fmt.Errorf("顧客の更新に失敗しました: %w", err)
	}
	if !ok {
		return nil, model.NewClientNotFoundError(c.ID)
	}

	if c.Website != existing.Website {
		s.refreshFavicon(ctx, c)
	}
	return c, nil
}

// Delete は指定IDの顧客を削除する。
// 紐づくイベント・予約・プロジェクトの外部キーはON DELETE SET NULLで解除される。
func (s *Service) Delete(ctx context.Context, userID string, id int64) error {
	ok, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("顧客の削除に失敗しました: %w", err)
	}
	if !ok {
		return model.NewClientNotFoundError(id)
	}
	return nil
}

// validate は顧客の入力値を検証する。
// 名前は必須。WebサイトURLが指定されている場合はSSRF検証を通す。
func (s *Service) validate(c *model.Client) error {
	if c.Name == "" {
		return model.NewInvalidRequestError("顧客名は必須です")
	}
	if c.Website != "" && s.guard != nil {
		if err := s.guard.ValidateURL(c.Website); err != nil {
			return model.NewInvalidURLError(c.Website)
		}
	}
	return nil
}

// refreshFavicon は顧客サイトからfaviconを取得して保存する。
// faviconは表示補助のため、取得失敗は呼び出し元のエラーにしない。
func (s *Service) refreshFavicon(ctx context.Context, c *model.Client) {
	if c.Website == "" || s.favicon == nil {
		return
	}

	data, mimeType, err := s.favicon.FetchForSite(ctx, c.Website)
	if err != nil || data == nil {
		return
	}

	if err := s.repo.UpdateFavicon(ctx, c.ID, data, mimeType); err != nil {
		slog.Warn("faviconの保存に失敗しました",
			slog.Int64("client_id", c.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	c.FaviconData = data
	c.FaviconMime = mimeType
}
