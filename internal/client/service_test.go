package client

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/hitoshi/catchup/internal/model"
	"github.com/hitoshi/catchup/internal/repository"
)

// mockClientRepo はClientRepositoryのモック実装。
type mockClientRepo struct {
	findByIDFn      func(ctx context.Context, userID string, id int64) (*model.Client, error)
	listByUserFn    func(ctx context.Context, userID string) ([]model.Client, error)
	createFn        func(ctx context.Context, c *model.Client) error
	updateFn        func(ctx context.Context, userID string, c *model.Client) (bool, error)
	deleteFn        func(ctx context.Context, userID string, id int64) (bool, error)
	updateFaviconFn func(ctx context.Context, clientID int64, data []byte, mimeType string) error
}

func (m *mockClientRepo) FindByID(ctx context.Context, userID string, id int64) (*model.Client, error) {
	return m.findByIDFn(ctx, userID, id)
}

func (m *mockClientRepo) ListByUser(ctx context.Context, userID string) ([]model.Client, error) {
	return m.listByUserFn(ctx, userID)
}

func (m *mockClientRepo) Create(ctx context.Context, c *model.Client) error {
	return m.createFn(ctx, c)
}

func (m *mockClientRepo) Update(ctx context.Context, userID string, c *model.Client) (bool, error) {
	return m.updateFn(ctx, userID, c)
}

func (m *mockClientRepo) Delete(ctx context.Context, userID string, id int64) (bool, error) {
	return m.deleteFn(ctx, userID, id)
}

func (m *mockClientRepo) UpdateFavicon(ctx context.Context, clientID int64, data []byte, mimeType string) error {
	if m.updateFaviconFn != nil {
		return m.updateFaviconFn(ctx, clientID, data, mimeType)
	}
	return nil
}

// mockFaviconFetcher はFaviconFetcherServiceのモック実装。
type mockFaviconFetcher struct {
	fetchForSiteFn func(ctx context.Context, siteURL string) ([]byte, string, error)
	callCount      int
}

func (m *mockFaviconFetcher) FetchForSite(ctx context.Context, siteURL string) ([]byte, string, error) {
	m.callCount++
	if m.fetchForSiteFn != nil {
		return m.fetchForSiteFn(ctx, siteURL)
	}
	return nil, "", nil
}

// mockSSRFGuard はSSRFValidatorのモック実装。
type mockSSRFGuard struct {
	validateURLFn func(rawURL string) error
}

func (m *mockSSRFGuard) ValidateURL(rawURL string) error {
	if m.validateURLFn != nil {
		return m.validateURLFn(rawURL)
	}
	return nil
}

func (m *mockSSRFGuard) NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client {
	return &http.Client{Timeout: timeout}
}

// compile-time interface check
var _ repository.ClientRepository = (*mockClientRepo)(nil)
var _ FaviconFetcherService = (*mockFaviconFetcher)(nil)
var _ SSRFValidator = (*mockSSRFGuard)(nil)

func validClient() *model.Client {
	return &model.Client{
		Name:    "山田工務店",
		Email:   "info@yamada-koumuten.example.com",
		Phone:   "03-1234-5678",
		Website: "https://yamada-koumuten.example.com",
	}
}

// TestCreate_Valid は有効な顧客が作成されることを検証する。
func TestCreate_Valid(t *testing.T) {
	var created *model.Client
	repo := &mockClientRepo{
		createFn: func(ctx context.Context, c *model.Client) error {
			c.ID = 1
			created = c
			return nil
		},
	}
	svc := NewService(repo, nil, &mockSSRFGuard{})

	got, err := svc.Create(context.Background(), "user-1", validClient())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created == nil {
		t.Fatal("repository Create was not called")
	}
	if got.UserID != "user-1" {
		t.Errorf("UserID = %q, want %q", got.UserID, "user-1")
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("timestamps should be set")
	}
}

// TestCreate_FetchesFavicon はWebサイト付きの顧客作成時にfaviconが保存されることを検証する。
func TestCreate_FetchesFavicon(t *testing.T) {
	iconBytes := []byte{0x89, 0x50, 0x4E, 0x47}
	var savedData []byte
	var savedMime string

	repo := &mockClientRepo{
		createFn: func(ctx context.Context, c *model.Client) error {
			c.ID = 5
			return nil
		},
		updateFaviconFn: func(ctx context.Context, clientID int64, data []byte, mimeType string) error {
			savedData = data
			savedMime = mimeType
			return nil
		},
	}
	fetcher := &mockFaviconFetcher{
		fetchForSiteFn: func(ctx context.Context, siteURL string) ([]byte, string, error) {
			return iconBytes, "image/png", nil
		},
	}
	svc := NewService(repo, fetcher, &mockSSRFGuard{})

	got, err := svc.Create(context.Background(), "user-1", validClient())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if fetcher.callCount != 1 {
		t.Errorf("favicon fetch count = %d, want 1", fetcher.callCount)
	}
	if len(savedData) != len(iconBytes) || savedMime != "image/png" {
		t.Error("favicon was not persisted via UpdateFavicon")
	}
	if len(got.FaviconData) != len(iconBytes) || got.FaviconMime != "image/png" {
		t.Error("favicon was not reflected on the returned client")
	}
}

// TestCreate_FaviconFailureIsNonFatal はfavicon取得失敗が作成エラーにならないことを検証する。
func TestCreate_FaviconFailureIsNonFatal(t *testing.T) {
	repo := &mockClientRepo{
		createFn: func(ctx context.Context, c *model.Client) error {
			c.ID = 6
			return nil
		},
	}
	fetcher := &mockFaviconFetcher{
		fetchForSiteFn: func(ctx context.Context, siteURL string) ([]byte, string, error) {
			return nil, "", errors.New("connection refused")
		},
	}
	svc := NewService(repo, fetcher, &mockSSRFGuard{})

	got, err := svc.Create(context.Background(), "user-1", validClient())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if got.FaviconData != nil {
		t.Error("favicon data should remain nil on fetch failure")
	}
}

// TestCreate_MissingName は顧客名が必須であることを検証する。
func TestCreate_MissingName(t *testing.T) {
	svc := NewService(&mockClientRepo{}, nil, &mockSSRFGuard{})

	c := validClient()
	c.Name = ""
	_, err := svc.Create(context.Background(), "user-1", c)
	if err == nil {
		t.Fatal("expected an error for missing name")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.Code != model.ErrCodeInvalidRequest {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeInvalidRequest)
	}
}

// TestCreate_BlockedWebsite はSSRF検証に失敗したWebサイトURLが拒否されることを検証する。
func TestCreate_BlockedWebsite(t *testing.T) {
	guard := &mockSSRFGuard{
		validateURLFn: func(rawURL string) error {
			return errors.New("private IP address is not allowed")
		},
	}
	svc := NewService(&mockClientRepo{}, nil, guard)

	c := validClient()
	c.Website = "http://169.254.169.254/latest/meta-data/"
	_, err := svc.Create(context.Background(), "user-1", c)
	if err == nil {
		t.Fatal("expected an error for blocked website URL")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.Code != model.ErrCodeInvalidURL {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeInvalidURL)
	}
}

// TestCreate_EmptyWebsiteAllowed はWebサイトURLが任意であることを検証する。
func TestCreate_EmptyWebsiteAllowed(t *testing.T) {
	fetcher := &mockFaviconFetcher{}
	repo := &mockClientRepo{
		createFn: func(ctx context.Context, c *model.Client) error {
			c.ID = 7
			return nil
		},
	}
	svc := NewService(repo, fetcher, &mockSSRFGuard{})

	c := validClient()
	c.Website = ""
	_, err := svc.Create(context.Background(), "user-1", c)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if fetcher.callCount != 0 {
		t.Errorf("favicon fetch count = %d, want 0", fetcher.callCount)
	}
}

// TestUpdate_WebsiteChangedRefetchesFavicon はWebサイト変更時にfaviconが取り直されることを検証する。
func TestUpdate_WebsiteChangedRefetchesFavicon(t *testing.T) {
	repo := &mockClientRepo{
		findByIDFn: func(ctx context.Context, userID string, id int64) (*model.Client, error) {
			return &model.Client{ID: id, UserID: userID, Name: "山田工務店", Website: "https://old.example.com"}, nil
		},
		updateFn: func(ctx context.Context, userID string, c *model.Client) (bool, error) {
			return true, nil
		},
	}
	fetcher := &mockFaviconFetcher{}
	svc := NewService(repo, fetcher, &mockSSRFGuard{})

	c := validClient()
	c.ID = 1
	_, err := svc.Update(context.Background(), "user-1", c)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if fetcher.callCount != 1 {
		t.Errorf("favicon fetch count = %d, want 1", fetcher.callCount)
	}
}

// TestUpdate_WebsiteUnchangedSkipsFavicon はWebサイトが同じ場合にfavicon再取得しないことを検証する。
func TestUpdate_WebsiteUnchangedSkipsFavicon(t *testing.T) {
	site := "https://yamada-koumuten.example.com"
	repo := &mockClientRepo{
		findByIDFn: func(ctx context.Context, userID string, id int64) (*model.Client, error) {
			return &model.Client{ID: id, UserID: userID, Name: "山田工務店", Website: site}, nil
		},
		updateFn: func(ctx context.Context, userID string, c *model.Client) (bool, error) {
			return true, nil
		},
	}
	fetcher := &mockFaviconFetcher{}
	svc := NewService(repo, fetcher, &mockSSRFGuard{})

	c := validClient()
	c.ID = 1
	c.Website = site
	_, err := svc.Update(context.Background(), "user-1", c)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if fetcher.callCount != 0 {
		t.Errorf("favicon fetch count = %d, want 0", fetcher.callCount)
	}
}

// TestUpdate_NotFound は存在しない顧客の更新がRECORD_NOT_FOUNDになることを検証する。
func TestUpdate_NotFound(t *testing.T) {
	repo := &mockClientRepo{
		findByIDFn: func(ctx context.Context, userID string, id int64) (*model.Client, error) {
			return nil, nil
		},
	}
	svc := NewService(repo, nil, &mockSSRFGuard{})

	c := validClient()
	c.ID = 999
	_, err := svc.Update(context.Background(), "user-1", c)
	if err == nil {
		t.Fatal("expected an error for missing client")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.Code != model.ErrCodeRecordNotFound {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeRecordNotFound)
	}
}

// TestGet_NotFound は存在しない顧客の取得がRECORD_NOT_FOUNDになることを検証する。
func TestGet_NotFound(t *testing.T) {
	repo := &mockClientRepo{
		findByIDFn: func(ctx context.Context, userID string, id int64) (*model.Client, error) {
			return nil, nil
		},
	}
	svc := NewService(repo, nil, &mockSSRFGuard{})

	_, err := svc.Get(context.Background(), "user-1", 42)
	if err == nil {
		t.Fatal("expected an error for missing client")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.Code != model.ErrCodeRecordNotFound {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeRecordNotFound)
	}
}

// TestDelete_NotFound は存在しない顧客の削除がエラーになることを検証する。
func TestDelete_NotFound(t *testing.T) {
	repo := &mockClientRepo{
		deleteFn: func(ctx context.Context, userID string, id int64) (bool, error) {
			return false, nil
		},
	}
	svc := NewService(repo, nil, &mockSSRFGuard{})

	if err := svc.Delete(context.Background(), "user-1", 42); err == nil {
		t.Fatal("expected an error for missing client")
	}
}

// TestList_RepositoryError はリポジトリエラーが伝播することを検証する。
func TestList_RepositoryError(t *testing.T) {
	repo := &mockClientRepo{
		listByUserFn: func(ctx context.Context, userID string) ([]model.Client, error) {
			return nil, errors.New("connection refused")
		},
	}
	svc := NewService(repo, nil, &mockSSRFGuard{})

	if _, err := svc.List(context.Background(), "user-1"); err == nil {
		t.Fatal("expected an error from repository failure")
	}
}
