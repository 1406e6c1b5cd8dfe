package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/catchup/internal/model"
)

// ClientServiceInterface は顧客ハンドラーが必要とするサービスインターフェース。
type ClientServiceInterface interface {
	List(ctx context.Context, userID string) ([]model.Client, error)
	Get(ctx context.Context, userID string, id int64) (*model.Client, error)
	Create(ctx context.Context, userID string, c *model.Client) (*model.Client, error)
	Update(ctx context.Context, userID string, c *model.Client) (*model.Client, error)
	Delete(ctx context.Context, userID string, id int64) error
}

// ClientHandler は顧客CRUDのHTTPハンドラー。
type ClientHandler struct {
	service ClientServiceInterface
}

// NewClientHandler はClientHandlerを生成する。
func NewClientHandler(service ClientServiceInterface) *ClientHandler {
	return &ClientHandler{service: service}
}

// clientRequest は顧客作成・更新リクエストのボディ。
type clientRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Company string `json:"company"`
	Website string `json:"website"`
}

// clientResponse は顧客のAPIレスポンス。
// faviconのバイナリ自体は含めず、取得済みかどうかのみを返す
// （バイナリは GET /api/clients/:id/favicon で配信する）。
type clientResponse struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Company    string    `json:"company"`
	Website    string    `json:"website"`
	HasFavicon bool      `json:"has_favicon"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// List は顧客一覧を取得する。
// GET /api/clients
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	clients, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]clientResponse, len(clients))
	for i := range clients {
		out[i] = toClientResponse(&clients[i])
	}
	writeJSON(w, http.StatusOK, out)
}

// Get は顧客詳細を取得する。
// GET /api/clients/:id
func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	c, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toClientResponse(c))
}

// Create は顧客を作成する。
// POST /api/clients
func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req clientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidJSON(w)
		return
	}

	c, err := h.service.Create(r.Context(), userID, req.toModel())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toClientResponse(c))
}

// Update は顧客を更新する。
// PATCH /api/clients/:id
func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req clientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidJSON(w)
		return
	}

	c := req.toModel()
	c.ID = id
	updated, err := h.service.Update(r.Context(), userID, c)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toClientResponse(updated))
}

// Delete は顧客を削除する。
// DELETE /api/clients/:id
func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Favicon は顧客サイトのfavicon画像を配信する。
// GET /api/clients/:id/favicon
func (h *ClientHandler) Favicon(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	c, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if len(c.FaviconData) == 0 {
		writeAPIErrorResponse(w, http.StatusNotFound, &model.APIError{
			Code:     model.ErrCodeRecordNotFound,
			Message:  "この顧客のfaviconは登録されていません。",
			Category: "record",
			Action:   "WebサイトURLを設定すると自動で取得されます。",
		})
		return
	}

	w.Header().Set("Content-Type", c.FaviconMime)
	w.Header().Set("Cache-Control", "private, max-age=86400")
	w.WriteHeader(http.StatusOK)
	w.Write(c.FaviconData)
}

// toModel はリクエストボディを顧客モデルに変換する。
func (req *clientRequest) toModel() *model.Client {
	return &model.Client{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Company: req.Company,
		Website: req.Website,
	}
}

// toClientResponse は顧客モデルをAPIレスポンスに変換する。
func toClientResponse(c *model.Client) clientResponse {
	return clientResponse{
		ID:         c.ID,
		Name:       c.Name,
		Email:      c.Email,
		Phone:      c.Phone,
		Company:    c.Company,
		Website:    c.Website,
		HasFavicon: len(c.FaviconData) > 0,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}
