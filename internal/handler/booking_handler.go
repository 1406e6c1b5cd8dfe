package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/catchup/internal/model"
)

// BookingServiceInterface は予約ハンドラーが必要とするサービスインターフェース。
type BookingServiceInterface interface {
	List(ctx context.Context, userID string) ([]model.Booking, error)
	Get(ctx context.Context, userID string, id int64) (*model.Booking, error)
	Create(ctx context.Context, userID string, b *model.Booking) (*model.Booking, error)
	Update(ctx context.Context, userID string, b *model.Booking) (*model.Booking, error)
	Delete(ctx context.Context, userID string, id int64) error
}

// BookingHandler は予約CRUDのHTTPハンドラー。
type BookingHandler struct {
	service BookingServiceInterface
}

// NewBookingHandler はBookingHandlerを生成する。
func NewBookingHandler(service BookingServiceInterface) *BookingHandler {
	return &BookingHandler{service: service}
}

// bookingRequest は予約作成・更新リクエストのボディ。
type bookingRequest struct {
	Date        string `json:"date"`
	Time        string `json:"time"`
	Duration    int    `json:"duration"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	ClientName  string `json:"client_name"`
	ClientEmail string `json:"client_email"`
	Notes       string `json:"notes"`
}

// bookingResponse は予約のAPIレスポンス。
type bookingResponse struct {
	ID          int64     `json:"id"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Duration    int       `json:"duration"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	ClientName  string    `json:"client_name"`
	ClientEmail string    `json:"client_email"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// List は予約一覧を取得する。
// GET /api/bookings
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	bookings, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]bookingResponse, len(bookings))
	for i := range bookings {
		out[i] = toBookingResponse(&bookings[i])
	}
	writeJSON(w, http.StatusOK, out)
}

// Get は予約詳細を取得する。
// GET /api/bookings/:id
func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	b, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(b))
}

// Create は予約を作成する。
// POST /api/bookings
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidJSON(w)
		return
	}

	b, err := h.service.Create(r.Context(), userID, req.toModel())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBookingResponse(b))
}

// Update は予約を更新する。
// PATCH /api/bookings/:id
func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidJSON(w)
		return
	}

	b := req.toModel()
	b.ID = id
	updated, err := h.service.Update(r.Context(), userID, b)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(updated))
}

// Delete は予約を削除する。
// DELETE /api/bookings/:id
func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

// toModel はリクエストボディを予約モデルに変換する。
func (req *bookingRequest) toModel() *model.Booking {
	return &model.Booking{
		Date:        req.Date,
		Time:        req.Time,
		Duration:    req.Duration,
		Type:        req.Type,
		Status:      model.BookingStatus(req.Status),
		ClientName:  req.ClientName,
		ClientEmail: req.ClientEmail,
		Notes:       req.Notes,
	}
}

// toBookingResponse は予約モデルをAPIレスポンスに変換する。
func toBookingResponse(b *model.Booking) bookingResponse {
	return bookingResponse{
		ID:          b.ID,
		Date:        b.Date,
		Time:        b.Time,
		Duration:    b.Duration,
		Type:        b.Type,
		Status:      string(b.Status),
		ClientName:  b.ClientName,
		ClientEmail: b.ClientEmail,
		Notes:       b.Notes,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}
