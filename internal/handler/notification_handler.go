package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/hitoshi/catchup/internal/model"
)

// 通知一覧のデフォルト・最大取得件数。
const (
	defaultNotificationLimit = 20
	maxNotificationLimit     = 100
)

// NotificationServiceInterface は通知ハンドラーが必要とするインターフェース。
type NotificationServiceInterface interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]model.Notification, error)
	MarkRead(ctx context.Context, userID string, id int64) (bool, error)
}

// NotificationHandler は予定通知のHTTPハンドラー。
type NotificationHandler struct {
	service NotificationServiceInterface
}

// NewNotificationHandler はNotificationHandlerを生成する。
func NewNotificationHandler(service NotificationServiceInterface) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// notificationResponse は通知のAPIレスポンス。
type notificationResponse struct {
	ID        int64     `json:"id"`
	Kind      string    `json:"kind"`
	RecordID  int64     `json:"record_id"`
	Title     string    `json:"title"`
	StartsAt  time.Time `json:"starts_at"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// List は通知一覧を新しい順に返す。
// GET /api/notifications?limit=20
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	limit := defaultNotificationLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxNotificationLimit {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("limitは1から100の整数で指定してください"))
			return
		}
		limit = n
	}

	notifications, err := h.service.ListByUser(r.Context(), userID, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]notificationResponse, len(notifications))
	for i, n := range notifications {
		out[i] = notificationResponse{
			ID:        n.ID,
			Kind:      string(n.Kind),
			RecordID:  n.RecordID,
			Title:     n.Title,
			StartsAt:  n.StartsAt,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// MarkRead は通知を既読にする。
// POST /api/notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	marked, err := h.service.MarkRead(r.Context(), userID, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if !marked {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewRecordNotFoundError("notification", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
