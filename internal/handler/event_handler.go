package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/catchup/internal/model"
)

// EventServiceInterface はイベントハンドラーが必要とするサービスインターフェース。
type EventServiceInterface interface {
	List(ctx context.Context, userID string) ([]model.Event, error)
	Get(ctx context.Context, userID string, id int64) (*model.Event, error)
	Create(ctx context.Context, userID string, ev *model.Event) (*model.Event, error)
	Update(ctx context.Context, userID string, ev *model.Event) (*model.Event, error)
	Delete(ctx context.Context, userID string, id int64) error
}

// EventHandler はイベントCRUDのHTTPハンドラー。
type EventHandler struct {
	service EventServiceInterface
}

// NewEventHandler はEventHandlerを生成する。
func NewEventHandler(service EventServiceInterface) *EventHandler {
	return &EventHandler{service: service}
}

// eventRequest はイベント作成・更新リクエストのボディ。
type eventRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	ClientID    *int64    `json:"client_id"`
	ProjectID   *int64    `json:"project_id"`
	InvoiceID   *int64    `json:"invoice_id"`
	IsConfirmed bool      `json:"is_confirmed"`
	EventType   string    `json:"event_type"`
	Color       string    `json:"color"`
	Recurrence  string    `json:"recurrence"`
}

// eventResponse はイベントのAPIレスポンス。
type eventResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	ClientID    *int64    `json:"client_id"`
	ProjectID   *int64    `json:"project_id"`
	InvoiceID   *int64    `json:"invoice_id"`
	IsConfirmed bool      `json:"is_confirmed"`
	EventType   string    `json:"event_type"`
	Color       string    `json:"color"`
	Recurrence  string    `json:"recurrence"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// List はイベント一覧を取得する。
// GET /api/events
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	events, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]eventResponse, len(events))
	for i := range events {
		out[i] = toEventResponse(&events[i])
	}
	writeJSON(w, http.StatusOK, out)
}

// Get はイベント詳細を取得する。
// GET /api/events/:id
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	ev, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventResponse(ev))
}

// Create はイベントを作成する。
// POST /api/events
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidJSON(w)
		return
	}

	ev, err := h.service.Create(r.Context(), userID, req.toModel())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEventResponse(ev))
}

// Update はイベントを更新する。
// PATCH /api/events/:id
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidJSON(w)
		return
	}

	ev := req.toModel()
	ev.ID = id
	updated, err := h.service.Update(r.Context(), userID, ev)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventResponse(updated))
}

// Delete はイベントを削除する。
// DELETE /api/events/:id
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

// toModel はリクエストボディをイベントモデルに変換する。
func (req *eventRequest) toModel() *model.Event {
	return &model.Event{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		ClientID:    req.ClientID,
		ProjectID:   req.ProjectID,
		InvoiceID:   req.InvoiceID,
		IsConfirmed: req.IsConfirmed,
		EventType:   model.EventType(req.EventType),
		Color:       req.Color,
		Recurrence:  req.Recurrence,
	}
}

// toEventResponse はイベントモデルをAPIレスポンスに変換する。
func toEventResponse(ev *model.Event) eventResponse {
	return eventResponse{
		ID:          ev.ID,
		Title:       ev.Title,
		Description: ev.Description,
		Location:    ev.Location,
		StartTime:   ev.StartTime,
		EndTime:     ev.EndTime,
		ClientID:    ev.ClientID,
		ProjectID:   ev.ProjectID,
		InvoiceID:   ev.InvoiceID,
		IsConfirmed: ev.IsConfirmed,
		EventType:   string(ev.EventType),
		Color:       ev.Color,
		Recurrence:  ev.Recurrence,
		CreatedAt:   ev.CreatedAt,
		UpdatedAt:   ev.UpdatedAt,
	}
}
