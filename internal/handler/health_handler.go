package handler

import (
	"context"
	"net/http"
)

// HealthCheckerInterface はヘルスチェックハンドラーが必要とするインターフェース。
// 通常は*sql.DBのPingContextを満たすデータベース接続が渡される。
type HealthCheckerInterface interface {
	PingContext(ctx context.Context) error
}

// HealthHandler は死活監視エンドポイントのHTTPハンドラー。
type HealthHandler struct {
	checker HealthCheckerInterface
}

// NewHealthHandler はHealthHandlerを生成する。
func NewHealthHandler(checker HealthCheckerInterface) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// Check はDB疎通を確認してサービスの状態を返す。
// GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	if h.checker != nil {
		if err := h.checker.PingContext(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
