// Package model はドメインモデルを定義する。
package model

import "time"

// Notification はリマインダーワーカーが生成する予定通知を表す。
// 同一の(kind, record_id, starts_at)に対しては1件のみ生成される（冪等）。
type Notification struct {
	ID        int64
	UserID    string
	Kind      RecordKind
	RecordID  int64
	Title     string
	StartsAt  time.Time
	IsRead    bool
	CreatedAt time.Time
}
