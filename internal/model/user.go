// Package model はドメインモデルを定義する。
package model

import "time"

// User はCatchUpを利用する事業者アカウントを表す。
type User struct {
	ID           string
	Email        string
	Name         string
	BusinessName string
	Timezone     string // IANAタイムゾーン名（例: "Asia/Tokyo"）。カレンダー表示の基準
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity は外部IdPとの紐付け情報を表す。
// 現状はGoogleのみだが、複数IdPに対応可能な構造とする。
type Identity struct {
	ID             string
	UserID         string
	Provider       string
	ProviderUserID string
	CreatedAt      time.Time
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
