// Package model はドメインモデルを定義する。
package model

import "time"

// Client は顧客（取引先）を表す。
// Faviconは会社サイトから取得したアイコンデータ（取得失敗時はnil）。
type Client struct {
	ID          int64
	UserID      string
	Name        string
	Email       string
	Phone       string
	Company     string
	Website     string
	FaviconData []byte
	FaviconMime string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
