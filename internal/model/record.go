// Package model はドメインモデルを定義する。
package model

import "time"

// RecordKind はスケジュール可能なレコードの種別タグを表す。
// Normalizerはこのタグに対する網羅的なswitchで正規化を行う。
type RecordKind string

const (
	// KindEvent はカレンダーイベントを示す。
	KindEvent RecordKind = "event"
	// KindBooking は顧客からの予約を示す。
	KindBooking RecordKind = "booking"
	// KindTask はタスク（締め切り付き）を示す。
	KindTask RecordKind = "task"
	// KindProject はプロジェクト（開始日・終了日付き）を示す。
	KindProject RecordKind = "project"
)

// EventType はイベントの種別を表す。カラーパレットの9エントリに対応する。
type EventType string

const (
	EventTypeMeeting      EventType = "meeting"
	EventTypeAppointment  EventType = "appointment"
	EventTypeConsultation EventType = "consultation"
	EventTypeFollowUp     EventType = "follow_up"
	EventTypeSiteVisit    EventType = "site_visit"
	EventTypeCall         EventType = "call"
	EventTypeDeadline     EventType = "deadline"
	EventTypePersonal     EventType = "personal"
	EventTypeOther        EventType = "other"
)

// Event はカレンダーイベントを表す。
// RecurrenceはRFC 5545のRRULE文字列（空文字列なら繰り返しなし）。
type Event struct {
	ID          int64
	UserID      string
	Title       string
	Description string
	Location    string
	StartTime   time.Time
	EndTime     time.Time
	ClientID    *int64
	ProjectID   *int64
	InvoiceID   *int64
	IsConfirmed bool
	EventType   EventType
	Color       string // 明示指定カラー。空ならEventTypeから導出する
	Recurrence  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BookingStatus は予約の状態を表す。
type BookingStatus string

const (
	// BookingStatusConfirmed は確定済みの予約を示す。
	BookingStatusConfirmed BookingStatus = "confirmed"
	// BookingStatusRescheduled は日時変更された予約を示す。
	BookingStatusRescheduled BookingStatus = "rescheduled"
	// BookingStatusCanceled はキャンセルされた予約を示す。
	BookingStatusCanceled BookingStatus = "canceled"
	// BookingStatusEmergency は緊急予約を示す。
	BookingStatusEmergency BookingStatus = "emergency"
)

// Booking は顧客からの予約を表す。
// DateとTimeはAPI契約通り文字列で保持する（"2006-01-02" / "15:04"）。
// パース不能な値はNormalizerが落とす（バッチ全体は失敗しない）。
type Booking struct {
	ID          int64
	UserID      string
	Date        string // "2006-01-02"
	Time        string // "15:04"
	Duration    int    // 分
	Type        string
	Status      BookingStatus
	ClientName  string
	ClientEmail string
	Notes       string // サニタイズ済みHTML
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskPriority はタスクの優先度を表す。
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// Task は締め切り付きのタスクを表す。
type Task struct {
	ID          int64
	UserID      string
	Title       string
	Description string // サニタイズ済みHTML
	Deadline    time.Time
	Priority    TaskPriority
	Status      string
	Completed   bool
	ProjectID   *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Project はクライアント案件のプロジェクトを表す。
type Project struct {
	ID          int64
	UserID      string
	Name        string
	ClientID    *int64
	Description string
	StartDate   time.Time
	EndDate     *time.Time
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RecordSet はカレンダーエンジンに渡す全種別のレコードスナップショットを表す。
// 各フィールドは取得済み・デシリアライズ済みの配列で、エンジン側では変更しない。
type RecordSet struct {
	Events   []Event
	Bookings []Booking
	Tasks    []Task
	Projects []Project
}
