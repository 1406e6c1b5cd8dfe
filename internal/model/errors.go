// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, record, calendar, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeRecordNotFound    = "RECORD_NOT_FOUND"
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
	ErrCodeInvalidDateRange  = "INVALID_DATE_RANGE"
	ErrCodeInvalidMonth      = "INVALID_MONTH"
	ErrCodeInvalidRecurrence = "INVALID_RECURRENCE"
	ErrCodeInvalidURL        = "INVALID_URL"
	ErrCodeSSRFBlocked       = "SSRF_BLOCKED"
	ErrCodeImportFailed      = "IMPORT_FAILED"
	ErrCodeUserNotFound      = "USER_NOT_FOUND"
)

// NewRecordNotFoundError はレコード未検出エラーを生成する。
// kindには対象のレコード種別、idには検索したIDを指定する。
func NewRecordNotFoundError(kind RecordKind, id int64) *APIError {
	return &APIError{
		Code:     ErrCodeRecordNotFound,
		Message:  fmt.Sprintf("指定された%sが見つかりません: %d", kindLabel(kind), id),
		Category: "record",
		Action:   "IDを確認してください。",
	}
}

// NewClientNotFoundError は顧客未検出エラーを生成する。
func NewClientNotFoundError(id int64) *APIError {
	return &APIError{
		Code:     ErrCodeRecordNotFound,
		Message:  fmt.Sprintf("指定された顧客が見つかりません: %d", id),
		Category: "record",
		Action:   "IDを確認してください。",
	}
}

// NewInvalidRequestError はリクエスト不正エラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストが不正です: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewInvalidDateRangeError は日付範囲不正エラーを生成する。
func NewInvalidDateRangeError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidDateRange,
		Message:  "日付範囲が不正です。終了日は開始日以降を指定してください。",
		Category: "validation",
		Action:   "開始日と終了日を確認してください。",
	}
}

// NewInvalidMonthError は月指定不正エラーを生成する。
func NewInvalidMonthError(year, month int) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidMonth,
		Message:  fmt.Sprintf("月の指定が不正です: %d年%d月", year, month),
		Category: "validation",
		Action:   "月は1から12の範囲で指定してください。",
	}
}

// NewInvalidRecurrenceError は繰り返しルール不正エラーを生成する。
func NewInvalidRecurrenceError(rule string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRecurrence,
		Message:  fmt.Sprintf("繰り返しルールを解析できません: %s", rule),
		Category: "validation",
		Action:   "RRULE形式（例: FREQ=WEEKLY;BYDAY=MO）で指定してください。",
	}
}

// NewInvalidURLError は無効なURLエラーを生成する。
func NewInvalidURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidURL,
		Message:  fmt.Sprintf("無効なURLです: %s", reason),
		Category: "validation",
		Action:   "正しいURL形式（http:// または https:// で始まるURL）を入力してください。",
	}
}

// NewSSRFBlockedError はSSRFブロックエラーを生成する。
func NewSSRFBlockedError() *APIError {
	return &APIError{
		Code:     ErrCodeSSRFBlocked,
		Message:  "セキュリティポリシーにより、指定されたURLへのアクセスがブロックされました。",
		Category: "validation",
		Action:   "公開されているWebサイトのURLを入力してください。ローカルネットワークやプライベートIPへのアクセスは許可されていません。",
	}
}

// NewImportFailedError は外部カレンダー取り込み失敗エラーを生成する。
func NewImportFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeImportFailed,
		Message:  fmt.Sprintf("カレンダーの取り込みに失敗しました: %s", reason),
		Category: "calendar",
		Action:   "ICSのURLが正しいか確認し、しばらく待ってから再度お試しください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// kindLabel はレコード種別の表示名を返す。
func kindLabel(kind RecordKind) string {
	switch kind {
	case KindEvent:
		return "イベント"
	case KindBooking:
		return "予約"
	case KindTask:
		return "タスク"
	case KindProject:
		return "プロジェクト"
	default:
		return "レコード"
	}
}
