// Package schedule はカレンダー集約・フィルタリングエンジンを提供する。
//
// 全レコード種別（イベント・予約・タスク・プロジェクト)を共通の表示形
// (DisplayItem)に正規化し、月グリッドへの振り分け、条件フィルタ、集計、
// 直近予定の抽出を行う。全関数は入力を変更しない純粋関数で、I/Oを持たず、
// 「現在時刻」は常に引数で受け取る。
package schedule

import (
	"time"

	"github.com/hitoshi/catchup/internal/model"
)

// DisplayItem はスケジュール可能なレコードの正規化済み表示形を表す。
// 不変条件: End >= Start。元レコードに自然な終了時刻がない場合は
// End == Start かつ AllDay = true となる。
type DisplayItem struct {
	Kind            model.RecordKind
	ID              int64
	EventType       model.EventType // イベント以外の種別では空
	Title           string
	Start           time.Time
	End             time.Time
	AllDay          bool
	Color           string
	Confirmed       bool
	ClientID        *int64
	ProjectID       *int64
	Note            string // フリーテキスト検索の対象（説明・メモ）
	Status          string
	DurationSeconds int64
}

// DayBucket は月グリッドの1セル（1暦日）を表す。
// Itemsはその日を開始日とするDisplayItemを入力順に保持する。
type DayBucket struct {
	Date             time.Time // その日の00:00（グリッドのタイムゾーン基準）
	InDisplayedMonth bool
	Items            []DisplayItem
}

// eventTypeColors はイベント種別ごとの9色パレット。
// 明示カラーが指定されていないイベントに適用される。
var eventTypeColors = map[model.EventType]string{
	model.EventTypeMeeting:      "#3b82f6",
	model.EventTypeAppointment:  "#8b5cf6",
	model.EventTypeConsultation: "#06b6d4",
	model.EventTypeFollowUp:     "#10b981",
	model.EventTypeSiteVisit:    "#f59e0b",
	model.EventTypeCall:         "#6366f1",
	model.EventTypeDeadline:     "#ef4444",
	model.EventTypePersonal:     "#ec4899",
	model.EventTypeOther:        "#6b7280",
}

// kindColors はイベント以外の種別ごとのデフォルトカラー。
// イベント種別パレットとは重複しない。
var kindColors = map[model.RecordKind]string{
	model.KindBooking: "#14b8a6",
	model.KindTask:    "#f97316",
	model.KindProject: "#84cc16",
}

// defaultColor はパレットに該当がない場合のフォールバックカラー。
const defaultColor = "#6b7280"

// ColorFor はレコード種別とイベント種別からデフォルトカラーを返す。
// explicitが空でない場合はそれを優先する。
func ColorFor(kind model.RecordKind, eventType model.EventType, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if kind == model.KindEvent {
		if c, ok := eventTypeColors[eventType]; ok {
			return c
		}
		return defaultColor
	}
	if c, ok := kindColors[kind]; ok {
		return c
	}
	return defaultColor
}
