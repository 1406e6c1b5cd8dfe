package schedule

import (
	"strings"
	"time"

	"github.com/hitoshi/catchup/internal/model"
)

// DateRange は両端を含む日時範囲を表す。ゼロ値のフィールドは制約なしを意味する。
type DateRange struct {
	Start time.Time
	End   time.Time
}

// FilterState はユーザーが選択したフィルタ条件の集合を表す。
// 全次元のAND（連言）で評価され、空のスライス・空文字列・ゼロ値の範囲は
// その次元に制約がないことを意味する。
type FilterState struct {
	Kinds         []model.RecordKind
	EventTypes    []model.EventType
	ClientIDs     []int64
	ProjectIDs    []int64
	OnlyConfirmed bool
	SearchText    string
	DateRange     DateRange
}

// Apply はフィルタ条件を満たすDisplayItemのみを新しいスライスで返す。
//
// 入力は変更せず、入力順を保持する。冪等であり、同じ条件で2回適用しても
// 結果は変わらない。非空のClientIDs/ProjectIDsフィルタに対して、リンクを
// 持たないアイテムは不合格となる。EventTypesフィルタも同様に、イベント
// 以外の種別（イベント種別を持たない）は非空の条件に対して不合格となる。
func Apply(items []DisplayItem, state FilterState) []DisplayItem {
	out := make([]DisplayItem, 0, len(items))
	for _, item := range items {
		if Matches(item, state) {
			out = append(out, item)
		}
	}
	return out
}

// Matches はアイテムがフィルタ条件の全次元を満たすかを返す。
func Matches(item DisplayItem, state FilterState) bool {
	if !matchesKind(item, state.Kinds) {
		return false
	}
	if !matchesEventType(item, state.EventTypes) {
		return false
	}
	if !matchesLink(item.ClientID, state.ClientIDs) {
		return false
	}
	if !matchesLink(item.ProjectID, state.ProjectIDs) {
		return false
	}
	if state.OnlyConfirmed && !item.Confirmed {
		return false
	}
	if !matchesSearch(item, state.SearchText) {
		return false
	}
	if !matchesDateRange(item, state.DateRange) {
		return false
	}
	return true
}

// matchesKind は種別フィルタを評価する。空のフィルタは常に合格。
func matchesKind(item DisplayItem, kinds []model.RecordKind) bool {
	if len(kinds) == 0 {
		return true
	}
	for _, k := range kinds {
		if item.Kind == k {
			return true
		}
	}
	return false
}

// matchesEventType はイベント種別フィルタを評価する。
// 非空のフィルタに対してイベント以外の種別は不合格となる。
func matchesEventType(item DisplayItem, types []model.EventType) bool {
	if len(types) == 0 {
		return true
	}
	if item.Kind != model.KindEvent {
		return false
	}
	for _, t := range types {
		if item.EventType == t {
			return true
		}
	}
	return false
}

// matchesLink はID集合フィルタを評価する。
// 非空のフィルタに対してリンクを持たない（nil）アイテムは不合格となる。
func matchesLink(linked *int64, ids []int64) bool {
	if len(ids) == 0 {
		return true
	}
	if linked == nil {
		return false
	}
	for _, id := range ids {
		if *linked == id {
			return true
		}
	}
	return false
}

// matchesSearch はフリーテキスト検索を評価する。
// タイトルまたはメモに対する大文字小文字を区別しない部分一致。
// 空文字列は常に合格。
func matchesSearch(item DisplayItem, text string) bool {
	if text == "" {
		return true
	}
	q := strings.ToLower(text)
	return strings.Contains(strings.ToLower(item.Title), q) ||
		strings.Contains(strings.ToLower(item.Note), q)
}

// matchesDateRange は日時範囲フィルタを評価する。
// アイテムの開始時刻を範囲の両端を含めて比較する。ゼロ値の端は制約なし。
func matchesDateRange(item DisplayItem, r DateRange) bool {
	if !r.Start.IsZero() && item.Start.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && item.Start.After(r.End) {
		return false
	}
	return true
}
