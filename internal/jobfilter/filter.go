// Package jobfilter は取得済みの求人一覧に対する絞り込み・並べ替え・ページングを提供する。
//
// サーバーの検索APIとクライアントの状態管理の両方から同じ規則で利用する。
// 全関数は純粋関数であり、入力スライスを変更しない。
package jobfilter

import "strings"

// Fields は絞り込みの判定に用いる求人の項目。
type Fields struct {
	ID        string
	Title     string
	Location  string
	Category  string
	CompanyID string
}

// Filterable は絞り込み対象となる型が実装するインターフェース。
type Filterable interface {
	FilterFields() Fields
}

// Criteria は絞り込み条件。
// 各次元はAND結合され、Categories/Locations の集合内はOR結合となる。
// 空の条件はその次元を絞り込まない。
type Criteria struct {
	Title      string   // タイトルの部分一致（大文字小文字を区別しない）
	Location   string   // 勤務地の部分一致（大文字小文字を区別しない）
	Categories []string // 職種の完全一致（いずれか）
	Locations  []string // 勤務地の完全一致（いずれか）
}

// Empty は絞り込み条件が一つも指定されていないかを返す。
func (c Criteria) Empty() bool {
	return strings.TrimSpace(c.Title) == "" &&
		strings.TrimSpace(c.Location) == "" &&
		len(c.Categories) == 0 &&
		len(c.Locations) == 0
}

// Equal は2つの条件が同じ絞り込み結果をもたらすかを返す。
// 集合の順序は考慮しない。
func (c Criteria) Equal(other Criteria) bool {
	return strings.EqualFold(strings.TrimSpace(c.Title), strings.TrimSpace(other.Title)) &&
		strings.EqualFold(strings.TrimSpace(c.Location), strings.TrimSpace(other.Location)) &&
		sameSet(c.Categories, other.Categories) &&
		sameSet(c.Locations, other.Locations)
}

// Match は1件の求人が条件を満たすかを判定する。
func (c Criteria) Match(f Fields) bool {
	if len(c.Categories) > 0 && !contains(c.Categories, f.Category) {
		return false
	}
	if len(c.Locations) > 0 && !contains(c.Locations, f.Location) {
		return false
	}
	if !containsFold(f.Title, c.Title) {
		return false
	}
	if !containsFold(f.Location, c.Location) {
		return false
	}
	return true
}

// Apply は一覧を新しい順（挿入順の逆順）に並べ替え、条件を満たす求人のみを返す。
// 入力は作成日時の昇順であることを前提とする。
func Apply[T Filterable](items []T, c Criteria) []T {
	result := make([]T, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		if c.Match(items[i].FilterFields()) {
			result = append(result, items[i])
		}
	}
	return result
}

// MoreFromCompany は閲覧中の求人と同じ企業の他の求人を新しい順に最大limit件返す。
// 閲覧中の求人と応募済みの求人は除外する。入力は作成日時の昇順を前提とする。
func MoreFromCompany[T Filterable](items []T, current Fields, appliedJobIDs []string, limit int) []T {
	if limit <= 0 {
		return []T{}
	}
	applied := make(map[string]struct{}, len(appliedJobIDs))
	for _, id := range appliedJobIDs {
		applied[id] = struct{}{}
	}

	result := make([]T, 0, limit)
	for i := len(items) - 1; i >= 0 && len(result) < limit; i-- {
		f := items[i].FilterFields()
		if f.CompanyID != current.CompanyID || f.ID == current.ID {
			continue
		}
		if _, ok := applied[f.ID]; ok {
			continue
		}
		result = append(result, items[i])
	}
	return result
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func containsFold(s, substr string) bool {
	substr = strings.TrimSpace(substr)
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, v := range a {
		seen[v]++
	}
	for _, v := range b {
		if seen[v] == 0 {
			return false
		}
		seen[v]--
	}
	return true
}
