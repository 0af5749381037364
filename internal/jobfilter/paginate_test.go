package jobfilter

import (
	"reflect"
	"testing"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		name           string
		total          int
		page           int
		wantPage       int
		wantTotalPages int
		wantItems      []int
	}{
		{"1ページ目", 14, 1, 1, 3, []int{1, 2, 3, 4, 5, 6}},
		{"最終ページは端数", 14, 3, 3, 3, []int{13, 14}},
		{"範囲外は最終ページに丸める", 14, 99, 3, 3, []int{13, 14}},
		{"0以下は1ページ目に丸める", 14, -2, 1, 3, []int{1, 2, 3, 4, 5, 6}},
		{"ちょうど割り切れる", 12, 2, 2, 2, []int{7, 8, 9, 10, 11, 12}},
		{"0件は空の1ページ目", 0, 5, 1, 0, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Paginate(seq(tt.total), tt.page, DefaultPageSize)

			if got.Page != tt.wantPage {
				t.Errorf("Page = %d, want %d", got.Page, tt.wantPage)
			}
			if got.TotalPages != tt.wantTotalPages {
				t.Errorf("TotalPages = %d, want %d", got.TotalPages, tt.wantTotalPages)
			}
			if got.Total != tt.total {
				t.Errorf("Total = %d, want %d", got.Total, tt.total)
			}
			if !reflect.DeepEqual(got.Items, tt.wantItems) {
				t.Errorf("Items = %v, want %v", got.Items, tt.wantItems)
			}
		})
	}
}

// TestPaginate_NeverEmptyWhenItemsExist は要素が存在する限り、
// どのページ番号を指定しても空ページにならないことを検証する。
func TestPaginate_NeverEmptyWhenItemsExist(t *testing.T) {
	for total := 1; total <= 25; total++ {
		for page := -3; page <= 10; page++ {
			got := Paginate(seq(total), page, DefaultPageSize)
			if len(got.Items) == 0 {
				t.Fatalf("total=%d page=%d produced an empty page", total, page)
			}
		}
	}
}

func TestPaginate_DefaultPageSize(t *testing.T) {
	got := Paginate(seq(10), 1, 0)
	if got.PageSize != DefaultPageSize {
		t.Errorf("PageSize = %d, want %d", got.PageSize, DefaultPageSize)
	}
	if len(got.Items) != DefaultPageSize {
		t.Errorf("len(Items) = %d, want %d", len(got.Items), DefaultPageSize)
	}
}

func TestPaginate_DoesNotAliasInput(t *testing.T) {
	items := seq(6)
	got := Paginate(items, 1, 6)
	got.Items[0] = 100
	if items[0] != 1 {
		t.Error("Paginate result shares backing array with input")
	}
}
