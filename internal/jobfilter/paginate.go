package jobfilter

// DefaultPageSize は求人一覧の1ページあたりの件数。
const DefaultPageSize = 6

// MoreFromCompanyLimit は求人詳細に表示する同一企業の他求人の件数。
const MoreFromCompanyLimit = 3

// Page はページング結果。
type Page[T any] struct {
	Items      []T
	Page       int // 1始まり
	PageSize   int
	TotalPages int
	Total      int
}

// Paginate は指定ページの要素を返す。
// ページ番号は [1, TotalPages] に丸められ、範囲外でもエラーにしない。
// 要素が0件の場合は空の1ページ目を返す。
// pageSizeが0以下の場合はDefaultPageSizeを使用する。
func Paginate[T any](items []T, page, pageSize int) Page[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	total := len(items)
	totalPages := TotalPages(total, pageSize)
	page = ClampPage(page, totalPages)

	start := (page - 1) * pageSize
	end := start + pageSize
	if end > total {
		end = total
	}

	pageItems := make([]T, 0, end-start)
	pageItems = append(pageItems, items[start:end]...)

	return Page[T]{
		Items:      pageItems,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		Total:      total,
	}
}

// TotalPages は総件数とページサイズから総ページ数を返す。
func TotalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// ClampPage はページ番号を [1, totalPages] に丸める。totalPagesが0の場合は1を返す。
func ClampPage(page, totalPages int) int {
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return page
}
