// Package pagination computes page windows for list endpoints.
package pagination

import "math"

const (
	// DefaultPageSize is used by the public listings.
	DefaultPageSize = 5
	// DefaultOwnPageSize is used when a caller lists their own articles.
	DefaultOwnPageSize = 10
	// MaxPageSize caps any requested page size.
	MaxPageSize = 100
)

// Window is a resolved page request.
type Window struct {
	Page       int
	PageSize   int
	TotalPages int
	Skip       int
}

// Info is the paging block returned alongside list results.
type Info struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Pages int   `json:"pages"`
}

// Paginate resolves the requested page against total matching records.
// A non-positive page becomes 1; there is no upper clamp, so a page past the
// end yields an empty slice downstream. Skip saturates at math.MaxInt for
// pages too large to multiply out.
func Paginate(requestedPage, pageSize int, total int64) Window {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	page := requestedPage
	if page <= 0 {
		page = 1
	}

	pages := 0
	if total > 0 {
		pages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}

	skip := math.MaxInt
	if page-1 <= math.MaxInt/pageSize {
		skip = pageSize * (page - 1)
	}

	return Window{
		Page:       page,
		PageSize:   pageSize,
		TotalPages: pages,
		Skip:       skip,
	}
}

// PastEnd reports whether the window starts at or after the last of total
// records, so no query is needed to know the page is empty.
func (w Window) PastEnd(total int64) bool {
	return total <= 0 || int64(w.Skip) >= total
}

// Info returns the paging block for this window.
func (w Window) Info(total int64) Info {
	return Info{Total: total, Page: w.Page, Pages: w.TotalPages}
}

// Empty is the paging block used when a scoped listing matched nothing.
func Empty() Info {
	return Info{Total: 0, Page: 1, Pages: 1}
}

// ClampSize applies the endpoint default and the global cap to a requested size.
func ClampSize(requested, fallback int) int {
	if requested <= 0 {
		return fallback
	}
	if requested > MaxPageSize {
		return MaxPageSize
	}
	return requested
}
