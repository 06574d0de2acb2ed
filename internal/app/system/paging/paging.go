// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// PageSize is the default number of rows in paged lists such as the audit
// log.
const PageSize = 50

// MaxPageSize caps a caller-supplied page_size.
const MaxPageSize = 500

// ParsePage extracts the 1-based "page" query parameter.
// Returns 1 if not present or invalid.
func ParsePage(r *http.Request) int {
	n, err := strconv.Atoi(query.Get(r, "page"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// ParseSize extracts the "page_size" query parameter, falling back to def
// when absent or invalid and clamping to MaxPageSize.
func ParseSize(r *http.Request, def int) int {
	n, err := strconv.Atoi(query.Get(r, "page_size"))
	if err != nil || n < 1 {
		return def
	}
	if n > MaxPageSize {
		return MaxPageSize
	}
	return n
}

// Offset returns the number of rows before page.
func Offset(page, size int) int64 {
	if page < 1 {
		page = 1
	}
	return int64((page - 1) * size)
}

// Pages returns how many pages of size hold total rows.
func Pages(total int64, size int) int64 {
	if size <= 0 || total <= 0 {
		return 0
	}
	return (total + int64(size) - 1) / int64(size)
}
