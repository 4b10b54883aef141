package domain

import "math"

// PaginationParams is a 1-based page request for list queries.
type PaginationParams struct {
	Page     int
	PageSize int
}

// Limit is the number of rows a page may hold; never negative.
func (p PaginationParams) Limit() int {
	return max(p.PageSize, 0)
}

// Offset is the number of rows skipped before the page starts. It saturates at
// math.MaxInt rather than wrapping, so an absurd page is simply past the end.
func (p PaginationParams) Offset() int {
	limit := p.Limit()
	if p.Page < 1 || limit == 0 {
		return 0
	}
	if p.Page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return (p.Page - 1) * limit
}

// Window clamps the page to a result set of n rows and returns the half-open
// index range [start, end) it covers.
func (p PaginationParams) Window(n int) (start, end int) {
	start = min(p.Offset(), n)
	end = min(start+p.Limit(), n)
	return start, end
}
