package models

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	// MaxPage keeps Offset far away from integer overflow.
	MaxPage = 1_000_000
)

// ListParams are the query options shared by every list endpoint.
type ListParams struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Normalize clamps paging values into their allowed range.
func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
}

// Offset returns the row offset for the current page.
func (p ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPagination builds response metadata from normalized params.
func NewPagination(p ListParams, total int) *Pagination {
	pages := 0
	if p.PageSize > 0 {
		pages = (total + p.PageSize - 1) / p.PageSize
	}
	return &Pagination{Page: p.Page, Limit: p.PageSize, Total: total, TotalPages: pages}
}
