package models

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
}

// NewPagination computes pagination metadata for a result set.
func NewPagination(page, pageSize, total int) *Pagination {
	pages := 0
	if pageSize > 0 {
		pages = (total + pageSize - 1) / pageSize
	}
	return &Pagination{Page: page, PageSize: pageSize, TotalCount: total, TotalPages: pages}
}
