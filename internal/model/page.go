package model

// Pagination describes the server's position within a result set. It is
// nil when the backend returned a bare list with no paging metadata.
type Pagination struct {
	CurrentPage int  `json:"current_page"`
	TotalPages  int  `json:"total_pages"`
	HasNext     bool `json:"has_next"`
}

// Page is one fetched slice of a paginated result set. Items keep the
// server-returned order; the collection concatenates pages in fetch order.
type Page[T any] struct {
	Pagination *Pagination
	Items      []T
}

// HasNext reports whether the server indicated another page after this
// one. A page without pagination metadata is treated as the last page.
func (p Page[T]) HasNext() bool {
	return p.Pagination != nil && p.Pagination.HasNext
}
