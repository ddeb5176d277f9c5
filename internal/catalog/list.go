package catalog

import (
	"github.com/angelmondragon/ebookshop-backend/pkg/enums"
	"github.com/angelmondragon/ebookshop-backend/pkg/pagination"
)

// ListFilters describe the supported filter knobs for the shop listing.
type ListFilters struct {
	Category string `json:"category,omitempty"`
	Query    string `json:"q,omitempty"`
}

// ListInput captures the inputs needed to paginate, filter and order books.
type ListInput struct {
	Filters    ListFilters
	Sort       enums.BookSort
	Pagination pagination.Params
	// IncludeInactive is only set by the admin console.
	IncludeInactive bool
}

// ListResult is a page of books plus its pagination metadata.
type ListResult struct {
	Books      []BookDTO       `json:"books"`
	Pagination pagination.Meta `json:"pagination"`
}
