package models

// Pagination is the paging metadata of a feed response.
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// NewPagination computes the metadata for page of size limit over total items.
func NewPagination(page, limit, total int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// AppliedFilters echoes the filters the server applied to a feed query.
type AppliedFilters struct {
	Skills string `json:"skills,omitempty"`
	MinAge *int   `json:"minAge,omitempty"`
	MaxAge *int   `json:"maxAge,omitempty"`
	Gender string `json:"gender,omitempty"`
}

// Active reports whether any filter is set.
func (f *AppliedFilters) Active() bool {
	if f == nil {
		return false
	}
	return f.Skills != "" || f.MinAge != nil || f.MaxAge != nil || (f.Gender != "" && f.Gender != GenderAll)
}

// FeedPage is the result of one feed query. It replaces the previous page wholesale.
type FeedPage struct {
	Items      []Profile       `json:"data"`
	Pagination *Pagination     `json:"pagination,omitempty"`
	Filters    *AppliedFilters `json:"filters,omitempty"`
}
