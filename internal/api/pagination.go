package api

import (
	"fmt"
	"net/http"
	"strconv"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// PaginationParams holds parsed pagination values from query params.
type PaginationParams struct {
	Page   int
	Limit  int
	Offset int
}

// PaginatedResponse wraps list data with pagination metadata.
type PaginatedResponse struct {
	Data       any            `json:"data"`
	Pagination PaginationMeta `json:"pagination"`
}

// PaginationMeta contains pagination metadata for the response.
type PaginationMeta struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasMore    bool `json:"has_more"`
}

// ParsePagination reads page and limit. Missing or non-positive values fall
// back to page 1 and defaultLimit; limit is capped at maxLimit. Values that
// are not integers are rejected.
func ParsePagination(r *http.Request, defaultLimit, maxLimit int) (PaginationParams, error) {
	page, err := intParam(r, "page", 1)
	if err != nil {
		return PaginationParams{}, err
	}
	limit, err := intParam(r, "limit", defaultLimit)
	if err != nil {
		return PaginationParams{}, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	return PaginationParams{Page: page, Limit: limit, Offset: (page - 1) * limit}, nil
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return v, nil
}

// NewPaginatedResponse builds a PaginatedResponse from data, params and the
// total row count.
func NewPaginatedResponse(data any, p PaginationParams, total int) PaginatedResponse {
	pages := (total + p.Limit - 1) / p.Limit
	if pages < 1 {
		pages = 1
	}
	return PaginatedResponse{
		Data: data,
		Pagination: PaginationMeta{
			Page:       p.Page,
			Limit:      p.Limit,
			Total:      total,
			TotalPages: pages,
			HasMore:    p.Page < pages,
		},
	}
}
