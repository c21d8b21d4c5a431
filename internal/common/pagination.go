package common

import (
	"math"
	"net/http"
	"strconv"
)

const maxPerPage = 100

// Pagination holds pagination metadata for list responses.
type Pagination struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// ParsePagination extracts page and per-page parameters from query values.
func ParsePagination(r *http.Request, defaultPerPage int) (page, perPage int) {
	page = 1
	perPage = defaultPerPage
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		perPage = l
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return
}

// LimitOffset converts page/per-page into SQL limit and offset values. The
// offset saturates at math.MaxInt32 so an oversized page yields an empty
// result instead of a negative offset.
func LimitOffset(page, perPage int) (limit, offset int32) {
	if page < 1 {
		page = 1
	}
	if perPage < 0 {
		perPage = 0
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	if perPage > 0 && page-1 > math.MaxInt32/perPage {
		return int32(perPage), math.MaxInt32
	}
	return int32(perPage), int32((page - 1) * perPage)
}
