// Package v1 provides the v1 API routes.
package v1

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/codecite/codecite/domain/repository"
	"github.com/codecite/codecite/infrastructure/api/jsonapi"
)

// DefaultPageSize is the default number of items per page.
const DefaultPageSize = 20

// MaxPageSize is the maximum allowed page size.
const MaxPageSize = 100

// PaginationParams holds pagination parameters parsed from query strings.
type PaginationParams struct {
	page     int
	pageSize int
}

// ParsePagination parses page and page_size from an HTTP request, clamping
// to defaults and the maximum.
func ParsePagination(r *http.Request) PaginationParams {
	params := PaginationParams{page: 1, pageSize: DefaultPageSize}

	if s := r.URL.Query().Get("page"); s != "" {
		if page, err := strconv.Atoi(s); err == nil && page >= 1 {
			params.page = page
		}
	}
	if s := r.URL.Query().Get("page_size"); s != "" {
		if size, err := strconv.Atoi(s); err == nil && size >= 1 {
			params.pageSize = size
			if size > MaxPageSize {
				params.pageSize = MaxPageSize
			}
		}
	}

	return params
}

// Page returns the page number (1-indexed).
func (p PaginationParams) Page() int { return p.page }

// PageSize returns the page size.
func (p PaginationParams) PageSize() int { return p.pageSize }

// Limit returns the limit for database queries.
func (p PaginationParams) Limit() int { return p.pageSize }

// Offset returns the offset for database queries.
func (p PaginationParams) Offset() int { return (p.page - 1) * p.pageSize }

// Options returns repository options for database pagination.
func (p PaginationParams) Options() []repository.Option {
	return repository.WithPagination(p.Limit(), p.Offset())
}

// PaginationMeta builds a JSON:API meta object from pagination params and
// the total row count.
func PaginationMeta(params PaginationParams, totalCount int64) *jsonapi.Meta {
	return &jsonapi.Meta{
		"page":        params.Page(),
		"page_size":   params.PageSize(),
		"total_count": totalCount,
		"total_pages": totalPages(params, totalCount),
	}
}

// PaginationLinks builds JSON:API pagination links from the request path.
func PaginationLinks(r *http.Request, params PaginationParams, totalCount int64) *jsonapi.Links {
	pages := totalPages(params, totalCount)

	links := &jsonapi.Links{
		Self:  pageURL(r, params.Page(), params.PageSize()),
		First: pageURL(r, 1, params.PageSize()),
	}
	if pages > 0 {
		links.Last = pageURL(r, pages, params.PageSize())
	}
	if params.Page() > 1 {
		links.Prev = pageURL(r, params.Page()-1, params.PageSize())
	}
	if params.Page() < pages {
		links.Next = pageURL(r, params.Page()+1, params.PageSize())
	}
	return links
}

func totalPages(params PaginationParams, totalCount int64) int {
	if params.PageSize() <= 0 {
		return 0
	}
	return (int(totalCount) + params.PageSize() - 1) / params.PageSize()
}

func pageURL(r *http.Request, page, pageSize int) string {
	return fmt.Sprintf("%s?page=%d&page_size=%d", r.URL.Path, page, pageSize)
}
