package v1

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/aleysapc/docsearch/domain/repository"
	"github.com/aleysapc/docsearch/infrastructure/api/jsonapi"
)

const (
	// DefaultPageSize is the default number of items per page.
	DefaultPageSize = 20
	// MaxPageSize is the maximum allowed page size.
	MaxPageSize = 100
)

// PaginationParams holds the page and page_size query parameters.
type PaginationParams struct {
	page     int
	pageSize int
}

// ParsePagination reads page (default 1) and page_size (default 20, at most
// 100). Invalid values keep the defaults.
func ParsePagination(r *http.Request) PaginationParams {
	p := PaginationParams{page: 1, pageSize: DefaultPageSize}
	q := r.URL.Query()
	if n, err := strconv.Atoi(q.Get("page")); err == nil && n >= 1 {
		p.page = n
	}
	if n, err := strconv.Atoi(q.Get("page_size")); err == nil && n >= 1 {
		p.pageSize = min(n, MaxPageSize)
	}
	return p
}

// Page returns the page number (1-indexed).
func (p PaginationParams) Page() int { return p.page }

// PageSize returns the page size.
func (p PaginationParams) PageSize() int { return p.pageSize }

// Options returns repository options selecting the page.
func (p PaginationParams) Options() []repository.Option {
	return repository.WithPagination(p.pageSize, (p.page-1)*p.pageSize)
}

func (p PaginationParams) totalPages(total int64) int {
	return (int(total) + p.pageSize - 1) / p.pageSize
}

// PaginationMeta builds the meta object of a paginated list.
func PaginationMeta(p PaginationParams, total int64) *jsonapi.Meta {
	return &jsonapi.Meta{
		"page":        p.page,
		"page_size":   p.pageSize,
		"total_count": total,
		"total_pages": p.totalPages(total),
	}
}

// PaginationLinks builds self, first, last, prev and next links.
func PaginationLinks(r *http.Request, p PaginationParams, total int64) *jsonapi.Links {
	url := func(page int) string {
		q := r.URL.Query()
		q.Set("page", strconv.Itoa(page))
		q.Set("page_size", strconv.Itoa(p.pageSize))
		return fmt.Sprintf("%s?%s", r.URL.Path, q.Encode())
	}

	pages := p.totalPages(total)
	links := jsonapi.Links{Self: url(p.page), First: url(1)}
	if pages > 0 {
		links.Last = url(pages)
	}
	if p.page > 1 {
		links.Prev = url(p.page - 1)
	}
	if p.page < pages {
		links.Next = url(p.page + 1)
	}
	return &links
}
