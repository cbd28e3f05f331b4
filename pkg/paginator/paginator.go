// Package paginator splits adapter-backed result sets into pages.
package paginator

import (
	"context"
	"sync"
)

// Adapter gives the paginator access to a result set.
// Slice re-queries the underlying source on every call.
type Adapter[T any] interface {
	Count(ctx context.Context) (int64, error)
	Slice(ctx context.Context, offset, length int) ([]T, error)
}

type Page[T any] struct {
	Data               []T   `json:"data"`
	CurrentPage        int   `json:"currentPage"`
	PagesCount         int   `json:"pagesCount"`
	ItemsPerPage       int   `json:"itemsPerPage"`
	ItemsInCurrentPage int   `json:"itemsInCurrentPage"`
	TotalItems         int64 `json:"totalItems"`
}

// Paginate loads one page. itemsPerPage <= 0 means everything on a single page.
func Paginate[T any](ctx context.Context, adapter Adapter[T], page, itemsPerPage int) (*Page[T], error) {
	total, err := adapter.Count(ctx)
	if err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if itemsPerPage <= 0 {
		page = 1
		itemsPerPage = int(total)
	}

	pagesCount := 0
	if itemsPerPage > 0 {
		pagesCount = int((total + int64(itemsPerPage) - 1) / int64(itemsPerPage))
	}

	data := []T{}
	if itemsPerPage > 0 && page <= pagesCount {
		data, err = adapter.Slice(ctx, (page-1)*itemsPerPage, itemsPerPage)
		if err != nil {
			return nil, err
		}
	}

	return &Page[T]{
		Data:               data,
		CurrentPage:        page,
		PagesCount:         pagesCount,
		ItemsPerPage:       itemsPerPage,
		ItemsInCurrentPage: len(data),
		TotalItems:         total,
	}, nil
}

// CountCache memoizes a successful count. Failed counts are retried on the next call.
type CountCache struct {
	mu    sync.Mutex
	count *int64
}

func (c *CountCache) Get(ctx context.Context, count func(ctx context.Context) (int64, error)) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.count != nil {
		return *c.count, nil
	}

	n, err := count(ctx)
	if err != nil {
		return 0, err
	}
	c.count = &n
	return n, nil
}
