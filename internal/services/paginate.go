package services

import "context"

// PageFunc fetches the page starting at offset.
type PageFunc[T any] func(ctx context.Context, limit, offset int) (*Page[T], error)

// Paginate requests offsets 0, limit, 2*limit, ... one at a time until a page has no next link.
//
// Items are returned in page order. The first failing page aborts the walk.
func Paginate[T any](ctx context.Context, limit int, fetch PageFunc[T]) ([]T, error) {
	var items []T
	offset := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := fetch(ctx, limit, offset)
		if err != nil {
			return nil, err
		}
		items = append(items, page.Items...)

		if !page.HasNext() {
			break
		}
		offset += limit
	}
	return items, nil
}
