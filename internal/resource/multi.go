package resource

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// Multi queries every client concurrently and concatenates the results in
// client order. Each client gets the full limit. It fails only when every
// client failed.
type Multi []Client

func (m Multi) Search(ctx context.Context, query string, limit int) ([]Resource, error) {
	results := make([][]Resource, len(m))
	errs := make([]error, len(m))

	var g errgroup.Group
	for i, c := range m {
		g.Go(func() error {
			results[i], errs[i] = c.Search(ctx, query, limit)
			return nil
		})
	}
	_ = g.Wait()

	var out []Resource
	failed := 0
	for i := range m {
		if errs[i] != nil {
			failed++
			continue
		}
		out = append(out, results[i]...)
	}
	if len(m) > 0 && failed == len(m) {
		return nil, errors.Join(errs...)
	}
	return out, nil
}
