package app

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"
)

// enricher resolves raw lines against the live catalog. Shared by the cart
// and wishlist services.
type enricher struct {
	catalog       CatalogReader
	maxConcurrent int
}

func newEnricher(catalog CatalogReader, maxConcurrent int) enricher {
	if maxConcurrent <= 0 {
		maxConcurrent = 10
	}
	return enricher{catalog: catalog, maxConcurrent: maxConcurrent}
}

// fetchProducts looks up each distinct product id exactly once, so a state
// referencing the same product in several lines costs a single catalog read.
// Products deleted from the catalog are simply absent from the result; the
// caller omits their lines from the output instead of failing the request.
func (e enricher) fetchProducts(ctx context.Context, ids []string) (map[string]Product, error) {
	distinct := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		distinct = append(distinct, id)
	}

	var mu sync.Mutex
	found := make(map[string]Product, len(distinct))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxConcurrent)

	for _, id := range distinct {
		g.Go(func() error {
			p, err := e.catalog.GetProduct(ctx, id)
			if errors.Is(err, ErrNotFound) {
				return nil
			}
			if err != nil {
				return upstream(err)
			}

			mu.Lock()
			found[id] = p
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return found, nil
}
