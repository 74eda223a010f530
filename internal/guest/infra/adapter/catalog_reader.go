package adapter

import (
	"context"
	"errors"

	catalogapp "github.com/spicemart/backend/internal/catalog/app"
	guestapp "github.com/spicemart/backend/internal/guest/app"
)

// CatalogServiceReader exposes the catalog service as the guest layer's
// lookup collaborator.
type CatalogServiceReader struct {
	svc *catalogapp.Service
}

func NewCatalogServiceReader(svc *catalogapp.Service) *CatalogServiceReader {
	return &CatalogServiceReader{svc: svc}
}

func (r *CatalogServiceReader) GetProduct(ctx context.Context, productID string) (guestapp.Product, error) {
	p, err := r.svc.GetProduct(ctx, productID)
	if errors.Is(err, catalogapp.ErrNotFound) || errors.Is(err, catalogapp.ErrInvalidInput) {
		// Ids that do not resolve, including malformed ones from old
		// payloads, read as absent products.
		return guestapp.Product{}, guestapp.ErrNotFound
	}
	if err != nil {
		return guestapp.Product{}, err
	}

	out := guestapp.Product{
		ID:          p.ID,
		Name:        p.Name,
		Currency:    p.Price.Currency,
		Amount:      p.Price.Amount,
		MainImage:   p.MainImage,
		Rating:      p.Rating,
		ReviewCount: p.ReviewCount,
		IsSale:      p.IsSale,
		IsNew:       p.IsNew,
	}
	if p.Category != nil {
		out.Category = &guestapp.Category{ID: p.Category.ID, Name: p.Category.Name}
	}
	return out, nil
}
