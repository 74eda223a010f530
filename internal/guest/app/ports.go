package app

import (
	"context"

	"github.com/spicemart/backend/internal/guest/domain"
)

// SessionStore is the key-value store holding raw guest state. Get returns
// (nil, nil) for an absent key. Update runs a read-modify-write cycle that is
// safe against concurrent writers for the same key; fn receives nil when the
// key is absent and its error aborts the cycle unchanged. CompareAndDelete
// removes the key only while its value still equals expected and reports
// whether the delete happened, so a caller that read the value earlier can
// tell when another writer got in between.
type SessionStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Update(ctx context.Context, key string, fn func(old []byte) ([]byte, error)) error
	CompareAndDelete(ctx context.Context, key string, expected []byte) (bool, error)
}

// CatalogReader resolves product snapshots for enrichment. A deleted product
// yields ErrNotFound.
type CatalogReader interface {
	GetProduct(ctx context.Context, productID string) (Product, error)
}

// Product is the read-time snapshot joined into guest state. It is never
// persisted alongside the raw lines.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Currency    string    `json:"currency"`
	Amount      int64     `json:"amount"`
	MainImage   string    `json:"main_image,omitempty"`
	Category    *Category `json:"category,omitempty"`
	Rating      float64   `json:"rating"`
	ReviewCount int32     `json:"review_count"`
	IsSale      bool      `json:"is_sale"`
	IsNew       bool      `json:"is_new"`
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DurableCart is the authenticated user's persistent cart. Merging only ever
// appends lines; existing entries are never mutated.
type DurableCart struct {
	ID     string            `json:"id"`
	UserID string            `json:"user_id"`
	Lines  []domain.CartLine `json:"items"`
}

// DurableCartStore owns the relational cart. GetOrCreate reports whether the
// cart was created by this call. AppendLine must tolerate replays of the same
// line without duplicating it.
type DurableCartStore interface {
	GetOrCreate(ctx context.Context, userID string) (DurableCart, bool, error)
	AppendLine(ctx context.Context, cartID string, line domain.CartLine) error
}

type DurableWishlist struct {
	ID       string   `json:"id"`
	UserID   string   `json:"user_id"`
	Products []string `json:"product_ids"`
}

type DurableWishlistStore interface {
	GetOrCreate(ctx context.Context, userID string) (DurableWishlist, bool, error)
	AppendProduct(ctx context.Context, wishlistID, productID string) error
}
