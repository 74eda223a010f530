package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/spicemart/backend/internal/guest/app"
)

// WishlistStore owns the durable per-user wishlist; appends are deduplicated
// on (wishlist_id, product_id).
type WishlistStore struct {
	db *sql.DB
}

func NewWishlistStore(db *sql.DB) *WishlistStore {
	return &WishlistStore{db: db}
}

func (s *WishlistStore) GetOrCreate(ctx context.Context, userID string) (app.DurableWishlist, bool, error) {
	wishlist, err := s.get(ctx, userID)
	if err == nil {
		return wishlist, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return app.DurableWishlist{}, false, err
	}

	id := uuid.New()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO wishlists (id, user_id) VALUES ($1, $2) ON CONFLICT (user_id) DO NOTHING`,
		id, userID)
	if err != nil {
		return app.DurableWishlist{}, false, err
	}

	wishlist, err = s.get(ctx, userID)
	if err != nil {
		return app.DurableWishlist{}, false, err
	}

	return wishlist, wishlist.ID == id.String(), nil
}

func (s *WishlistStore) AppendProduct(ctx context.Context, wishlistID, productID string) error {
	wishlistUUID, err := uuid.Parse(wishlistID)
	if err != nil {
		return err
	}
	productUUID, err := uuid.Parse(productID)
	if err != nil {
		// Not a UUID, so it cannot reference any catalog row; skip it like
		// the cart store does.
		return nil
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO wishlist_items (id, wishlist_id, product_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (wishlist_id, product_id) DO NOTHING`,
		uuid.New(), wishlistUUID, productUUID)
	return err
}

func (s *WishlistStore) get(ctx context.Context, userID string) (app.DurableWishlist, error) {
	var id uuid.UUID
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM wishlists WHERE user_id = $1`, userID).Scan(&id)
	if err != nil {
		return app.DurableWishlist{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT product_id
		FROM wishlist_items
		WHERE wishlist_id = $1
		ORDER BY seq`, id)
	if err != nil {
		return app.DurableWishlist{}, err
	}
	defer rows.Close()

	var products []string
	for rows.Next() {
		var productID uuid.UUID
		if err := rows.Scan(&productID); err != nil {
			return app.DurableWishlist{}, err
		}
		products = append(products, productID.String())
	}
	if err := rows.Err(); err != nil {
		return app.DurableWishlist{}, err
	}

	return app.DurableWishlist{
		ID:       id.String(),
		UserID:   userID,
		Products: products,
	}, nil
}
