package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spicemart/backend/internal/guest/domain"
)

const wishlistKeyPrefix = "guest_wishlist:"

func wishlistKey(sessionID string) string { return wishlistKeyPrefix + sessionID }

type WishlistView struct {
	SessionID string             `json:"session_id"`
	Items     []WishlistViewItem `json:"items"`
}

type WishlistViewItem struct {
	ProductID string  `json:"product_id"`
	Product   Product `json:"product"`
}

type WishlistService struct {
	store   SessionStore
	durable DurableWishlistStore
	enricher
}

func NewWishlistService(store SessionStore, catalog CatalogReader, durable DurableWishlistStore, maxConcurrent int) *WishlistService {
	return &WishlistService{
		store:    store,
		durable:  durable,
		enricher: newEnricher(catalog, maxConcurrent),
	}
}

// GetWishlist returns the enriched wishlist; products deleted from the
// catalog since they were added are omitted.
func (s *WishlistService) GetWishlist(ctx context.Context, sessionID string) (WishlistView, error) {
	if strings.TrimSpace(sessionID) == "" {
		return WishlistView{}, fmt.Errorf("session id required: %w", ErrInvalidArgument)
	}

	raw, err := s.loadRaw(ctx, sessionID)
	if err != nil {
		return WishlistView{}, err
	}
	return s.view(ctx, sessionID, raw)
}

// Add appends the product unless the wishlist already references it. The
// product must exist in the catalog.
func (s *WishlistService) Add(ctx context.Context, sessionID, productID string) (WishlistView, error) {
	if strings.TrimSpace(sessionID) == "" || productID == "" {
		return WishlistView{}, fmt.Errorf("session id and product id required: %w", ErrInvalidArgument)
	}

	if _, err := s.catalog.GetProduct(ctx, productID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return WishlistView{}, fmt.Errorf("product %s: %w", productID, ErrNotFound)
		}
		return WishlistView{}, upstream(err)
	}

	err := s.store.Update(ctx, wishlistKey(sessionID), func(old []byte) ([]byte, error) {
		return domain.DecodeWishlist(old).Add(productID).Encode()
	})
	if err != nil {
		return WishlistView{}, storeErr(err)
	}

	return s.GetWishlist(ctx, sessionID)
}

// Remove drops the product from the wishlist; absent products are a no-op,
// matching the cart removal policy.
func (s *WishlistService) Remove(ctx context.Context, sessionID, productID string) (WishlistView, error) {
	err := s.store.Update(ctx, wishlistKey(sessionID), func(old []byte) ([]byte, error) {
		next, _ := domain.DecodeWishlist(old).Remove(productID)
		return next.Encode()
	})
	if err != nil {
		return WishlistView{}, storeErr(err)
	}

	return s.GetWishlist(ctx, sessionID)
}

// Clear discards the guest wishlist. Always succeeds, including when no state
// is stored.
func (s *WishlistService) Clear(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(ctx, wishlistKey(sessionID)); err != nil {
		return upstream(err)
	}
	return nil
}

// MergeIntoUser folds the guest wishlist into the user's durable wishlist,
// deduplicating by product id, then deletes the guest state. Like the cart
// merge, the delete only fires while the guest state still matches the
// snapshot the merge read; otherwise the cycle re-reads and folds in whatever
// a concurrent mutation added. Idempotent in the same way as the cart merge.
func (s *WishlistService) MergeIntoUser(ctx context.Context, sessionID, userID string) (DurableWishlist, error) {
	if strings.TrimSpace(userID) == "" {
		return DurableWishlist{}, fmt.Errorf("user id required: %w", ErrInvalidArgument)
	}

	for attempt := 0; attempt < maxMergeAttempts; attempt++ {
		snapshot, err := s.store.Get(ctx, wishlistKey(sessionID))
		if err != nil {
			return DurableWishlist{}, upstream(err)
		}
		raw := domain.DecodeWishlist(snapshot)

		wishlist, _, err := s.durable.GetOrCreate(ctx, userID)
		if err != nil {
			return DurableWishlist{}, upstream(err)
		}
		if snapshot == nil {
			return wishlist, nil
		}

		existing := make(map[string]struct{}, len(wishlist.Products))
		for _, pid := range wishlist.Products {
			existing[pid] = struct{}{}
		}

		for _, it := range raw.Items {
			if _, ok := existing[it.ProductID]; ok {
				continue
			}
			if err := s.durable.AppendProduct(ctx, wishlist.ID, it.ProductID); err != nil {
				return DurableWishlist{}, upstream(err)
			}
			existing[it.ProductID] = struct{}{}
			wishlist.Products = append(wishlist.Products, it.ProductID)
		}

		deleted, err := s.store.CompareAndDelete(ctx, wishlistKey(sessionID), snapshot)
		if err != nil {
			return DurableWishlist{}, storeErr(err)
		}
		if deleted {
			return wishlist, nil
		}
	}

	return DurableWishlist{}, fmt.Errorf("guest wishlist kept changing during merge: %w", ErrUnavailable)
}

func (s *WishlistService) loadRaw(ctx context.Context, sessionID string) (domain.RawWishlist, error) {
	b, err := s.store.Get(ctx, wishlistKey(sessionID))
	if err != nil {
		return domain.RawWishlist{}, upstream(err)
	}
	return domain.DecodeWishlist(b), nil
}

func (s *WishlistService) view(ctx context.Context, sessionID string, raw domain.RawWishlist) (WishlistView, error) {
	ids := make([]string, 0, len(raw.Items))
	for _, it := range raw.Items {
		ids = append(ids, it.ProductID)
	}

	products, err := s.fetchProducts(ctx, ids)
	if err != nil {
		return WishlistView{}, err
	}

	items := make([]WishlistViewItem, 0, len(raw.Items))
	for _, it := range raw.Items {
		p, ok := products[it.ProductID]
		if !ok {
			continue
		}
		items = append(items, WishlistViewItem{ProductID: it.ProductID, Product: p})
	}

	return WishlistView{SessionID: sessionID, Items: items}, nil
}
