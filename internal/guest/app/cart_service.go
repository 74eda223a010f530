package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spicemart/backend/internal/guest/domain"
)

const cartKeyPrefix = "guest_cart:"

func cartKey(sessionID string) string { return cartKeyPrefix + sessionID }

// maxMergeAttempts bounds how often a merge re-reads the guest state after a
// concurrent mutation slipped in between its read and its delete.
const maxMergeAttempts = 5

// CartView is the enriched, response-ready snapshot of a guest cart. It is
// recomputed from the raw state and the live catalog on every read.
type CartView struct {
	SessionID string         `json:"session_id"`
	Items     []CartViewItem `json:"items"`
}

type CartViewItem struct {
	ProductID string  `json:"product_id"`
	Container string  `json:"container,omitempty"`
	Quantity  int32   `json:"quantity"`
	Product   Product `json:"product"`
}

type CartService struct {
	store   SessionStore
	durable DurableCartStore
	enricher
}

func NewCartService(store SessionStore, catalog CatalogReader, durable DurableCartStore, maxConcurrent int) *CartService {
	return &CartService{
		store:    store,
		durable:  durable,
		enricher: newEnricher(catalog, maxConcurrent),
	}
}

// GetCart returns the enriched cart. A session with no stored state reads as
// an empty cart; lines whose product no longer exists are omitted.
func (s *CartService) GetCart(ctx context.Context, sessionID string) (CartView, error) {
	if strings.TrimSpace(sessionID) == "" {
		return CartView{}, fmt.Errorf("session id required: %w", ErrInvalidArgument)
	}

	raw, err := s.loadRaw(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}
	return s.view(ctx, sessionID, raw)
}

// AddItems merges incoming lines into the cart. A line whose identity key
// (product id + container) already exists accumulates quantity; new lines are
// appended in input order. Every referenced product must exist.
func (s *CartService) AddItems(ctx context.Context, sessionID string, lines []domain.CartLine) (CartView, error) {
	if strings.TrimSpace(sessionID) == "" {
		return CartView{}, fmt.Errorf("session id required: %w", ErrInvalidArgument)
	}
	if len(lines) == 0 {
		return s.GetCart(ctx, sessionID)
	}

	for _, l := range lines {
		if l.ProductID == "" {
			return CartView{}, fmt.Errorf("product id required: %w", ErrInvalidArgument)
		}
		if l.Quantity < 1 {
			return CartView{}, fmt.Errorf("quantity must be >= 1: %w", ErrInvalidArgument)
		}
		if _, err := s.catalog.GetProduct(ctx, l.ProductID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return CartView{}, fmt.Errorf("product %s: %w", l.ProductID, ErrNotFound)
			}
			return CartView{}, upstream(err)
		}
	}

	err := s.store.Update(ctx, cartKey(sessionID), func(old []byte) ([]byte, error) {
		cart := domain.DecodeCart(old)
		for _, l := range lines {
			cart = cart.Add(l)
		}
		return cart.Encode()
	})
	if err != nil {
		return CartView{}, storeErr(err)
	}

	return s.GetCart(ctx, sessionID)
}

// SetQuantity replaces the quantity of one line. It fails with
// ErrInvalidArgument for quantities below 1 and ErrNotFound when the identity
// is not in the cart.
func (s *CartService) SetQuantity(ctx context.Context, sessionID string, key domain.CartKey, quantity int32) (CartView, error) {
	if quantity < 1 {
		return CartView{}, fmt.Errorf("quantity must be >= 1: %w", ErrInvalidArgument)
	}

	err := s.store.Update(ctx, cartKey(sessionID), func(old []byte) ([]byte, error) {
		cart := domain.DecodeCart(old)
		next, ok := cart.SetQuantity(key, quantity)
		if !ok {
			return nil, fmt.Errorf("product not in cart: %w", ErrNotFound)
		}
		return next.Encode()
	})
	if err != nil {
		return CartView{}, storeErr(err)
	}

	return s.GetCart(ctx, sessionID)
}

// RemoveItem drops one line. Removing an identity that is not present is a
// no-op, so removal retries and double-submits are harmless.
func (s *CartService) RemoveItem(ctx context.Context, sessionID string, key domain.CartKey) (CartView, error) {
	err := s.store.Update(ctx, cartKey(sessionID), func(old []byte) ([]byte, error) {
		cart := domain.DecodeCart(old)
		next, _ := cart.Remove(key)
		return next.Encode()
	})
	if err != nil {
		return CartView{}, storeErr(err)
	}

	return s.GetCart(ctx, sessionID)
}

// Clear discards the guest cart. Clearing an empty or absent cart succeeds.
func (s *CartService) Clear(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(ctx, cartKey(sessionID)); err != nil {
		return upstream(err)
	}
	return nil
}

// MergeIntoUser folds the guest cart into the user's durable cart, skipping
// lines whose identity key the durable cart already holds, then deletes the
// guest state. The delete is conditional on the guest state still matching
// the snapshot the merge read; a mutation committed in between keeps the key
// alive and the whole cycle re-reads it, so a concurrently added line ends up
// in the durable cart instead of vanishing. Calling MergeIntoUser again after
// a successful merge finds no guest state and returns the durable cart
// unchanged, which makes the login-time trigger safe to fire more than once.
// A failure between the durable appends and the guest delete leaves the guest
// state in place; the identity-based de-dup makes the retry safe.
func (s *CartService) MergeIntoUser(ctx context.Context, sessionID, userID string) (DurableCart, error) {
	if strings.TrimSpace(userID) == "" {
		return DurableCart{}, fmt.Errorf("user id required: %w", ErrInvalidArgument)
	}

	for attempt := 0; attempt < maxMergeAttempts; attempt++ {
		snapshot, err := s.store.Get(ctx, cartKey(sessionID))
		if err != nil {
			return DurableCart{}, upstream(err)
		}
		raw := domain.DecodeCart(snapshot)

		cart, _, err := s.durable.GetOrCreate(ctx, userID)
		if err != nil {
			return DurableCart{}, upstream(err)
		}
		if snapshot == nil {
			return cart, nil
		}

		existing := make(map[domain.CartKey]struct{}, len(cart.Lines))
		for _, l := range cart.Lines {
			existing[l.Key()] = struct{}{}
		}

		for _, l := range raw.Items {
			if _, ok := existing[l.Key()]; ok {
				continue
			}
			if err := s.durable.AppendLine(ctx, cart.ID, l); err != nil {
				return DurableCart{}, upstream(err)
			}
			existing[l.Key()] = struct{}{}
			cart.Lines = append(cart.Lines, l)
		}

		deleted, err := s.store.CompareAndDelete(ctx, cartKey(sessionID), snapshot)
		if err != nil {
			return DurableCart{}, storeErr(err)
		}
		if deleted {
			return cart, nil
		}
		// The guest state changed between the read and the delete; re-read
		// so the new lines are folded in too. Replayed appends are no-ops.
	}

	return DurableCart{}, fmt.Errorf("guest cart kept changing during merge: %w", ErrUnavailable)
}

func (s *CartService) loadRaw(ctx context.Context, sessionID string) (domain.RawCart, error) {
	b, err := s.store.Get(ctx, cartKey(sessionID))
	if err != nil {
		return domain.RawCart{}, upstream(err)
	}
	return domain.DecodeCart(b), nil
}

func (s *CartService) view(ctx context.Context, sessionID string, raw domain.RawCart) (CartView, error) {
	ids := make([]string, 0, len(raw.Items))
	for _, it := range raw.Items {
		ids = append(ids, it.ProductID)
	}

	products, err := s.fetchProducts(ctx, ids)
	if err != nil {
		return CartView{}, err
	}

	items := make([]CartViewItem, 0, len(raw.Items))
	for _, it := range raw.Items {
		p, ok := products[it.ProductID]
		if !ok {
			continue
		}
		items = append(items, CartViewItem{
			ProductID: it.ProductID,
			Container: it.Container,
			Quantity:  it.Quantity,
			Product:   p,
		})
	}

	return CartView{SessionID: sessionID, Items: items}, nil
}
