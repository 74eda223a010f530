package app

import (
	"context"
	"errors"
	"testing"

	"github.com/spicemart/backend/internal/guest/domain"
)

type fakeWishlistStore struct {
	wishlists map[string]*DurableWishlist

	appendCalls int
}

func newFakeWishlistStore() *fakeWishlistStore {
	return &fakeWishlistStore{wishlists: map[string]*DurableWishlist{}}
}

func (f *fakeWishlistStore) GetOrCreate(ctx context.Context, userID string) (DurableWishlist, bool, error) {
	if w, ok := f.wishlists[userID]; ok {
		return *w, false, nil
	}
	w := &DurableWishlist{ID: "wishlist-" + userID, UserID: userID}
	f.wishlists[userID] = w
	return *w, true, nil
}

func (f *fakeWishlistStore) AppendProduct(ctx context.Context, wishlistID, productID string) error {
	f.appendCalls++
	for _, w := range f.wishlists {
		if w.ID != wishlistID {
			continue
		}
		for _, pid := range w.Products {
			if pid == productID {
				return nil
			}
		}
		w.Products = append(w.Products, productID)
		return nil
	}
	return errors.New("no such wishlist")
}

func newWishlistService(store *fakeStore, catalog *fakeCatalog, durable *fakeWishlistStore) *WishlistService {
	return NewWishlistService(store, catalog, durable, 4)
}

func TestWishlistAddDeduplicates(t *testing.T) {
	store := newFakeStore()
	svc := newWishlistService(store, newFakeCatalog("p1"), newFakeWishlistStore())
	ctx := context.Background()

	if _, err := svc.Add(ctx, "s1", "p1"); err != nil {
		t.Fatalf("first Add failed: %v", err)
	}
	view, err := svc.Add(ctx, "s1", "p1")
	if err != nil {
		t.Fatalf("second Add failed: %v", err)
	}

	if len(view.Items) != 1 {
		t.Fatalf("expected one item, got %+v", view.Items)
	}

	raw := domain.DecodeWishlist(store.data["guest_wishlist:s1"])
	if len(raw.Items) != 1 {
		t.Fatalf("raw state has duplicates: %+v", raw.Items)
	}
}

func TestWishlistAddUnknownProduct(t *testing.T) {
	svc := newWishlistService(newFakeStore(), newFakeCatalog(), newFakeWishlistStore())

	if _, err := svc.Add(context.Background(), "s1", "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestWishlistReadSkipsDeletedProducts(t *testing.T) {
	store := newFakeStore()
	svc := newWishlistService(store, newFakeCatalog("p2"), newFakeWishlistStore())

	// p1 was deleted from the catalog; p2 still exists.
	raw, _ := domain.RawWishlist{Items: []domain.WishlistLine{
		{ProductID: "p1"},
		{ProductID: "p2"},
	}}.Encode()
	store.data["guest_wishlist:s1"] = raw

	view, err := svc.GetWishlist(context.Background(), "s1")
	if err != nil {
		t.Fatalf("GetWishlist failed: %v", err)
	}

	if len(view.Items) != 1 || view.Items[0].ProductID != "p2" {
		t.Fatalf("expected only p2, got %+v", view.Items)
	}
}

func TestWishlistRemoveIsIdempotent(t *testing.T) {
	svc := newWishlistService(newFakeStore(), newFakeCatalog("p1"), newFakeWishlistStore())
	ctx := context.Background()

	if _, err := svc.Add(ctx, "s1", "p1"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	view, err := svc.Remove(ctx, "s1", "p1")
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if len(view.Items) != 0 {
		t.Fatalf("expected empty wishlist, got %+v", view.Items)
	}

	if _, err := svc.Remove(ctx, "s1", "p1"); err != nil {
		t.Fatalf("repeated Remove failed: %v", err)
	}
}

func TestWishlistMergeIntoUser(t *testing.T) {
	store := newFakeStore()
	durable := newFakeWishlistStore()
	svc := newWishlistService(store, newFakeCatalog("p1", "p2", "p3"), durable)
	ctx := context.Background()

	durable.wishlists["u1"] = &DurableWishlist{
		ID:       "wishlist-u1",
		UserID:   "u1",
		Products: []string{"p1"},
	}

	raw, _ := domain.RawWishlist{Items: []domain.WishlistLine{
		{ProductID: "p1"}, // already durable, skipped
		{ProductID: "p3"},
	}}.Encode()
	store.data["guest_wishlist:s1"] = raw

	wishlist, err := svc.MergeIntoUser(ctx, "s1", "u1")
	if err != nil {
		t.Fatalf("MergeIntoUser failed: %v", err)
	}

	if len(wishlist.Products) != 2 {
		t.Fatalf("expected two durable products, got %+v", wishlist.Products)
	}
	if durable.appendCalls != 1 {
		t.Fatalf("expected a single append, got %d", durable.appendCalls)
	}
	if _, ok := store.data["guest_wishlist:s1"]; ok {
		t.Fatal("expected guest state deleted after merge")
	}

	t.Run("second merge is a no-op", func(t *testing.T) {
		again, err := svc.MergeIntoUser(ctx, "s1", "u1")
		if err != nil {
			t.Fatalf("second MergeIntoUser failed: %v", err)
		}
		if len(again.Products) != 2 || durable.appendCalls != 1 {
			t.Fatalf("expected unchanged wishlist, got %+v (appends=%d)", again.Products, durable.appendCalls)
		}
	})
}

func TestWishlistMergeKeepsConcurrentAdd(t *testing.T) {
	store := newFakeStore()
	durable := newFakeWishlistStore()
	svc := newWishlistService(store, newFakeCatalog("p1", "p3"), durable)
	ctx := context.Background()

	raw, _ := domain.RawWishlist{Items: []domain.WishlistLine{{ProductID: "p1"}}}.Encode()
	store.data["guest_wishlist:s1"] = raw

	// p3 arrives between the merge's read and its delete.
	store.afterGet = func() {
		if _, err := svc.Add(ctx, "s1", "p3"); err != nil {
			t.Errorf("concurrent Add failed: %v", err)
		}
	}

	wishlist, err := svc.MergeIntoUser(ctx, "s1", "u1")
	if err != nil {
		t.Fatalf("MergeIntoUser failed: %v", err)
	}

	if len(wishlist.Products) != 2 {
		t.Fatalf("expected both products merged, got %+v", wishlist.Products)
	}
	if _, ok := store.data["guest_wishlist:s1"]; ok {
		t.Fatal("expected guest state deleted after merge")
	}
}
