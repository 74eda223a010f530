package redisstore

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func newTestStore(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return New(client, ttl), mr
}

func TestGetAbsentKey(t *testing.T) {
	store, _ := newTestStore(t, 0)

	b, err := store.Get(context.Background(), "guest_cart:s1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if b != nil {
		t.Fatalf("expected nil for absent key, got %q", b)
	}
}

func TestSetGetDelete(t *testing.T) {
	store, _ := newTestStore(t, 0)
	ctx := context.Background()

	payload := []byte(`{"items":[{"product_id":"p1","quantity":2}]}`)
	if err := store.Set(ctx, "guest_cart:s1", payload); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	b, err := store.Get(ctx, "guest_cart:s1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(b) != string(payload) {
		t.Fatalf("got %q, want %q", b, payload)
	}

	if err := store.Delete(ctx, "guest_cart:s1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	b, err = store.Get(ctx, "guest_cart:s1")
	if err != nil || b != nil {
		t.Fatalf("expected key gone, got %q err=%v", b, err)
	}
}

func TestUpdateReadsAbsentAsNil(t *testing.T) {
	store, _ := newTestStore(t, 0)

	err := store.Update(context.Background(), "guest_cart:s1", func(old []byte) ([]byte, error) {
		if old != nil {
			t.Fatalf("expected nil for absent key, got %q", old)
		}
		return []byte("v1"), nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	b, _ := store.Get(context.Background(), "guest_cart:s1")
	if string(b) != "v1" {
		t.Fatalf("expected v1 written, got %q", b)
	}
}

func TestUpdateCallbackErrorAbortsWrite(t *testing.T) {
	store, _ := newTestStore(t, 0)
	ctx := context.Background()

	if err := store.Set(ctx, "k", []byte("before")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	wantErr := errors.New("nope")
	err := store.Update(ctx, "k", func(old []byte) ([]byte, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected callback error passed through, got %v", err)
	}

	b, _ := store.Get(ctx, "k")
	if string(b) != "before" {
		t.Fatalf("value must be untouched after aborted update, got %q", b)
	}
}

func TestTTLAppliedOnWrites(t *testing.T) {
	store, mr := newTestStore(t, time.Hour)
	ctx := context.Background()

	if err := store.Set(ctx, "guest_cart:s1", []byte("v")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if ttl := mr.TTL("guest_cart:s1"); ttl != time.Hour {
		t.Fatalf("expected 1h ttl, got %v", ttl)
	}

	err := store.Update(ctx, "guest_cart:s2", func(old []byte) ([]byte, error) {
		return []byte("v"), nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if ttl := mr.TTL("guest_cart:s2"); ttl != time.Hour {
		t.Fatalf("expected 1h ttl on updated key, got %v", ttl)
	}
}

func TestZeroTTLKeepsKeys(t *testing.T) {
	store, mr := newTestStore(t, 0)

	if err := store.Set(context.Background(), "guest_cart:s1", []byte("v")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if ttl := mr.TTL("guest_cart:s1"); ttl != 0 {
		t.Fatalf("expected no expiry, got %v", ttl)
	}
}

func TestCompareAndDelete(t *testing.T) {
	store, _ := newTestStore(t, 0)
	ctx := context.Background()

	if err := store.Set(ctx, "guest_cart:s1", []byte("v1")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	t.Run("stale expected value -> key kept", func(t *testing.T) {
		deleted, err := store.CompareAndDelete(ctx, "guest_cart:s1", []byte("v0"))
		if err != nil {
			t.Fatalf("CompareAndDelete failed: %v", err)
		}
		if deleted {
			t.Fatal("expected delete refused for stale value")
		}
		b, _ := store.Get(ctx, "guest_cart:s1")
		if string(b) != "v1" {
			t.Fatalf("value must be untouched, got %q", b)
		}
	})

	t.Run("current value -> key deleted", func(t *testing.T) {
		deleted, err := store.CompareAndDelete(ctx, "guest_cart:s1", []byte("v1"))
		if err != nil {
			t.Fatalf("CompareAndDelete failed: %v", err)
		}
		if !deleted {
			t.Fatal("expected delete for matching value")
		}
		b, _ := store.Get(ctx, "guest_cart:s1")
		if b != nil {
			t.Fatalf("expected key gone, got %q", b)
		}
	})

	t.Run("absent key with nil expected -> reported deleted", func(t *testing.T) {
		deleted, err := store.CompareAndDelete(ctx, "guest_cart:never", nil)
		if err != nil || !deleted {
			t.Fatalf("got deleted=%v err=%v", deleted, err)
		}
	})
}

func TestConcurrentUpdatesLoseNothing(t *testing.T) {
	store, _ := newTestStore(t, 0)
	ctx := context.Background()

	const N = 20
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < N; i++ {
		g.Go(func() error {
			return store.Update(gctx, "counter", func(old []byte) ([]byte, error) {
				n := 0
				if old != nil {
					var err error
					n, err = strconv.Atoi(string(old))
					if err != nil {
						return nil, err
					}
				}
				return []byte(strconv.Itoa(n + 1)), nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent updates failed: %v", err)
	}

	b, err := store.Get(ctx, "counter")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(b) != strconv.Itoa(N) {
		t.Fatalf("lost updates: got %s, want %d", b, N)
	}
}
