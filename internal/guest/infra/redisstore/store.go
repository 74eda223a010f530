package redisstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrConflict is returned when an Update loses the optimistic race too many
// times in a row.
var ErrConflict = errors.New("concurrent update conflict")

const maxUpdateAttempts = 100

// Store holds raw guest state as UTF-8 JSON values under namespaced keys.
// The client is constructed by the composition root and injected here; the
// store never dials on first use.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// New wraps an established client. A zero ttl disables key expiry.
func New(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Get returns the stored value, or (nil, nil) when the key is absent.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, key, value, s.ttl).Err()
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// Update runs fn inside a WATCH-guarded read-modify-write cycle. When another
// writer touches the key between the read and the write, the transaction
// fails and the whole cycle is retried with a fresh read, so concurrent
// mutations of one session cannot lose updates. Errors returned by fn abort
// the cycle and are passed through unchanged.
func (s *Store) Update(ctx context.Context, key string, fn func(old []byte) ([]byte, error)) error {
	txn := func(tx *redis.Tx) error {
		old, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			old = nil
		} else if err != nil {
			return err
		}

		next, err := fn(old)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, s.ttl)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := s.client.Watch(ctx, txn, key)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}

	return fmt.Errorf("%w: key %s", ErrConflict, key)
}

// CompareAndDelete issues DEL inside a WATCH transaction only while the key
// still holds expected (nil meaning absent). It reports false, nil when the
// value has changed, leaving the key untouched; a writer racing the DEL fails
// the transaction and the check re-runs against the fresh value.
func (s *Store) CompareAndDelete(ctx context.Context, key string, expected []byte) (bool, error) {
	var deleted bool
	txn := func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			cur = nil
		} else if err != nil {
			return err
		}

		if !bytes.Equal(cur, expected) {
			deleted = false
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			return nil
		})
		if err != nil {
			return err
		}
		deleted = true
		return nil
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := s.client.Watch(ctx, txn, key)
		if err == nil {
			return deleted, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return false, err
	}

	return false, fmt.Errorf("%w: key %s", ErrConflict, key)
}
