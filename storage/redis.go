package storage

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/pastebit/pastebit/models"
)

// errCASMiss aborts a Watch callback when the record is gone or the
// version moved; it never escapes CompareAndSwap.
var errCASMiss = errors.New("cas miss")

// RedisStore implements PasteStore using Redis. Records are stored as
// codec-encoded JSON values, and CompareAndSwap runs as a WATCH/MULTI
// optimistic transaction so concurrent consumers cannot both commit
// against the same version.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore creates a new Redis storage backend from a redis:// URL.
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &RedisStore{rdb: rdb}, nil
}

// Put writes a paste record. When the paste has a TTL the key gets a
// matching server-side expiry as a garbage-collection hint; liveness is
// still decided by the lifecycle manager, not by Redis.
func (r *RedisStore) Put(ctx context.Context, paste *models.Paste) error {
	data, err := models.EncodePaste(paste)
	if err != nil {
		return err
	}
	var expiration time.Duration
	if exp := paste.ExpiresAt(); exp != nil {
		expiration = time.Until(*exp)
		if expiration <= 0 {
			expiration = time.Second
		}
	}
	return r.rdb.Set(ctx, Key(paste.ID), data, expiration).Err()
}

// Get retrieves a paste by its id.
func (r *RedisStore) Get(ctx context.Context, id string) (*models.Paste, error) {
	raw, err := r.rdb.Get(ctx, Key(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return models.DecodePaste(raw)
}

// CompareAndSwap replaces the record if its stored version matches,
// using WATCH so a concurrent write between read and commit fails the
// transaction instead of silently losing an update.
func (r *RedisStore) CompareAndSwap(ctx context.Context, id string, expectedVersion int64, paste *models.Paste) (bool, error) {
	data, err := models.EncodePaste(paste)
	if err != nil {
		return false, err
	}
	key := Key(id)

	err = r.rdb.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return errCASMiss
		}
		if err != nil {
			return err
		}
		stored, err := models.DecodePaste(raw)
		if err != nil {
			return err
		}
		if stored.Version != expectedVersion {
			return errCASMiss
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, redis.KeepTTL)
			return nil
		})
		return err
	}, key)

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errCASMiss), errors.Is(err, redis.TxFailedErr):
		return false, nil
	default:
		return false, err
	}
}

// Delete removes a paste.
func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.rdb.Del(ctx, Key(id)).Err()
}

// Ping checks Redis connectivity.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (r *RedisStore) Close() error {
	return r.rdb.Close()
}
