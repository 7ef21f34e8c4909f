package waitlist

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"slices"
	"time"

	"github.com/akeren/go-waitlist/internal/models"
	apperrors "github.com/akeren/go-waitlist/pkg/errors"
	"github.com/akeren/go-waitlist/pkg/retry"
	"github.com/go-redis/redis/v8"
)

type redisWaitlistRepository struct {
	client *redis.Client
	key    string
	retry  retry.RetryPolicy
}

// NewRedisWaitlistRepository keeps the whole collection as one JSON array
// under key. attempts bounds how often a contended Append is retried.
func NewRedisWaitlistRepository(client *redis.Client, key string, attempts int) WaitlistRepository {
	return &redisWaitlistRepository{
		client: client,
		key:    key,
		retry: retry.NewExponentialBackoff(&retry.Config{
			MaxAttempts: attempts,
			BaseDelay:   2 * time.Millisecond,
			MaxDelay:    50 * time.Millisecond,
			Multiplier:  2.0,
			Jitter:      0.5,
			Retryable:   isWatchConflict,
		}),
	}
}

func isWatchConflict(err error) bool {
	return errors.Is(err, redis.TxFailedErr)
}

func (r *redisWaitlistRepository) Initialize(ctx context.Context) error {
	if err := r.client.SetNX(ctx, r.key, "[]", 0).Err(); err != nil {
		return apperrors.NewDatabaseError("unable to initialize waitlist", err)
	}
	return nil
}

func (r *redisWaitlistRepository) Load(ctx context.Context) ([]*models.WaitlistEntry, error) {
	entries, err := r.read(ctx, r.client)
	if err != nil {
		return nil, apperrors.NewDatabaseError("unable to load waitlist", err)
	}
	return entries, nil
}

// Save overwrites the collection in position order. It rejects repeated
// email keys like the SQL unique index does, but does not guard against
// concurrent writers.
func (r *redisWaitlistRepository) Save(ctx context.Context, entries []*models.WaitlistEntry) error {
	ordered := make([]*models.WaitlistEntry, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if entry == nil {
			continue
		}
		key := models.NormalizeEmail(entry.Email)
		if seen[key] {
			return newDuplicateError()
		}
		seen[key] = true
		entry.EmailKey = key
		ordered = append(ordered, entry)
	}
	slices.SortStableFunc(ordered, func(a, b *models.WaitlistEntry) int {
		return cmp.Compare(a.Position, b.Position)
	})

	data, err := encodeEntries(ordered)
	if err != nil {
		return apperrors.NewDatabaseError("unable to encode waitlist", err)
	}

	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return apperrors.NewDatabaseError("unable to save waitlist", err)
	}
	return nil
}

// Append runs load, duplicate check and write under WATCH so a concurrent
// writer aborts the EXEC and the whole sequence is retried.
func (r *redisWaitlistRepository) Append(ctx context.Context, entry *models.WaitlistEntry) (*models.WaitlistEntry, error) {
	err := r.retry.Execute(ctx, func(ctx context.Context) error {
		return r.client.Watch(ctx, func(tx *redis.Tx) error {
			entries, err := r.read(ctx, tx)
			if err != nil {
				return err
			}

			for _, existing := range entries {
				if models.NormalizeEmail(existing.Email) == entry.EmailKey {
					return newDuplicateError()
				}
			}

			entry.Position = int64(len(entries)) + 1
			data, err := encodeEntries(append(entries, entry))
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, r.key, data, 0)
				return nil
			})
			return err
		}, r.key)
	})
	if err != nil {
		entry.Position = 0
		if apperrors.IsType(err, apperrors.ErrorTypeConflict) {
			return nil, err
		}
		return nil, apperrors.NewDatabaseError("unable to append waitlist entry", err)
	}

	return entry, nil
}

func (r *redisWaitlistRepository) Count(ctx context.Context) (int64, error) {
	entries, err := r.read(ctx, r.client)
	if err != nil {
		return 0, apperrors.NewDatabaseError("unable to count waitlist entries", err)
	}
	return int64(len(entries)), nil
}

func (r *redisWaitlistRepository) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return apperrors.NewDatabaseError("unable to reach redis", err)
	}
	return nil
}

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// read treats a missing key as an empty collection.
func (r *redisWaitlistRepository) read(ctx context.Context, c getter) ([]*models.WaitlistEntry, error) {
	raw, err := c.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return []*models.WaitlistEntry{}, nil
	}
	if err != nil {
		return nil, err
	}

	entries := []*models.WaitlistEntry{}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func encodeEntries(entries []*models.WaitlistEntry) ([]byte, error) {
	if entries == nil {
		entries = []*models.WaitlistEntry{}
	}
	return json.Marshal(entries)
}
