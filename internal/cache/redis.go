// Package cache provides a Redis read-through cache in front of a schedule repository.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/javiermolinar/campus/internal/schedule"
)

// DefaultTTL is used when a zero TTL is configured.
const DefaultTTL = 10 * time.Minute

const keyPrefix = "campus:schedule:"

// cachedWeek is the value stored in Redis.
type cachedWeek struct {
	Week      schedule.Week `json:"week"`
	Revision  string        `json:"revision"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// Repository wraps a schedule.Repository with a Redis cache. Cache failures
// are logged and never fail an operation; the backing repository stays the
// source of truth. Writes drop the cached entry and the next Load fills it,
// so concurrent writers cannot leave an older revision cached.
type Repository struct {
	next   schedule.Repository
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// Connect dials addr and returns a cache wrapping next. It fails if Redis
// does not answer a ping.
func Connect(ctx context.Context, next schedule.Repository, addr string, ttl time.Duration, logger *slog.Logger) (*Repository, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return Wrap(next, rdb, ttl, logger), nil
}

// Wrap returns a cache around next using an existing client.
func Wrap(next schedule.Repository, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *Repository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

// Load returns the cached week for key, falling back to the backing repository.
func (r *Repository) Load(ctx context.Context, key schedule.WeekKey) (schedule.Snapshot, bool, error) {
	key = key.Normalized()
	ck := cacheKey(key)

	raw, err := r.rdb.Get(ctx, ck).Bytes()
	switch {
	case err == nil:
		var cw cachedWeek
		if jsonErr := json.Unmarshal(raw, &cw); jsonErr == nil {
			return schedule.Snapshot{
				Key:       key,
				Week:      cw.Week,
				Revision:  cw.Revision,
				UpdatedAt: cw.UpdatedAt,
				Exists:    true,
			}, true, nil
		}
		r.logger.Warn("dropping undecodable cache entry", "key", ck)
		r.forget(ctx, key)
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("redis get failed", "key", ck, "error", err)
	}

	snap, found, err := r.next.Load(ctx, key)
	if err != nil || !found {
		return snap, found, err
	}

	r.remember(ctx, snap)
	return snap, true, nil
}

// Save writes to the backing repository and drops the cache entry.
func (r *Repository) Save(ctx context.Context, snap schedule.Snapshot) error {
	err := r.next.Save(ctx, snap)
	r.forget(ctx, snap.Key)
	return err
}

// SaveIfRevision writes to the backing repository and drops the cache entry.
func (r *Repository) SaveIfRevision(ctx context.Context, snap schedule.Snapshot, expected string) error {
	err := r.next.SaveIfRevision(ctx, snap, expected)
	r.forget(ctx, snap.Key)
	return err
}

// ListWeeks is not cached.
func (r *Repository) ListWeeks(ctx context.Context, classroomID string) ([]schedule.WeekKey, error) {
	return r.next.ListWeeks(ctx, classroomID)
}

// Invalidate drops the cache entry for key.
func (r *Repository) Invalidate(ctx context.Context, key schedule.WeekKey) error {
	if err := r.rdb.Del(ctx, cacheKey(key.Normalized())).Err(); err != nil {
		return fmt.Errorf("invalidating %s: %w", key, err)
	}
	return nil
}

// Close closes the Redis client and the backing repository.
func (r *Repository) Close() error {
	return errors.Join(r.rdb.Close(), r.next.Close())
}

func (r *Repository) remember(ctx context.Context, snap schedule.Snapshot) {
	key := snap.Key.Normalized()
	data, err := json.Marshal(cachedWeek{Week: snap.Week, Revision: snap.Revision, UpdatedAt: snap.UpdatedAt})
	if err != nil {
		r.logger.Warn("encoding cache entry failed", "key", key.String(), "error", err)
		return
	}
	if err := r.rdb.Set(ctx, cacheKey(key), data, r.ttl).Err(); err != nil {
		r.logger.Warn("redis set failed", "key", key.String(), "error", err)
	}
}

func (r *Repository) forget(ctx context.Context, key schedule.WeekKey) {
	if err := r.Invalidate(ctx, key); err != nil {
		r.logger.Warn("redis del failed", "error", err)
	}
}

func cacheKey(key schedule.WeekKey) string {
	return keyPrefix + key.String()
}
