package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"shopreviews/pkg/metrics"
	"shopreviews/reviews-service/internal/app/reviews/entity"

	"github.com/redis/go-redis/v9"
)

const (
	serviceName           = "reviews-service"
	activeReviewsCacheKey = "reviews:active"
	generationKey         = "reviews:active:gen"
	keyPrefix             = "reviews"
)

var errStaleGeneration = errors.New("review list invalidated while loading")

// RedisCache keeps the serialized active review list under one key. Every invalidation
// bumps a generation counter; a list loaded before the bump is never written back.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (r *RedisCache) GetActiveReviews(ctx context.Context) ([]entity.Review, bool, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpGet)
	defer timer.ObserveDuration()

	data, err := r.client.Get(ctx, activeReviewsCacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.RecordCacheMiss(serviceName, keyPrefix)
			return nil, false, nil
		}
		metrics.RecordRedisError(serviceName, metrics.RedisOpGet)
		return nil, false, fmt.Errorf("failed to get reviews from cache: %w", err)
	}

	var reviews []entity.Review
	if err := json.Unmarshal(data, &reviews); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached reviews: %w", err)
	}

	metrics.RecordCacheHit(serviceName, keyPrefix)
	return reviews, true, nil
}

// Generation returns the invalidation counter. Read it before loading the list from the
// database and pass it to SetActiveReviews.
func (r *RedisCache) Generation(ctx context.Context) (int64, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpGet)
	defer timer.ObserveDuration()

	gen, err := r.client.Get(ctx, generationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		metrics.RecordRedisError(serviceName, metrics.RedisOpGet)
		return 0, fmt.Errorf("failed to get cache generation: %w", err)
	}
	return gen, nil
}

// SetActiveReviews stores reviews unless the list was invalidated after gen was read.
// A skipped write is not an error.
func (r *RedisCache) SetActiveReviews(ctx context.Context, gen int64, reviews []entity.Review) error {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpSet)
	defer timer.ObserveDuration()

	data, err := json.Marshal(reviews)
	if err != nil {
		return fmt.Errorf("failed to marshal reviews: %w", err)
	}

	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, generationKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return errStaleGeneration
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, activeReviewsCacheKey, data, r.ttl)
			return nil
		})
		return err
	}, generationKey)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, errStaleGeneration), errors.Is(err, redis.TxFailedErr):
		metrics.RecordCacheStaleWrite(serviceName, keyPrefix)
		return nil
	default:
		metrics.RecordRedisError(serviceName, metrics.RedisOpSet)
		return fmt.Errorf("failed to set reviews in cache: %w", err)
	}
}

// InvalidateActiveReviews drops the cached list and bumps the generation in one transaction.
func (r *RedisCache) InvalidateActiveReviews(ctx context.Context) error {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpDel)
	defer timer.ObserveDuration()

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey)
		pipe.Del(ctx, activeReviewsCacheKey)
		return nil
	})
	if err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpDel)
		return fmt.Errorf("failed to delete reviews from cache: %w", err)
	}
	return nil
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
