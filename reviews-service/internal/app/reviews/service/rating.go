package service

import (
	"context"
	"errors"
	"fmt"

	"shopreviews/pkg/logger"
	"shopreviews/pkg/metrics"
	"shopreviews/reviews-service/internal/app/reviews/repository"
)

// Recompute triggers, used as the metrics label.
const (
	TriggerCreate    = "create"
	TriggerDelete    = "delete"
	TriggerReconcile = "reconcile"
)

// AverageRating returns sum/count rounded to the nearest integer, ties to even, or nil when
// count is zero. The arithmetic stays on integers so 4.5 always rounds to 4 and 3.5 to 4.
func AverageRating(sum, count int64) *int {
	if count <= 0 {
		return nil
	}

	q, r := sum/count, sum%count
	switch {
	case 2*r > count:
		q++
	case 2*r == count && q%2 != 0:
		q++
	}

	rating := int(q)
	return &rating
}

// RatingAggregator keeps products.rating equal to the rounded mean of active grades.
type RatingAggregator struct {
	store repository.Store
}

func NewRatingAggregator(store repository.Store) *RatingAggregator {
	return &RatingAggregator{store: store}
}

// Recompute recalculates the rating of one product from scratch inside tx.
// The caller is expected to hold the product row lock.
func (a *RatingAggregator) Recompute(ctx context.Context, tx repository.Store, productID int64, trigger string) (*int, error) {
	stats, err := tx.Reviews().ActiveGradeStats(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate grades: %w", err)
	}

	rating := AverageRating(stats.Sum, stats.Count)
	if err := tx.Products().SetRating(ctx, productID, rating); err != nil {
		return nil, fmt.Errorf("failed to store rating: %w", err)
	}

	metrics.RatingRecomputations.WithLabelValues(trigger).Inc()
	return rating, nil
}

// ReconcileAll recomputes every product that has reviews or a stored rating, one
// transaction per product. It returns the number of products updated; failures for
// individual products are joined into the returned error.
func (a *RatingAggregator) ReconcileAll(ctx context.Context) (int, error) {
	ids, err := a.store.Products().ListRatedIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list rated products: %w", err)
	}

	var (
		updated int
		errs    []error
	)
	for _, id := range ids {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}

		err := a.store.WithinTransaction(ctx, func(tx repository.Store) error {
			if err := tx.Products().Lock(ctx, id); err != nil {
				return err
			}
			_, err := a.Recompute(ctx, tx, id, TriggerReconcile)
			return err
		})
		if err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				continue
			}
			logger.Error().Err(err).Int64("product_id", id).Msg("Failed to reconcile product rating")
			errs = append(errs, fmt.Errorf("product %d: %w", id, err))
			continue
		}
		updated++
	}

	return updated, errors.Join(errs...)
}
