package repository

import (
	"context"
	"errors"
	"fmt"

	"shopreviews/pkg/metrics"
	"shopreviews/reviews-service/internal/app/reviews/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, review *entity.Review) (err error) {
	timer := metrics.NewDbTimer(metricsService, metrics.DbOpInsert, "reviews")
	defer func() { timer.Done(err) }()

	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

// ListActive returns active reviews in insertion order.
func (r *reviewRepository) ListActive(ctx context.Context) (_ []entity.Review, err error) {
	timer := metrics.NewDbTimer(metricsService, metrics.DbOpSelect, "reviews")
	defer func() { timer.Done(err) }()

	reviews := make([]entity.Review, 0)
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("id ASC").Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

func (r *reviewRepository) GetActiveForUpdate(ctx context.Context, id int64) (_ *entity.Review, err error) {
	timer := metrics.NewDbTimer(metricsService, metrics.DbOpSelect, "reviews")
	defer func() { timer.Done(err) }()

	var review entity.Review
	result := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND is_active = ?", id, true).
		Take(&review)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", result.Error)
	}
	return &review, nil
}

func (r *reviewRepository) HasActive(ctx context.Context, userID, productID int64) (_ bool, err error) {
	timer := metrics.NewDbTimer(metricsService, metrics.DbOpSelect, "reviews")
	defer func() { timer.Done(err) }()

	var count int64
	result := r.db.WithContext(ctx).
		Model(&entity.Review{}).
		Where("user_id = ? AND product_id = ? AND is_active = ?", userID, productID, true).
		Count(&count)
	if result.Error != nil {
		return false, fmt.Errorf("failed to check existing review: %w", result.Error)
	}
	return count > 0, nil
}

// Deactivate soft-deletes an active review.
func (r *reviewRepository) Deactivate(ctx context.Context, id int64) (err error) {
	timer := metrics.NewDbTimer(metricsService, metrics.DbOpUpdate, "reviews")
	defer func() { timer.Done(err) }()

	result := r.db.WithContext(ctx).
		Model(&entity.Review{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	if result.Error != nil {
		return fmt.Errorf("failed to deactivate review: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrReviewNotFound
	}
	return nil
}

func (r *reviewRepository) ActiveGradeStats(ctx context.Context, productID int64) (_ GradeStats, err error) {
	timer := metrics.NewDbTimer(metricsService, metrics.DbOpSelect, "reviews")
	defer func() { timer.Done(err) }()

	var stats GradeStats
	result := r.db.WithContext(ctx).
		Model(&entity.Review{}).
		Select("COUNT(*) AS count, COALESCE(SUM(grade), 0) AS sum").
		Where("product_id = ? AND is_active = ?", productID, true).
		Scan(&stats)
	if result.Error != nil {
		return GradeStats{}, fmt.Errorf("failed to aggregate grades: %w", result.Error)
	}
	return stats, nil
}
