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

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) FindActiveForUpdate(ctx context.Context, id int64) (_ *entity.Product, err error) {
	timer := metrics.NewDbTimer(metricsService, metrics.DbOpSelect, "products")
	defer func() { timer.Done(err) }()

	var product entity.Product
	result := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND is_active = ?", id, true).
		Take(&product)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", result.Error)
	}
	return &product, nil
}

func (r *productRepository) Lock(ctx context.Context, id int64) (err error) {
	timer := metrics.NewDbTimer(metricsService, metrics.DbOpSelect, "products")
	defer func() { timer.Done(err) }()

	var product entity.Product
	result := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&product)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to lock product: %w", result.Error)
	}
	return nil
}

// SetRating stores the product rating; nil writes NULL.
func (r *productRepository) SetRating(ctx context.Context, id int64, rating *int) (err error) {
	timer := metrics.NewDbTimer(metricsService, metrics.DbOpUpdate, "products")
	defer func() { timer.Done(err) }()

	result := r.db.WithContext(ctx).
		Model(&entity.Product{}).
		Where("id = ?", id).
		Update("rating", rating)
	if result.Error != nil {
		return fmt.Errorf("failed to update product rating: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *productRepository) ListRatedIDs(ctx context.Context) (_ []int64, err error) {
	timer := metrics.NewDbTimer(metricsService, metrics.DbOpSelect, "products")
	defer func() { timer.Done(err) }()

	ids := make([]int64, 0)
	result := r.db.WithContext(ctx).
		Raw("SELECT id FROM products WHERE rating IS NOT NULL OR id IN (SELECT DISTINCT product_id FROM reviews) ORDER BY id").
		Scan(&ids)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list rated products: %w", result.Error)
	}
	return ids, nil
}
