package repository

import (
	"context"
	"errors"

	"shopreviews/reviews-service/internal/app/reviews/entity"
)

var (
	ErrReviewNotFound  = errors.New("review not found")
	ErrProductNotFound = errors.New("product not found")
)

// GradeStats is the aggregate of active grades for one product.
type GradeStats struct {
	Count int64 `gorm:"column:count"`
	Sum   int64 `gorm:"column:sum"`
}

// ReviewRepository reads and writes the reviews table.
type ReviewRepository interface {
	Create(ctx context.Context, review *entity.Review) error
	ListActive(ctx context.Context) ([]entity.Review, error)
	// GetActiveForUpdate returns an active review and locks its row until the transaction ends.
	GetActiveForUpdate(ctx context.Context, id int64) (*entity.Review, error)
	HasActive(ctx context.Context, userID, productID int64) (bool, error)
	Deactivate(ctx context.Context, id int64) error
	ActiveGradeStats(ctx context.Context, productID int64) (GradeStats, error)
}

// ProductRepository covers the part of the catalog products table owned by reviews:
// existence checks, row locks and the denormalized rating column.
type ProductRepository interface {
	// FindActiveForUpdate returns an active product and locks its row until the transaction ends.
	FindActiveForUpdate(ctx context.Context, id int64) (*entity.Product, error)
	// Lock locks a product row whether or not the product is still active.
	Lock(ctx context.Context, id int64) error
	SetRating(ctx context.Context, id int64, rating *int) error
	// ListRatedIDs returns ids of products that have reviews or a stored rating.
	ListRatedIDs(ctx context.Context) ([]int64, error)
}

// Store hands out repositories bound to one database session.
type Store interface {
	Reviews() ReviewRepository
	Products() ProductRepository
	// WithinTransaction runs fn against a store bound to a single transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	WithinTransaction(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
}
