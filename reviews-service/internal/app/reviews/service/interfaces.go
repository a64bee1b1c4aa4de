package service

import (
	"context"

	"shopreviews/reviews-service/internal/app/reviews/entity"
)

type ReviewServiceInterface interface {
	ListActive(ctx context.Context) ([]entity.Review, error)
	CreateReview(ctx context.Context, caller entity.Principal, req *entity.CreateReviewRequest) (*entity.Review, error)
	DeleteReview(ctx context.Context, reviewID int64, caller entity.Principal) error
	ReviewHistory(ctx context.Context, reviewID int64) ([]entity.AuditEntry, error)
}

// RatingReconciler recomputes stored product ratings from the review table.
type RatingReconciler interface {
	ReconcileAll(ctx context.Context) (int, error)
}
