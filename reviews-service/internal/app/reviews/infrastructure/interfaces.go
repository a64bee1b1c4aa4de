package infrastructure

import (
	"context"

	"shopreviews/reviews-service/internal/app/reviews/entity"
)

// MessagePublisher sends messages to the review topic (Kafka).
type MessagePublisher interface {
	PublishMessage(ctx context.Context, key string, value []byte) error
	Close() error
}

// ReviewCache caches the active review list (Redis).
type ReviewCache interface {
	// GetActiveReviews reports ok=false on a cache miss.
	GetActiveReviews(ctx context.Context) (reviews []entity.Review, ok bool, err error)
	// Generation is read before loading the list; SetActiveReviews skips the write when an
	// invalidation happened since.
	Generation(ctx context.Context) (int64, error)
	SetActiveReviews(ctx context.Context, gen int64, reviews []entity.Review) error
	InvalidateActiveReviews(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// AuditRepository stores the review audit trail (MongoDB).
type AuditRepository interface {
	Append(ctx context.Context, entry entity.AuditEntry) error
	ListByReview(ctx context.Context, reviewID int64) ([]entity.AuditEntry, error)
	Ping(ctx context.Context) error
}
