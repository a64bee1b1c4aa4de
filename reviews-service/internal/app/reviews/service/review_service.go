package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"shopreviews/pkg/logger"
	"shopreviews/pkg/metrics"
	"shopreviews/reviews-service/internal/app/reviews/entity"
	"shopreviews/reviews-service/internal/app/reviews/infrastructure"
	"shopreviews/reviews-service/internal/app/reviews/repository"

	"github.com/google/uuid"
)

// Business errors, mapped to HTTP statuses by the handlers.
var (
	ErrProductNotFound = errors.New("product not found")
	ErrReviewNotFound  = errors.New("review not found")
	ErrDuplicateReview = errors.New("review already exists for this product")
	ErrInvalidGrade    = errors.New("grade must be between 1 and 5")
	ErrForbidden       = errors.New("not allowed to delete this review")
)

const (
	minGrade = 1
	maxGrade = 5
)

// ReviewService coordinates the review store, the rating aggregator, the list cache
// and the event stream.
type ReviewService struct {
	store      repository.Store
	aggregator *RatingAggregator
	cache      infrastructure.ReviewCache
	publisher  infrastructure.MessagePublisher
	audit      infrastructure.AuditRepository
	now        func() time.Time
}

func NewReviewService(
	store repository.Store,
	cache infrastructure.ReviewCache,
	publisher infrastructure.MessagePublisher,
	audit infrastructure.AuditRepository,
) *ReviewService {
	return &ReviewService{
		store:      store,
		aggregator: NewRatingAggregator(store),
		cache:      cache,
		publisher:  publisher,
		audit:      audit,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// ListActive returns every active review ordered by id. The list is served from the cache
// when present; cache failures fall through to the database. A list loaded while a
// create or delete commits is not cached.
func (s *ReviewService) ListActive(ctx context.Context) ([]entity.Review, error) {
	cached, ok, err := s.cache.GetActiveReviews(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Review cache read failed")
	}
	if ok {
		return cached, nil
	}

	gen, genErr := s.cache.Generation(ctx)
	if genErr != nil {
		logger.Warn().Err(genErr).Msg("Review cache generation read failed")
	}

	reviews, err := s.store.Reviews().ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}

	if genErr == nil {
		if err := s.cache.SetActiveReviews(ctx, gen, reviews); err != nil {
			logger.Warn().Err(err).Msg("Review cache write failed")
		}
	}

	return reviews, nil
}

// CreateReview stores a review by caller and refreshes the product rating in the same
// transaction. Checks run in order: product exists, no active review by caller for the
// product, grade in range.
func (s *ReviewService) CreateReview(ctx context.Context, caller entity.Principal, req *entity.CreateReviewRequest) (*entity.Review, error) {
	var (
		review *entity.Review
		rating *int
	)

	err := s.store.WithinTransaction(ctx, func(tx repository.Store) error {
		if _, err := tx.Products().FindActiveForUpdate(ctx, req.ProductID); err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				return ErrProductNotFound
			}
			return fmt.Errorf("failed to get product: %w", err)
		}

		exists, err := tx.Reviews().HasActive(ctx, caller.ID, req.ProductID)
		if err != nil {
			return fmt.Errorf("failed to check existing review: %w", err)
		}
		if exists {
			return ErrDuplicateReview
		}

		if req.Grade == nil || *req.Grade < minGrade || *req.Grade > maxGrade {
			return ErrInvalidGrade
		}

		review = &entity.Review{
			UserID:      caller.ID,
			ProductID:   req.ProductID,
			Comment:     req.Comment,
			CommentDate: s.now(),
			Grade:       *req.Grade,
			IsActive:    true,
		}
		if err := tx.Reviews().Create(ctx, review); err != nil {
			return fmt.Errorf("failed to create review: %w", err)
		}

		rating, err = s.aggregator.Recompute(ctx, tx, req.ProductID, TriggerCreate)
		return err
	})
	if err != nil {
		recordRejection(err)
		return nil, err
	}

	metrics.ReviewsCreated.Inc()
	metrics.ReviewsGrade.Observe(float64(review.Grade))

	logger.Info().
		Int64("review_id", review.ID).
		Int64("product_id", review.ProductID).
		Int64("user_id", review.UserID).
		Int("grade", review.Grade).
		Msg("Review created")

	s.afterCommit(ctx, entity.EventTypeReviewCreated, review, caller, rating)
	return review, nil
}

// DeleteReview deactivates an active review owned by caller, or any review when caller is
// an admin, and refreshes the product rating in the same transaction. A review whose
// product row no longer exists is still deactivated.
func (s *ReviewService) DeleteReview(ctx context.Context, reviewID int64, caller entity.Principal) error {
	var (
		review *entity.Review
		rating *int
	)

	err := s.store.WithinTransaction(ctx, func(tx repository.Store) error {
		var err error
		review, err = tx.Reviews().GetActiveForUpdate(ctx, reviewID)
		if err != nil {
			if errors.Is(err, repository.ErrReviewNotFound) {
				return ErrReviewNotFound
			}
			return fmt.Errorf("failed to get review: %w", err)
		}

		if review.UserID != caller.ID && !caller.IsAdmin() {
			return ErrForbidden
		}

		if err := tx.Reviews().Deactivate(ctx, reviewID); err != nil {
			if errors.Is(err, repository.ErrReviewNotFound) {
				return ErrReviewNotFound
			}
			return fmt.Errorf("failed to deactivate review: %w", err)
		}
		review.IsActive = false

		if err := tx.Products().Lock(ctx, review.ProductID); err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				logger.Warn().
					Int64("review_id", review.ID).
					Int64("product_id", review.ProductID).
					Msg("Product row missing, rating not recomputed")
				return nil
			}
			return fmt.Errorf("failed to lock product: %w", err)
		}

		rating, err = s.aggregator.Recompute(ctx, tx, review.ProductID, TriggerDelete)
		return err
	})
	if err != nil {
		recordRejection(err)
		return err
	}

	reason := "owner"
	if review.UserID != caller.ID {
		reason = "admin"
	}
	metrics.ReviewsDeleted.WithLabelValues(reason).Inc()

	logger.Info().
		Int64("review_id", review.ID).
		Int64("product_id", review.ProductID).
		Int64("actor_id", caller.ID).
		Str("reason", reason).
		Msg("Review deleted")

	s.afterCommit(ctx, entity.EventTypeReviewDeleted, review, caller, rating)
	return nil
}

// ReviewHistory returns the audit trail of a review, newest first.
func (s *ReviewService) ReviewHistory(ctx context.Context, reviewID int64) ([]entity.AuditEntry, error) {
	entries, err := s.audit.ListByReview(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to get review history: %w", err)
	}
	return entries, nil
}

// afterCommit drops the cached list and publishes the lifecycle event. Both are best effort:
// the write is already committed.
func (s *ReviewService) afterCommit(ctx context.Context, eventType string, review *entity.Review, caller entity.Principal, rating *int) {
	if err := s.cache.InvalidateActiveReviews(ctx); err != nil {
		logger.Warn().Err(err).Int64("review_id", review.ID).Msg("Failed to invalidate review cache")
	}

	event := entity.ReviewEvent{
		EventID:   uuid.NewString(),
		EventType: eventType,
		ReviewID:  review.ID,
		ProductID: review.ProductID,
		UserID:    review.UserID,
		ActorID:   caller.ID,
		ActorRole: caller.Role,
		Grade:     review.Grade,
		Rating:    rating,
		Timestamp: s.now(),
	}

	if err := s.publishReviewEvent(ctx, event); err != nil {
		logger.Error().Err(err).
			Str("event_type", eventType).
			Int64("review_id", review.ID).
			Msg("Failed to publish review event")
	}
}

func (s *ReviewService) publishReviewEvent(ctx context.Context, event entity.ReviewEvent) error {
	eventData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal review event: %w", err)
	}

	if err := s.publisher.PublishMessage(ctx, strconv.FormatInt(event.ReviewID, 10), eventData); err != nil {
		return fmt.Errorf("failed to publish to kafka: %w", err)
	}

	return nil
}

func recordRejection(err error) {
	var outcome string
	switch {
	case errors.Is(err, ErrProductNotFound):
		outcome = "product_not_found"
	case errors.Is(err, ErrReviewNotFound):
		outcome = "review_not_found"
	case errors.Is(err, ErrDuplicateReview):
		outcome = "duplicate"
	case errors.Is(err, ErrInvalidGrade):
		outcome = "invalid_grade"
	case errors.Is(err, ErrForbidden):
		outcome = "forbidden"
	default:
		return
	}
	metrics.ReviewsRejected.WithLabelValues(outcome).Inc()
}
