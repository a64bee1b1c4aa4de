package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shopreviews/pkg/metrics"
	"shopreviews/reviews-service/internal/app/reviews/entity"
	"shopreviews/reviews-service/internal/app/reviews/infrastructure"
)

var ErrInvalidEvent = errors.New("invalid review event")

type AuditServiceInterface interface {
	RecordEvent(ctx context.Context, event *entity.ReviewEvent) error
}

// AuditService writes consumed review events to the audit trail.
type AuditService struct {
	audit infrastructure.AuditRepository
	now   func() time.Time
}

func NewAuditService(audit infrastructure.AuditRepository) *AuditService {
	return &AuditService{
		audit: audit,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *AuditService) RecordEvent(ctx context.Context, event *entity.ReviewEvent) error {
	if event.EventID == "" || event.ReviewID == 0 {
		metrics.AuditEntriesWritten.WithLabelValues("invalid").Inc()
		return fmt.Errorf("%w: missing event or review id", ErrInvalidEvent)
	}
	switch event.EventType {
	case entity.EventTypeReviewCreated, entity.EventTypeReviewDeleted:
	default:
		metrics.AuditEntriesWritten.WithLabelValues("invalid").Inc()
		return fmt.Errorf("%w: unknown event type %q", ErrInvalidEvent, event.EventType)
	}

	if err := s.audit.Append(ctx, entity.NewAuditEntry(*event, s.now())); err != nil {
		metrics.AuditEntriesWritten.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to record review event: %w", err)
	}

	metrics.AuditEntriesWritten.WithLabelValues("ok").Inc()
	return nil
}
