package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"shopreviews/pkg/logger"
	"shopreviews/pkg/metrics"
	"shopreviews/reviews-service/internal/app/reviews/entity"
	"shopreviews/reviews-service/internal/app/reviews/service"

	"github.com/segmentio/kafka-go"
)

const (
	serviceName     = "reviews-worker"
	retryBackoffMin = 200 * time.Millisecond
	retryBackoffMax = 10 * time.Second
)

// messageReader is the part of *kafka.Reader the consumer uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Stats() kafka.ReaderStats
	Close() error
}

// KafkaConsumer reads review events and records them in the audit trail.
type KafkaConsumer struct {
	reader     messageReader
	auditSvc   service.AuditServiceInterface
	topic      string
	groupID    string
	backoffMin time.Duration
	backoffMax time.Duration
	stopChan   chan struct{}
	doneChan   chan struct{}
}

func NewKafkaConsumer(
	brokers []string,
	topic string,
	groupID string,
	auditSvc service.AuditServiceInterface,
) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: time.Second,
		ReadBackoffMin: 100 * time.Millisecond,
		ReadBackoffMax: time.Second,
		Logger:         kafka.LoggerFunc(logger.Printf),
		ErrorLogger:    kafka.LoggerFunc(logger.Errorf),
	})

	return &KafkaConsumer{
		reader:     reader,
		auditSvc:   auditSvc,
		topic:      topic,
		groupID:    groupID,
		backoffMin: retryBackoffMin,
		backoffMax: retryBackoffMax,
		stopChan:   make(chan struct{}),
		doneChan:   make(chan struct{}),
	}
}

// Start consumes in a background goroutine until Stop is called or ctx is cancelled.
func (c *KafkaConsumer) Start(ctx context.Context) {
	logger.Info().Str("topic", c.topic).Str("group_id", c.groupID).Msg("Starting Kafka consumer")
	go c.consume(ctx)
}

func (c *KafkaConsumer) Stop() {
	logger.Info().Msg("Stopping Kafka consumer")
	close(c.stopChan)
	<-c.doneChan
	if err := c.reader.Close(); err != nil {
		logger.Error().Err(err).Msg("Error closing Kafka reader")
	}
	logger.Info().Msg("Kafka consumer stopped")
}

func (c *KafkaConsumer) consume(ctx context.Context) {
	defer close(c.doneChan)

	for {
		select {
		case <-c.stopChan:
			return
		default:
		}

		readCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		message, err := c.reader.FetchMessage(readCtx)
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			metrics.RecordKafkaError(serviceName, c.topic, "fetch")
			logger.Error().Err(err).Msg("Error fetching message")
			time.Sleep(time.Second)
			continue
		}

		c.handle(ctx, message)
	}
}

// handle processes one message and commits it. Group offsets are per partition, so a
// failed write is retried in place until it succeeds or the consumer stops; committing a
// later message would skip it. Malformed events are committed and skipped.
func (c *KafkaConsumer) handle(ctx context.Context, message kafka.Message) {
	start := time.Now()
	backoff := c.backoffMin

	for {
		err := c.processMessage(ctx, message)
		if err == nil {
			break
		}

		if errors.Is(err, service.ErrInvalidEvent) {
			metrics.RecordKafkaError(serviceName, c.topic, "invalid")
			logger.Warn().Err(err).
				Int64("offset", message.Offset).
				Int("partition", message.Partition).
				Msg("Skipping malformed review event")
			break
		}

		metrics.RecordKafkaError(serviceName, c.topic, "process")
		logger.Error().Err(err).
			Int64("offset", message.Offset).
			Int("partition", message.Partition).
			Dur("retry_in", backoff).
			Msg("Error processing message")

		if !c.wait(ctx, backoff) {
			logger.Warn().
				Int64("offset", message.Offset).
				Int("partition", message.Partition).
				Msg("Consumer stopping, message left uncommitted")
			return
		}
		backoff = min(backoff*2, c.backoffMax)
	}

	if err := c.reader.CommitMessages(ctx, message); err != nil {
		metrics.RecordKafkaError(serviceName, c.topic, "commit")
		logger.Error().Err(err).Msg("Error committing message")
		return
	}

	metrics.RecordKafkaMessageConsumed(serviceName, c.topic, c.groupID, time.Since(start))
}

// wait sleeps for d and reports false if the consumer was stopped first.
func (c *KafkaConsumer) wait(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	case <-c.stopChan:
		return false
	}
}

func (c *KafkaConsumer) processMessage(ctx context.Context, message kafka.Message) error {
	var event entity.ReviewEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return fmt.Errorf("%w: %v", service.ErrInvalidEvent, err)
	}

	logger.Debug().
		Str("event_type", event.EventType).
		Int64("review_id", event.ReviewID).
		Int64("offset", message.Offset).
		Int("partition", message.Partition).
		Msg("Received review event")

	if err := c.auditSvc.RecordEvent(ctx, &event); err != nil {
		return fmt.Errorf("failed to process review event: %w", err)
	}

	return nil
}

func (c *KafkaConsumer) GetStats() kafka.ReaderStats {
	return c.reader.Stats()
}
