package audit

import (
	"context"
	"fmt"
	"time"

	"shopreviews/reviews-service/internal/app/reviews/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoAuditRepository stores one document per review event, keyed by event id so that
// redelivered Kafka messages are written only once.
type MongoAuditRepository struct {
	collection *mongo.Collection
}

func NewMongoAuditRepository(collection *mongo.Collection) *MongoAuditRepository {
	return &MongoAuditRepository{collection: collection}
}

// EnsureIndexes creates the review_id index used by ListByReview.
func (r *MongoAuditRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "review_id", Value: 1}, {Key: "occurred_at", Value: -1}},
		Options: options.Index().SetName("review_id_occurred_at_idx"),
	})
	if err != nil {
		return fmt.Errorf("failed to create audit index: %w", err)
	}
	return nil
}

func (r *MongoAuditRepository) Append(ctx context.Context, entry entity.AuditEntry) error {
	if _, err := r.collection.InsertOne(ctx, entry); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

// ListByReview returns the audit entries of a review, newest first.
func (r *MongoAuditRepository) ListByReview(ctx context.Context, reviewID int64) ([]entity.AuditEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "occurred_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"review_id": reviewID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find audit entries: %w", err)
	}
	defer cursor.Close(ctx)

	entries := make([]entity.AuditEntry, 0)
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode audit entries: %w", err)
	}
	return entries, nil
}

func (r *MongoAuditRepository) Ping(ctx context.Context) error {
	return r.collection.Database().Client().Ping(ctx, readpref.Primary())
}
