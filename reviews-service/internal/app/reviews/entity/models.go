package entity

import (
	"time"
)

// Role names carried in the JWT role_name claim.
const (
	RoleBuyer = "buyer"
	RoleAdmin = "admin"
)

// Review is a buyer's review of a product. Reviews are never removed; deletion clears IsActive.
type Review struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	UserID      int64     `json:"user_id" gorm:"not null;index:idx_reviews_user_product"`
	ProductID   int64     `json:"product_id" gorm:"not null;index:idx_reviews_user_product;index"`
	Comment     *string   `json:"comment" gorm:"type:text"`
	CommentDate time.Time `json:"comment_date" gorm:"not null"`
	Grade       int       `json:"grade" gorm:"not null"`
	IsActive    bool      `json:"is_active" gorm:"not null;default:true"`
}

func (Review) TableName() string {
	return "reviews"
}

// Product is the slice of the catalog's products table this service reads and writes.
// Rating is nil while the product has no active reviews.
type Product struct {
	ID       int64  `json:"id" gorm:"primaryKey"`
	Name     string `json:"name" gorm:"not null"`
	IsActive bool   `json:"is_active" gorm:"not null;default:true"`
	Rating   *int   `json:"rating"`
}

func (Product) TableName() string {
	return "products"
}

// Principal is the authenticated caller.
type Principal struct {
	ID   int64
	Role string
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Event types published on the review topic.
const (
	EventTypeReviewCreated = "REVIEW_CREATED"
	EventTypeReviewDeleted = "REVIEW_DELETED"
)

// ReviewEvent is the Kafka payload for review lifecycle changes.
type ReviewEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	ReviewID  int64     `json:"review_id"`
	ProductID int64     `json:"product_id"`
	UserID    int64     `json:"user_id"`
	ActorID   int64     `json:"actor_id"`
	ActorRole string    `json:"actor_role"`
	Grade     int       `json:"grade"`
	Rating    *int      `json:"rating"` // product rating after the change
	Timestamp time.Time `json:"timestamp"`
}

// AuditEntry is one stored review event in the audit trail.
type AuditEntry struct {
	EventID    string    `json:"event_id" bson:"_id"`
	EventType  string    `json:"event_type" bson:"event_type"`
	ReviewID   int64     `json:"review_id" bson:"review_id"`
	ProductID  int64     `json:"product_id" bson:"product_id"`
	UserID     int64     `json:"user_id" bson:"user_id"`
	ActorID    int64     `json:"actor_id" bson:"actor_id"`
	ActorRole  string    `json:"actor_role" bson:"actor_role"`
	Grade      int       `json:"grade" bson:"grade"`
	Rating     *int      `json:"rating" bson:"rating"`
	OccurredAt time.Time `json:"occurred_at" bson:"occurred_at"`
	RecordedAt time.Time `json:"recorded_at" bson:"recorded_at"`
}

// NewAuditEntry converts a consumed event into its stored form.
func NewAuditEntry(event ReviewEvent, recordedAt time.Time) AuditEntry {
	return AuditEntry{
		EventID:    event.EventID,
		EventType:  event.EventType,
		ReviewID:   event.ReviewID,
		ProductID:  event.ProductID,
		UserID:     event.UserID,
		ActorID:    event.ActorID,
		ActorRole:  event.ActorRole,
		Grade:      event.Grade,
		Rating:     event.Rating,
		OccurredAt: event.Timestamp,
		RecordedAt: recordedAt,
	}
}
