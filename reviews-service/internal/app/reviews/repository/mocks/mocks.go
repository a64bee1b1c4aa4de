package mocks

import (
	"context"

	"shopreviews/reviews-service/internal/app/reviews/entity"
	"shopreviews/reviews-service/internal/app/reviews/repository"

	"github.com/stretchr/testify/mock"
)

// MockReviewRepository mocks repository.ReviewRepository
type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) Create(ctx context.Context, review *entity.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *MockReviewRepository) ListActive(ctx context.Context) ([]entity.Review, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Review), args.Error(1)
}

func (m *MockReviewRepository) GetActiveForUpdate(ctx context.Context, id int64) (*entity.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Review), args.Error(1)
}

func (m *MockReviewRepository) HasActive(ctx context.Context, userID, productID int64) (bool, error) {
	args := m.Called(ctx, userID, productID)
	return args.Bool(0), args.Error(1)
}

func (m *MockReviewRepository) Deactivate(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockReviewRepository) ActiveGradeStats(ctx context.Context, productID int64) (repository.GradeStats, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).(repository.GradeStats), args.Error(1)
}

// MockProductRepository mocks repository.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindActiveForUpdate(ctx context.Context, id int64) (*entity.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Product), args.Error(1)
}

func (m *MockProductRepository) Lock(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProductRepository) SetRating(ctx context.Context, id int64, rating *int) error {
	args := m.Called(ctx, id, rating)
	return args.Error(0)
}

func (m *MockProductRepository) ListRatedIDs(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

// MockStore runs transactions inline against its repository mocks.
// CommitErr is returned after fn succeeds to simulate a failed commit.
type MockStore struct {
	ReviewRepo   *MockReviewRepository
	ProductRepo  *MockProductRepository
	CommitErr    error
	PingErr      error
	Transactions int
}

func NewMockStore() *MockStore {
	return &MockStore{
		ReviewRepo:  new(MockReviewRepository),
		ProductRepo: new(MockProductRepository),
	}
}

func (m *MockStore) Reviews() repository.ReviewRepository {
	return m.ReviewRepo
}

func (m *MockStore) Products() repository.ProductRepository {
	return m.ProductRepo
}

func (m *MockStore) WithinTransaction(ctx context.Context, fn func(tx repository.Store) error) error {
	m.Transactions++
	if err := fn(m); err != nil {
		return err
	}
	return m.CommitErr
}

func (m *MockStore) Ping(ctx context.Context) error {
	return m.PingErr
}

// MockReviewCache mocks infrastructure.ReviewCache
type MockReviewCache struct {
	mock.Mock
}

func (m *MockReviewCache) GetActiveReviews(ctx context.Context) ([]entity.Review, bool, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]entity.Review), args.Bool(1), args.Error(2)
}

func (m *MockReviewCache) Generation(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReviewCache) SetActiveReviews(ctx context.Context, gen int64, reviews []entity.Review) error {
	args := m.Called(ctx, gen, reviews)
	return args.Error(0)
}

func (m *MockReviewCache) InvalidateActiveReviews(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockReviewCache) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockReviewCache) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockMessagePublisher mocks the Kafka MessagePublisher and keeps published payloads.
type MockMessagePublisher struct {
	mock.Mock
	Messages [][]byte
}

func (m *MockMessagePublisher) PublishMessage(ctx context.Context, key string, value []byte) error {
	m.Messages = append(m.Messages, value)
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockMessagePublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockAuditRepository mocks infrastructure.AuditRepository
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Append(ctx context.Context, entry entity.AuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditRepository) ListByReview(ctx context.Context, reviewID int64) ([]entity.AuditEntry, error) {
	args := m.Called(ctx, reviewID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.AuditEntry), args.Error(1)
}

func (m *MockAuditRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
