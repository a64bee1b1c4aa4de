package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"shopreviews/reviews-service/internal/app/reviews/repository"
	"shopreviews/reviews-service/internal/app/reviews/repository/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int {
	return &v
}

func TestAverageRating(t *testing.T) {
	tests := []struct {
		name     string
		sum      int64
		count    int64
		expected *int
	}{
		{"no reviews", 0, 0, nil},
		{"single grade", 3, 1, intPtr(3)},
		{"exact mean", 12, 3, intPtr(4)},
		{"rounds down below half", 13, 3, intPtr(4)},
		{"rounds up above half", 14, 3, intPtr(5)},
		{"4.5 ties to even", 9, 2, intPtr(4)},
		{"3.5 ties to even", 7, 2, intPtr(4)},
		{"2.5 ties to even", 5, 2, intPtr(2)},
		{"1.5 ties to even", 3, 2, intPtr(2)},
		{"all fives", 500, 100, intPtr(5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AverageRating(tt.sum, tt.count))
		})
	}
}

// Grades [4, 5] average to 4.5: half-up would give 5, the stored rating is 4.
func TestAverageRating_HalfwayDiffersFromHalfUp(t *testing.T) {
	mean := 4.5
	halfUp := int(math.Floor(mean + 0.5))
	halfEven := int(math.RoundToEven(mean))

	got := AverageRating(9, 2)
	require.NotNil(t, got)

	assert.Equal(t, 5, halfUp)
	assert.Equal(t, halfEven, *got)
	assert.NotEqual(t, halfUp, *got)
}

func TestAverageRating_MatchesRoundToEven(t *testing.T) {
	for count := int64(1); count <= 6; count++ {
		for sum := count; sum <= 5*count; sum++ {
			got := AverageRating(sum, count)
			require.NotNil(t, got)
			assert.Equal(t, int(math.RoundToEven(float64(sum)/float64(count))), *got, "sum=%d count=%d", sum, count)
		}
	}
}

func TestRecompute_WritesRoundedMean(t *testing.T) {
	store := mocks.NewMockStore()
	aggregator := NewRatingAggregator(store)
	ctx := context.Background()

	store.ReviewRepo.On("ActiveGradeStats", ctx, int64(7)).Return(repository.GradeStats{Count: 2, Sum: 9}, nil)
	store.ProductRepo.On("SetRating", ctx, int64(7), intPtr(4)).Return(nil)

	rating, err := aggregator.Recompute(ctx, store, 7, TriggerCreate)

	require.NoError(t, err)
	assert.Equal(t, intPtr(4), rating)
	store.ProductRepo.AssertExpectations(t)
}

func TestRecompute_NoActiveReviewsClearsRating(t *testing.T) {
	store := mocks.NewMockStore()
	aggregator := NewRatingAggregator(store)
	ctx := context.Background()

	store.ReviewRepo.On("ActiveGradeStats", ctx, int64(7)).Return(repository.GradeStats{}, nil)
	store.ProductRepo.On("SetRating", ctx, int64(7), (*int)(nil)).Return(nil)

	rating, err := aggregator.Recompute(ctx, store, 7, TriggerDelete)

	require.NoError(t, err)
	assert.Nil(t, rating)
	store.ProductRepo.AssertExpectations(t)
}

func TestRecompute_StatsError(t *testing.T) {
	store := mocks.NewMockStore()
	aggregator := NewRatingAggregator(store)
	ctx := context.Background()

	store.ReviewRepo.On("ActiveGradeStats", ctx, int64(7)).Return(repository.GradeStats{}, errors.New("db error"))

	_, err := aggregator.Recompute(ctx, store, 7, TriggerCreate)

	assert.Error(t, err)
	store.ProductRepo.AssertNotCalled(t, "SetRating", mock.Anything, mock.Anything, mock.Anything)
}

func TestReconcileAll(t *testing.T) {
	store := mocks.NewMockStore()
	aggregator := NewRatingAggregator(store)
	ctx := context.Background()

	store.ProductRepo.On("ListRatedIDs", ctx).Return([]int64{1, 2, 3}, nil)

	store.ProductRepo.On("Lock", ctx, int64(1)).Return(nil)
	store.ReviewRepo.On("ActiveGradeStats", ctx, int64(1)).Return(repository.GradeStats{Count: 2, Sum: 7}, nil)
	store.ProductRepo.On("SetRating", ctx, int64(1), intPtr(4)).Return(nil)

	store.ProductRepo.On("Lock", ctx, int64(2)).Return(repository.ErrProductNotFound)

	store.ProductRepo.On("Lock", ctx, int64(3)).Return(nil)
	store.ReviewRepo.On("ActiveGradeStats", ctx, int64(3)).Return(repository.GradeStats{}, nil)
	store.ProductRepo.On("SetRating", ctx, int64(3), (*int)(nil)).Return(nil)

	updated, err := aggregator.ReconcileAll(ctx)

	require.NoError(t, err)
	assert.Equal(t, 2, updated)
	assert.Equal(t, 3, store.Transactions)
	store.ProductRepo.AssertExpectations(t)
}

func TestReconcileAll_ContinuesAfterFailure(t *testing.T) {
	store := mocks.NewMockStore()
	aggregator := NewRatingAggregator(store)
	ctx := context.Background()

	store.ProductRepo.On("ListRatedIDs", ctx).Return([]int64{1, 2}, nil)
	store.ProductRepo.On("Lock", ctx, int64(1)).Return(errors.New("lock timeout"))
	store.ProductRepo.On("Lock", ctx, int64(2)).Return(nil)
	store.ReviewRepo.On("ActiveGradeStats", ctx, int64(2)).Return(repository.GradeStats{Count: 1, Sum: 5}, nil)
	store.ProductRepo.On("SetRating", ctx, int64(2), intPtr(5)).Return(nil)

	updated, err := aggregator.ReconcileAll(ctx)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "product 1")
	assert.Equal(t, 1, updated)
}

func TestReconcileAll_ListError(t *testing.T) {
	store := mocks.NewMockStore()
	aggregator := NewRatingAggregator(store)
	ctx := context.Background()

	store.ProductRepo.On("ListRatedIDs", ctx).Return(nil, errors.New("db down"))

	updated, err := aggregator.ReconcileAll(ctx)

	assert.Error(t, err)
	assert.Zero(t, updated)
	assert.Zero(t, store.Transactions)
}
