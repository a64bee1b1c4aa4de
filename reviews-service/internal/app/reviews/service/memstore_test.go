package service

import (
	"context"
	"sort"
	"sync"

	"shopreviews/reviews-service/internal/app/reviews/entity"
	"shopreviews/reviews-service/internal/app/reviews/repository"
)

// memStore is an in-memory repository.Store used to run whole create/delete flows.
// Transactions hold a single mutex and are not rolled back.
type memStore struct {
	mu       sync.Mutex
	products map[int64]*entity.Product
	reviews  []*entity.Review
	nextID   int64
}

func newMemStore(products ...entity.Product) *memStore {
	s := &memStore{products: make(map[int64]*entity.Product)}
	for i := range products {
		p := products[i]
		s.products[p.ID] = &p
	}
	return s
}

func (s *memStore) Reviews() repository.ReviewRepository   { return memReviews{s} }
func (s *memStore) Products() repository.ProductRepository { return memProducts{s} }
func (s *memStore) Ping(context.Context) error             { return nil }

func (s *memStore) WithinTransaction(ctx context.Context, fn func(tx repository.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s)
}

func (s *memStore) rating(productID int64) *int {
	return s.products[productID].Rating
}

type memReviews struct{ s *memStore }

func (r memReviews) Create(_ context.Context, review *entity.Review) error {
	r.s.nextID++
	review.ID = r.s.nextID
	stored := *review
	r.s.reviews = append(r.s.reviews, &stored)
	return nil
}

func (r memReviews) ListActive(context.Context) ([]entity.Review, error) {
	result := make([]entity.Review, 0)
	for _, review := range r.s.reviews {
		if review.IsActive {
			result = append(result, *review)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r memReviews) GetActiveForUpdate(_ context.Context, id int64) (*entity.Review, error) {
	for _, review := range r.s.reviews {
		if review.ID == id && review.IsActive {
			found := *review
			return &found, nil
		}
	}
	return nil, repository.ErrReviewNotFound
}

func (r memReviews) HasActive(_ context.Context, userID, productID int64) (bool, error) {
	for _, review := range r.s.reviews {
		if review.UserID == userID && review.ProductID == productID && review.IsActive {
			return true, nil
		}
	}
	return false, nil
}

func (r memReviews) Deactivate(_ context.Context, id int64) error {
	for _, review := range r.s.reviews {
		if review.ID == id && review.IsActive {
			review.IsActive = false
			return nil
		}
	}
	return repository.ErrReviewNotFound
}

func (r memReviews) ActiveGradeStats(_ context.Context, productID int64) (repository.GradeStats, error) {
	var stats repository.GradeStats
	for _, review := range r.s.reviews {
		if review.ProductID == productID && review.IsActive {
			stats.Count++
			stats.Sum += int64(review.Grade)
		}
	}
	return stats, nil
}

type memProducts struct{ s *memStore }

func (p memProducts) FindActiveForUpdate(_ context.Context, id int64) (*entity.Product, error) {
	product, ok := p.s.products[id]
	if !ok || !product.IsActive {
		return nil, repository.ErrProductNotFound
	}
	found := *product
	return &found, nil
}

func (p memProducts) Lock(_ context.Context, id int64) error {
	if _, ok := p.s.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	return nil
}

func (p memProducts) SetRating(_ context.Context, id int64, rating *int) error {
	product, ok := p.s.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	product.Rating = rating
	return nil
}

func (p memProducts) ListRatedIDs(context.Context) ([]int64, error) {
	seen := make(map[int64]bool)
	for id, product := range p.s.products {
		if product.Rating != nil {
			seen[id] = true
		}
	}
	for _, review := range p.s.reviews {
		seen[review.ProductID] = true
	}
	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
