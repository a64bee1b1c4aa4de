package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"shopreviews/reviews-service/internal/app/reviews/entity"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

var reviewColumns = []string{"id", "user_id", "product_id", "comment", "comment_date", "grade", "is_active"}

type ReviewRepositoryTestSuite struct {
	suite.Suite
	db    *gorm.DB
	mock  sqlmock.Sqlmock
	repo  ReviewRepository
	sqlDB *sql.DB
}

func TestReviewRepositorySuite(t *testing.T) {
	suite.Run(t, new(ReviewRepositoryTestSuite))
}

func (s *ReviewRepositoryTestSuite) SetupTest() {
	var err error
	s.sqlDB, s.mock, err = sqlmock.New()
	require.NoError(s.T(), err)

	s.db, err = Open(s.sqlDB)
	require.NoError(s.T(), err)

	s.repo = NewReviewRepository(s.db)
}

func (s *ReviewRepositoryTestSuite) TearDownTest() {
	s.sqlDB.Close()
}

func (s *ReviewRepositoryTestSuite) TestCreate_Success() {
	ctx := context.Background()
	comment := "Great"
	review := &entity.Review{
		UserID:      11,
		ProductID:   5,
		Comment:     &comment,
		CommentDate: time.Now().UTC(),
		Grade:       4,
		IsActive:    true,
	}

	s.mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "reviews"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

	err := s.repo.Create(ctx, review)

	s.NoError(err)
	s.Equal(int64(42), review.ID)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ReviewRepositoryTestSuite) TestCreate_DatabaseError() {
	ctx := context.Background()

	s.mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "reviews"`)).
		WillReturnError(errors.New("connection reset"))

	err := s.repo.Create(ctx, &entity.Review{UserID: 1, ProductID: 2, Grade: 3, IsActive: true})

	s.Error(err)
	s.Contains(err.Error(), "failed to create review")
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ReviewRepositoryTestSuite) TestListActive_Success() {
	ctx := context.Background()
	now := time.Now().UTC()

	rows := sqlmock.NewRows(reviewColumns).
		AddRow(1, 11, 5, "first", now, 5, true).
		AddRow(2, 12, 5, nil, now, 3, true)

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "reviews" WHERE is_active = $1 ORDER BY id ASC`)).
		WithArgs(true).
		WillReturnRows(rows)

	reviews, err := s.repo.ListActive(ctx)

	s.NoError(err)
	s.Len(reviews, 2)
	s.Equal(int64(1), reviews[0].ID)
	s.Equal("first", *reviews[0].Comment)
	s.Nil(reviews[1].Comment)
	s.True(reviews[1].IsActive)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ReviewRepositoryTestSuite) TestListActive_Empty() {
	ctx := context.Background()

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "reviews" WHERE is_active = $1`)).
		WillReturnRows(sqlmock.NewRows(reviewColumns))

	reviews, err := s.repo.ListActive(ctx)

	s.NoError(err)
	s.NotNil(reviews)
	s.Empty(reviews)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ReviewRepositoryTestSuite) TestGetActiveForUpdate_Success() {
	ctx := context.Background()

	rows := sqlmock.NewRows(reviewColumns).AddRow(7, 11, 5, nil, time.Now().UTC(), 2, true)
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "reviews" WHERE id = $1 AND is_active = $2`) + `.*FOR UPDATE`).
		WillReturnRows(rows)

	review, err := s.repo.GetActiveForUpdate(ctx, 7)

	s.NoError(err)
	s.Equal(int64(7), review.ID)
	s.Equal(int64(11), review.UserID)
	s.Equal(2, review.Grade)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ReviewRepositoryTestSuite) TestGetActiveForUpdate_NotFound() {
	ctx := context.Background()

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "reviews" WHERE id = $1 AND is_active = $2`)).
		WillReturnError(gorm.ErrRecordNotFound)

	review, err := s.repo.GetActiveForUpdate(ctx, 7)

	s.ErrorIs(err, ErrReviewNotFound)
	s.Nil(review)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ReviewRepositoryTestSuite) TestGetActiveForUpdate_NoRows() {
	ctx := context.Background()

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "reviews" WHERE id = $1 AND is_active = $2`)).
		WillReturnRows(sqlmock.NewRows(reviewColumns))

	_, err := s.repo.GetActiveForUpdate(ctx, 7)

	s.ErrorIs(err, ErrReviewNotFound)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ReviewRepositoryTestSuite) TestHasActive() {
	ctx := context.Background()

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "reviews" WHERE user_id = $1 AND product_id = $2 AND is_active = $3`)).
		WithArgs(11, 5, true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "reviews" WHERE user_id = $1 AND product_id = $2 AND is_active = $3`)).
		WithArgs(12, 5, true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	exists, err := s.repo.HasActive(ctx, 11, 5)
	s.NoError(err)
	s.True(exists)

	exists, err = s.repo.HasActive(ctx, 12, 5)
	s.NoError(err)
	s.False(exists)

	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ReviewRepositoryTestSuite) TestDeactivate_Success() {
	ctx := context.Background()

	s.mock.ExpectExec(regexp.QuoteMeta(`UPDATE "reviews" SET "is_active"=$1 WHERE id = $2 AND is_active = $3`)).
		WithArgs(false, 7, true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.repo.Deactivate(ctx, 7)

	s.NoError(err)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ReviewRepositoryTestSuite) TestDeactivate_AlreadyInactive() {
	ctx := context.Background()

	s.mock.ExpectExec(regexp.QuoteMeta(`UPDATE "reviews" SET "is_active"=$1 WHERE id = $2 AND is_active = $3`)).
		WithArgs(false, 7, true).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.repo.Deactivate(ctx, 7)

	s.ErrorIs(err, ErrReviewNotFound)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ReviewRepositoryTestSuite) TestActiveGradeStats() {
	ctx := context.Background()

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) AS count, COALESCE(SUM(grade), 0) AS sum FROM "reviews" WHERE product_id = $1 AND is_active = $2`)).
		WithArgs(5, true).
		WillReturnRows(sqlmock.NewRows([]string{"count", "sum"}).AddRow(2, 9))

	stats, err := s.repo.ActiveGradeStats(ctx, 5)

	s.NoError(err)
	s.Equal(GradeStats{Count: 2, Sum: 9}, stats)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ReviewRepositoryTestSuite) TestActiveGradeStats_NoReviews() {
	ctx := context.Background()

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) AS count, COALESCE(SUM(grade), 0) AS sum FROM "reviews"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count", "sum"}).AddRow(0, 0))

	stats, err := s.repo.ActiveGradeStats(ctx, 5)

	s.NoError(err)
	s.Zero(stats.Count)
	s.Zero(stats.Sum)
	s.NoError(s.mock.ExpectationsWereMet())
}
