package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (Store, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	// gorm pings once while opening
	mock.ExpectPing()
	db, err := Open(sqlDB)
	require.NoError(t, err)

	return NewStore(db), mock
}

func TestWithinTransaction_Commit(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "products" SET "rating"=$1 WHERE id = $2`)).
		WithArgs(5, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.WithinTransaction(ctx, func(tx Store) error {
		rating := 5
		return tx.Products().SetRating(ctx, 1, &rating)
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTransaction_RollbackOnError(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()
	failure := errors.New("duplicate")

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "reviews"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	err := store.WithinTransaction(ctx, func(tx Store) error {
		exists, err := tx.Reviews().HasActive(ctx, 1, 2)
		if err != nil {
			return err
		}
		if exists {
			return failure
		}
		return nil
	})

	assert.ErrorIs(t, err, failure)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPing(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectPing()
	assert.NoError(t, store.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("down"))
	assert.Error(t, store.Ping(context.Background()))

	assert.NoError(t, mock.ExpectationsWereMet())
}
