package reclamations

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/golive/internal/common"
	"github.com/dmitrijs2005/golive/internal/dbtest"
	"github.com/dmitrijs2005/golive/internal/dbx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteRepo(t *testing.T) *SQLRepository {
	t.Helper()
	r := NewSQLRepository(dbtest.OpenSQLite(t), dbx.SQLite)
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return r
}

func TestEnqueueListDelete(t *testing.T) {
	r := newSQLiteRepo(t)
	ctx := context.Background()

	require.NoError(t, r.Enqueue(ctx, "videos", "u1/a.mp4", common.ReasonPublishAborted))
	require.NoError(t, r.Enqueue(ctx, "thumbnails", "u1/b.png", common.ReasonPublishAborted))
	require.NoError(t, r.Enqueue(ctx, "videos", "u1/a.mp4", "again"), "duplicate enqueue is a no-op")

	got, err := r.ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "videos", got[0].Bucket)
	assert.Equal(t, "u1/a.mp4", got[0].Key)
	assert.Equal(t, common.ReasonPublishAborted, got[0].Reason)
	assert.Equal(t, 0, got[0].Attempts)
	assert.Equal(t, "thumbnails", got[1].Bucket)

	require.NoError(t, r.Delete(ctx, got[0].ID))
	err = r.Delete(ctx, got[0].ID)
	require.ErrorIs(t, err, common.ErrNotFound)

	left, err := r.ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "u1/b.png", left[0].Key)
}

func TestMarkFailedMovesEntryBack(t *testing.T) {
	r := newSQLiteRepo(t)
	ctx := context.Background()

	require.NoError(t, r.Enqueue(ctx, "videos", "first", "r"))
	require.NoError(t, r.Enqueue(ctx, "videos", "second", "r"))

	pending, err := r.ListPending(ctx, 1)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "first", pending[0].Key)

	require.NoError(t, r.MarkFailed(ctx, pending[0].ID, errors.New("access denied")))

	pending, err = r.ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "second", pending[0].Key)
	assert.Equal(t, "first", pending[1].Key)
	assert.Equal(t, 1, pending[1].Attempts)
	assert.Equal(t, "access denied", pending[1].LastError)

	err = r.MarkFailed(ctx, "missing", errors.New("x"))
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestPostgres_EnqueueShape(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	r := NewSQLRepository(db, dbx.Postgres)
	r.newID = func() string { return "id-1" }

	mock.ExpectExec(`(?s)INSERT INTO asset_reclamations.*ON CONFLICT \(bucket, object_key\) DO NOTHING`).
		WithArgs("id-1", "videos", "k", "why", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, r.Enqueue(context.Background(), "videos", "k", "why"))

	mock.ExpectQuery(`(?s)FROM asset_reclamations.*LIMIT \$1\s+FOR UPDATE SKIP LOCKED`).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "bucket", "object_key", "reason", "attempts", "last_error", "created_at"}).
			AddRow("id-1", "videos", "k", "why", 0, "", time.Now()))
	got, err := r.ListPending(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "k", got[0].Key)

	mock.ExpectExec(`UPDATE asset_reclamations SET attempts = attempts \+ 1`).
		WithArgs("", "id-1").
		WillReturnError(errors.New("down"))
	err = r.MarkFailed(context.Background(), "id-1", nil)
	require.ErrorContains(t, err, "db error: down")

	require.NoError(t, mock.ExpectationsWereMet())
}
