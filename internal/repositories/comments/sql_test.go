package comments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/golive/internal/common"
	"github.com/dmitrijs2005/golive/internal/dbtest"
	"github.com/dmitrijs2005/golive/internal/dbx"
	"github.com/dmitrijs2005/golive/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteRepo(t *testing.T, videoIDs ...string) *SQLRepository {
	t.Helper()
	db := dbtest.OpenSQLite(t)
	dbtest.SeedVideos(t, db, videoIDs...)
	return NewSQLRepository(db, dbx.SQLite)
}

func TestCreateAndListNewestFirst(t *testing.T) {
	r := newSQLiteRepo(t, "v1", "v2")
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, id := range []string{"c1", "c2", "c3"} {
		require.NoError(t, r.Create(ctx, &models.Comment{
			ID: id, VideoID: "v1", UserID: "u1", Content: "comment " + id,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, r.Create(ctx, &models.Comment{
		ID: "other", VideoID: "v2", UserID: "u1", Content: "elsewhere", CreatedAt: base,
	}))

	got, err := r.ListByVideo(ctx, "v1", 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "c3", got[0].ID)
	assert.Equal(t, "c2", got[1].ID)
	assert.Equal(t, "c1", got[2].ID)
	assert.True(t, got[0].CreatedAt.Equal(base.Add(2*time.Minute)))

	limited, err := r.ListByVideo(ctx, "v1", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "c3", limited[0].ID)
}

func TestCreate_BlankContentRejectedBySchema(t *testing.T) {
	r := newSQLiteRepo(t, "v1")

	err := r.Create(context.Background(), &models.Comment{
		ID: "c1", VideoID: "v1", UserID: "u1", Content: "   ", CreatedAt: time.Now().UTC(),
	})
	require.Error(t, err)
	assert.True(t, common.IsMetadataError(err))
}

func TestCreate_MissingVideoRejected(t *testing.T) {
	r := newSQLiteRepo(t)
	ctx := context.Background()

	err := r.Create(ctx, &models.Comment{
		ID: "c1", VideoID: "no-such-video", UserID: "u1", Content: "hi", CreatedAt: time.Now().UTC(),
	})
	require.ErrorIs(t, err, common.ErrNotFound)
	assert.True(t, common.IsMetadataError(err))

	got, err := r.ListByVideo(ctx, "no-such-video", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCreate_DuplicateIDIsConflict(t *testing.T) {
	r := newSQLiteRepo(t, "v1")
	ctx := context.Background()

	c := &models.Comment{ID: "c1", VideoID: "v1", UserID: "u1", Content: "hi", CreatedAt: time.Now().UTC()}
	require.NoError(t, r.Create(ctx, c))

	err := r.Create(ctx, c)
	require.ErrorIs(t, err, common.ErrConflict)
	assert.True(t, common.IsMetadataError(err))
}

func TestListByVideo_Empty(t *testing.T) {
	r := newSQLiteRepo(t)

	got, err := r.ListByVideo(context.Background(), "nope", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPostgres_Errors(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	r := NewSQLRepository(db, dbx.Postgres)
	ctx := context.Background()

	mock.ExpectExec(`INSERT INTO comments`).WillReturnError(errors.New("fk violation"))
	err = r.Create(ctx, &models.Comment{ID: "c1", VideoID: "v1", UserID: "u1", Content: "hi"})
	require.ErrorContains(t, err, "db error: fk violation")

	mock.ExpectQuery(`(?s)SELECT .* FROM comments\s+WHERE video_id = \$1\s+ORDER BY created_at DESC`).
		WithArgs("v1", 5).
		WillReturnError(errors.New("down"))
	_, err = r.ListByVideo(ctx, "v1", 5)
	require.ErrorContains(t, err, "failed to select comments")

	rows := sqlmock.NewRows([]string{"id", "video_id", "user_id", "content", "like_count", "created_at"}).
		AddRow("c1", "v1", "u1", "x", 0, time.Now()).
		RowError(0, errors.New("row broken"))
	mock.ExpectQuery(`SELECT .* FROM comments`).WillReturnRows(rows)
	_, err = r.ListByVideo(ctx, "v1", 5)
	require.Error(t, err)
	assert.True(t, common.IsMetadataError(err))

	require.NoError(t, mock.ExpectationsWereMet())
}
