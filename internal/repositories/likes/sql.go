package likes

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/golive/internal/common"
	"github.com/dmitrijs2005/golive/internal/dbx"
)

// SQLRepository implements Repository over a dbx.DBTX.
type SQLRepository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
	now     func() time.Time
}

func NewSQLRepository(db dbx.DBTX, dialect dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect, now: time.Now}
}

func (r *SQLRepository) Insert(ctx context.Context, videoID, userID string) (bool, error) {
	query := `
		INSERT INTO video_likes (video_id, user_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (video_id, user_id) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(query), videoID, userID, r.now().UTC())
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return false, common.NewMetadataError("likes.insert", fmt.Errorf("video %s: %w", videoID, common.ErrNotFound))
		}
		return false, common.NewMetadataError("likes.insert", fmt.Errorf("db error: %w", err))
	}
	return affectedOne(res, "likes.insert")
}

func (r *SQLRepository) Delete(ctx context.Context, videoID, userID string) (bool, error) {
	query := `DELETE FROM video_likes WHERE video_id = $1 AND user_id = $2`

	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(query), videoID, userID)
	if err != nil {
		return false, common.NewMetadataError("likes.delete", fmt.Errorf("db error: %w", err))
	}
	return affectedOne(res, "likes.delete")
}

func (r *SQLRepository) Exists(ctx context.Context, videoID, userID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM video_likes WHERE video_id = $1 AND user_id = $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, r.dialect.Rebind(query), videoID, userID).Scan(&exists); err != nil {
		return false, common.NewMetadataError("likes.exists", fmt.Errorf("db error: %w", err))
	}
	return exists, nil
}

func (r *SQLRepository) CountByVideo(ctx context.Context, videoID string) (int64, error) {
	query := `SELECT COUNT(*) FROM video_likes WHERE video_id = $1`

	var n int64
	if err := r.db.QueryRowContext(ctx, r.dialect.Rebind(query), videoID).Scan(&n); err != nil {
		return 0, common.NewMetadataError("likes.count", fmt.Errorf("db error: %w", err))
	}
	return n, nil
}

type rowsAffecter interface {
	RowsAffected() (int64, error)
}

func affectedOne(res rowsAffecter, op string) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, common.NewMetadataError(op, fmt.Errorf("rows affected error: %w", err))
	}
	switch n {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, common.NewMetadataError(op, fmt.Errorf("unexpected rows affected: %d", n))
	}
}
