package videos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/golive/internal/common"
	"github.com/dmitrijs2005/golive/internal/dbx"
	"github.com/dmitrijs2005/golive/internal/models"
)

const selectColumns = `id, title, description, category, video_path, thumbnail_path, owner_id, view_count, created_at`

// SQLRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type SQLRepository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
}

func NewSQLRepository(db dbx.DBTX, dialect dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

func (r *SQLRepository) Create(ctx context.Context, v *models.Video) error {
	query := `
		INSERT INTO videos (id, title, description, category, video_path, thumbnail_path, owner_id, view_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, r.dialect.Rebind(query),
		v.ID, v.Title, v.Description, v.Category, v.VideoAssetPath, v.ThumbnailAssetPath, v.OwnerID, v.ViewCount, v.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.NewMetadataError("videos.create", fmt.Errorf("%w: %w", common.ErrConflict, err))
		}
		return common.NewMetadataError("videos.create", fmt.Errorf("db error: %w", err))
	}
	return nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id string) (*models.Video, error) {
	query := `SELECT ` + selectColumns + ` FROM videos WHERE id = $1`

	v, err := scanVideo(r.db.QueryRowContext(ctx, r.dialect.Rebind(query), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NewMetadataError("videos.get", common.ErrNotFound)
		}
		return nil, common.NewMetadataError("videos.get", fmt.Errorf("db error: %w", err))
	}
	return v, nil
}

func (r *SQLRepository) List(ctx context.Context, category string, limit int) ([]*models.Video, error) {
	if category == "" {
		query := `SELECT ` + selectColumns + ` FROM videos ORDER BY created_at DESC LIMIT $1`
		return r.query(ctx, "videos.list", query, limit)
	}
	query := `SELECT ` + selectColumns + ` FROM videos WHERE category = $1 ORDER BY created_at DESC LIMIT $2`
	return r.query(ctx, "videos.list", query, category, limit)
}

func (r *SQLRepository) ListByOwner(ctx context.Context, ownerID string, limit int) ([]*models.Video, error) {
	query := `SELECT ` + selectColumns + ` FROM videos WHERE owner_id = $1 ORDER BY created_at DESC LIMIT $2`
	return r.query(ctx, "videos.list_by_owner", query, ownerID, limit)
}

// IncrementViewCount is a single UPDATE so concurrent viewers never lose
// an increment.
func (r *SQLRepository) IncrementViewCount(ctx context.Context, id string) (int64, error) {
	query := `UPDATE videos SET view_count = view_count + 1 WHERE id = $1 RETURNING view_count`

	var n int64
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(query), id).Scan(&n)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.NewMetadataError("videos.increment_views", common.ErrNotFound)
		}
		return 0, common.NewMetadataError("videos.increment_views", fmt.Errorf("db error: %w", err))
	}
	return n, nil
}

func (r *SQLRepository) query(ctx context.Context, op, query string, args ...any) ([]*models.Video, error) {
	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(query), args...)
	if err != nil {
		return nil, common.NewMetadataError(op, fmt.Errorf("failed to select videos: %w", err))
	}
	defer rows.Close()

	var result []*models.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, common.NewMetadataError(op, err)
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewMetadataError(op, err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVideo(s scanner) (*models.Video, error) {
	v := &models.Video{}
	err := s.Scan(&v.ID, &v.Title, &v.Description, &v.Category, &v.VideoAssetPath, &v.ThumbnailAssetPath,
		&v.OwnerID, &v.ViewCount, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	return v, nil
}
