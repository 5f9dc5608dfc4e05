package comments

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/golive/internal/common"
	"github.com/dmitrijs2005/golive/internal/dbx"
	"github.com/dmitrijs2005/golive/internal/models"
)

type SQLRepository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
}

func NewSQLRepository(db dbx.DBTX, dialect dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

func (r *SQLRepository) Create(ctx context.Context, c *models.Comment) error {
	query := `
		INSERT INTO comments (id, video_id, user_id, content, like_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, r.dialect.Rebind(query),
		c.ID, c.VideoID, c.UserID, c.Content, c.LikeCount, c.CreatedAt)
	if err != nil {
		switch {
		case dbx.IsForeignKeyViolation(err):
			return common.NewMetadataError("comments.create", fmt.Errorf("video %s: %w", c.VideoID, common.ErrNotFound))
		case dbx.IsUniqueViolation(err):
			return common.NewMetadataError("comments.create", fmt.Errorf("%w: %w", common.ErrConflict, err))
		}
		return common.NewMetadataError("comments.create", fmt.Errorf("db error: %w", err))
	}
	return nil
}

func (r *SQLRepository) ListByVideo(ctx context.Context, videoID string, limit int) ([]*models.Comment, error) {
	query := `
		SELECT id, video_id, user_id, content, like_count, created_at
		FROM comments
		WHERE video_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(query), videoID, limit)
	if err != nil {
		return nil, common.NewMetadataError("comments.list", fmt.Errorf("failed to select comments: %w", err))
	}
	defer rows.Close()

	var result []*models.Comment
	for rows.Next() {
		c := &models.Comment{}
		if err := rows.Scan(&c.ID, &c.VideoID, &c.UserID, &c.Content, &c.LikeCount, &c.CreatedAt); err != nil {
			return nil, common.NewMetadataError("comments.list", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewMetadataError("comments.list", err)
	}
	return result, nil
}
