package channels

import (
	"context"
	"database/sql"
	"errors"
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

func (r *SQLRepository) Upsert(ctx context.Context, c *models.Channel) error {
	query := `
		INSERT INTO channels (id, name, avatar_path, banner_path, subscriber_count, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			avatar_path = EXCLUDED.avatar_path,
			banner_path = EXCLUDED.banner_path,
			description = EXCLUDED.description
	`
	_, err := r.db.ExecContext(ctx, r.dialect.Rebind(query),
		c.ID, c.Name, c.AvatarAssetPath, c.BannerAssetPath, c.SubscriberCount, c.Description)
	if err != nil {
		return common.NewMetadataError("channels.upsert", fmt.Errorf("db error: %w", err))
	}
	return nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id string) (*models.Channel, error) {
	query := `
		SELECT id, name, avatar_path, banner_path, subscriber_count, description
		FROM channels
		WHERE id = $1
	`
	c := &models.Channel{}
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(query), id).
		Scan(&c.ID, &c.Name, &c.AvatarAssetPath, &c.BannerAssetPath, &c.SubscriberCount, &c.Description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NewMetadataError("channels.get", common.ErrNotFound)
		}
		return nil, common.NewMetadataError("channels.get", fmt.Errorf("db error: %w", err))
	}
	return c, nil
}
