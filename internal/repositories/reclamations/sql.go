package reclamations

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/golive/internal/common"
	"github.com/dmitrijs2005/golive/internal/dbx"
	"github.com/dmitrijs2005/golive/internal/models"
	"github.com/google/uuid"
)

type SQLRepository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
	now     func() time.Time
	newID   func() string
}

func NewSQLRepository(db dbx.DBTX, dialect dbx.Dialect) *SQLRepository {
	return &SQLRepository{
		db:      db,
		dialect: dialect,
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
}

func (r *SQLRepository) Enqueue(ctx context.Context, bucket, key, reason string) error {
	query := `
		INSERT INTO asset_reclamations (id, bucket, object_key, reason, attempts, last_error, created_at)
		VALUES ($1, $2, $3, $4, 0, '', $5)
		ON CONFLICT (bucket, object_key) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, r.dialect.Rebind(query), r.newID(), bucket, key, reason, r.now().UTC())
	if err != nil {
		return common.NewMetadataError("reclamations.enqueue", fmt.Errorf("db error: %w", err))
	}
	return nil
}

// ListPending locks the returned rows on postgres when called inside a
// transaction, so concurrent janitors claim disjoint batches.
func (r *SQLRepository) ListPending(ctx context.Context, limit int) ([]*models.Reclamation, error) {
	query := `
		SELECT id, bucket, object_key, reason, attempts, last_error, created_at
		FROM asset_reclamations
		ORDER BY attempts ASC, created_at ASC
		LIMIT $1
	`
	if r.dialect == dbx.Postgres {
		query += ` FOR UPDATE SKIP LOCKED`
	}
	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(query), limit)
	if err != nil {
		return nil, common.NewMetadataError("reclamations.list", fmt.Errorf("failed to select reclamations: %w", err))
	}
	defer rows.Close()

	var result []*models.Reclamation
	for rows.Next() {
		rc := &models.Reclamation{}
		if err := rows.Scan(&rc.ID, &rc.Bucket, &rc.Key, &rc.Reason, &rc.Attempts, &rc.LastError, &rc.CreatedAt); err != nil {
			return nil, common.NewMetadataError("reclamations.list", err)
		}
		result = append(result, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewMetadataError("reclamations.list", err)
	}
	return result, nil
}

func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM asset_reclamations WHERE id = $1`

	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(query), id)
	if err != nil {
		return common.NewMetadataError("reclamations.delete", fmt.Errorf("db error: %w", err))
	}
	return requireRow(res, "reclamations.delete")
}

func (r *SQLRepository) MarkFailed(ctx context.Context, id string, cause error) error {
	query := `UPDATE asset_reclamations SET attempts = attempts + 1, last_error = $1 WHERE id = $2`

	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(query), msg, id)
	if err != nil {
		return common.NewMetadataError("reclamations.mark_failed", fmt.Errorf("db error: %w", err))
	}
	return requireRow(res, "reclamations.mark_failed")
}

type rowsAffecter interface {
	RowsAffected() (int64, error)
}

func requireRow(res rowsAffecter, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return common.NewMetadataError(op, fmt.Errorf("rows affected error: %w", err))
	}
	if n == 0 {
		return common.NewMetadataError(op, common.ErrNotFound)
	}
	return nil
}
