package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/golive/internal/dbx"
	"github.com/dmitrijs2005/golive/internal/logging"
	"github.com/dmitrijs2005/golive/internal/metrics"
	"github.com/dmitrijs2005/golive/internal/objectstore"
	"github.com/dmitrijs2005/golive/internal/repositories/repomanager"
	"github.com/dmitrijs2005/golive/internal/tracing"
)

// DefaultReclaimBatchSize is used when a non-positive batch size is given.
const DefaultReclaimBatchSize = 50

// Reclaimer deletes blobs queued by aborted publishes whose immediate
// cleanup failed.
type Reclaimer struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       objectstore.Store
	batchSize   int
	logger      logging.Logger
	metrics     *metrics.Metrics
}

func NewReclaimer(db *sql.DB, rm repomanager.RepositoryManager, store objectstore.Store, batchSize int,
	logger logging.Logger, m *metrics.Metrics) *Reclaimer {
	if batchSize <= 0 {
		batchSize = DefaultReclaimBatchSize
	}
	return &Reclaimer{
		db:          db,
		repomanager: rm,
		store:       store,
		batchSize:   batchSize,
		logger:      logger.With("module", "reclaimer"),
		metrics:     m,
	}
}

// RunOnce claims one batch inside a transaction and deletes its blobs.
// Entries whose blob was deleted are removed; the others get their attempt
// counter bumped. It returns the number of reclaimed blobs.
func (r *Reclaimer) RunOnce(ctx context.Context) (_ int, err error) {
	ctx, span := tracing.Start(ctx, "reclaimer.run_once")
	defer func() { tracing.End(span, err) }()

	reclaimed := 0
	err = dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := r.repomanager.Reclamations(tx)

		pending, err := repo.ListPending(ctx, r.batchSize)
		if err != nil {
			return err
		}

		for _, p := range pending {
			if derr := r.store.Delete(ctx, p.Bucket, p.Key); derr != nil {
				r.metrics.RecordReclaim(metrics.ResultError)
				r.logger.Warn(ctx, "reclaim failed", "bucket", p.Bucket, "key", p.Key,
					"attempts", p.Attempts+1, "error", derr)
				if err := repo.MarkFailed(ctx, p.ID, derr); err != nil {
					return err
				}
				continue
			}
			if err := repo.Delete(ctx, p.ID); err != nil {
				return err
			}
			r.metrics.RecordReclaim(metrics.ResultOK)
			reclaimed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return reclaimed, nil
}

// Run calls RunOnce every interval until ctx is done.
func (r *Reclaimer) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		n, err := r.RunOnce(ctx)
		switch {
		case err != nil && !errors.Is(err, context.Canceled):
			r.logger.Error(ctx, "reclaim pass failed", "error", err)
		case n > 0:
			r.logger.Info(ctx, "reclaimed orphaned blobs", "count", n)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
