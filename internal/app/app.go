// Package app constructs golive from a Config: the metadata store, the
// object store, the optional signed URL cache, metrics and every service.
// cmd/golive and cmd/janitor are thin wrappers around it.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/golive/internal/config"
	"github.com/dmitrijs2005/golive/internal/identity"
	"github.com/dmitrijs2005/golive/internal/logging"
	"github.com/dmitrijs2005/golive/internal/metrics"
	"github.com/dmitrijs2005/golive/internal/objectstore"
	"github.com/dmitrijs2005/golive/internal/repositories/repomanager"
	"github.com/dmitrijs2005/golive/internal/services"
	"github.com/dmitrijs2005/golive/internal/tracing"
	"github.com/dmitrijs2005/golive/internal/urlcache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Seams for tests.
var (
	openRepos      = repomanager.Open
	openStore      = objectstore.New
	openRedisCache = func(ctx context.Context, opts urlcache.Options) (urlCacheCloser, error) {
		return urlcache.NewRedisCache(ctx, opts)
	}
	setupTracing = tracing.Setup
)

const (
	serviceName     = "golive"
	shutdownTimeout = 5 * time.Second
)

type urlCacheCloser interface {
	services.URLCache
	Close() error
}

// App owns every long-lived dependency.
type App struct {
	Config   *config.Config
	Logger   logging.Logger
	DB       *sql.DB
	Repos    repomanager.RepositoryManager
	Store    objectstore.Store
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Identity identity.Verifier

	Upload     *services.UploadService
	Engagement *services.EngagementService
	Resolver   *services.AssetResolver
	Catalog    *services.CatalogService
	Reclaimer  *services.Reclaimer

	cache           urlCacheCloser
	shutdownTracing func(context.Context) error
}

// New connects to the stores named by cfg and migrates the schema.
func New(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	shutdownTracing, err := setupTracing(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		return nil, fmt.Errorf("tracing init error: %w", err)
	}

	db, repos, err := openRepos(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		_ = shutdownTracing(ctx)
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := repos.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		_ = shutdownTracing(ctx)
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	store, err := openStore(ctx, cfg.ObjectStoreBackend, objectstore.Options{
		Region:         cfg.S3Region,
		AccessKey:      cfg.S3RootUser,
		SecretKey:      cfg.S3RootPassword,
		Endpoint:       cfg.S3BaseEndpoint,
		PublicEndpoint: cfg.S3PublicEndpoint,
		UseSSL:         cfg.S3UseSSL,
	})
	if err != nil {
		_ = db.Close()
		_ = shutdownTracing(ctx)
		return nil, fmt.Errorf("object store init error: %w", err)
	}

	a := &App{
		Config:   cfg,
		Logger:   logger,
		DB:       db,
		Repos:    repos,
		Store:    store,
		Registry: prometheus.NewRegistry(),
		Identity: identity.NewJWTVerifier([]byte(cfg.JWTSecret)),

		shutdownTracing: shutdownTracing,
	}
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.Metrics = metrics.New(a.Registry)

	var cache services.URLCache
	if cfg.RedisAddr != "" {
		c, err := openRedisCache(ctx, urlcache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			logger.Warn(ctx, "signed url cache disabled", "addr", cfg.RedisAddr, "error", err)
		} else {
			a.cache = c
			cache = c
		}
	}

	buckets := services.Buckets{Videos: cfg.VideosBucket, Thumbnails: cfg.ThumbnailsBucket}

	a.Upload = services.NewUploadService(db, repos, store, buckets, logger, a.Metrics)
	a.Engagement = services.NewEngagementService(db, repos, cfg.ViewTimeout, logger, a.Metrics)
	a.Resolver = services.NewAssetResolver(store, buckets, cache, cfg.SignedURLCacheMargin, logger, a.Metrics)
	a.Catalog = services.NewCatalogService(db, repos, a.Resolver)
	a.Reclaimer = services.NewReclaimer(db, repos, store, cfg.ReclaimBatchSize, logger, a.Metrics)

	return a, nil
}

// Close drains background view increments and releases connections.
func (a *App) Close() error {
	a.Engagement.Wait()

	var errs []error
	if a.cache != nil {
		errs = append(errs, a.cache.Close())
	}
	errs = append(errs, a.DB.Close())

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	errs = append(errs, a.shutdownTracing(ctx))
	return errors.Join(errs...)
}
