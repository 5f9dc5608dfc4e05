package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/golive/internal/flagx"
	"github.com/dmitrijs2005/golive/internal/timex"
)

// JSONConfig mirrors Config for file decoding. Durations accept both Go
// duration strings and integer nanoseconds. Absent keys leave the current
// value untouched.
type JSONConfig struct {
	LogLevel             *string         `json:"log_level"`
	DatabaseDriver       *string         `json:"database_driver"`
	DatabaseDSN          *string         `json:"database_dsn"`
	ObjectStoreBackend   *string         `json:"object_store"`
	S3RootUser           *string         `json:"s3_root_user"`
	S3RootPassword       *string         `json:"s3_root_password"`
	S3Region             *string         `json:"s3_region"`
	S3BaseEndpoint       *string         `json:"s3_base_endpoint"`
	S3PublicEndpoint     *string         `json:"s3_public_endpoint"`
	S3UseSSL             *bool           `json:"s3_use_ssl"`
	VideosBucket         *string         `json:"videos_bucket"`
	ThumbnailsBucket     *string         `json:"thumbnails_bucket"`
	RedisAddr            *string         `json:"redis_addr"`
	RedisPassword        *string         `json:"redis_password"`
	RedisDB              *int            `json:"redis_db"`
	SignedURLCacheMargin *timex.Duration `json:"signed_url_cache_margin"`
	JWTSecret            *string         `json:"jwt_secret"`
	ViewTimeout          *timex.Duration `json:"view_timeout"`
	ReclaimInterval      *timex.Duration `json:"reclaim_interval"`
	ReclaimBatchSize     *int            `json:"reclaim_batch_size"`
	HealthAddrGRPC       *string         `json:"health_addr_grpc"`
	MetricsAddr          *string         `json:"metrics_addr"`
	OTLPEndpoint         *string         `json:"otlp_endpoint"`
}

// parseJSON overlays the file named by -c/-config, if any.
func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var c JSONConfig
	if err := json.Unmarshal(raw, &c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&cfg.LogLevel, c.LogLevel)
	setString(&cfg.DatabaseDriver, c.DatabaseDriver)
	setString(&cfg.DatabaseDSN, c.DatabaseDSN)
	setString(&cfg.ObjectStoreBackend, c.ObjectStoreBackend)
	setString(&cfg.S3RootUser, c.S3RootUser)
	setString(&cfg.S3RootPassword, c.S3RootPassword)
	setString(&cfg.S3Region, c.S3Region)
	setString(&cfg.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&cfg.S3PublicEndpoint, c.S3PublicEndpoint)
	if c.S3UseSSL != nil {
		cfg.S3UseSSL = *c.S3UseSSL
	}
	setString(&cfg.VideosBucket, c.VideosBucket)
	setString(&cfg.ThumbnailsBucket, c.ThumbnailsBucket)
	setString(&cfg.RedisAddr, c.RedisAddr)
	setString(&cfg.RedisPassword, c.RedisPassword)
	if c.RedisDB != nil {
		cfg.RedisDB = *c.RedisDB
	}
	setDuration(&cfg.SignedURLCacheMargin, c.SignedURLCacheMargin)
	setString(&cfg.JWTSecret, c.JWTSecret)
	setDuration(&cfg.ViewTimeout, c.ViewTimeout)
	setDuration(&cfg.ReclaimInterval, c.ReclaimInterval)
	if c.ReclaimBatchSize != nil {
		cfg.ReclaimBatchSize = *c.ReclaimBatchSize
	}
	setString(&cfg.HealthAddrGRPC, c.HealthAddrGRPC)
	setString(&cfg.MetricsAddr, c.MetricsAddr)
	setString(&cfg.OTLPEndpoint, c.OTLPEndpoint)
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
