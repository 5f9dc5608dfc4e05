package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/golive/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-l string     log level
//	-D string     database driver (postgres|sqlite)
//	-d string     database DSN
//	-o string     object store backend (s3|minio|memory)
//	-u string     S3 root user
//	-p string     S3 root password
//	-g string     S3 region
//	-e string     S3 base endpoint
//	-pe string    public endpoint for thumbnail URLs
//	-vb string    videos bucket
//	-tb string    thumbnails bucket
//	-r string     redis address for the signed URL cache
//	-s string     JWT secret shared with the identity provider
//	-a string     gRPC health address (janitor)
//	-m string     metrics address (janitor)
//	-i duration   reclaim interval (janitor)
//	-t string     OTLP/HTTP collector endpoint
//
// Args are filtered first so flags owned by other parsers (-c) are ignored.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{
		"-l", "-D", "-d", "-o", "-u", "-p", "-g", "-e", "-pe", "-vb", "-tb", "-r", "-s", "-a", "-m", "-i", "-t",
	})

	fs := flag.NewFlagSet("golive", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.DatabaseDriver, "D", cfg.DatabaseDriver, "database driver")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.ObjectStoreBackend, "o", cfg.ObjectStoreBackend, "object store backend")
	fs.StringVar(&cfg.S3RootUser, "u", cfg.S3RootUser, "S3 root user")
	fs.StringVar(&cfg.S3RootPassword, "p", cfg.S3RootPassword, "S3 root password")
	fs.StringVar(&cfg.S3Region, "g", cfg.S3Region, "S3 region")
	fs.StringVar(&cfg.S3BaseEndpoint, "e", cfg.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&cfg.S3PublicEndpoint, "pe", cfg.S3PublicEndpoint, "public endpoint for thumbnails")
	fs.StringVar(&cfg.VideosBucket, "vb", cfg.VideosBucket, "videos bucket")
	fs.StringVar(&cfg.ThumbnailsBucket, "tb", cfg.ThumbnailsBucket, "thumbnails bucket")
	fs.StringVar(&cfg.RedisAddr, "r", cfg.RedisAddr, "redis address")
	fs.StringVar(&cfg.JWTSecret, "s", cfg.JWTSecret, "JWT secret")
	fs.StringVar(&cfg.HealthAddrGRPC, "a", cfg.HealthAddrGRPC, "gRPC health address")
	fs.StringVar(&cfg.MetricsAddr, "m", cfg.MetricsAddr, "metrics address")
	fs.DurationVar(&cfg.ReclaimInterval, "i", cfg.ReclaimInterval, "reclaim interval")
	fs.StringVar(&cfg.OTLPEndpoint, "t", cfg.OTLPEndpoint, "OTLP collector endpoint")

	return fs.Parse(args)
}
