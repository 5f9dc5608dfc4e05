package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/golive/internal/logging"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// JanitorService is the name reported by the gRPC health endpoint.
const JanitorService = "golive.janitor"

// listen is a seam for tests.
var listen = net.Listen

// Janitor runs the orphan reclaimer on a timer and exposes gRPC health and
// prometheus /metrics endpoints until its context ends or a signal arrives.
type Janitor struct {
	app    *App
	logger logging.Logger
	health *health.Server
}

func NewJanitor(a *App) *Janitor {
	return &Janitor{
		app:    a,
		logger: a.Logger.With("module", "janitor"),
		health: health.NewServer(),
	}
}

func (j *Janitor) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

// Run blocks until ctx is canceled or a component fails. The first
// component error is returned.
func (j *Janitor) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	j.initSignalHandler(ctx, cancelFunc)
	j.logger.Info(ctx, "Starting janitor...")

	healthLis, err := listen("tcp", j.app.Config.HealthAddrGRPC)
	if err != nil {
		return err
	}
	metricsLis, err := listen("tcp", j.app.Config.MetricsAddr)
	if err != nil {
		_ = healthLis.Close()
		return err
	}

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		if err == nil {
			return
		}
		once.Do(func() { firstErr = err })
		j.logger.Error(ctx, err.Error())
		cancelFunc()
	}

	interval := j.app.Config.ReclaimInterval
	if interval <= 0 {
		interval = time.Minute
	}

	wg.Add(4)
	go func() {
		defer wg.Done()
		fail(j.serveHealth(ctx, healthLis))
	}()
	go func() {
		defer wg.Done()
		fail(j.serveMetrics(ctx, metricsLis))
	}()
	go func() {
		defer wg.Done()
		j.watchDB(ctx, interval)
	}()
	go func() {
		defer wg.Done()
		fail(j.app.Reclaimer.Run(ctx, interval))
	}()

	wg.Wait()
	j.logger.Info(context.Background(), "Janitor stopped")
	return firstErr
}

func (j *Janitor) serveHealth(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, j.health)
	j.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	j.health.SetServingStatus(JanitorService, healthpb.HealthCheckResponse_SERVING)

	go func() {
		<-ctx.Done()
		j.logger.Info(ctx, "Stopping gRPC health server...")
		j.health.Shutdown()
		srv.GracefulStop()
	}()

	j.logger.Info(ctx, "Starting gRPC health server", "address", lis.Addr().String())
	if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

func (j *Janitor) serveMetrics(ctx context.Context, lis net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(j.app.Registry, promhttp.HandlerOpts{}))

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	j.logger.Info(ctx, "Starting metrics server", "address", lis.Addr().String())
	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// watchDB flips the health status with metadata store reachability.
func (j *Janitor) watchDB(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		status := healthpb.HealthCheckResponse_SERVING
		pingCtx, cancel := context.WithTimeout(ctx, interval)
		if err := j.app.DB.PingContext(pingCtx); err != nil {
			if ctx.Err() != nil {
				cancel()
				return
			}
			j.logger.Warn(ctx, "metadata store unreachable", "error", err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
		cancel()
		j.health.SetServingStatus(JanitorService, status)
	}
}
