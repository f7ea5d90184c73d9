package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/gogotex/widgets/internal/config"
	"github.com/gogotex/widgets/internal/oidc"
	"github.com/gogotex/widgets/internal/widget/service"
	"github.com/gogotex/widgets/pkg/logger"
	"github.com/gogotex/widgets/pkg/metrics"
	"github.com/gogotex/widgets/pkg/middleware"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.Server.LogLevel)
	logger.Infof("config loaded: backend=%s database=%s container=%s env=%s", cfg.Store.Backend, cfg.Store.Database, cfg.Store.Container, cfg.Server.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger.Default(), cfg); err != nil {
		logger.Fatalf("%v", err)
	}
}

func run(ctx context.Context, l log.Logger, cfg *config.Config) error {
	store, closeStore, err := openStore(ctx, l, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closeStore()

	initCtx, cancel := context.WithTimeout(ctx, cfg.Store.Timeout)
	err = service.NewInitializer(l, store, cfg.Store.Database, cfg.Store.Container).EnsureReady(initCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}

	widgets := service.NewWidgets(l, store,
		service.WithUpdateMode(cfg.Widgets.UpdateMode),
		service.WithUpdateRetries(cfg.Widgets.UpdateRetries),
	)

	var rdb *redis.Client
	if addr := cfg.Redis.Addr(); addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s): %v", addr, err)
			rdb = nil
		} else {
			logger.Infof("connected to Redis: %s", addr)
		}
	}

	var verifier middleware.Verifier
	if cfg.OIDC.Issuer != "" {
		v, err := oidc.NewVerifier(ctx, cfg.OIDC.Issuer, cfg.OIDC.ClientID)
		if err != nil {
			return fmt.Errorf("oidc: %w", err)
		}
		verifier = v
		logger.Infof("bearer authentication enabled: issuer=%s", cfg.OIDC.Issuer)
	}

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)

	r := newRouter(deps{
		cfg:      cfg,
		logger:   l,
		pinger:   store,
		widgets:  widgets,
		verifier: verifier,
		redis:    rdb,
		gatherer: prometheus.DefaultGatherer,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("starting widgets service on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
