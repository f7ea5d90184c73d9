package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/gogotex/widgets/internal/config"
	"github.com/gogotex/widgets/internal/widget/handler"
	"github.com/gogotex/widgets/internal/widget/repository"
	"github.com/gogotex/widgets/internal/widget/service"
	"github.com/gogotex/widgets/pkg/middleware"
)

const readyTimeout = 2 * time.Second

type deps struct {
	cfg      *config.Config
	logger   log.Logger
	pinger   repository.Pinger
	widgets  service.Service
	verifier middleware.Verifier
	redis    *redis.Client
	gatherer prometheus.Gatherer
}

// rateLimiter returns a fresh limiter per route group, or nil when disabled.
func (d deps) rateLimiter() gin.HandlerFunc {
	rl := d.cfg.RateLimit
	if !rl.Enabled {
		return nil
	}
	if rl.UseRedis && d.redis != nil {
		return middleware.RedisRateLimitMiddleware(d.logger, d.redis, rl.RPS, rl.Burst, rl.Window)
	}
	return middleware.RateLimitMiddleware(rl.RPS, rl.Burst)
}

func newRouter(d deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// probes and docs are limited per client IP
	open := r.Group("/")
	if lim := d.rateLimiter(); lim != nil {
		open.Use(lim)
	}

	open.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	open.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
		defer cancel()
		if err := d.pinger.Ping(ctx); err != nil {
			level.Warn(d.logger).Log("msg", "readiness check failed", "err", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "backend": d.cfg.Store.Backend})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "backend": d.cfg.Store.Backend})
	})

	open.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.gatherer, promhttp.HandlerOpts{})))
	handler.RegisterSwagger(open)

	// the widget API is limited after auth so verified callers get their own bucket
	api := r.Group("/")
	if d.verifier != nil {
		api.Use(middleware.AuthMiddleware(d.logger, d.verifier))
	}
	if lim := d.rateLimiter(); lim != nil {
		api.Use(lim)
	}
	handler.RegisterWidgetRoutes(api, d.widgets)
	return r
}
