package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/redis/go-redis/v9"

	"github.com/gogotex/widgets/pkg/metrics"
)

// RedisRateLimitMiddleware provides a fixed-window limiter shared by every
// replica through Redis. Each key may make floor(rps*window)+burst requests
// per window. A nil client falls back to the in-memory limiter.
func RedisRateLimitMiddleware(l log.Logger, client *redis.Client, rps float64, burst int, window time.Duration) gin.HandlerFunc {
	if client == nil {
		return RateLimitMiddleware(rps, burst)
	}
	if l == nil {
		l = log.NewNopLogger()
	}
	windowSeconds := int(window.Seconds())
	if windowSeconds <= 0 {
		windowSeconds = 1
	}
	allowed := int64(rps*float64(windowSeconds)) + int64(burst)

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		bucket := time.Now().Unix() / int64(windowSeconds)
		redisKey := fmt.Sprintf("rl:%s:%d", limiterKey(c), bucket)

		cnt, err := client.Incr(ctx, redisKey).Result()
		if err != nil {
			level.Error(l).Log("msg", "rate limit check failed", "key", redisKey, "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Rate limit check failed"})
			return
		}
		if cnt == 1 {
			_ = client.Expire(ctx, redisKey, time.Duration(windowSeconds+1)*time.Second).Err()
		}
		if cnt > allowed {
			c.Header("Retry-After", strconv.Itoa(windowSeconds))
			metrics.RateLimitRejected.WithLabelValues("redis").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("redis").Inc()
		c.Next()
	}
}
