package ratelimit

import (
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/shiplane/platform/internal/config"
	"go.uber.org/fx"
)

// NewRedisClient returns nil when no redis address is configured; everything
// downstream treats a nil client as "limiting disabled".
func NewRedisClient(cfg config.Config) *redis.Client {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.RedisPassword,
	})
}

var Module = fx.Module("ratelimit",
	fx.Provide(
		NewRedisClient,
		NewTokenBucket,
		NewRequestLimiter,
	),
)
