package ratelimit

import (
	"context"
	"fmt"
	"strings"

	"github.com/shiplane/platform/internal/config"
	"go.uber.org/zap"
)

const (
	keyLogin        = "login:ip:%s"
	keyModuleToggle = "modules:toggle:%s"
)

// RequestLimiter throttles login attempts and module toggles. A nil limiter
// allows everything, so deployments without redis keep working.
type RequestLimiter struct {
	bucket  *TokenBucket
	runtime *config.RuntimeConfigHolder
	log     *zap.Logger
}

func NewRequestLimiter(bucket *TokenBucket, runtime *config.RuntimeConfigHolder, log *zap.Logger) *RequestLimiter {
	if bucket == nil {
		return nil
	}
	return &RequestLimiter{
		bucket:  bucket,
		runtime: runtime,
		log:     log.Named("ratelimit"),
	}
}

func (l *RequestLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

// AllowLogin throttles by client address. Limiter faults allow the request;
// losing redis must not lock everyone out.
func (l *RequestLimiter) AllowLogin(ctx context.Context, clientIP string) bool {
	return l.allow(ctx, fmt.Sprintf(keyLogin, strings.TrimSpace(clientIP)), l.loginRate())
}

func (l *RequestLimiter) AllowModuleToggle(ctx context.Context, companyID string) bool {
	return l.allow(ctx, fmt.Sprintf(keyModuleToggle, strings.TrimSpace(companyID)), l.toggleRate())
}

func (l *RequestLimiter) allow(ctx context.Context, key string, perMinute int) bool {
	if !l.Enabled() || perMinute <= 0 {
		return true
	}
	res, err := l.bucket.Allow(ctx, key, float64(perMinute)/60.0, perMinute)
	if err != nil {
		l.log.Warn("rate limit check failed", zap.String("key", key), zap.Error(err))
		return true
	}
	return res.Allowed
}

func (l *RequestLimiter) loginRate() int {
	if l.runtime == nil {
		return 0
	}
	return l.runtime.Current().LoginRatePerMinute
}

func (l *RequestLimiter) toggleRate() int {
	if l.runtime == nil {
		return 0
	}
	return l.runtime.Current().ToggleRatePerMinute
}
