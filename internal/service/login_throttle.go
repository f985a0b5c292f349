package service

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const loginFailureKeyPrefix = "login_failures:"

// LoginThrottle limits repeated failed logins per login name.
type LoginThrottle interface {
	Allowed(ctx context.Context, loginName string) bool
	RecordFailure(ctx context.Context, loginName string)
	Reset(ctx context.Context, loginName string)
}

// NoopLoginThrottle never blocks.
type NoopLoginThrottle struct{}

func (NoopLoginThrottle) Allowed(context.Context, string) bool { return true }
func (NoopLoginThrottle) RecordFailure(context.Context, string)  {}
func (NoopLoginThrottle) Reset(context.Context, string)          {}

// RedisLoginThrottle counts failures in Redis with a sliding expiry. Redis
// errors are logged and the login is let through.
type RedisLoginThrottle struct {
	client      redis.Cmdable
	maxFailures int
	window      time.Duration
	logger      *zap.Logger
}

// NewRedisLoginThrottle builds the throttle. maxFailures <= 0 disables blocking.
func NewRedisLoginThrottle(client redis.Cmdable, maxFailures int, window time.Duration, logger *zap.Logger) *RedisLoginThrottle {
	if logger == nil {
		logger = zap.NewNop()
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &RedisLoginThrottle{client: client, maxFailures: maxFailures, window: window, logger: logger}
}

func (t *RedisLoginThrottle) Allowed(ctx context.Context, loginName string) bool {
	if t.maxFailures <= 0 {
		return true
	}
	count, err := t.client.Get(ctx, loginFailureKeyPrefix+loginName).Int()
	if errors.Is(err, redis.Nil) {
		return true
	}
	if err != nil {
		t.logger.Warn("login throttle check failed", zap.String("login_name", loginName), zap.Error(err))
		return true
	}
	return count < t.maxFailures
}

func (t *RedisLoginThrottle) RecordFailure(ctx context.Context, loginName string) {
	key := loginFailureKeyPrefix + loginName
	pipe := t.client.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, t.window)
	if _, err := pipe.Exec(ctx); err != nil {
		t.logger.Warn("login throttle record failed", zap.String("login_name", loginName), zap.Error(err))
	}
}

func (t *RedisLoginThrottle) Reset(ctx context.Context, loginName string) {
	if err := t.client.Del(ctx, loginFailureKeyPrefix+loginName).Err(); err != nil {
		t.logger.Warn("login throttle reset failed", zap.String("login_name", loginName), zap.Error(err))
	}
}
