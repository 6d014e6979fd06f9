package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"sweetbox/pkg/config"
	"sweetbox/pkg/logger"
)

var (
	redisClient *goredis.Client
	stateTTL    = 30 * time.Second
)

const (
	stateCacheKey   = "sweetbox:state"
	blacklistPrefix = "sweetbox:token:blacklist:"
)

// InitRedis connects the snapshot cache and pings it.
func InitRedis(cfg config.RedisConfig) error {
	if cfg.Addr == "" {
		return fmt.Errorf("redis address not set")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	if cfg.TTL > 0 {
		stateTTL = cfg.TTL
	}
	redisClient = rdb
	logger.Log.Info("Redis connected", zap.String("addr", cfg.Addr))
	return nil
}

// CloseRedis closes the cache connection.
func CloseRedis() {
	if redisClient != nil {
		_ = redisClient.Close()
		redisClient = nil
	}
}

// CachedState returns the encoded GET /api/state payload when warm.
func CachedState(ctx context.Context) ([]byte, bool) {
	if redisClient == nil {
		return nil, false
	}
	b, err := redisClient.Get(ctx, stateCacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			logger.Log.Warn("state cache read failed", zap.Error(err))
		}
		return nil, false
	}
	return b, true
}

// CacheState stores an encoded snapshot payload.
func CacheState(ctx context.Context, payload []byte) {
	if redisClient == nil {
		return
	}
	if err := redisClient.Set(ctx, stateCacheKey, payload, stateTTL).Err(); err != nil {
		logger.Log.Warn("state cache write failed", zap.Error(err))
	}
}

// InvalidateState drops the cached snapshot. Every write calls it.
func InvalidateState(ctx context.Context) {
	if redisClient == nil {
		return
	}
	if err := redisClient.Del(ctx, stateCacheKey).Err(); err != nil {
		logger.Log.Warn("state cache invalidation failed", zap.Error(err))
	}
}

// BlacklistToken revokes a token id until it would have expired anyway.
func BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	if redisClient == nil || jti == "" || ttl <= 0 {
		return nil
	}
	return redisClient.Set(ctx, blacklistPrefix+jti, "1", ttl).Err()
}

// IsTokenBlacklisted reports whether a token id was revoked on sign-out.
// Without redis nothing is ever revoked.
func IsTokenBlacklisted(ctx context.Context, jti string) bool {
	if redisClient == nil || jti == "" {
		return false
	}
	n, err := redisClient.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		logger.Log.Warn("token blacklist lookup failed", zap.Error(err))
		return false
	}
	return n > 0
}
