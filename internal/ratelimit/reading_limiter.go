package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/TAROSUKE-Cyber/tarot-app/internal/config"
	redis "github.com/redis/go-redis/v9"
)

const keyReadingEmail = "reading:email:%s"

// ReadingLimiter throttles reading requests per email. A nil limiter is
// valid and allows everything, so the server can run without Redis.
type ReadingLimiter struct {
	enabled bool

	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewReadingLimiter(cfg config.Config) (*ReadingLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.ReadingRate <= 0 || limitCfg.ReadingBurst <= 0 {
		return nil, errors.New("reading rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})

	return &ReadingLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		rate:    limitCfg.ReadingRate,
		burst:   limitCfg.ReadingBurst,
	}, nil
}

func (l *ReadingLimiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *ReadingLimiter) Allow(ctx context.Context, email string) (bool, error) {
	if !l.Enabled() {
		return true, nil
	}
	key := fmt.Sprintf(keyReadingEmail, strings.ToLower(strings.TrimSpace(email)))
	result, err := l.bucket.Allow(ctx, key, l.rate, l.burst)
	if err != nil {
		return false, err
	}
	return result.Allowed, nil
}
