package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// AttemptLimiter counts failed attempts per key in Redis. A nil limiter allows everything.
type AttemptLimiter struct {
	redis       *redis.Client
	prefix      string
	maxAttempts int
	window      time.Duration
}

// NewAttemptLimiter returns nil when redisClient is nil.
func NewAttemptLimiter(redisClient *redis.Client, prefix string, maxAttempts int, window time.Duration) *AttemptLimiter {
	if redisClient == nil {
		return nil
	}
	return &AttemptLimiter{
		redis:       redisClient,
		prefix:      prefix,
		maxAttempts: maxAttempts,
		window:      window,
	}
}

func (l *AttemptLimiter) key(subject string) string {
	return fmt.Sprintf("attempts:%s:%s", l.prefix, strings.ToLower(strings.TrimSpace(subject)))
}

// Check returns ErrTooManyAttempts once subject has used up its failures for the window.
func (l *AttemptLimiter) Check(ctx context.Context, subject string) error {
	if l == nil || l.maxAttempts <= 0 {
		return nil
	}
	count, err := l.redis.Get(ctx, l.key(subject)).Int()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read attempt counter: %w", err)
	}
	if count >= l.maxAttempts {
		return ErrTooManyAttempts
	}
	return nil
}

func (l *AttemptLimiter) RecordFailure(ctx context.Context, subject string) error {
	if l == nil || l.maxAttempts <= 0 {
		return nil
	}
	key := l.key(subject)
	pipe := l.redis.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record failed attempt: %w", err)
	}
	return nil
}

func (l *AttemptLimiter) Reset(ctx context.Context, subject string) error {
	if l == nil || l.maxAttempts <= 0 {
		return nil
	}
	if err := l.redis.Del(ctx, l.key(subject)).Err(); err != nil {
		return fmt.Errorf("reset attempt counter: %w", err)
	}
	return nil
}
