package authkit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var errLimiterUnavailable = errors.New("otp limiter redis unavailable")

// otpLimiter enforces a fixed window of issue requests per email. Both OTP
// flows share the "otp-limit:{email}" counter; the operation requesting
// first fixes the window length for everyone until it elapses.
type otpLimiter struct {
	redis *redis.Client
	max   int
}

func newOTPLimiter(redisClient *redis.Client, maxRequests int) *otpLimiter {
	return &otpLimiter{
		redis: redisClient,
		max:   maxRequests,
	}
}

func limitKey(email string) string {
	return "otp-limit:" + email
}

// Allow consumes one slot of the email's window, opening a fresh window of
// the given length when none is live. The increment happens even when the
// counter is already over the limit, so sustained abuse stays visible and
// the reported wait never stretches past the original window.
//
// A nil return means the request may proceed. Over-limit requests return a
// *ThrottledError with the counter's remaining TTL. Redis failures are
// returned as errLimiterUnavailable; callers must treat that as a denial.
func (l *otpLimiter) Allow(ctx context.Context, email string, window time.Duration) error {
	key := limitKey(email)

	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", errLimiterUnavailable, err)
	}

	if count == 1 {
		if err := l.redis.Expire(ctx, key, window).Err(); err != nil {
			// A counter without a TTL would throttle the email forever once
			// over the limit. Drop it so the next request opens a fresh
			// window, and deny this one.
			l.redis.Del(ctx, key)
			return fmt.Errorf("%w: %v", errLimiterUnavailable, err)
		}
	}

	if count > int64(l.max) {
		ttl, err := l.redis.TTL(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("%w: %v", errLimiterUnavailable, err)
		}
		if ttl < 0 {
			// The EXPIRE after the opening INCR was lost and the key escaped
			// the cleanup above. Re-arm the window so the reported wait
			// actually elapses.
			if err := l.redis.Expire(ctx, key, window).Err(); err != nil {
				return fmt.Errorf("%w: %v", errLimiterUnavailable, err)
			}
			ttl = window
		}
		return &ThrottledError{RetryAfter: ttl}
	}

	return nil
}
