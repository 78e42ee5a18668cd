package authkit

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	errCodeInvalid          = errors.New("code missing or mismatched")
	errCodeStoreUnavailable = errors.New("code store redis unavailable")
)

// codeStore holds live one-time codes, one per (operation, email) key.
// Registration codes live under "otp:{email}", reset codes under
// "reset-otp:{email}". Expiry is the cache's own TTL mechanism; nothing
// here polls.
type codeStore struct {
	redis *redis.Client
}

func newCodeStore(redisClient *redis.Client) *codeStore {
	return &codeStore{redis: redisClient}
}

func (s *codeStore) key(op Operation, email string) string {
	return op.codePrefix() + ":" + email
}

// Save stores a fresh code with the given TTL, overwriting and thereby
// invalidating any still-live code for the same key.
func (s *codeStore) Save(ctx context.Context, op Operation, email, code string, ttl time.Duration) error {
	if err := s.redis.Set(ctx, s.key(op, email), code, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", errCodeStoreUnavailable, err)
	}
	return nil
}

// Consume verifies candidate against the stored code and deletes it on
// match, all under a WATCH transaction so that of any number of concurrent
// verifiers at most one observes success. An absent (never issued, expired,
// or already consumed) or mismatched code returns errCodeInvalid without
// mutating anything.
//
// Comparison is strict equality on the stored string after trimming
// whitespace from the candidate; no other normalization is applied.
func (s *codeStore) Consume(ctx context.Context, op Operation, email, candidate string) error {
	const maxRetries = 4

	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return errCodeInvalid
	}
	key := s.key(op, email)

	for i := 0; i < maxRetries; i++ {
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			stored, err := tx.Get(ctx, key).Result()
			if err != nil {
				return err
			}

			if subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) != 1 {
				return errCodeInvalid
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				return nil
			})
			return err
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			switch {
			case errors.Is(err, redis.Nil):
				return errCodeInvalid
			case errors.Is(err, errCodeInvalid):
				return err
			default:
				return fmt.Errorf("%w: %v", errCodeStoreUnavailable, err)
			}
		}
		return nil
	}

	// The key changed under us maxRetries times in a row; someone else
	// consumed or replaced the code.
	return errCodeInvalid
}
