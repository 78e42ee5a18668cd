package authkit

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/yogiverse/authkit/password"
)

// RequestResetOTP starts a password reset for an existing identity. Unlike
// registration, an unknown email is reported as such; the reset flow is only
// reachable by someone who already holds an account here.
func (e *Engine) RequestResetOTP(ctx context.Context, email string) error {
	if email == "" {
		return ErrInvalidRequest
	}

	if _, err := e.users.FindByEmail(ctx, email); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		e.log.Error("identity lookup failed", zap.String("email", email), zap.Error(err))
		return wrapUnavailable(ErrStoreUnavailable, err)
	}

	return e.issueCode(ctx, OpReset, email, e.config.Limiter.ResetWindow)
}

// ResetPassword completes a reset: verifies and consumes the code, validates
// the replacement password, and swaps the stored hash. No session is issued;
// the user logs in afterward with the new password. The hash is computed
// before the store mutation, so a hashing failure leaves the old password
// intact and observable state unchanged.
func (e *Engine) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if email == "" || code == "" {
		return ErrInvalidRequest
	}

	if err := e.consumeCode(ctx, OpReset, email, code); err != nil {
		return err
	}

	if err := password.Validate(newPassword); err != nil {
		return fmt.Errorf("%w: %v", ErrPasswordPolicy, err)
	}

	hash, err := password.Hash(newPassword)
	if err != nil {
		return wrapUnavailable(ErrStoreUnavailable, err)
	}

	if err := e.users.UpdatePassword(ctx, email, hash); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		e.log.Error("password update failed", zap.String("email", email), zap.Error(err))
		return wrapUnavailable(ErrStoreUnavailable, err)
	}

	e.log.Info("password reset completed", zap.String("email", email))
	return nil
}
