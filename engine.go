package authkit

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/yogiverse/authkit/internal"
	"github.com/yogiverse/authkit/jwt"
)

// Engine is the OTP-gated account-lifecycle subsystem: it issues and
// verifies one-time codes for registration and password reset, throttles
// issuance per email, and performs the guarded identity mutations.
//
// An Engine is built once via Builder and is safe for concurrent use. All
// ephemeral state (codes, counters) lives in the injected redis client;
// identity records live behind the injected IdentityStore.
type Engine struct {
	config  Config
	users   IdentityStore
	mailer  Mailer
	limiter *otpLimiter
	codes   *codeStore
	tokens  *jwt.Manager
	log     *zap.Logger
}

// issueCode runs the shared issue path: rate-limit check, code generation,
// store write, delivery. The order matters: a delivery failure after the
// store write leaves the code live and the rate-limit slot consumed, and the
// caller is told the send failed. Retrying the flow intentionally burns
// another slot, since delivery attempts themselves count as requests.
func (e *Engine) issueCode(ctx context.Context, op Operation, email string, window time.Duration) error {
	if err := e.limiter.Allow(ctx, email, window); err != nil {
		if errors.Is(err, ErrRateLimited) {
			e.log.Warn("otp issue throttled",
				zap.String("operation", string(op)),
				zap.String("email", email),
				zap.Duration("retry_after", RetryAfter(err)))
			return err
		}
		// Limiter outage fails closed: the request is denied.
		e.log.Error("otp limiter unavailable", zap.String("operation", string(op)), zap.Error(err))
		return wrapUnavailable(ErrOTPUnavailable, err)
	}

	code, err := internal.NewOTP(e.config.OTP.Digits)
	if err != nil {
		return wrapUnavailable(ErrOTPUnavailable, err)
	}

	if err := e.codes.Save(ctx, op, email, code, e.config.OTP.CodeTTL); err != nil {
		e.log.Error("otp store write failed", zap.String("operation", string(op)), zap.Error(err))
		return wrapUnavailable(ErrOTPUnavailable, err)
	}

	if err := e.mailer.SendOTP(ctx, email, code); err != nil {
		e.log.Error("otp delivery failed",
			zap.String("operation", string(op)),
			zap.String("email", email),
			zap.Error(err))
		return wrapUnavailable(ErrDeliveryFailed, err)
	}

	e.log.Info("otp issued", zap.String("operation", string(op)), zap.String("email", email))
	return nil
}

// consumeCode verifies and single-use-invalidates a code, mapping store
// errors to the public taxonomy.
func (e *Engine) consumeCode(ctx context.Context, op Operation, email, candidate string) error {
	err := e.codes.Consume(ctx, op, email, candidate)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errCodeInvalid):
		return ErrOTPInvalid
	default:
		return wrapUnavailable(ErrOTPUnavailable, err)
	}
}

// sessionToken signs a token embedding the identity id and role.
func (e *Engine) sessionToken(identity *Identity) (string, error) {
	token, err := e.tokens.Create(identity.ID, string(identity.Role))
	if err != nil {
		e.log.Error("session token signing failed", zap.String("user_id", identity.ID), zap.Error(err))
		return "", wrapUnavailable(ErrStoreUnavailable, err)
	}
	return token, nil
}

func (e *Engine) result(identity *Identity, token string) *AuthResult {
	return &AuthResult{
		UserID:    identity.ID,
		Username:  identity.Username,
		Email:     identity.Email,
		Role:      identity.Role,
		AvatarURL: identity.AvatarURL,
		Token:     token,
	}
}

// ParseToken validates a session token and returns its claims. Used by
// transport layers to authenticate follow-up requests.
func (e *Engine) ParseToken(token string) (*jwt.Claims, error) {
	return e.tokens.Parse(token)
}
