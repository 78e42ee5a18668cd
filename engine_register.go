package authkit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yogiverse/authkit/password"
)

// RequestRegistrationOTP starts a registration: it rejects destinations that
// already belong to an identity, consumes a rate-limit slot, and dispatches
// a fresh code to the email. The duplicate check here is advisory; the
// authoritative guard is the identity store's unique constraint at Register
// time.
func (e *Engine) RequestRegistrationOTP(ctx context.Context, email, username string) error {
	if email == "" || username == "" {
		return ErrInvalidRequest
	}

	taken, err := e.identifierTaken(ctx, email, username)
	if err != nil {
		return err
	}
	if taken {
		return ErrAccountExists
	}

	return e.issueCode(ctx, OpRegister, email, e.config.Limiter.RegisterWindow)
}

// Register completes a registration. The presented code is verified and
// single-use-invalidated first; a later failure (weak password, duplicate)
// does not resurrect it, the user must request a new code. The password hash
// is computed before any store mutation, so no partial write is observable.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	if req.Email == "" || req.Username == "" || req.Code == "" {
		return nil, ErrInvalidRequest
	}

	if err := e.consumeCode(ctx, OpRegister, req.Email, req.Code); err != nil {
		return nil, err
	}

	if err := password.Validate(req.Password); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPasswordPolicy, err)
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, wrapUnavailable(ErrStoreUnavailable, err)
	}

	identity := &Identity{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         RoleUser,
		Status:       StatusActive,
		CreatedAt:    time.Now().UTC(),
	}

	if err := e.users.Create(ctx, identity); err != nil {
		if errors.Is(err, ErrAccountExists) {
			// Lost the race to another registration; surfaced by the store's
			// unique constraint, the last line of defense.
			return nil, ErrAccountExists
		}
		e.log.Error("identity create failed", zap.String("email", req.Email), zap.Error(err))
		return nil, wrapUnavailable(ErrStoreUnavailable, err)
	}

	token, err := e.sessionToken(identity)
	if err != nil {
		return nil, err
	}

	e.log.Info("identity registered",
		zap.String("user_id", identity.ID),
		zap.String("username", identity.Username))
	return e.result(identity, token), nil
}

// identifierTaken reports whether email or username already belongs to an
// identity.
func (e *Engine) identifierTaken(ctx context.Context, email, username string) (bool, error) {
	if _, err := e.users.FindByEmail(ctx, email); err == nil {
		return true, nil
	} else if !errors.Is(err, ErrUserNotFound) {
		return false, wrapUnavailable(ErrStoreUnavailable, err)
	}

	if _, err := e.users.FindByUsername(ctx, username); err == nil {
		return true, nil
	} else if !errors.Is(err, ErrUserNotFound) {
		return false, wrapUnavailable(ErrStoreUnavailable, err)
	}

	return false, nil
}
