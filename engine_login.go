package authkit

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/yogiverse/authkit/password"
)

// Login authenticates an identity by email and password and issues a session
// token. Unknown email and wrong password collapse into the same
// ErrInvalidCredentials so callers cannot probe which factor failed. A
// blocked account is reported distinctly, and only after the password
// checked out: the system intentionally tells a correctly authenticating
// blocked user that they are blocked.
func (e *Engine) Login(ctx context.Context, email, pass string) (*AuthResult, error) {
	if email == "" || pass == "" {
		return nil, ErrInvalidCredentials
	}

	identity, err := e.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		e.log.Error("identity lookup failed", zap.String("email", email), zap.Error(err))
		return nil, wrapUnavailable(ErrStoreUnavailable, err)
	}

	if !password.Verify(pass, identity.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if identity.Status == StatusBlocked {
		e.log.Warn("blocked identity attempted login", zap.String("user_id", identity.ID))
		return nil, ErrAccountBlocked
	}

	token, err := e.sessionToken(identity)
	if err != nil {
		return nil, err
	}

	e.log.Info("identity logged in", zap.String("user_id", identity.ID))
	return e.result(identity, token), nil
}
