package authkit

import (
	"context"
	"time"
)

// Role is the authorization role carried on an identity and embedded in
// session tokens.
type Role string

const (
	// RoleUser is the default role assigned to newly registered identities.
	RoleUser Role = "user"
	// RoleAdmin marks administrative identities. The engine never assigns it;
	// promotion is an out-of-band administrative action.
	RoleAdmin Role = "admin"
)

// AccountStatus is the lifecycle status of an identity.
type AccountStatus string

const (
	// StatusActive allows the identity to authenticate.
	StatusActive AccountStatus = "active"
	// StatusBlocked denies login even with correct credentials. Blocked users
	// are told so explicitly rather than being shown a generic failure.
	StatusBlocked AccountStatus = "blocked"
)

// Operation tags an OTP flow. Each operation owns an independent code
// namespace in the cache, so a registration code can never satisfy a reset.
type Operation string

const (
	// OpRegister is the registration flow. Codes live under "otp:{email}".
	OpRegister Operation = "register"
	// OpReset is the password-reset flow. Codes live under "reset-otp:{email}".
	OpReset Operation = "reset"
)

func (o Operation) codePrefix() string {
	if o == OpReset {
		return "reset-otp"
	}
	return "otp"
}

// Identity is the user record as seen by the engine. The password hash is
// write-only from the engine's perspective: it is produced here, stored via
// the IdentityStore, compared at login, and never included in any result.
type Identity struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	Status       AccountStatus
	AvatarURL    string
	CreatedAt    time.Time
}

// IdentityStore is the injected user-record backend.
//
// Implementations must enforce uniqueness of Email and Username themselves
// (a database unique index or equivalent) and report violations as
// ErrAccountExists: the engine's duplicate pre-checks are advisory only and
// do not serialize concurrent registrations. Lookups for absent records
// return ErrUserNotFound. Any other failure should be returned as-is; the
// engine reports it as a dependency fault.
type IdentityStore interface {
	FindByEmail(ctx context.Context, email string) (*Identity, error)
	FindByUsername(ctx context.Context, username string) (*Identity, error)
	Create(ctx context.Context, identity *Identity) error
	UpdatePassword(ctx context.Context, email, passwordHash string) error
}

// Mailer delivers a one-time code to its destination address. A returned
// error marks the issue flow as failed even though the code was already
// written to the cache; the caller may retry the whole flow, which consumes
// another rate-limit slot.
type Mailer interface {
	SendOTP(ctx context.Context, email, code string) error
}

// RegisterRequest carries the inputs of a registration completion.
type RegisterRequest struct {
	Email    string
	Username string
	Password string
	Code     string
}

// AuthResult is returned by Register and Login. Token is a signed session
// credential embedding the identity id and role, valid for the configured
// session TTL.
type AuthResult struct {
	UserID    string
	Username  string
	Email     string
	Role      Role
	AvatarURL string
	Token     string
}
