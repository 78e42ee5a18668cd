package authkit

import (
	"errors"
	"time"
)

// Config groups every tunable of the engine. Zero values are invalid; start
// from DefaultConfig and override what differs.
type Config struct {
	Session SessionConfig
	OTP     OTPConfig
	Limiter LimiterConfig
}

// SessionConfig controls signed session tokens.
type SessionConfig struct {
	// Secret is the HS256 signing key. Required, at least 32 bytes.
	Secret []byte
	// TokenTTL bounds a session token's validity. Default 24h.
	TokenTTL time.Duration
	// Issuer is stamped into the token's iss claim when non-empty.
	Issuer string
}

// OTPConfig controls code generation and lifetime.
type OTPConfig struct {
	// Digits is the code length. Default 6.
	Digits int
	// CodeTTL bounds a stored code's life. Default 5 minutes.
	CodeTTL time.Duration
}

// LimiterConfig controls the fixed-window throttle on OTP issuance.
//
// Both flows share one counter per email. The window length is fixed when
// the counter is first created, by whichever operation creates it; later
// requests increment without touching the TTL, so retry-after always refers
// to the original window.
type LimiterConfig struct {
	// MaxRequests is the number of issue requests allowed per window.
	// Default 3.
	MaxRequests int
	// RegisterWindow is the window applied when a registration request opens
	// the counter. Default 5 minutes.
	RegisterWindow time.Duration
	// ResetWindow is the window applied when a reset request opens the
	// counter. Default 15 minutes.
	ResetWindow time.Duration
}

// DefaultConfig returns the configuration the engine was designed around.
// The session secret must still be supplied by the caller.
func DefaultConfig() Config {
	return Config{
		Session: SessionConfig{
			TokenTTL: 24 * time.Hour,
		},
		OTP: OTPConfig{
			Digits:  6,
			CodeTTL: 5 * time.Minute,
		},
		Limiter: LimiterConfig{
			MaxRequests:    3,
			RegisterWindow: 5 * time.Minute,
			ResetWindow:    15 * time.Minute,
		},
	}
}

func validateConfig(cfg Config) error {
	if len(cfg.Session.Secret) < 32 {
		return errors.New("session secret must be at least 32 bytes")
	}
	if cfg.Session.TokenTTL <= 0 {
		return errors.New("session token ttl must be positive")
	}
	if cfg.OTP.Digits < 6 || cfg.OTP.Digits > 10 {
		return errors.New("otp digits must be between 6 and 10")
	}
	if cfg.OTP.CodeTTL <= 0 {
		return errors.New("otp code ttl must be positive")
	}
	if cfg.Limiter.MaxRequests <= 0 {
		return errors.New("limiter max requests must be positive")
	}
	if cfg.Limiter.RegisterWindow <= 0 || cfg.Limiter.ResetWindow <= 0 {
		return errors.New("limiter windows must be positive")
	}
	return nil
}
