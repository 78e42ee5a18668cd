// Package jwt signs and validates the opaque session tokens issued after
// registration and login.
package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenInvalid covers every parse failure: bad signature, expired,
// malformed. Callers get no finer detail.
var ErrTokenInvalid = errors.New("invalid session token")

// Config holds the signing parameters.
type Config struct {
	// Secret is the HS256 key. Required.
	Secret []byte
	// TTL bounds token validity from the moment of signing.
	TTL time.Duration
	// Issuer is stamped into the iss claim when non-empty.
	Issuer string
}

// Claims is the payload of a session token: the identity id and its role,
// nothing else.
type Claims struct {
	UID  string `json:"uid"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Manager signs and parses session tokens. Immutable after construction.
type Manager struct {
	config Config
}

// NewManager validates the configuration and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("jwt secret is required")
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("jwt ttl must be positive")
	}
	return &Manager{config: cfg}, nil
}

// Create signs a token carrying uid and role, valid for the configured TTL.
func (m *Manager) Create(uid, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		UID:  uid,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.TTL)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.Secret)
}

// Parse validates signature, expiry, and issuer and returns the claims.
func (m *Manager) Parse(token string) (*Claims, error) {
	var claims Claims

	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return m.config.Secret, nil
	}, parseOptions(m.config.Issuer)...)
	if err != nil || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.UID == "" {
		return nil, ErrTokenInvalid
	}

	return &claims, nil
}

func parseOptions(issuer string) []jwt.ParserOption {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	return opts
}
