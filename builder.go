package authkit

import (
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/yogiverse/authkit/jwt"
)

// Builder assembles an Engine from its configuration and injected
// dependencies. A Builder is single-use.
type Builder struct {
	config Config
	redis  *redis.Client
	users  IdentityStore
	mailer Mailer
	log    *zap.Logger
	built  bool
}

// New starts a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis injects the shared cache client backing codes and counters.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithIdentityStore injects the user-record backend.
func (b *Builder) WithIdentityStore(store IdentityStore) *Builder {
	b.users = store
	return b
}

// WithMailer injects the notification gateway delivering codes.
func (b *Builder) WithMailer(mailer Mailer) *Builder {
	b.mailer = mailer
	return b
}

// WithLogger injects a structured logger. Optional; without it the engine
// logs nowhere.
func (b *Builder) WithLogger(log *zap.Logger) *Builder {
	b.log = log
	return b
}

// Build validates the configuration and dependencies and returns the Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	b.built = true

	if err := validateConfig(b.config); err != nil {
		return nil, err
	}
	if b.redis == nil {
		return nil, fmt.Errorf("%w: redis client is required", ErrEngineNotReady)
	}
	if b.users == nil {
		return nil, fmt.Errorf("%w: identity store is required", ErrEngineNotReady)
	}
	if b.mailer == nil {
		return nil, fmt.Errorf("%w: mailer is required", ErrEngineNotReady)
	}

	tokens, err := jwt.NewManager(jwt.Config{
		Secret: b.config.Session.Secret,
		TTL:    b.config.Session.TokenTTL,
		Issuer: b.config.Session.Issuer,
	})
	if err != nil {
		return nil, err
	}

	log := b.log
	if log == nil {
		log = zap.NewNop()
	}

	return &Engine{
		config:  b.config,
		users:   b.users,
		mailer:  b.mailer,
		limiter: newOTPLimiter(b.redis, b.config.Limiter.MaxRequests),
		codes:   newCodeStore(b.redis),
		tokens:  tokens,
		log:     log,
	}, nil
}
