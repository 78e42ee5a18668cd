// Package authkit is the OTP-gated account-lifecycle and rate-limiting
// subsystem behind registration, login, and password reset.
//
// A request for an identity-changing operation first passes a fixed-window
// rate limit keyed by destination email; on pass, a single-use 6-digit code
// is generated, stored in redis with a 5-minute TTL, and dispatched through
// the injected Mailer. The follow-up request presents the code, which is
// verified and invalidated atomically, after which the identity mutation
// (create user, replace password hash) is performed against the injected
// IdentityStore. Login additionally issues a signed session token.
//
// Build an Engine with the fluent Builder:
//
//	engine, err := authkit.New().
//		WithConfig(cfg).
//		WithRedis(rdb).
//		WithIdentityStore(store).
//		WithMailer(mailer).
//		WithLogger(log).
//		Build()
//
// All errors are matchable with errors.Is against the package sentinels and
// classifiable with KindOf; throttled failures carry their remaining wait,
// retrievable with RetryAfter.
package authkit
