package authcore

import (
	"errors"

	"github.com/mvasiliev/authcore/internal/rate"
	"github.com/mvasiliev/authcore/jwt"
	"github.com/mvasiliev/authcore/password"
	"github.com/mvasiliev/authcore/session"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine]. Construction is allocation-only; no I/O
// happens until the first Engine method call.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	userProvider UserProvider
	auditSink    AuditSink

	built bool
}

// New returns a Builder preloaded with [DefaultConfig]. A user provider and
// a signing key must still be supplied before Build succeeds.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the entire configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the session store client. Passing nil (or never calling
// this) is valid: the engine then runs in stateless-JWT-only mode, with no
// revocation, rotation, or throttling until a store is provided. That
// trade-off is deliberate; see the package documentation on degraded mode.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserProvider sets the user directory adapter. Required.
func (b *Builder) WithUserProvider(up UserProvider) *Builder {
	b.userProvider = up
	return b
}

// WithAuditSink sets the audit event destination. Only consulted when
// Config.Audit.Enabled is true.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and constructs the Engine. A missing or
// placeholder signing key fails here, before any request is served.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	if err := b.config.Validate(); err != nil {
		return nil, err
	}
	if b.userProvider == nil {
		return nil, errors.New("user provider is required")
	}

	jwtManager, err := jwt.NewManager(jwt.Config{
		AccessTTL:     b.config.JWT.AccessTTL,
		SigningMethod: jwt.SigningMethod(b.config.JWT.SigningMethod),
		PrivateKey:    b.config.JWT.PrivateKey,
		PublicKey:     b.config.JWT.PublicKey,
		Issuer:        b.config.JWT.Issuer,
		Audience:      b.config.JWT.Audience,
		Leeway:        b.config.JWT.Leeway,
	})
	if err != nil {
		return nil, err
	}

	passwordHash, err := password.NewArgon2(password.Config{
		Memory:      b.config.Password.Memory,
		Time:        b.config.Password.Time,
		Parallelism: b.config.Password.Parallelism,
		SaltLength:  b.config.Password.SaltLength,
		KeyLength:   b.config.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:       b.config,
		sessionStore: session.NewStore(b.redis, b.config.Session.RedisPrefix, b.config.Session.ScanBatch),
		jwtManager:   jwtManager,
		passwordHash: passwordHash,
		userProvider: b.userProvider,
		metrics:      newMetrics(b.config.Metrics),
		audit:        newAuditDispatcher(b.config.Audit, b.auditSink),
	}

	// Throttling needs the shared store; without one there is nowhere to
	// keep counters and the limiter stays off.
	if b.redis != nil && (b.config.Security.EnableLoginThrottle || b.config.Security.EnableRefreshThrottle) {
		engine.rateLimiter = rate.New(b.redis, rate.Config{
			EnableIPThrottle:        b.config.Security.EnableIPThrottle,
			EnableRefreshThrottle:   b.config.Security.EnableRefreshThrottle,
			MaxLoginAttempts:        b.config.Security.MaxLoginAttempts,
			LoginCooldownDuration:   b.config.Security.LoginCooldownDuration,
			MaxRefreshAttempts:      b.config.Security.MaxRefreshAttempts,
			RefreshCooldownDuration: b.config.Security.RefreshCooldownDuration,
		})
	}

	b.built = true
	return engine, nil
}
