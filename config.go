package authcore

import (
	"errors"
	"strings"
	"time"
)

// Config defines the complete engine configuration. It is constructed once,
// validated at Build time, and passed by reference into the token codec and
// session manager — business logic never reads ambient/global configuration.
type Config struct {
	JWT      JWTConfig
	Session  SessionConfig
	Password PasswordConfig
	Security SecurityConfig
	Account  AccountConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig holds token codec settings. AccessTTL bounds the self-validating
// access token (short, minutes); RefreshTTL bounds the opaque refresh
// artifact and the session record itself (long, days).
type JWTConfig struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SigningMethod string // "ed25519" (default), "hs256" optional
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig holds session store settings.
type SessionConfig struct {
	RedisPrefix string
	ScanBatch   int64
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds argon2id parameters for the credential verifier.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// SecurityConfig holds hardening switches. ProductionMode upgrades weak-key
// checks from warnings to hard Validate failures.
type SecurityConfig struct {
	ProductionMode          bool
	EnableIPThrottle        bool
	EnableLoginThrottle     bool
	EnableRefreshThrottle   bool
	MaxLoginAttempts        int
	LoginCooldownDuration   time.Duration
	MaxRefreshAttempts      int
	RefreshCooldownDuration time.Duration
}

// AccountConfig controls the signup flow. AutoLogin issues a token pair on
// successful creation, matching the behavior of first-party signup forms.
type AccountConfig struct {
	Enabled   bool
	AutoLogin bool
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig toggles in-process counters.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns a baseline configuration with safe lifetimes and
// hashing parameters. Signing keys are intentionally absent: there is no
// usable default key, and Validate rejects the config until one is supplied.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
			SigningMethod: "ed25519",
			Leeway:        30 * time.Second,
		},
		Session: SessionConfig{
			RedisPrefix: "ac",
			ScanBatch:   256,
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Security: SecurityConfig{
			EnableLoginThrottle:     true,
			MaxLoginAttempts:        10,
			LoginCooldownDuration:   15 * time.Minute,
			EnableRefreshThrottle:   true,
			MaxRefreshAttempts:      30,
			RefreshCooldownDuration: time.Minute,
		},
		Account: AccountConfig{
			Enabled:   true,
			AutoLogin: true,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.PrivateKey = append([]byte(nil), cfg.JWT.PrivateKey...)
	out.JWT.PublicKey = append([]byte(nil), cfg.JWT.PublicKey...)
	return out
}

// placeholderKeys lists signing-key values that have been observed in the
// wild as copy-pasted defaults. A process configured with any of them must
// refuse to start: a guessable key makes every token forgeable.
var placeholderKeys = []string{
	"secret",
	"jwt-secret",
	"jwt_secret",
	"password",
	"changeme",
	"change-me",
	"insecure",
	"undefined",
	"your-secret-key",
	"your-secret-key-change-this-in-production",
	"temporary-fallback-for-debugging",
}

func isPlaceholderKey(key []byte) bool {
	normalized := strings.ToLower(strings.TrimSpace(string(key)))
	for _, known := range placeholderKeys {
		if normalized == known {
			return true
		}
	}
	return false
}

/*
====================================
VALIDATION
====================================
*/

// Validate checks the configuration for fatal errors. It is called by
// [Builder.Build]; a config that fails validation never produces an Engine.
func (c *Config) Validate() error {
	// JWT
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= 0 {
		return errors.New("JWT RefreshTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= c.JWT.AccessTTL {
		return errors.New("JWT RefreshTTL must exceed AccessTTL")
	}

	if c.JWT.SigningMethod != "ed25519" && c.JWT.SigningMethod != "hs256" {
		return errors.New("unsupported JWT signing method")
	}

	if len(c.JWT.PrivateKey) == 0 {
		return errors.New("JWT PrivateKey is required; refusing to fall back to a default key")
	}
	if c.JWT.SigningMethod == "ed25519" && len(c.JWT.PublicKey) == 0 {
		return errors.New("ed25519 requires PublicKey")
	}
	if isPlaceholderKey(c.JWT.PrivateKey) {
		return errors.New("JWT PrivateKey is a known placeholder value")
	}
	if c.JWT.SigningMethod == "hs256" && c.Security.ProductionMode && len(c.JWT.PrivateKey) < 32 {
		return errors.New("hs256 key must be at least 256 bits in production mode")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be between 0 and 2m")
	}

	// Session
	if c.Session.RedisPrefix == "" {
		return errors.New("Session RedisPrefix must not be empty")
	}
	if strings.ContainsAny(c.Session.RedisPrefix, ": ") {
		return errors.New("Session RedisPrefix must not contain ':' or spaces")
	}
	if c.Session.ScanBatch <= 0 {
		return errors.New("Session ScanBatch must be > 0")
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}

	// Throttling
	if c.Security.EnableLoginThrottle {
		if c.Security.MaxLoginAttempts <= 0 {
			return errors.New("Security MaxLoginAttempts must be > 0 when login throttle is enabled")
		}
		if c.Security.LoginCooldownDuration <= 0 {
			return errors.New("Security LoginCooldownDuration must be > 0 when login throttle is enabled")
		}
	}
	if c.Security.EnableRefreshThrottle {
		if c.Security.MaxRefreshAttempts <= 0 {
			return errors.New("Security MaxRefreshAttempts must be > 0 when refresh throttle is enabled")
		}
		if c.Security.RefreshCooldownDuration <= 0 {
			return errors.New("Security RefreshCooldownDuration must be > 0 when refresh throttle is enabled")
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}
