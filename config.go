package authcore

import (
	"errors"
	"time"

	"github.com/tunevault/authcore/keys"
)

// Config defines the engine configuration. Instances are set up before
// Build and treated as immutable afterwards.
type Config struct {
	Token    TokenConfig
	Password PasswordConfig
	Refresh  RefreshConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

// TokenConfig controls token lifetimes and the signing key location.
type TokenConfig struct {
	// AccessTTL is the access-token lifetime. Default 30 minutes.
	AccessTTL time.Duration
	// RefreshTTL is the refresh-token lifetime and the store TTL for its
	// identifier. Default 7 days.
	RefreshTTL time.Duration
	// PrivateKeyPath is the PKCS#1 PEM private key file. Generated on
	// first boot when absent.
	PrivateKeyPath string
	// KeyBits is the RSA modulus size for generated keys. Default 2048.
	KeyBits int
}

// PasswordConfig carries the Argon2id parameters.
type PasswordConfig struct {
	Memory         uint32 // KB
	Time           uint32
	Parallelism    uint8
	SaltLength     uint32
	KeyLength      uint32
	UpgradeOnLogin bool
}

// RefreshConfig controls the refresh store integration.
type RefreshConfig struct {
	// RedisPrefix namespaces refresh identifiers in Redis. Default "rt".
	RedisPrefix string
	// StoreTimeout bounds each store round-trip. Default 3 seconds.
	StoreTimeout time.Duration
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process metrics system.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the baseline configuration. Callers override
// fields before passing it to [Builder.WithConfig].
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessTTL:  30 * time.Minute,
			RefreshTTL: 7 * 24 * time.Hour,
			KeyBits:    2048,
		},
		Password: PasswordConfig{
			Memory:         65536,
			Time:           3,
			Parallelism:    2,
			SaltLength:     16,
			KeyLength:      32,
			UpgradeOnLogin: true,
		},
		Refresh: RefreshConfig{
			RedisPrefix:  "rt",
			StoreTimeout: 3 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	// All fields are value types; a shallow copy is a deep copy.
	return cfg
}

// Validate checks boot-time invariants. Build calls it before touching
// key material or Redis.
func (c *Config) Validate() error {
	if c.Token.AccessTTL <= 0 {
		return errors.New("token AccessTTL must be positive")
	}
	if c.Token.RefreshTTL <= 0 {
		return errors.New("token RefreshTTL must be positive")
	}
	if c.Token.RefreshTTL < c.Token.AccessTTL {
		return errors.New("token RefreshTTL must not be shorter than AccessTTL")
	}
	if c.Token.PrivateKeyPath == "" {
		return errors.New("token PrivateKeyPath is required")
	}
	if c.Token.KeyBits < keys.MinBits {
		return errors.New("token KeyBits below minimum modulus size")
	}
	if c.Refresh.RedisPrefix == "" {
		return errors.New("refresh RedisPrefix is required")
	}
	if c.Refresh.StoreTimeout < 0 {
		return errors.New("refresh StoreTimeout must not be negative")
	}
	return nil
}
