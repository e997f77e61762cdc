package authcore

import (
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/tunevault/authcore/keys"
	"github.com/tunevault/authcore/password"
	"github.com/tunevault/authcore/refresh"
	"github.com/tunevault/authcore/token"
)

// Builder assembles an Engine. Configure it during initialization and
// call Build exactly once; a builder is not safe for concurrent use.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	userStore    UserStore
	refreshStore refresh.Store
	auditSink    AuditSink

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the builder's configuration wholesale.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the Redis client backing the refresh store.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserStore sets the credential store the engine reads and writes.
func (b *Builder) WithUserStore(us UserStore) *Builder {
	b.userStore = us
	return b
}

// WithRefreshStore overrides the refresh store, replacing the Redis
// store Build would otherwise construct. Intended for tests and for
// callers bringing their own single-use TTL store.
func (b *Builder) WithRefreshStore(rs refresh.Store) *Builder {
	b.refreshStore = rs
	return b
}

// WithAuditSink sets the sink that receives audit events. Nil leaves
// auditing on the no-op sink.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles metrics collection.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles validation latency histograms. Implies
// nothing about counters; enable metrics separately.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, loads or generates the signing
// keypair, and wires the engine. Key bootstrap is the only fatal path:
// if the key file cannot be read, parsed, or created, Build returns an
// error wrapping [keys.ErrBootstrap] and no engine exists. A reachable
// Redis is deliberately not required at build time; store outages are a
// per-request condition, not a boot condition.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.userStore == nil {
		return nil, errors.New("user store required")
	}
	if b.refreshStore == nil && b.redis == nil {
		return nil, errors.New("redis client required")
	}

	keypair, err := keys.LoadOrGenerate(cfg.Token.PrivateKeyPath, cfg.Token.KeyBits)
	if err != nil {
		return nil, fmt.Errorf("key bootstrap: %w", err)
	}

	store := b.refreshStore
	if store == nil {
		store = refresh.NewRedisStore(b.redis, cfg.Refresh.RedisPrefix, cfg.Refresh.StoreTimeout)
	}

	hasher, err := password.NewHasher(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:       cfg,
		keypair:      keypair,
		issuer:       token.NewIssuer(keypair, cfg.Token.AccessTTL, cfg.Token.RefreshTTL),
		refreshStore: store,
		passwordHash: hasher,
		users:        b.userStore,
		audit:        newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:      NewMetrics(cfg.Metrics),
	}

	b.built = true

	return engine, nil
}
