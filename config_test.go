package authcore

import (
	"testing"
	"time"
)

func TestDefaultConfigValues(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Token.AccessTTL != 30*time.Minute {
		t.Fatalf("AccessTTL = %v, want 30m", cfg.Token.AccessTTL)
	}
	if cfg.Token.RefreshTTL != 7*24*time.Hour {
		t.Fatalf("RefreshTTL = %v, want 168h", cfg.Token.RefreshTTL)
	}
	if cfg.Token.KeyBits != 2048 {
		t.Fatalf("KeyBits = %d, want 2048", cfg.Token.KeyBits)
	}
	if cfg.Refresh.RedisPrefix != "rt" {
		t.Fatalf("RedisPrefix = %q, want rt", cfg.Refresh.RedisPrefix)
	}
	if cfg.Refresh.StoreTimeout != 3*time.Second {
		t.Fatalf("StoreTimeout = %v, want 3s", cfg.Refresh.StoreTimeout)
	}
	if !cfg.Password.UpgradeOnLogin {
		t.Fatal("UpgradeOnLogin default should be true")
	}
}

func TestDefaultConfigValidatesAfterKeyPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Token.PrivateKeyPath = "/tmp/signing.pem"

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate(default+keypath) error: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	base := func() Config {
		cfg := DefaultConfig()
		cfg.Token.PrivateKeyPath = "/tmp/signing.pem"
		return cfg
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero access ttl", func(c *Config) { c.Token.AccessTTL = 0 }},
		{"negative access ttl", func(c *Config) { c.Token.AccessTTL = -time.Minute }},
		{"zero refresh ttl", func(c *Config) { c.Token.RefreshTTL = 0 }},
		{"refresh shorter than access", func(c *Config) { c.Token.RefreshTTL = time.Minute }},
		{"missing key path", func(c *Config) { c.Token.PrivateKeyPath = "" }},
		{"small key bits", func(c *Config) { c.Token.KeyBits = 1024 }},
		{"missing redis prefix", func(c *Config) { c.Refresh.RedisPrefix = "" }},
		{"negative store timeout", func(c *Config) { c.Refresh.StoreTimeout = -time.Second }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected Validate to reject the configuration")
			}
		})
	}
}

func TestCloneConfigIsIndependent(t *testing.T) {
	cfg := DefaultConfig()
	cloned := cloneConfig(cfg)

	cloned.Token.AccessTTL = time.Hour
	if cfg.Token.AccessTTL == time.Hour {
		t.Fatal("mutating the clone changed the original")
	}
}
