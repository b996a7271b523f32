package config

import (
	"testing"
	"time"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("IRHUB_DATABASE__DRIVER", "memory")
	t.Setenv("IRHUB_AUTH__JWT_SECRET", "env-secret")
	t.Setenv("IRHUB_SERVER__PORT", "8081")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Database.Driver != "memory" {
		t.Errorf("driver = %q, want memory", cfg.Database.Driver)
	}
	if cfg.Auth.JWTSecret != "env-secret" {
		t.Errorf("jwt secret = %q", cfg.Auth.JWTSecret)
	}
	if cfg.Server.Port != 8081 {
		t.Errorf("port = %d, want 8081", cfg.Server.Port)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("IRHUB_DATABASE__DRIVER", "memory")
	t.Setenv("IRHUB_AUTH__JWT_SECRET", "env-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 5000 {
		t.Errorf("port = %d, want default 5000", cfg.Server.Port)
	}
	if cfg.Server.WriteTimeout != 0 {
		t.Errorf("write timeout = %v, want 0 for streaming", cfg.Server.WriteTimeout)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Errorf("token ttl = %v, want 24h", cfg.Auth.TokenTTL)
	}
	if cfg.Stream.SubscriberBuffer != 32 {
		t.Errorf("subscriber buffer = %d, want 32", cfg.Stream.SubscriberBuffer)
	}
	if cfg.Retention.DefaultDays != 30 {
		t.Errorf("retention days = %d, want 30", cfg.Retention.DefaultDays)
	}
	if cfg.Redis.Host != "" {
		t.Errorf("redis host = %q, want disabled by default", cfg.Redis.Host)
	}
}

func TestLoadValidation(t *testing.T) {
	t.Setenv("IRHUB_DATABASE__DRIVER", "memory")
	t.Setenv("IRHUB_AUTH__JWT_SECRET", "")
	if _, err := Load(); err == nil {
		t.Error("expected error for missing jwt secret")
	}

	t.Setenv("IRHUB_AUTH__JWT_SECRET", "s")
	t.Setenv("IRHUB_DATABASE__DRIVER", "postgres")
	t.Setenv("IRHUB_DATABASE__POSTGRES__HOST", "")
	if _, err := Load(); err == nil {
		t.Error("expected error for postgres driver without host")
	}

	t.Setenv("IRHUB_DATABASE__DRIVER", "sqlite")
	if _, err := Load(); err == nil {
		t.Error("expected error for unknown driver")
	}
}
