package postgres

import (
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	valid := Config{
		URL:          "postgres://localhost/foundry",
		PingTimeout:  time.Second,
		MaxOpenConns: 10,
		MaxIdleConns: 5,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() err=%v", err)
	}

	missingURL := valid
	missingURL.URL = ""
	if err := missingURL.Validate(); err == nil {
		t.Fatalf("expected error for missing URL")
	}

	idleOverOpen := valid
	idleOverOpen.MaxIdleConns = 20
	if err := idleOverOpen.Validate(); err == nil {
		t.Fatalf("expected error for idle > open")
	}
}

func TestConfigFromEnvDefaults(t *testing.T) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv() err=%v", err)
	}
	if cfg.MaxOpenConns != 10 {
		t.Fatalf("MaxOpenConns=%d, want 10", cfg.MaxOpenConns)
	}
	if cfg.PingTimeout != 2*time.Second {
		t.Fatalf("PingTimeout=%v, want 2s", cfg.PingTimeout)
	}
}
