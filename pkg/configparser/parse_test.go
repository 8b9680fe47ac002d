package configparser

import (
	"testing"
	"time"
)

type testConfig struct {
	Database struct {
		Host string        `env:"TEST_DATABASE_HOST" default:"localhost"`
		Port int           `env:"TEST_DATABASE_PORT" default:"5432"`
		TTL  time.Duration `env:"TEST_DATABASE_TTL" default:"15m"`
	}
	Debug bool `env:"TEST_DEBUG" default:"false"`
}

func TestParseEnv_Defaults(t *testing.T) {
	var cfg testConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Database.Host != "localhost" {
		t.Errorf("host: got %q want %q", cfg.Database.Host, "localhost")
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("port: got %d want 5432", cfg.Database.Port)
	}
	if cfg.Database.TTL != 15*time.Minute {
		t.Errorf("ttl: got %v want 15m", cfg.Database.TTL)
	}
	if cfg.Debug {
		t.Errorf("debug must default to false")
	}
}

func TestParseEnv_EnvOverridesDefault(t *testing.T) {
	t.Setenv("TEST_DATABASE_HOST", "db.internal")
	t.Setenv("TEST_DEBUG", "true")

	var cfg testConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Database.Host != "db.internal" {
		t.Errorf("host: got %q want %q", cfg.Database.Host, "db.internal")
	}
	if !cfg.Debug {
		t.Errorf("debug must be overridden to true")
	}
}

func TestParseEnv_RejectsNonPointer(t *testing.T) {
	var cfg testConfig
	if err := ParseEnv(cfg); err == nil {
		t.Fatalf("expected error for non-pointer destination")
	}
}
