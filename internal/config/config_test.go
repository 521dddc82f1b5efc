package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/kpi")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("AUDIT_INTERVAL", "")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.AuditInterval != 10*time.Minute || cfg.DBTimeout != 5*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("cors origins: %#v", cfg.CORSOrigins)
	}
}

func TestLoad_BadDuration(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/kpi")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("AUDIT_INTERVAL", "soon")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for bad AUDIT_INTERVAL")
	}
}

func TestLoad_MissingRequiredPanics(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for missing DATABASE_URL")
		}
	}()
	_, _ = Load()
}
