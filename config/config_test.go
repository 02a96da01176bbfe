package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "sqlite3")
	t.Setenv("DATABASE_URL", ":memory:")

	cfg, err := Load("does-not-exist.env")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Fatalf("port: want 8080 got %s", cfg.Server.Port)
	}
	if cfg.Storage.Type != "local" {
		t.Fatalf("storage type: want local got %s", cfg.Storage.Type)
	}
	if cfg.App.SubmitTimeout != 30*time.Second {
		t.Fatalf("submit timeout: want 30s got %s", cfg.App.SubmitTimeout)
	}
	if cfg.Session.TTL != 24*time.Hour {
		t.Fatalf("session ttl: want 24h got %s", cfg.Session.TTL)
	}
}

func TestLoadRejectsS3WithoutBucket(t *testing.T) {
	t.Setenv("STORAGE_TYPE", "s3")
	t.Setenv("AWS_S3_BUCKET", "")

	if _, err := Load("does-not-exist.env"); err == nil {
		t.Fatalf("expected error for s3 without bucket")
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "oracle")

	if _, err := Load("does-not-exist.env"); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
