package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/minicup?sslmode=disable")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want default 8080", cfg.ServerPort)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Errorf("AllowedOrigins = %v, want [*]", cfg.AllowedOrigins)
	}
	if cfg.R2Configured() {
		t.Error("R2Configured() = true with no R2 variables set")
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Error("expected error when DATABASE_URL is unset, got nil")
	}
}

func TestLoadRejectsInvalidPort(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/minicup")

	for _, port := range []string{"nope", "0", "-1", "70000"} {
		t.Setenv("SERVER_PORT", port)
		if _, err := Load(); err == nil {
			t.Errorf("SERVER_PORT=%s: expected error, got nil", port)
		}
	}
}

func TestLoadSplitsAllowedOrigins(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/minicup")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://cup.example.com, http://localhost:3000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	want := []string{"https://cup.example.com", "http://localhost:3000"}
	if len(cfg.AllowedOrigins) != len(want) {
		t.Fatalf("AllowedOrigins = %v, want %v", cfg.AllowedOrigins, want)
	}
	for i := range want {
		if cfg.AllowedOrigins[i] != want[i] {
			t.Errorf("AllowedOrigins[%d] = %q, want %q", i, cfg.AllowedOrigins[i], want[i])
		}
	}
}

func TestR2Configured(t *testing.T) {
	cfg := &Config{
		R2AccountID:       "acct",
		R2AccessKeyID:     "key",
		R2SecretAccessKey: "secret",
		R2BucketName:      "avatars",
		R2PublicBaseURL:   "https://cdn.example.com",
	}
	if !cfg.R2Configured() {
		t.Error("R2Configured() = false with the full block set")
	}

	cfg.R2BucketName = ""
	if cfg.R2Configured() {
		t.Error("R2Configured() = true with a missing bucket name")
	}
}
