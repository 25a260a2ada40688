package config

import (
	"reflect"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	if cfg.ServerPort != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.ServerPort)
	}
	if cfg.Database.Host != "localhost" || cfg.Database.Port != 5432 {
		t.Errorf("unexpected database defaults: %+v", cfg.Database)
	}
	if cfg.Auth.TokenTTLHours != 24 {
		t.Errorf("expected default token TTL 24h, got %d", cfg.Auth.TokenTTLHours)
	}
	if cfg.Auth.ActivateOnSignup {
		t.Error("accounts must default to awaiting activation")
	}
	if cfg.Uploads.MaxUploadBytes != 16<<20 {
		t.Errorf("expected 16MiB upload cap, got %d", cfg.Uploads.MaxUploadBytes)
	}
	want := []string{"png", "jpg", "jpeg", "gif", "pdf"}
	if !reflect.DeepEqual(cfg.Uploads.AllowedExtensions, want) {
		t.Errorf("unexpected default extensions: %v", cfg.Uploads.AllowedExtensions)
	}
	if cfg.Storage.Backend != "minio" {
		t.Errorf("expected default storage backend minio, got %q", cfg.Storage.Backend)
	}
	if cfg.Events.Backend != "none" {
		t.Errorf("expected default events backend none, got %q", cfg.Events.Backend)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("DB_USE_SSL", "true")
	t.Setenv("AUTH_ACTIVATE_ON_SIGNUP", "true")
	t.Setenv("UPLOAD_MAX_BYTES", "1048576")
	t.Setenv("UPLOAD_ALLOWED_EXTENSIONS", ".PDF, png ,")
	t.Setenv("STORAGE_BACKEND", "gcs")
	t.Setenv("EVENTS_BACKEND", "rabbitmq")

	cfg := LoadConfig()

	if cfg.ServerPort != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.ServerPort)
	}
	if cfg.Database.Port != 5433 || !cfg.Database.UseSSL {
		t.Errorf("unexpected database config: %+v", cfg.Database)
	}
	if !cfg.Auth.ActivateOnSignup {
		t.Error("AUTH_ACTIVATE_ON_SIGNUP not honored")
	}
	if cfg.Uploads.MaxUploadBytes != 1<<20 {
		t.Errorf("expected 1MiB upload cap, got %d", cfg.Uploads.MaxUploadBytes)
	}
	want := []string{"pdf", "png"}
	if !reflect.DeepEqual(cfg.Uploads.AllowedExtensions, want) {
		t.Errorf("extensions not normalized: %v", cfg.Uploads.AllowedExtensions)
	}
	if cfg.Storage.Backend != "gcs" || cfg.Events.Backend != "rabbitmq" {
		t.Errorf("backend selection not honored: %q %q", cfg.Storage.Backend, cfg.Events.Backend)
	}
}

func TestGetEnvBoolBadValue(t *testing.T) {
	t.Setenv("DB_USE_SSL", "yes-please")

	cfg := LoadConfig()
	if cfg.Database.UseSSL {
		t.Error("unparseable bool should fall back to the default")
	}
}
