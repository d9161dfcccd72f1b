package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setupHome(t *testing.T) string {
	t.Helper()
	home := filepath.Join(t.TempDir(), "home")
	t.Setenv("HOME", home)
	t.Setenv("NOTETAKER_HOME", "")
	for _, name := range []string{
		"DAEMON_ADDRESS", "STORAGE_BACKEND", "STORAGE_DSN", "FILES_BACKEND", "FILES_DIR",
		"S3_BUCKET", "S3_REGION", "S3_PREFIX", "S3_ENDPOINT", "LOG_LEVEL", "MAX_UPLOAD_BYTES",
		"RECORD_ID", "TIMEZONE", "UI_LOG_LEVEL",
	} {
		t.Setenv(envPrefix+name, "")
	}
	return home
}

func writeDataFile(t *testing.T, home, name, content string) {
	t.Helper()
	dataDir := filepath.Join(home, ".notetaker")
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dataDir, name), []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestLoadCoreConfigDefaults(t *testing.T) {
	home := setupHome(t)
	cfg, err := LoadCoreConfig()
	if err != nil {
		t.Fatalf("LoadCoreConfig: %v", err)
	}
	if cfg.DaemonAddress() != "127.0.0.1:7878" {
		t.Fatalf("unexpected daemon address: %q", cfg.DaemonAddress())
	}
	if cfg.DaemonBaseURL() != "http://127.0.0.1:7878" {
		t.Fatalf("unexpected daemon base url: %q", cfg.DaemonBaseURL())
	}
	if cfg.StorageBackend() != "bbolt" {
		t.Fatalf("unexpected storage backend: %q", cfg.StorageBackend())
	}
	dsn, err := cfg.StorageDSN()
	if err != nil {
		t.Fatalf("StorageDSN: %v", err)
	}
	if want := filepath.Join(home, ".notetaker", "notetaker.db"); dsn != want {
		t.Fatalf("unexpected dsn: got=%q want=%q", dsn, want)
	}
	if cfg.FilesBackend() != "fs" || cfg.MaxUploadBytes() != 10<<20 {
		t.Fatalf("unexpected files defaults: %q %d", cfg.FilesBackend(), cfg.MaxUploadBytes())
	}
}

func TestLoadCoreConfigFromTOML(t *testing.T) {
	home := setupHome(t)
	writeDataFile(t, home, "config.toml", `
[daemon]
address = "http://127.0.0.1:9999/"

[storage]
backend = "SQLite"
dsn = "db/notes.sqlite"

[files]
backend = "s3"
max_bytes = 2048

[files.s3]
bucket = " notes-bucket "
prefix = "/uploads/"
endpoint = "http://localhost:9000/"
`)

	cfg, err := LoadCoreConfig()
	if err != nil {
		t.Fatalf("LoadCoreConfig: %v", err)
	}
	if cfg.DaemonAddress() != "127.0.0.1:9999" {
		t.Fatalf("unexpected daemon address: %q", cfg.DaemonAddress())
	}
	if cfg.StorageBackend() != "sqlite" {
		t.Fatalf("unexpected storage backend: %q", cfg.StorageBackend())
	}
	dsn, err := cfg.StorageDSN()
	if err != nil {
		t.Fatalf("StorageDSN: %v", err)
	}
	if want := filepath.Join(home, ".notetaker", "db", "notes.sqlite"); dsn != want {
		t.Fatalf("unexpected dsn: got=%q want=%q", dsn, want)
	}
	s3 := cfg.S3()
	if cfg.FilesBackend() != "s3" || s3.Bucket != "notes-bucket" || s3.Prefix != "uploads" || s3.Endpoint != "http://localhost:9000" {
		t.Fatalf("unexpected s3 config: %#v", s3)
	}
	if cfg.MaxUploadBytes() != 2048 {
		t.Fatalf("unexpected max bytes: %d", cfg.MaxUploadBytes())
	}
}

func TestCoreConfigEnvOverrides(t *testing.T) {
	home := setupHome(t)
	writeDataFile(t, home, "config.toml", "[logging]\nlevel = \"warn\"\n")
	t.Setenv("NOTETAKER_DAEMON_ADDRESS", "127.0.0.1:8181")
	t.Setenv("NOTETAKER_LOG_LEVEL", "debug")
	t.Setenv("NOTETAKER_MAX_UPLOAD_BYTES", "512")

	cfg, err := LoadCoreConfig()
	if err != nil {
		t.Fatalf("LoadCoreConfig: %v", err)
	}
	if cfg.DaemonAddress() != "127.0.0.1:8181" {
		t.Fatalf("expected env address, got %q", cfg.DaemonAddress())
	}
	if cfg.LogLevel() != "debug" {
		t.Fatalf("expected env log level, got %q", cfg.LogLevel())
	}
	if cfg.MaxUploadBytes() != 512 {
		t.Fatalf("expected env max bytes, got %d", cfg.MaxUploadBytes())
	}
}

func TestPostgresRequiresDSN(t *testing.T) {
	setupHome(t)
	cfg := DefaultCoreConfig()
	cfg.Storage.Backend = "postgres"
	if _, err := cfg.StorageDSN(); err == nil {
		t.Fatalf("expected error without dsn")
	}
	cfg.Storage.DSN = "postgres://localhost/notes"
	dsn, err := cfg.StorageDSN()
	if err != nil || dsn != "postgres://localhost/notes" {
		t.Fatalf("unexpected dsn %q err=%v", dsn, err)
	}
}

func TestLoadUIConfig(t *testing.T) {
	home := setupHome(t)
	writeDataFile(t, home, "ui.toml", "[panel]\nrecord_id = \"rec-1\"\ntimezone = \"UTC\"\npreview = false\n")

	cfg, err := LoadUIConfig()
	if err != nil {
		t.Fatalf("LoadUIConfig: %v", err)
	}
	if cfg.RecordID() != "rec-1" {
		t.Fatalf("unexpected record id: %q", cfg.RecordID())
	}
	if cfg.Location() != time.UTC {
		t.Fatalf("expected UTC location, got %v", cfg.Location())
	}
	if cfg.PreviewEnabled() {
		t.Fatalf("expected preview disabled")
	}
	if cfg.DescriptionHeight() != 6 {
		t.Fatalf("unexpected description height: %d", cfg.DescriptionHeight())
	}
}

func TestUIConfigUnknownTimezoneFallsBackToLocal(t *testing.T) {
	cfg := UIConfig{Panel: UIPanelConfig{Timezone: "Mars/Olympus"}}
	if cfg.Location() != time.Local {
		t.Fatalf("expected local fallback")
	}
	if !cfg.PreviewEnabled() {
		t.Fatalf("expected preview enabled by default")
	}
}

func TestLoadEnvDoesNotOverrideExisting(t *testing.T) {
	setupHome(t)
	path := filepath.Join(t.TempDir(), ".env")
	content := "NOTETAKER_RECORD_ID=from-file\nNOTETAKER_TIMEZONE=UTC\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv("NOTETAKER_RECORD_ID", "from-env")
	// setupHome registered a restore; an empty but present variable would
	// block the dotenv value.
	_ = os.Unsetenv("NOTETAKER_TIMEZONE")

	if err := LoadEnv(path, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	cfg, err := LoadUIConfig()
	if err != nil {
		t.Fatalf("LoadUIConfig: %v", err)
	}
	if cfg.RecordID() != "from-env" {
		t.Fatalf("expected existing env to win, got %q", cfg.RecordID())
	}
	if cfg.Location() != time.UTC {
		t.Fatalf("expected timezone from dotenv file")
	}
}
