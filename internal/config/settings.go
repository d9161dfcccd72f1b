package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	defaultDaemonAddress   = "127.0.0.1:7878"
	defaultStorageBackend  = "bbolt"
	defaultFilesBackend    = "fs"
	defaultMaxUploadBytes  = 10 << 20
	defaultDescriptionRows = 6
)

var (
	storageBackends = []string{"file", "bbolt", "sqlite", "postgres"}
	filesBackends   = []string{"fs", "s3"}
)

type CoreConfig struct {
	Daemon  CoreDaemonConfig  `toml:"daemon"`
	Storage CoreStorageConfig `toml:"storage"`
	Files   CoreFilesConfig   `toml:"files"`
	Logging CoreLoggingConfig `toml:"logging"`
}

type CoreDaemonConfig struct {
	Address string `toml:"address"`
}

// CoreStorageConfig selects the note and attachment metadata backend. DSN is
// a path for file/bbolt/sqlite and a connection string for postgres.
type CoreStorageConfig struct {
	Backend string `toml:"backend"`
	DSN     string `toml:"dsn"`
}

type CoreFilesConfig struct {
	Backend  string       `toml:"backend"`
	Dir      string       `toml:"dir"`
	MaxBytes int64        `toml:"max_bytes"`
	S3       CoreS3Config `toml:"s3"`
}

type CoreS3Config struct {
	Bucket          string `toml:"bucket"`
	Region          string `toml:"region"`
	Prefix          string `toml:"prefix"`
	Endpoint        string `toml:"endpoint"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	UsePathStyle    bool   `toml:"use_path_style"`
}

type CoreLoggingConfig struct {
	Level string `toml:"level"`
}

type UIConfig struct {
	Panel   UIPanelConfig   `toml:"panel"`
	Input   UIInputConfig   `toml:"input"`
	Logging UILoggingConfig `toml:"logging"`
}

type UIPanelConfig struct {
	RecordID string `toml:"record_id"`
	Timezone string `toml:"timezone"`
	Preview  *bool  `toml:"preview"`
}

type UIInputConfig struct {
	DescriptionHeight int `toml:"description_height"`
}

type UILoggingConfig struct {
	Level string `toml:"level"`
}

func DefaultCoreConfig() CoreConfig {
	return CoreConfig{
		Daemon: CoreDaemonConfig{
			Address: defaultDaemonAddress,
		},
		Storage: CoreStorageConfig{
			Backend: defaultStorageBackend,
		},
		Files: CoreFilesConfig{
			Backend:  defaultFilesBackend,
			MaxBytes: defaultMaxUploadBytes,
		},
		Logging: CoreLoggingConfig{
			Level: "info",
		},
	}
}

func LoadCoreConfig() (CoreConfig, error) {
	path, err := CoreConfigPath()
	if err != nil {
		return CoreConfig{}, err
	}
	cfg, err := loadCoreConfigFromPath(path)
	if err != nil {
		return CoreConfig{}, err
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c CoreConfig) DaemonAddress() string {
	addr := strings.TrimSpace(c.Daemon.Address)
	if addr == "" {
		return defaultDaemonAddress
	}
	addr = strings.TrimPrefix(addr, "http://")
	addr = strings.TrimPrefix(addr, "https://")
	addr = strings.TrimRight(addr, "/")
	if addr == "" {
		return defaultDaemonAddress
	}
	return addr
}

func (c CoreConfig) DaemonBaseURL() string {
	return "http://" + c.DaemonAddress()
}

func (c CoreConfig) LogLevel() string {
	level := strings.TrimSpace(c.Logging.Level)
	if level == "" {
		return "info"
	}
	return level
}

func (c CoreConfig) StorageBackend() string {
	return oneOf(c.Storage.Backend, storageBackends, defaultStorageBackend)
}

// StorageDSN resolves the storage location for the selected backend. Empty
// values fall back to files under the data dir; postgres has no fallback.
func (c CoreConfig) StorageDSN() (string, error) {
	dsn := strings.TrimSpace(c.Storage.DSN)
	backend := c.StorageBackend()
	if backend == "postgres" {
		if dsn == "" {
			return "", errors.New("storage dsn is required for postgres")
		}
		return dsn, nil
	}
	if dsn != "" {
		return resolveConfigPath(dsn)
	}
	switch backend {
	case "file":
		return DataDir()
	case "sqlite":
		return SQLitePath()
	default:
		return DBPath()
	}
}

func (c CoreConfig) FilesBackend() string {
	return oneOf(c.Files.Backend, filesBackends, defaultFilesBackend)
}

func (c CoreConfig) FilesDir() (string, error) {
	dir := strings.TrimSpace(c.Files.Dir)
	if dir == "" {
		return BlobDir()
	}
	return resolveConfigPath(dir)
}

func (c CoreConfig) MaxUploadBytes() int64 {
	if c.Files.MaxBytes <= 0 {
		return defaultMaxUploadBytes
	}
	return c.Files.MaxBytes
}

func (c CoreConfig) S3() CoreS3Config {
	s3 := c.Files.S3
	s3.Bucket = strings.TrimSpace(s3.Bucket)
	s3.Region = strings.TrimSpace(s3.Region)
	s3.Prefix = strings.Trim(strings.TrimSpace(s3.Prefix), "/")
	s3.Endpoint = strings.TrimRight(strings.TrimSpace(s3.Endpoint), "/")
	return s3
}

func (c *CoreConfig) applyEnv() {
	setFromEnv(&c.Daemon.Address, "DAEMON_ADDRESS")
	setFromEnv(&c.Storage.Backend, "STORAGE_BACKEND")
	setFromEnv(&c.Storage.DSN, "STORAGE_DSN")
	setFromEnv(&c.Files.Backend, "FILES_BACKEND")
	setFromEnv(&c.Files.Dir, "FILES_DIR")
	setFromEnv(&c.Files.S3.Bucket, "S3_BUCKET")
	setFromEnv(&c.Files.S3.Region, "S3_REGION")
	setFromEnv(&c.Files.S3.Prefix, "S3_PREFIX")
	setFromEnv(&c.Files.S3.Endpoint, "S3_ENDPOINT")
	setFromEnv(&c.Logging.Level, "LOG_LEVEL")
	if raw := envValue("MAX_UPLOAD_BYTES"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 {
			c.Files.MaxBytes = n
		}
	}
}

func DefaultUIConfig() UIConfig {
	return UIConfig{
		Input: UIInputConfig{
			DescriptionHeight: defaultDescriptionRows,
		},
		Logging: UILoggingConfig{
			Level: "info",
		},
	}
}

func LoadUIConfig() (UIConfig, error) {
	path, err := UIConfigPath()
	if err != nil {
		return UIConfig{}, err
	}
	cfg, err := loadUIConfigFromPath(path)
	if err != nil {
		return UIConfig{}, err
	}
	cfg.applyEnv()
	return cfg, nil
}

// RecordID is the parent record the panel lists notes and uploads files for.
func (c UIConfig) RecordID() string {
	return strings.TrimSpace(c.Panel.RecordID)
}

// Location resolves the timezone used for note display dates. An unknown
// zone falls back to the local zone.
func (c UIConfig) Location() *time.Location {
	name := strings.TrimSpace(c.Panel.Timezone)
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.Local
	}
	return loc
}

func (c UIConfig) PreviewEnabled() bool {
	if c.Panel.Preview == nil {
		return true
	}
	return *c.Panel.Preview
}

func (c UIConfig) DescriptionHeight() int {
	if c.Input.DescriptionHeight <= 0 {
		return defaultDescriptionRows
	}
	return c.Input.DescriptionHeight
}

func (c UIConfig) LogLevel() string {
	level := strings.TrimSpace(c.Logging.Level)
	if level == "" {
		return "info"
	}
	return level
}

func (c *UIConfig) applyEnv() {
	setFromEnv(&c.Panel.RecordID, "RECORD_ID")
	setFromEnv(&c.Panel.Timezone, "TIMEZONE")
	setFromEnv(&c.Logging.Level, "UI_LOG_LEVEL")
}

func loadCoreConfigFromPath(path string) (CoreConfig, error) {
	cfg := DefaultCoreConfig()
	if err := readTOML(path, &cfg); err != nil {
		return CoreConfig{}, err
	}
	return cfg, nil
}

func loadUIConfigFromPath(path string) (UIConfig, error) {
	cfg := DefaultUIConfig()
	if err := readTOML(path, &cfg); err != nil {
		return UIConfig{}, err
	}
	return cfg, nil
}

func readTOML(path string, out any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	return toml.Unmarshal(data, out)
}

// MarshalTOML renders a config the way it would be written to disk.
func MarshalTOML(cfg any) ([]byte, error) {
	return toml.Marshal(cfg)
}

func resolveConfigPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", errors.New("path is required")
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[2:]), nil
	}
	if filepath.IsAbs(path) {
		return path, nil
	}
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, path), nil
}

func oneOf(raw string, allowed []string, fallback string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	for _, candidate := range allowed {
		if value == candidate {
			return value
		}
	}
	return fallback
}
