package main

import (
	"encoding/json"
	"errors"
	"flag"
	"io"
	"strings"

	"notetaker/internal/config"
)

type ConfigCommand struct {
	stdout io.Writer
	stderr io.Writer
}

const (
	configFormatJSON = "json"
	configFormatTOML = "toml"

	configScopeCore = "core"
	configScopeUI   = "ui"
)

type configOutput struct {
	CoreConfigPath string                  `json:"core_config_path,omitempty" toml:"core_config_path,omitempty"`
	UIConfigPath   string                  `json:"ui_config_path,omitempty" toml:"ui_config_path,omitempty"`
	Daemon         *effectiveDaemonConfig  `json:"daemon,omitempty" toml:"daemon,omitempty"`
	Storage        *effectiveStorageConfig `json:"storage,omitempty" toml:"storage,omitempty"`
	Files          *effectiveFilesConfig   `json:"files,omitempty" toml:"files,omitempty"`
	Logging        *effectiveLoggingConfig `json:"logging,omitempty" toml:"logging,omitempty"`
	Panel          *effectivePanelConfig   `json:"panel,omitempty" toml:"panel,omitempty"`
}

type effectiveDaemonConfig struct {
	Address string `json:"address" toml:"address"`
	BaseURL string `json:"base_url" toml:"base_url"`
}

type effectiveStorageConfig struct {
	Backend string `json:"backend" toml:"backend"`
	DSN     string `json:"dsn,omitempty" toml:"dsn,omitempty"`
}

type effectiveFilesConfig struct {
	Backend  string `json:"backend" toml:"backend"`
	Dir      string `json:"dir,omitempty" toml:"dir,omitempty"`
	Bucket   string `json:"bucket,omitempty" toml:"bucket,omitempty"`
	Region   string `json:"region,omitempty" toml:"region,omitempty"`
	Endpoint string `json:"endpoint,omitempty" toml:"endpoint,omitempty"`
	MaxBytes int64  `json:"max_bytes" toml:"max_bytes"`
}

type effectiveLoggingConfig struct {
	Level   string `json:"level" toml:"level"`
	UILevel string `json:"ui_level,omitempty" toml:"ui_level,omitempty"`
}

type effectivePanelConfig struct {
	RecordID          string `json:"record_id" toml:"record_id"`
	Timezone          string `json:"timezone" toml:"timezone"`
	Preview           bool   `json:"preview" toml:"preview"`
	DescriptionHeight int    `json:"description_height" toml:"description_height"`
}

func NewConfigCommand(stdout, stderr io.Writer) *ConfigCommand {
	return &ConfigCommand{
		stdout: stdout,
		stderr: stderr,
	}
}

func (c *ConfigCommand) Run(args []string) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	defaults := fs.Bool("default", false, "print default config values")
	format := fs.String("format", configFormatTOML, "output format: toml|json")
	var scopes stringList
	fs.Var(&scopes, "scope", "scope to print: core|ui|all (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	resolvedFormat, err := resolveConfigFormat(*format)
	if err != nil {
		return err
	}
	resolvedScopes, err := resolveConfigScopes(scopes)
	if err != nil {
		return err
	}
	payload, err := buildConfigOutput(*defaults, resolvedScopes)
	if err != nil {
		return err
	}
	return writeConfigOutput(c.stdout, resolvedFormat, payload)
}

func buildConfigOutput(defaults bool, scopes map[string]struct{}) (configOutput, error) {
	out := configOutput{}

	if scopeSelected(scopes, configScopeCore) {
		corePath, err := config.CoreConfigPath()
		if err != nil {
			return configOutput{}, err
		}
		coreCfg := config.DefaultCoreConfig()
		if !defaults {
			coreCfg, err = config.LoadCoreConfig()
			if err != nil {
				return configOutput{}, err
			}
		}
		out.CoreConfigPath = corePath
		out.Daemon = &effectiveDaemonConfig{
			Address: coreCfg.DaemonAddress(),
			BaseURL: coreCfg.DaemonBaseURL(),
		}
		storage := &effectiveStorageConfig{Backend: coreCfg.StorageBackend()}
		if dsn, err := coreCfg.StorageDSN(); err == nil && storage.Backend != "postgres" {
			storage.DSN = dsn
		}
		out.Storage = storage
		files := &effectiveFilesConfig{
			Backend:  coreCfg.FilesBackend(),
			MaxBytes: coreCfg.MaxUploadBytes(),
		}
		if files.Backend == "s3" {
			s3 := coreCfg.S3()
			files.Bucket = s3.Bucket
			files.Region = s3.Region
			files.Endpoint = s3.Endpoint
		} else if dir, err := coreCfg.FilesDir(); err == nil {
			files.Dir = dir
		}
		out.Files = files
		out.Logging = &effectiveLoggingConfig{Level: coreCfg.LogLevel()}
	}

	if scopeSelected(scopes, configScopeUI) {
		uiPath, err := config.UIConfigPath()
		if err != nil {
			return configOutput{}, err
		}
		uiCfg := config.DefaultUIConfig()
		if !defaults {
			uiCfg, err = config.LoadUIConfig()
			if err != nil {
				return configOutput{}, err
			}
		}
		out.UIConfigPath = uiPath
		out.Panel = &effectivePanelConfig{
			RecordID:          uiCfg.RecordID(),
			Timezone:          uiCfg.Location().String(),
			Preview:           uiCfg.PreviewEnabled(),
			DescriptionHeight: uiCfg.DescriptionHeight(),
		}
		if out.Logging == nil {
			out.Logging = &effectiveLoggingConfig{}
		}
		out.Logging.UILevel = uiCfg.LogLevel()
	}
	return out, nil
}

func writeConfigOutput(out io.Writer, format string, payload any) error {
	switch format {
	case configFormatJSON:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(payload)
	case configFormatTOML:
		data, err := config.MarshalTOML(payload)
		if err != nil {
			return err
		}
		if len(data) == 0 || data[len(data)-1] != '\n' {
			data = append(data, '\n')
		}
		_, err = out.Write(data)
		return err
	default:
		return errors.New("unsupported format")
	}
}

func resolveConfigFormat(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", configFormatTOML:
		return configFormatTOML, nil
	case configFormatJSON:
		return configFormatJSON, nil
	default:
		return "", errors.New("invalid format: must be toml or json")
	}
}

func resolveConfigScopes(raw []string) (map[string]struct{}, error) {
	scopes := map[string]struct{}{}
	if len(raw) == 0 {
		scopes[configScopeCore] = struct{}{}
		scopes[configScopeUI] = struct{}{}
		return scopes, nil
	}
	for _, entry := range raw {
		for _, part := range strings.Split(entry, ",") {
			switch scope := strings.ToLower(strings.TrimSpace(part)); scope {
			case "":
			case "all":
				scopes[configScopeCore] = struct{}{}
				scopes[configScopeUI] = struct{}{}
			case configScopeCore, configScopeUI:
				scopes[scope] = struct{}{}
			default:
				return nil, errors.New("invalid scope: must be core, ui, or all")
			}
		}
	}
	if len(scopes) == 0 {
		return nil, errors.New("at least one scope is required")
	}
	return scopes, nil
}

func scopeSelected(scopes map[string]struct{}, scope string) bool {
	_, ok := scopes[scope]
	return ok
}

type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ",")
}

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}
