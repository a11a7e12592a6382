// Package config loads swimfit settings from a YAML file, environment
// variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

const (
	keyServerAddr      = "server.addr"
	keyMaxUploadBytes  = "server.max_upload_bytes"
	keyReadTimeout     = "server.read_timeout"
	keyWriteTimeout    = "server.write_timeout"
	keyMaxDocBytes     = "server.max_document_bytes"
	keyDBPath          = "storage.db_path"
	keyTempDir         = "storage.temp_dir"
	keySessionTTL      = "storage.session_ttl"
	keyLogFile         = "log.file"
	keyLogLevel        = "log.level"
	keyLogMaxSizeMB    = "log.max_size_mb"
	keyLogMaxBackups   = "log.max_backups"
	keyLogMaxAgeDays   = "log.max_age_days"
	keyExportFormat    = "export.format"
	keyExportOverwrite = "export.overwrite"
)

const envPrefix = "SWIMFIT"

var (
	appDir         = "swim-data-analyser"
	configFileName = "config.yml"
	dbFileName     = "sessions.db"
	logFileName    = "swimfit.log"
)

type (
	// Config holds all configuration settings.
	Config struct {
		Server  ServerConfig
		Storage StorageConfig
		Log     LogConfig
		Export  ExportConfig
	}

	ServerConfig struct {
		Addr             string
		MaxUploadBytes   int64
		MaxDocumentBytes int
		ReadTimeout      time.Duration
		WriteTimeout     time.Duration
	}

	StorageConfig struct {
		DBPath     string
		TempDir    string
		SessionTTL time.Duration
	}

	// LogConfig controls the rotating server log.
	LogConfig struct {
		File       string
		Level      string
		MaxSizeMB  int
		MaxBackups int
		MaxAgeDays int
	}

	ExportConfig struct {
		Format    string
		Overwrite bool
	}
)

// DefaultPath returns the config file location under the XDG config home.
func DefaultPath() (string, error) {
	p, err := xdg.ConfigFile(filepath.Join(appDir, configFileName))
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}

	return p, nil
}

// Load reads the config file at path, writing one with the defaults if it
// does not exist yet. An empty path means DefaultPath. SWIMFIT_* environment
// variables override file values, e.g. SWIMFIT_SERVER_ADDR.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error

		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := setDefaults(v); err != nil {
		return nil, err
	}

	err := v.ReadInConfig()
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading config file failed: %w", err)
		}

		if err := v.WriteConfigAs(path); err != nil {
			return nil, fmt.Errorf("writing default config failed: %w", err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) error {
	dataDir, err := xdg.DataFile(appDir)
	if err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}

	stateDir, err := xdg.StateFile(appDir)
	if err != nil {
		return fmt.Errorf("resolve state dir: %w", err)
	}

	v.SetDefault(keyServerAddr, ":8000")
	v.SetDefault(keyMaxUploadBytes, 10<<20)
	v.SetDefault(keyMaxDocBytes, 2400<<10)
	v.SetDefault(keyReadTimeout, "30s")
	v.SetDefault(keyWriteTimeout, "60s")
	v.SetDefault(keyDBPath, filepath.Join(dataDir, dbFileName))
	v.SetDefault(keyTempDir, "")
	v.SetDefault(keySessionTTL, "168h")
	v.SetDefault(keyLogFile, filepath.Join(stateDir, logFileName))
	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyLogMaxSizeMB, 10)
	v.SetDefault(keyLogMaxBackups, 3)
	v.SetDefault(keyLogMaxAgeDays, 28)
	v.SetDefault(keyExportFormat, "parquet")
	v.SetDefault(keyExportOverwrite, false)

	return nil
}

func fromViper(v *viper.Viper) (*Config, error) {
	c := &Config{
		Server: ServerConfig{
			Addr:             v.GetString(keyServerAddr),
			MaxUploadBytes:   v.GetInt64(keyMaxUploadBytes),
			MaxDocumentBytes: v.GetInt(keyMaxDocBytes),
			ReadTimeout:      v.GetDuration(keyReadTimeout),
			WriteTimeout:     v.GetDuration(keyWriteTimeout),
		},
		Storage: StorageConfig{
			DBPath:     v.GetString(keyDBPath),
			TempDir:    v.GetString(keyTempDir),
			SessionTTL: v.GetDuration(keySessionTTL),
		},
		Log: LogConfig{
			File:       v.GetString(keyLogFile),
			Level:      v.GetString(keyLogLevel),
			MaxSizeMB:  v.GetInt(keyLogMaxSizeMB),
			MaxBackups: v.GetInt(keyLogMaxBackups),
			MaxAgeDays: v.GetInt(keyLogMaxAgeDays),
		},
		Export: ExportConfig{
			Format:    strings.ToLower(v.GetString(keyExportFormat)),
			Overwrite: v.GetBool(keyExportOverwrite),
		},
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("%s must not be empty", keyServerAddr)
	}

	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("%s must be positive", keyMaxUploadBytes)
	}

	if c.Storage.DBPath == "" {
		return fmt.Errorf("%s must not be empty", keyDBPath)
	}

	switch c.Export.Format {
	case "parquet", "csv":
	default:
		return fmt.Errorf("%s: unsupported format %q", keyExportFormat, c.Export.Format)
	}

	return nil
}
