package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig
	Export   ExportConfig
	Drive    DriveConfig
	Log      LogConfig
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
}

// ExportConfig holds local CSV export settings.
type ExportConfig struct {
	Dir string
}

// DriveConfig holds remote object-store endpoints.
type DriveConfig struct {
	APIBaseURL    string
	UploadBaseURL string
}

// LogConfig holds log output settings.
type LogConfig struct {
	Path string
}

// Load reads configuration from file and env. Env var overrides use prefix POCKETLEDGER_.
func Load() (Config, error) {
	v := viper.New()

	dataDir := filepath.Join(os.Getenv("HOME"), ".local", "share", "pocketledger")

	// default values
	v.SetDefault("database.path", filepath.Join(dataDir, "pocketledger.db"))
	v.SetDefault("export.dir", filepath.Join(dataDir, "exports"))
	v.SetDefault("drive.api_base_url", "https://www.googleapis.com/drive/v3")
	v.SetDefault("drive.upload_base_url", "https://www.googleapis.com/upload/drive/v3")
	v.SetDefault("log.path", filepath.Join(dataDir, "pocketledger.log"))

	v.SetConfigType("toml")

	cfgPath := os.Getenv("POCKETLEDGER_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "pocketledger"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("POCKETLEDGER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Save writes the provided config to disk, creating the config directory if needed.
func Save(cfg Config) error {
	path := os.Getenv("POCKETLEDGER_CONFIG")
	if path == "" {
		path = filepath.Join(os.Getenv("HOME"), ".config", "pocketledger", "config.toml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("database.path", cfg.Database.Path)
	v.Set("export.dir", cfg.Export.Dir)
	v.Set("drive.api_base_url", cfg.Drive.APIBaseURL)
	v.Set("drive.upload_base_url", cfg.Drive.UploadBaseURL)
	v.Set("log.path", cfg.Log.Path)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
