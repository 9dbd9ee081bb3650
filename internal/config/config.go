// Package config provides centralized configuration management using Viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration values for atelier.
type Config struct {
	APIBaseURL string `mapstructure:"api_base_url" yaml:"api_base_url"`
	APIToken   string `mapstructure:"api_token" yaml:"api_token"`
	Project    string `mapstructure:"project" yaml:"project"`
	DataDir    string `mapstructure:"data_dir" yaml:"data_dir"`
	LogLevel   string `mapstructure:"log_level" yaml:"log_level"`
	LogFile    string `mapstructure:"log_file" yaml:"log_file"`

	// Attachment limits enforced by the content builder.
	MaxAttachments   int      `mapstructure:"max_attachments" yaml:"max_attachments"`
	MaxAttachmentMB  int      `mapstructure:"max_attachment_mb" yaml:"max_attachment_mb"`
	AllowedMIMETypes []string `mapstructure:"allowed_mime_types" yaml:"allowed_mime_types"`
	CacheTTLMinutes  int      `mapstructure:"cache_ttl_minutes" yaml:"cache_ttl_minutes"`
}

// DefaultAllowedMIMETypes is the attachment allow-list used when the config
// does not override it.
var DefaultAllowedMIMETypes = []string{
	"image/png", "image/jpeg", "image/svg+xml", "image/gif",
	"application/pdf", "application/zip", "text/plain",
}

// Load loads configuration with full precedence:
// CLI flags > ENV vars > project config > XDG global config > defaults
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigName("atelier")

	// Set defaults (api_base_url has no default - it's required)
	v.SetDefault("api_token", "")
	v.SetDefault("project", "")
	v.SetDefault("data_dir", ".atelier")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("max_attachments", 5)
	v.SetDefault("max_attachment_mb", 25)
	v.SetDefault("allowed_mime_types", DefaultAllowedMIMETypes)
	v.SetDefault("cache_ttl_minutes", 15)

	// Setup ENV binding with ATELIER_ prefix
	v.SetEnvPrefix("ATELIER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Explicit ENV bindings for better parsing of non-string values
	// Note: BindEnv errors are very rare (only invalid key names), but we check them anyway
	bindings := map[string]string{
		"api_base_url":      "ATELIER_API_BASE_URL",
		"api_token":         "ATELIER_API_TOKEN",
		"project":           "ATELIER_PROJECT",
		"data_dir":          "ATELIER_DATA_DIR",
		"log_level":         "ATELIER_LOG_LEVEL",
		"log_file":          "ATELIER_LOG_FILE",
		"max_attachments":   "ATELIER_MAX_ATTACHMENTS",
		"max_attachment_mb": "ATELIER_MAX_ATTACHMENT_MB",
		"cache_ttl_minutes": "ATELIER_CACHE_TTL_MINUTES",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s env: %w", key, err)
		}
	}

	// Load global config first (if exists)
	globalPath := GlobalPath()
	if fileExists(globalPath) {
		v.SetConfigFile(globalPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading global config: %w", err)
		}
	}

	// Merge project config on top (if exists)
	projectPath := ProjectPath()
	if fileExists(projectPath) {
		// Need to set config file explicitly for merge
		v.SetConfigFile(projectPath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// MaxAttachmentBytes returns the per-file size limit in bytes.
func (c *Config) MaxAttachmentBytes() int64 {
	return int64(c.MaxAttachmentMB) * 1024 * 1024
}

// Exists returns true if any config file exists (global or project).
func Exists() bool {
	return fileExists(GlobalPath()) || fileExists(ProjectPath())
}

// GlobalPath returns the XDG global config path.
// Returns ~/.config/atelier/atelier.yml or $XDG_CONFIG_HOME/atelier/atelier.yml.
func GlobalPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "atelier", "atelier.yml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "atelier", "atelier.yml")
}

// ProjectPath returns the project-local config path.
// Returns ./atelier.yml in the current working directory.
func ProjectPath() string {
	return "atelier.yml"
}

// WriteGlobal writes the config to the XDG global location.
func WriteGlobal(cfg *Config) error {
	path := GlobalPath()

	// Create parent directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	// Marshal to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	// Write file
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// WriteProject writes the config to the project-local location.
func WriteProject(cfg *Config) error {
	path := ProjectPath()

	// Marshal to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	// Write file
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// fileExists checks if a file exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
