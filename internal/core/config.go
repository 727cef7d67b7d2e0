// Package core contains the client-side logic for PlanWise: the local task
// store, the filter/search projection, the reorder engine, the sync
// coordinator that reconciles local state with the backend, and
// configuration loading.
package core

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/valter-silva-au/planwise/pkg/models"
)

// ConfigFileName is the name of the YAML configuration file, without
// extension, looked up in the base directory.
const ConfigFileName = ".planwise"

// ConfigurationManager loads and validates client configuration.
type ConfigurationManager interface {
	LoadGlobalConfig() (*models.GlobalConfig, error)
	ValidateConfig(cfg *models.GlobalConfig) error
}

// viperConfigManager reads .planwise.yaml with Viper and lets PLANWISE_*
// environment variables override any key.
type viperConfigManager struct {
	basePath string
}

// NewConfigurationManager creates a ConfigurationManager that reads
// .planwise.yaml from basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// DefaultGlobalConfig returns the configuration used when no file exists.
func DefaultGlobalConfig() *models.GlobalConfig {
	return &models.GlobalConfig{
		API: models.APIConfig{
			BaseURL: "http://localhost:8000/api",
			Timeout: 15 * time.Second,
		},
		Sync: models.SyncConfig{
			ReorderScope:      models.ScopeGlobal,
			RollbackOnFailure: true,
			ReorderRetries:    3,
			RetryBackoff:      200 * time.Millisecond,
		},
		CacheEnabled:  true,
		LogLevel:      "warn",
		DefaultFilter: models.FilterAll,
	}
}

// LoadGlobalConfig reads .planwise.yaml from the base path. A missing file
// yields the defaults, still subject to environment overrides.
func (cm *viperConfigManager) LoadGlobalConfig() (*models.GlobalConfig, error) {
	cfg := DefaultGlobalConfig()

	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)

	v.SetEnvPrefix("PLANWISE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("api.base_url", cfg.API.BaseURL)
	v.SetDefault("api.timeout", cfg.API.Timeout)
	v.SetDefault("sync.reorder_scope", string(cfg.Sync.ReorderScope))
	v.SetDefault("sync.rollback_on_failure", cfg.Sync.RollbackOnFailure)
	v.SetDefault("sync.reorder_retries", cfg.Sync.ReorderRetries)
	v.SetDefault("sync.retry_backoff", cfg.Sync.RetryBackoff)
	v.SetDefault("cache.enabled", cfg.CacheEnabled)
	v.SetDefault("log.level", cfg.LogLevel)
	v.SetDefault("tui.default_filter", string(cfg.DefaultFilter))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading %s.yaml: %w", ConfigFileName, err)
		}
	}

	cfg.API.BaseURL = strings.TrimRight(v.GetString("api.base_url"), "/")
	cfg.API.Timeout = v.GetDuration("api.timeout")
	cfg.Sync.ReorderScope = models.ReorderScope(strings.ToLower(v.GetString("sync.reorder_scope")))
	cfg.Sync.RollbackOnFailure = v.GetBool("sync.rollback_on_failure")
	cfg.Sync.ReorderRetries = v.GetInt("sync.reorder_retries")
	cfg.Sync.RetryBackoff = v.GetDuration("sync.retry_backoff")
	cfg.CacheEnabled = v.GetBool("cache.enabled")
	cfg.LogLevel = strings.ToLower(v.GetString("log.level"))
	cfg.DefaultFilter = models.StatusFilter(strings.ToLower(v.GetString("tui.default_filter")))

	return cfg, nil
}

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "warning": true, "error": true,
}

// ValidateConfig checks every field and reports all problems at once.
func (cm *viperConfigManager) ValidateConfig(cfg *models.GlobalConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if cfg.API.BaseURL == "" {
		errs = append(errs, "api.base_url must not be empty")
	} else if u, err := url.Parse(cfg.API.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Sprintf("api.base_url %q must be an absolute http(s) URL", cfg.API.BaseURL))
	}

	if cfg.API.Timeout <= 0 {
		errs = append(errs, fmt.Sprintf("api.timeout must be positive, got %s", cfg.API.Timeout))
	}

	switch cfg.Sync.ReorderScope {
	case models.ScopeGlobal, models.ScopeVisible:
	default:
		errs = append(errs, fmt.Sprintf("sync.reorder_scope %q is invalid, must be one of: visible, global", cfg.Sync.ReorderScope))
	}

	if cfg.Sync.ReorderRetries < 0 || cfg.Sync.ReorderRetries > 10 {
		errs = append(errs, fmt.Sprintf("sync.reorder_retries %d is invalid, must be between 0 and 10", cfg.Sync.ReorderRetries))
	}

	if cfg.Sync.RetryBackoff < 0 {
		errs = append(errs, fmt.Sprintf("sync.retry_backoff must be non-negative, got %s", cfg.Sync.RetryBackoff))
	}

	if !validLogLevels[cfg.LogLevel] {
		errs = append(errs, fmt.Sprintf("log.level %q is invalid, must be one of: trace, debug, info, warn, error", cfg.LogLevel))
	}

	if _, err := ParseStatusFilter(string(cfg.DefaultFilter)); err != nil {
		errs = append(errs, fmt.Sprintf("tui.default_filter %q is invalid, must be one of: all, active, completed", cfg.DefaultFilter))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// configFile mirrors the key layout of .planwise.yaml.
type configFile struct {
	API struct {
		BaseURL string `yaml:"base_url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"api"`
	Sync struct {
		ReorderScope      string `yaml:"reorder_scope"`
		RollbackOnFailure bool   `yaml:"rollback_on_failure"`
		ReorderRetries    int    `yaml:"reorder_retries"`
		RetryBackoff      string `yaml:"retry_backoff"`
	} `yaml:"sync"`
	Cache struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"cache"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	TUI struct {
		DefaultFilter string `yaml:"default_filter"`
	} `yaml:"tui"`
}

// MarshalConfigFile renders cfg in the layout LoadGlobalConfig reads.
func MarshalConfigFile(cfg *models.GlobalConfig) ([]byte, error) {
	var f configFile
	f.API.BaseURL = cfg.API.BaseURL
	f.API.Timeout = cfg.API.Timeout.String()
	f.Sync.ReorderScope = string(cfg.Sync.ReorderScope)
	f.Sync.RollbackOnFailure = cfg.Sync.RollbackOnFailure
	f.Sync.ReorderRetries = cfg.Sync.ReorderRetries
	f.Sync.RetryBackoff = cfg.Sync.RetryBackoff.String()
	f.Cache.Enabled = cfg.CacheEnabled
	f.Log.Level = cfg.LogLevel
	f.TUI.DefaultFilter = string(cfg.DefaultFilter)

	data, err := yaml.Marshal(&f)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}
