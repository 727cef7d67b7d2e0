package models

import "time"

// ReorderScope selects which tasks a reorder payload renumbers.
type ReorderScope string

const (
	// ScopeVisible renumbers only the tasks in the filtered view; tasks hidden
	// by the filter keep whatever order the backend already has for them.
	ScopeVisible ReorderScope = "visible"
	// ScopeGlobal renumbers the whole collection, keeping hidden tasks in
	// their slots, so order values stay unique.
	ScopeGlobal ReorderScope = "global"
)

// APIConfig holds backend connection settings.
type APIConfig struct {
	BaseURL string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// SyncConfig controls the reconcile-by-refetch behavior.
type SyncConfig struct {
	ReorderScope      ReorderScope  `yaml:"reorder_scope" mapstructure:"reorder_scope"`
	RollbackOnFailure bool          `yaml:"rollback_on_failure" mapstructure:"rollback_on_failure"`
	ReorderRetries    int           `yaml:"reorder_retries" mapstructure:"reorder_retries"`
	RetryBackoff      time.Duration `yaml:"retry_backoff" mapstructure:"retry_backoff"`
}

// GlobalConfig holds client settings read from .planwise.yaml via Viper.
type GlobalConfig struct {
	API           APIConfig    `yaml:"api" mapstructure:"api"`
	Sync          SyncConfig   `yaml:"sync" mapstructure:"sync"`
	CacheEnabled  bool         `yaml:"cache_enabled" mapstructure:"cache_enabled"`
	LogLevel      string       `yaml:"log_level" mapstructure:"log_level"`
	DefaultFilter StatusFilter `yaml:"default_filter" mapstructure:"default_filter"`
}
