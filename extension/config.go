package extension

import "time"

// Store drivers understood by Config.Driver.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
)

// Config holds the Junction extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.junction" or "junction" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// Driver selects the store backend built around the grove.DB passed
	// with WithGroveDB: "postgres", "sqlite" or "mongo". Without a grove.DB
	// the in-memory store is used (default: "memory").
	Driver string `json:"driver" mapstructure:"driver" yaml:"driver"`

	// CatalogFile is a YAML catalog loaded at registration when no catalog
	// was supplied with WithCatalog.
	CatalogFile string `json:"catalog_file" mapstructure:"catalog_file" yaml:"catalog_file"`

	// MinBlockingDuration is the shortest closed blocked period that still
	// disables billing (default: 24h).
	MinBlockingDuration time.Duration `json:"min_blocking_duration" mapstructure:"min_blocking_duration" yaml:"min_blocking_duration"`

	// FailFast aborts a computation on the first failing subscription
	// instead of skipping it.
	FailFast bool `json:"fail_fast" mapstructure:"fail_fast" yaml:"fail_fast"`

	// PluginTimeout bounds a single plugin hook call (default: 5s).
	PluginTimeout time.Duration `json:"plugin_timeout" mapstructure:"plugin_timeout" yaml:"plugin_timeout"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Driver:              DriverMemory,
		MinBlockingDuration: 24 * time.Hour,
		PluginTimeout:       5 * time.Second,
	}
}
