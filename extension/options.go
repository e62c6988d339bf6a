package extension

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/junction"
	"github.com/xraph/junction/catalog"
	"github.com/xraph/junction/plugin"
	"github.com/xraph/junction/store"
)

// Option configures the Junction Forge extension.
type Option func(*Extension)

// WithStore sets the store for the junction engine. It wins over
// WithGroveDB.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithGroveDB builds the store backend for Config.Driver around db.
func WithGroveDB(db *grove.DB) Option {
	return func(e *Extension) {
		e.groveDB = db
	}
}

// WithDriver sets the store backend used with WithGroveDB.
func WithDriver(driver string) Option {
	return func(e *Extension) { e.config.Driver = driver }
}

// WithJunctionOption passes a junction.Option through to the underlying engine.
func WithJunctionOption(opt junction.Option) Option {
	return func(e *Extension) {
		e.junctionOpts = append(e.junctionOpts, opt)
	}
}

// WithPlugin registers a junction plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.junctionOpts = append(e.junctionOpts, junction.WithPlugin(p))
	}
}

// WithCatalog sets the catalog billing events are priced from.
func WithCatalog(c catalog.Catalog) Option {
	return func(e *Extension) { e.catalog = c }
}

// WithCatalogFile loads the catalog from a YAML file at registration.
func WithCatalogFile(path string) Option {
	return func(e *Extension) { e.config.CatalogFile = path }
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithMinBlockingDuration sets the shortest blocked period that disables
// billing.
func WithMinBlockingDuration(d time.Duration) Option {
	return func(e *Extension) { e.config.MinBlockingDuration = d }
}

// WithFailFast aborts computations on the first failing subscription.
func WithFailFast() Option {
	return func(e *Extension) { e.config.FailFast = true }
}

// WithPluginTimeout bounds a single plugin hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(e *Extension) { e.config.PluginTimeout = d }
}
