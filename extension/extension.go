// Package extension provides the Forge extension adapter for Junction.
//
// It implements the forge.Extension interface to integrate Junction
// into a Forge application with DI registration and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.junction" or
// "junction" keys.
package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/vessel"

	"github.com/xraph/junction"
	"github.com/xraph/junction/catalog"
	"github.com/xraph/junction/store"
	"github.com/xraph/junction/store/memory"
	"github.com/xraph/junction/store/mongo"
	"github.com/xraph/junction/store/postgres"
	"github.com/xraph/junction/store/sqlite"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "junction"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Blocking-aware billing event engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Junction as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config       Config
	engine       *junction.Junction
	store        store.Store
	groveDB      *grove.DB
	catalog      catalog.Catalog
	junctionOpts []junction.Option
}

// New creates a new Junction Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Junction instance.
// This is nil until Register is called.
func (e *Extension) Engine() *junction.Junction { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the junction engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if e.store == nil {
		s, err := storeForDriver(e.config.Driver, e.groveDB)
		if err != nil {
			return err
		}
		e.store = s
	}

	if e.catalog == nil && e.config.CatalogFile != "" {
		c, err := catalog.LoadFile(e.config.CatalogFile)
		if err != nil {
			return fmt.Errorf("junction: load catalog: %w", err)
		}
		e.Logger().Info("junction: catalog loaded",
			forge.F("name", c.Name()),
			forge.F("file", e.config.CatalogFile),
		)
		e.catalog = c
	}

	e.engine = junction.New(e.store, e.buildJunctionOpts()...)

	if err := vessel.Provide(fapp.Container(), func() (*junction.Junction, error) {
		return e.engine, nil
	}); err != nil {
		return err
	}
	return vessel.Provide(fapp.Container(), func() (store.Store, error) {
		return e.store, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("junction: extension not initialized")
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("junction: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildJunctionOpts constructs junction.Option values from the resolved config.
func (e *Extension) buildJunctionOpts() []junction.Option {
	opts := make([]junction.Option, 0, len(e.junctionOpts)+5)

	if e.catalog != nil {
		opts = append(opts, junction.WithCatalog(e.catalog))
	}
	if e.config.MinBlockingDuration > 0 {
		opts = append(opts, junction.WithMinBlockingDuration(e.config.MinBlockingDuration))
	}
	if e.config.PluginTimeout > 0 {
		opts = append(opts, junction.WithPluginTimeout(e.config.PluginTimeout))
	}
	if e.config.FailFast {
		opts = append(opts, junction.WithFailFast(true))
	}
	if e.config.DisableMigrate {
		opts = append(opts, junction.WithoutMigrate())
	}

	// Pass-through options last so they win.
	opts = append(opts, e.junctionOpts...)

	return opts
}

// storeForDriver builds the store backend named by driver around db.
func storeForDriver(driver string, db *grove.DB) (store.Store, error) {
	if db == nil {
		if driver != "" && driver != DriverMemory {
			return nil, fmt.Errorf("junction: driver %q needs a grove database", driver)
		}
		return memory.New(), nil
	}

	switch driver {
	case DriverPostgres:
		return postgres.New(db), nil
	case DriverSQLite:
		return sqlite.New(db), nil
	case DriverMongo:
		return mongo.New(db), nil
	default:
		return nil, fmt.Errorf("junction: unsupported store driver %q", driver)
	}
}

// --- Config Loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("junction: configuration is required but not found in config files; " +
				"ensure 'extensions.junction' or 'junction' key exists in your config")
		}

		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("junction: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("driver", e.config.Driver),
		forge.F("catalog_file", e.config.CatalogFile),
		forge.F("min_blocking_duration", e.config.MinBlockingDuration),
		forge.F("fail_fast", e.config.FailFast),
		forge.F("plugin_timeout", e.config.PluginTimeout),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	for _, key := range []string{"extensions.junction", "junction"} {
		if !cm.IsSet(key) {
			continue
		}
		if err := cm.Bind(key, &cfg); err == nil {
			e.Logger().Debug("junction: loaded config from file",
				forge.F("key", key),
			)
			return cfg, true
		}
		e.Logger().Warn("junction: failed to bind config",
			forge.F("key", key),
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.Driver == "" {
		cfg.Driver = defaults.Driver
	}
	if cfg.MinBlockingDuration == 0 {
		cfg.MinBlockingDuration = defaults.MinBlockingDuration
	}
	if cfg.PluginTimeout == 0 {
		cfg.PluginTimeout = defaults.PluginTimeout
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if programmaticConfig.FailFast {
		yamlConfig.FailFast = true
	}

	if yamlConfig.Driver == "" && programmaticConfig.Driver != "" {
		yamlConfig.Driver = programmaticConfig.Driver
	}
	if yamlConfig.CatalogFile == "" && programmaticConfig.CatalogFile != "" {
		yamlConfig.CatalogFile = programmaticConfig.CatalogFile
	}

	if yamlConfig.MinBlockingDuration == 0 && programmaticConfig.MinBlockingDuration != 0 {
		yamlConfig.MinBlockingDuration = programmaticConfig.MinBlockingDuration
	}
	if yamlConfig.PluginTimeout == 0 && programmaticConfig.PluginTimeout != 0 {
		yamlConfig.PluginTimeout = programmaticConfig.PluginTimeout
	}

	return e.mergeWithDefaults(yamlConfig)
}
