package extension

import (
	"testing"
	"time"

	"github.com/xraph/junction/store/memory"
)

func TestMergeWithDefaults(t *testing.T) {
	e := &Extension{}
	cfg := e.mergeWithDefaults(Config{MinBlockingDuration: time.Hour})

	if cfg.MinBlockingDuration != time.Hour {
		t.Errorf("MinBlockingDuration = %v, want 1h", cfg.MinBlockingDuration)
	}
	if cfg.Driver != DriverMemory {
		t.Errorf("Driver = %q, want %q", cfg.Driver, DriverMemory)
	}
	if cfg.PluginTimeout != 5*time.Second {
		t.Errorf("PluginTimeout = %v, want 5s", cfg.PluginTimeout)
	}
}

func TestMergeConfigurations(t *testing.T) {
	e := &Extension{}
	file := Config{
		Driver:              DriverPostgres,
		MinBlockingDuration: 48 * time.Hour,
	}
	programmatic := Config{
		Driver:         DriverSQLite,
		CatalogFile:    "catalog.yaml",
		DisableMigrate: true,
		FailFast:       true,
		PluginTimeout:  time.Second,
	}

	cfg := e.mergeConfigurations(file, programmatic)

	if cfg.Driver != DriverPostgres {
		t.Errorf("Driver = %q, file value should win", cfg.Driver)
	}
	if cfg.MinBlockingDuration != 48*time.Hour {
		t.Errorf("MinBlockingDuration = %v, want 48h", cfg.MinBlockingDuration)
	}
	if cfg.CatalogFile != "catalog.yaml" {
		t.Errorf("CatalogFile = %q, want programmatic value", cfg.CatalogFile)
	}
	if !cfg.DisableMigrate || !cfg.FailFast {
		t.Error("programmatic bool flags should carry over")
	}
	if cfg.PluginTimeout != time.Second {
		t.Errorf("PluginTimeout = %v, want 1s", cfg.PluginTimeout)
	}
}

func TestStoreForDriver(t *testing.T) {
	s, err := storeForDriver(DriverMemory, nil)
	if err != nil {
		t.Fatalf("memory driver: %v", err)
	}
	if _, ok := s.(*memory.Store); !ok {
		t.Errorf("store = %T, want *memory.Store", s)
	}

	if _, err := storeForDriver("", nil); err != nil {
		t.Errorf("empty driver: %v", err)
	}
	if _, err := storeForDriver(DriverPostgres, nil); err == nil {
		t.Error("postgres without a database should fail")
	}
}

func TestBuildJunctionOpts(t *testing.T) {
	e := New(
		WithMinBlockingDuration(time.Hour),
		WithFailFast(),
		WithDisableMigrate(),
	)
	e.config = e.mergeWithDefaults(e.config)

	// min duration, plugin timeout, fail fast, migrate
	if got := len(e.buildJunctionOpts()); got != 4 {
		t.Errorf("len(opts) = %d, want 4", got)
	}
}
