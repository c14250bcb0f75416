package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/sweep/core/metrics"
	"github.com/kilianp07/sweep/core/runner"
	"github.com/kilianp07/sweep/infra/mqtt"
)

// EnvPrefix marks environment overrides; "__" separates nested keys, so
// SWEEP_CACHE__DIR sets cache.dir.
const EnvPrefix = "SWEEP_"

// DefaultPath is read when no configuration file is named.
const DefaultPath = "sweep.yaml"

type Config struct {
	Solver      SolverConfig    `json:"solver"`
	Cache       CacheConfig     `json:"cache"`
	Run         RunConfig       `json:"run"`
	Estimator   EstimatorConfig `json:"estimator"`
	Tables      TablesConfig    `json:"tables"`
	Metrics     metrics.Config  `json:"metrics"`
	MetricsAddr string          `json:"metrics_addr"`
	Ledger      LedgerConfig    `json:"ledger"`
	Notify      NotifyConfig    `json:"notify"`
}

// NotifyConfig groups run event notifiers.
type NotifyConfig struct {
	MQTT mqtt.Config `json:"mqtt"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	cfg := Config{Cache: CacheConfig{Enabled: true}}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults fills every empty field of every section.
func (c *Config) SetDefaults() {
	c.Solver.SetDefaults()
	c.Cache.SetDefaults()
	c.Estimator.SetDefaults()
	c.Tables.SetDefaults()
	c.Ledger.SetDefaults()
	if c.Notify.MQTT.Topic == "" {
		c.Notify.MQTT.Topic = "sweep"
	}
}

// Validate checks every section.
func (c Config) Validate() error {
	return errors.Join(
		c.Solver.Validate(),
		c.Cache.Validate(),
		c.Estimator.Validate(),
		c.Tables.Validate(),
		c.Ledger.Validate(),
	)
}

// Options is the run behaviour threaded through the runner.
func (c Config) Options() runner.Options {
	return runner.Options{
		Caching:     c.Cache.Enabled,
		CacheOnly:   c.Cache.CachedOnly,
		StopOnError: c.Run.StopOnError,
		Verbose:     c.Run.Verbose,
	}
}

// Load reads path over the defaults, then applies environment overrides.
// An empty path, or the default path when it does not exist, yields the
// defaults with overrides.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path == "" {
		path = DefaultPath
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			path = ""
		}
	}
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
