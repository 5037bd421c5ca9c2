// Package config loads chainer settings from YAML, with environment and
// flag overrides layered on through viper.
package config

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/chainer/pkg/chainer/internalerr"
	"github.com/cognicore/chainer/pkg/chainer/kb"
	"github.com/cognicore/chainer/pkg/chainer/logging"
)

// EnvPrefix prefixes environment overrides, e.g. CHAINER_ENGINE_MAX_DERIVATIONS.
const EnvPrefix = "CHAINER"

// Viper keys.
const (
	KeyMaxDerivations = "engine.max_derivations"
	KeyStrictRules    = "engine.strict_rules"
	KeyLogLevel       = "log.level"
	KeyLogDevelopment = "log.development"
	KeyStorePath      = "store.path"
)

// Config is the whole configuration file.
type Config struct {
	Engine Engine `yaml:"engine"`
	Log    Log    `yaml:"log"`
	Store  Store  `yaml:"store"`
}

// Engine holds knowledge base policies.
type Engine struct {
	MaxDerivations int  `yaml:"max_derivations"`
	StrictRules    bool `yaml:"strict_rules"`
}

// Log selects the logger.
type Log struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Store locates the snapshot database.
type Store struct {
	Path string `yaml:"path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Engine: Engine{
			MaxDerivations: kb.DefaultMaxDerivations,
			StrictRules:    true,
		},
		Log: Log{
			Level: "info",
		},
		Store: Store{
			Path: "chainer.db",
		},
	}
}

// Load reads a YAML config file. Keys missing from the file keep their
// default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(internalerr.ErrInvalidConfig, "%s: %v", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, path)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Engine.MaxDerivations <= 0 {
		return errors.Wrapf(internalerr.ErrInvalidConfig,
			"engine.max_derivations must be positive, got %d", c.Engine.MaxDerivations)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// LoggingOptions returns the logger settings.
func (c *Config) LoggingOptions() logging.Options {
	return logging.Options{Level: c.Log.Level, Development: c.Log.Development}
}

// KBOptions returns the knowledge base options matching the engine section.
func (c *Config) KBOptions() []kb.Option {
	return []kb.Option{
		kb.WithMaxDerivations(c.Engine.MaxDerivations),
		kb.WithStrictRules(c.Engine.StrictRules),
	}
}

// Overlay applies environment variables and any flags bound on v on top of
// cfg and returns the result. cfg is not modified.
//
// Precedence, lowest first: cfg, CHAINER_* environment, bound flags.
func Overlay(v *viper.Viper, cfg *Config) (*Config, error) {
	if cfg == nil {
		cfg = Default()
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyMaxDerivations, cfg.Engine.MaxDerivations)
	v.SetDefault(KeyStrictRules, cfg.Engine.StrictRules)
	v.SetDefault(KeyLogLevel, cfg.Log.Level)
	v.SetDefault(KeyLogDevelopment, cfg.Log.Development)
	v.SetDefault(KeyStorePath, cfg.Store.Path)

	out := &Config{
		Engine: Engine{
			MaxDerivations: v.GetInt(KeyMaxDerivations),
			StrictRules:    v.GetBool(KeyStrictRules),
		},
		Log: Log{
			Level:       v.GetString(KeyLogLevel),
			Development: v.GetBool(KeyLogDevelopment),
		},
		Store: Store{
			Path: v.GetString(KeyStorePath),
		},
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}
