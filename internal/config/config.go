// Package config loads mleprep settings from defaults, an optional YAML file,
// MLEPREP_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/YuminosukeSato/mleprep/pkg/errors"
	"github.com/YuminosukeSato/mleprep/pkg/log"
	"github.com/YuminosukeSato/mleprep/transformation"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "MLEPREP_"

// DefaultFile is the config file looked up in the working directory when no
// explicit path is given.
const DefaultFile = "mleprep.yaml"

// Default values.
const (
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "json"
	DefaultRegistryPath = "artifact/runs.db"
	DefaultLimit        = 20
)

// Config is the resolved CLI configuration.
type Config struct {
	TrainPath    string `koanf:"train"`
	TestPath     string `koanf:"test"`
	ArtifactPath string `koanf:"artifact"`
	LogLevel     string `koanf:"log_level"`
	LogFormat    string `koanf:"log_format"`
	MetricsFile  string `koanf:"metrics_file"`
	RegistryPath string `koanf:"registry"`
	ReportDir    string `koanf:"report_dir"`
	Limit        int    `koanf:"limit"`
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() Config {
	return Config{
		ArtifactPath: transformation.DefaultPreprocessorPath,
		LogLevel:     DefaultLogLevel,
		LogFormat:    DefaultLogFormat,
		RegistryPath: DefaultRegistryPath,
		Limit:        DefaultLimit,
	}
}

// Load resolves the configuration. cfgFile may be empty, in which case
// DefaultFile is used if it exists. Only flags that were explicitly set
// override lower layers.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	d := Defaults()
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"artifact":   d.ArtifactPath,
		"log_level":  d.LogLevel,
		"log_format": d.LogFormat,
		"registry":   d.RegistryPath,
		"limit":      d.Limit,
	}, "."), nil); err != nil {
		return nil, errors.Wrap(err, "failed to load defaults")
	}

	if cfgFile == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			cfgFile = DefaultFile
		}
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "error reading config file %s", cfgFile)
		}
	}

	// MLEPREP_LOG_LEVEL -> log_level
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, errors.Wrap(err, "failed to load env vars")
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, errors.Wrap(err, "failed to load flags")
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(err, "unable to decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that have a closed set of options.
func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return errors.NewValidationError("log_level", "must be debug, info, warn or error", c.LogLevel)
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return errors.NewValidationError("log_format", "must be json or console", c.LogFormat)
	}
	if c.ArtifactPath == "" {
		return errors.NewValidationError("artifact", "must not be empty", c.ArtifactPath)
	}
	if c.Limit < 0 {
		return errors.NewValidationError("limit", "must not be negative", c.Limit)
	}
	return nil
}

// Level returns the parsed log level. Call after Validate.
func (c *Config) Level() log.Level {
	level, _ := log.ParseLevel(c.LogLevel)
	return level
}
