package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ConfigDebug             = "debug"
	ConfigTTSizeMB          = "tt-size-mb"
	ConfigQTTSizeMB         = "qtt-size-mb"
	ConfigTTMemoryFraction  = "tt-memory-fraction"
	ConfigDefaultDepth      = "default-depth"
	ConfigDefaultMoveTimeMS = "default-movetime-ms"
	ConfigNullMove          = "null-move"
	ConfigFutility          = "futility"
	ConfigLogLevel          = "log-level"
	ConfigCPUProfile        = "cpu-profile"
	ConfigMemProfile        = "mem-profile"
	ConfigFile              = "config"
)

var ErrBadSetting = errors.New("bad setting")

type Config struct {
	*viper.Viper
}

func defaults(v *viper.Viper) {
	v.SetDefault(ConfigDebug, false)
	v.SetDefault(ConfigTTSizeMB, 64)
	v.SetDefault(ConfigQTTSizeMB, 16)
	v.SetDefault(ConfigTTMemoryFraction, 0.0)
	v.SetDefault(ConfigDefaultDepth, 8)
	v.SetDefault(ConfigDefaultMoveTimeMS, 0)
	v.SetDefault(ConfigNullMove, true)
	v.SetDefault(ConfigFutility, true)
	v.SetDefault(ConfigLogLevel, "info")
	v.SetDefault(ConfigCPUProfile, "")
	v.SetDefault(ConfigMemProfile, "")
}

// DefaultConfig returns a config with every setting at its default. It
// does not look at flags, the environment or a config file.
func DefaultConfig() *Config {
	c := &Config{Viper: viper.New()}
	defaults(c.Viper)
	return c
}

// Load reads the settings from args, then LISCO_ environment variables
// (LISCO_TT_SIZE_MB and so on), then the file named by --config, in that
// order of precedence. It returns the arguments that are not flags.
func (c *Config) Load(args []string) ([]string, error) {
	c.Viper = viper.New()
	defaults(c.Viper)
	c.SetEnvPrefix("lisco")
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.AutomaticEnv()

	fs := pflag.NewFlagSet("lisco", pflag.ContinueOnError)
	fs.Bool(ConfigDebug, false, "debug logging and board consistency checks")
	fs.Int(ConfigTTSizeMB, 64, "size of the main transposition table in MB")
	fs.Int(ConfigQTTSizeMB, 16, "size of the quiescence transposition table in MB")
	fs.Float64(ConfigTTMemoryFraction, 0, "if positive, size the main table as this fraction of system memory")
	fs.Int(ConfigDefaultDepth, 8, "search depth when none is given")
	fs.Int(ConfigDefaultMoveTimeMS, 0, "search time in milliseconds when none is given (0 for none)")
	fs.Bool(ConfigNullMove, true, "null move pruning")
	fs.Bool(ConfigFutility, true, "futility pruning and razoring")
	fs.String(ConfigLogLevel, "info", "log level: debug, info, warn, error")
	fs.String(ConfigCPUProfile, "", "write a CPU profile to this file")
	fs.String(ConfigMemProfile, "", "write a heap profile to this file on exit")
	fs.String(ConfigFile, "", "read settings from this file (yaml, json or toml)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := c.BindPFlags(fs); err != nil {
		return nil, err
	}
	if f := c.GetString(ConfigFile); f != "" {
		c.SetConfigFile(f)
		if err := c.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading %s: %w", f, err)
		}
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return fs.Args(), nil
}

func (c *Config) validate() error {
	if c.GetInt(ConfigTTSizeMB) <= 0 || c.GetInt(ConfigQTTSizeMB) <= 0 {
		return fmt.Errorf("%w: table sizes must be positive", ErrBadSetting)
	}
	if f := c.GetFloat64(ConfigTTMemoryFraction); f < 0 || f >= 1 {
		return fmt.Errorf("%w: %s must be in [0, 1)", ErrBadSetting, ConfigTTMemoryFraction)
	}
	if c.GetInt(ConfigDefaultDepth) < 0 || c.GetInt(ConfigDefaultMoveTimeMS) < 0 {
		return fmt.Errorf("%w: search defaults must not be negative", ErrBadSetting)
	}
	return nil
}

// SanitizedSettings returns the settings for printing.
func (c *Config) SanitizedSettings() map[string]any {
	return c.AllSettings()
}
