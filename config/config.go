// Package config contains the configuration of a repeater run.
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/entanglenet/go-repeater/dispatch"
	"github.com/entanglenet/go-repeater/entangle"
	"github.com/entanglenet/go-repeater/link"
	timeConfig "github.com/entanglenet/go-repeater/timesync/config"
)

var errInvalidConfig = errors.New("invalid config")

// Config defines the top level configuration of a run.
type Config struct {
	BaseConfig `mapstructure:"main"`
	Preset     string                `mapstructure:"preset"`
	LINK       link.Params           `mapstructure:"link"`
	ENTANGLE   entangle.Config       `mapstructure:"entangle"`
	DISPATCH   dispatch.Config       `mapstructure:"dispatch"`
	TIME       timeConfig.TimeConfig `mapstructure:"time"`
	LOGGING    LoggerConfig          `mapstructure:"logging"`
}

// BaseConfig defines the options of the run itself.
type BaseConfig struct {
	ConfigFile string `mapstructure:"config"`

	// Seed drives every random choice of the run.
	Seed int64 `mapstructure:"seed"`
	// Endpoints is the number of endpoints of the network.
	Endpoints int `mapstructure:"endpoints"`
	// Report is the path of the JSON report written at the end of the run.
	Report string `mapstructure:"report"`

	CollectMetrics bool   `mapstructure:"metrics"`
	MetricsPort    int    `mapstructure:"metrics-port"`
	MetricsPush    string `mapstructure:"metrics-push"`
}

// DefaultConfig returns the configuration of the reference scenario: four
// endpoints on 30km links.
func DefaultConfig() Config {
	return Config{
		BaseConfig: defaultBaseConfig(),
		LINK:       link.DefaultParams(),
		ENTANGLE:   entangle.DefaultConfig(),
		DISPATCH:   dispatch.DefaultConfig(),
		TIME:       timeConfig.DefaultConfig(),
		LOGGING:    defaultLoggingConfig(),
	}
}

func defaultBaseConfig() BaseConfig {
	return BaseConfig{
		Seed:        1,
		Endpoints:   4,
		MetricsPort: 1010,
	}
}

// Validate checks every section.
func (cfg *Config) Validate() error {
	if cfg.Endpoints < 2 {
		return fmt.Errorf("%w: need at least two endpoints, got %d", errInvalidConfig, cfg.Endpoints)
	}
	if cfg.CollectMetrics && (cfg.MetricsPort < 0 || cfg.MetricsPort > 65535) {
		return fmt.Errorf("%w: metrics port %d", errInvalidConfig, cfg.MetricsPort)
	}
	sections := []struct {
		name    string
		section interface{ Validate() error }
	}{
		{"link", &cfg.LINK},
		{"entangle", &cfg.ENTANGLE},
		{"dispatch", &cfg.DISPATCH},
		{"time", &cfg.TIME},
	}
	for _, s := range sections {
		if err := s.section.Validate(); err != nil {
			return fmt.Errorf("%w: %s: %w", errInvalidConfig, s.name, err)
		}
	}
	return nil
}

func (cfg *BaseConfig) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddInt64("seed", cfg.Seed)
	encoder.AddInt("endpoints", cfg.Endpoints)
	encoder.AddString("report", cfg.Report)
	encoder.AddBool("metrics", cfg.CollectMetrics)
	return nil
}

// LoadConfig reads the config file at path from fs into vip. An empty path
// leaves vip empty.
func LoadConfig(fs afero.Fs, path string, vip *viper.Viper) error {
	if path == "" {
		return nil
	}
	vip.SetFs(fs)
	vip.SetConfigFile(path)
	if err := vip.ReadInConfig(); err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	return nil
}
