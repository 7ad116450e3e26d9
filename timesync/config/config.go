package config

import (
	"errors"
	"time"

	"go.uber.org/zap/zapcore"
)

// TimeConfig specifies how virtual time is driven.
type TimeConfig struct {
	// Pace is the number of wall seconds a virtual second takes. Zero runs unpaced.
	Pace float64 `mapstructure:"pace"`
	// Horizon stops the run at this virtual time. Zero runs until the dispatcher stops.
	Horizon time.Duration `mapstructure:"horizon"`
}

// DefaultConfig defines the default time configuration.
func DefaultConfig() TimeConfig {
	return TimeConfig{}
}

func (cfg *TimeConfig) Validate() error {
	if cfg.Pace < 0 {
		return errors.New("pace must not be negative")
	}
	if cfg.Horizon < 0 {
		return errors.New("horizon must not be negative")
	}
	return nil
}

func (cfg *TimeConfig) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddFloat64("pace", cfg.Pace)
	encoder.AddDuration("horizon", cfg.Horizon)
	return nil
}
