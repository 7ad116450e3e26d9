package entangle

import (
	"errors"
	"time"

	"go.uber.org/zap/zapcore"
)

type Config struct {
	// RoundMargin extends every attempt round past its last slot.
	RoundMargin time.Duration `mapstructure:"round-margin"`
	// MaxRounds caps the rounds of a single generation. Zero retries forever.
	MaxRounds int `mapstructure:"max-rounds"`
	// SourceSync makes the authority wait for the first arrival from the
	// source before it computes the start time.
	SourceSync bool `mapstructure:"source-sync"`
}

func DefaultConfig() Config {
	return Config{
		RoundMargin: time.Nanosecond,
	}
}

func (cfg *Config) Validate() error {
	if cfg.RoundMargin < 0 {
		return errors.New("round margin must not be negative")
	}
	if cfg.MaxRounds < 0 {
		return errors.New("max rounds must not be negative")
	}
	return nil
}

func (cfg *Config) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddDuration("round margin", cfg.RoundMargin)
	encoder.AddInt("max rounds", cfg.MaxRounds)
	encoder.AddBool("source sync", cfg.SourceSync)
	return nil
}
