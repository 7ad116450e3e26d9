package dispatch

import (
	"errors"

	"go.uber.org/zap/zapcore"
)

type Config struct {
	// MaxSessions stops the dispatcher after that many sessions. Zero runs forever.
	MaxSessions int `mapstructure:"max-sessions"`
	// History is the number of session records kept for the report.
	History int `mapstructure:"history"`
}

func DefaultConfig() Config {
	return Config{
		History: 1024,
	}
}

func (cfg *Config) Validate() error {
	if cfg.MaxSessions < 0 {
		return errors.New("max sessions must not be negative")
	}
	if cfg.History <= 0 {
		return errors.New("history must be positive")
	}
	return nil
}

func (cfg *Config) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddInt("max sessions", cfg.MaxSessions)
	encoder.AddInt("history", cfg.History)
	return nil
}
