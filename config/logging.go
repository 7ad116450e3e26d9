package config

import "go.uber.org/zap/zapcore"

// LogEncoder defines a log encoder kind.
type LogEncoder = string

const (
	defaultLoggingLevel = zapcore.InfoLevel
	// ConsoleLogEncoder represents logging with plain text.
	ConsoleLogEncoder LogEncoder = "console"
	// JSONLogEncoder represents logging with JSON.
	JSONLogEncoder LogEncoder = "json"
)

// LoggerConfig holds the logging level for each module.
type LoggerConfig struct {
	Encoder             LogEncoder `mapstructure:"log-encoder"`
	AppLoggerLevel      string     `mapstructure:"app"`
	ClockLoggerLevel    string     `mapstructure:"clock"`
	TopologyLoggerLevel string     `mapstructure:"topology"`
	DispatchLoggerLevel string     `mapstructure:"dispatch"`
	EntangleLoggerLevel string     `mapstructure:"entangle"`
	MetricsLoggerLevel  string     `mapstructure:"metrics"`
}

func defaultLoggingConfig() LoggerConfig {
	return LoggerConfig{
		Encoder:             ConsoleLogEncoder,
		AppLoggerLevel:      defaultLoggingLevel.String(),
		ClockLoggerLevel:    zapcore.WarnLevel.String(),
		TopologyLoggerLevel: defaultLoggingLevel.String(),
		DispatchLoggerLevel: defaultLoggingLevel.String(),
		EntangleLoggerLevel: zapcore.WarnLevel.String(),
		MetricsLoggerLevel:  defaultLoggingLevel.String(),
	}
}
