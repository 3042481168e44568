package logger

import (
	"strings"

	"github.com/aleister1102/schedwatch/internal/common/errorwrapper"
	"github.com/aleister1102/schedwatch/internal/config"
	"github.com/rs/zerolog"
)

// ConfigConverter converts application log config into internal logger config
type ConfigConverter struct{}

// NewConfigConverter creates a new config converter
func NewConfigConverter() *ConfigConverter {
	return &ConfigConverter{}
}

// ConvertConfig maps config.LogConfig onto LoggerConfig, applying defaults
// for missing fields.
func (cc *ConfigConverter) ConvertConfig(cfg config.LogConfig) (LoggerConfig, error) {
	loggerConfig := DefaultLoggerConfig()

	level, err := cc.parseLevel(cfg.LogLevel)
	if err != nil {
		return loggerConfig, err
	}
	loggerConfig.Level = level
	loggerConfig.Format = cc.parseFormat(cfg.LogFormat)

	if cfg.LogFile != "" {
		loggerConfig.EnableFile = true
		loggerConfig.FilePath = cfg.LogFile
	}
	if cfg.MaxLogSizeMB > 0 {
		loggerConfig.MaxSizeMB = cfg.MaxLogSizeMB
	}
	if cfg.MaxLogBackups > 0 {
		loggerConfig.MaxBackups = cfg.MaxLogBackups
	}

	return loggerConfig, nil
}

// parseLevel parses string log level to zerolog.Level
func (cc *ConfigConverter) parseLevel(levelStr string) (zerolog.Level, error) {
	if levelStr == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(levelStr))
	if err != nil {
		return zerolog.InfoLevel, errorwrapper.WrapError(err, "invalid log level")
	}
	return level, nil
}

// parseFormat parses string format to LogFormat
func (cc *ConfigConverter) parseFormat(formatStr string) LogFormat {
	switch strings.ToLower(formatStr) {
	case "json":
		return FormatJSON
	case "text":
		return FormatText
	default:
		return FormatConsole
	}
}
