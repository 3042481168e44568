package logger

import (
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"time"

	"github.com/aleister1102/schedwatch/internal/common/errorwrapper"
	"github.com/aleister1102/schedwatch/internal/config"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New creates a zerolog logger from application log configuration.
func New(cfg config.LogConfig) (zerolog.Logger, error) {
	loggerConfig, err := NewConfigConverter().ConvertConfig(cfg)
	if err != nil {
		return zerolog.Logger{}, err
	}
	return build(loggerConfig)
}

func build(cfg LoggerConfig) (zerolog.Logger, error) {
	writers := createWriters(cfg)
	if len(writers) == 0 {
		return zerolog.Logger{}, errorwrapper.NewError("no output writers configured")
	}

	multiWriter := zerolog.MultiLevelWriter(writers...)
	logger := zerolog.New(multiWriter).
		Level(cfg.Level).
		With().
		Timestamp().
		Logger()

	zerolog.SetGlobalLevel(cfg.Level)
	stdlog.SetOutput(logger)
	stdlog.SetFlags(0)

	return logger, nil
}

// createWriters creates the appropriate writers based on configuration
func createWriters(cfg LoggerConfig) []io.Writer {
	var writers []io.Writer

	if cfg.EnableConsole {
		writers = append(writers, createConsoleWriter(cfg.Format, os.Stderr, false))
	}

	if cfg.EnableFile && cfg.FilePath != "" {
		writers = append(writers, createFileWriter(cfg))
	}

	return writers
}

func createConsoleWriter(format LogFormat, out io.Writer, noColor bool) io.Writer {
	if format == FormatJSON {
		return out
	}
	return zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    noColor,
		TimeFormat: time.RFC3339,
	}
}

// createFileWriter creates a file writer with rotation
func createFileWriter(cfg LoggerConfig) io.Writer {
	// Lumberjack surfaces a creation failure on first write.
	_ = os.MkdirAll(filepath.Dir(cfg.FilePath), 0755)

	rotator := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSizeMB,
		LocalTime:  true,
		MaxBackups: cfg.MaxBackups,
	}

	if cfg.Format == FormatJSON {
		return rotator
	}
	return createConsoleWriter(cfg.Format, rotator, true)
}
