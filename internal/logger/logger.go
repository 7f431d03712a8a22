// Package logger is a thin global wrapper around zerolog.
//
// Until InitLogger is called, everything is discarded, so library
// code can log freely without making noise in hosts that don't care.
package logger

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
)

var (
	logger     = zerolog.Nop()
	loggerOnce sync.Once
	loggerMu   sync.RWMutex
)

type LoggerConfig struct {
	Level           zerolog.Level
	Console         bool
	File            bool
	FilePath        string
	MaxSizeMB       int
	MaxBackups      int
	MaxAgeDays      int
	Compress        bool
	TimeFieldFormat string

	// Overrides Console and File when set. Mostly for tests.
	Writer io.Writer
}

func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		Level:           zerolog.InfoLevel,
		Console:         true,
		FilePath:        "gtfslite.log",
		MaxSizeMB:       10,
		MaxBackups:      5,
		MaxAgeDays:      30,
		Compress:        true,
		TimeFieldFormat: time.RFC3339,
	}
}

// Sets up the global logger. Only the first call has any effect.
func InitLogger(cfg LoggerConfig) {
	loggerOnce.Do(func() {
		SetLogger(build(cfg))
	})
}

// Replaces the global logger unconditionally.
func SetLogger(l zerolog.Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = l
}

func build(cfg LoggerConfig) zerolog.Logger {
	if cfg.TimeFieldFormat != "" {
		zerolog.TimeFieldFormat = cfg.TimeFieldFormat
	}

	var writers []io.Writer
	if cfg.Writer != nil {
		writers = append(writers, cfg.Writer)
	} else {
		if cfg.Console {
			writers = append(writers, zerolog.ConsoleWriter{
				Out:        os.Stderr,
				TimeFormat: cfg.TimeFieldFormat,
			})
		}
		if cfg.File {
			writers = append(writers, &lumberjack.Logger{
				Filename:   cfg.FilePath,
				MaxSize:    cfg.MaxSizeMB,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAgeDays,
				Compress:   cfg.Compress,
			})
		}
	}
	if len(writers) == 0 {
		return zerolog.Nop()
	}

	return zerolog.New(io.MultiWriter(writers...)).
		With().
		Timestamp().
		Logger().
		Level(cfg.Level)
}

// Maps "debug", "info", "warn" etc onto zerolog levels. Unknown or
// empty strings give info.
func ParseLevel(level string) zerolog.Level {
	l, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return l
}

func Info(msg string, fields ...interface{}) {
	l := get()
	logWithFields(l.Info(), msg, fields...)
}

func Warn(msg string, fields ...interface{}) {
	l := get()
	logWithFields(l.Warn(), msg, fields...)
}

func Error(msg string, fields ...interface{}) {
	l := get()
	logWithFields(l.Error(), msg, fields...)
}

func Debug(msg string, fields ...interface{}) {
	l := get()
	logWithFields(l.Debug(), msg, fields...)
}

func get() zerolog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

// Fields are either a single map or alternating key/value pairs.
func logWithFields(event *zerolog.Event, msg string, fields ...interface{}) {
	if event == nil {
		return
	}

	if len(fields) == 1 {
		if m, ok := fields[0].(map[string]interface{}); ok {
			event.Fields(m).Msg(msg)
			return
		}
	}

	if len(fields)%2 == 0 {
		for i := 0; i < len(fields); i += 2 {
			key, ok := fields[i].(string)
			if !ok {
				continue
			}
			if err, ok := fields[i+1].(error); ok && key == "error" {
				event = event.Err(err)
				continue
			}
			event = event.Interface(key, fields[i+1])
		}
	}
	event.Msg(msg)
}
