// Package logger provides a package-level structured logger backed by zap.
//
// The dashboard owns the terminal, so log output goes to a rotated file
// rather than stderr.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the global logger instance. It discards everything until Init is
// called.
var Logger = zap.NewNop().Sugar()

// Rotation defaults for the log file.
const (
	DefaultMaxSizeMB  = 20
	DefaultMaxBackups = 3
	DefaultMaxAgeDays = 14
)

// Options configures the global logger.
type Options struct {
	// Path is the log file. Empty disables logging.
	Path string
	// Level is one of debug, info, warn or error.
	Level string
	// MaxSizeMB is the size at which the file is rotated.
	MaxSizeMB int
	// MaxBackups is the number of rotated files kept.
	MaxBackups int
	// MaxAgeDays is how long rotated files are kept.
	MaxAgeDays int
}

// Init replaces the global logger with one writing JSON lines to a rotated
// file. The returned function flushes buffered entries.
func Init(opts Options) (func(), error) {
	if opts.Path == "" {
		Logger = zap.NewNop().Sugar()
		return func() {}, nil
	}

	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	if dir := filepath.Dir(opts.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig()),
		newFileWriter(opts),
		level,
	)

	base := zap.New(core)
	Logger = base.Sugar()

	return func() { _ = base.Sync() }, nil
}

// ParseLevel converts a level name into a zap level. Empty means info.
func ParseLevel(name string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q", name)
	}
}

func newFileWriter(opts Options) zapcore.WriteSyncer {
	maxSize := opts.MaxSizeMB
	if maxSize == 0 {
		maxSize = DefaultMaxSizeMB
	}
	maxBackups := opts.MaxBackups
	if maxBackups == 0 {
		maxBackups = DefaultMaxBackups
	}
	maxAge := opts.MaxAgeDays
	if maxAge == 0 {
		maxAge = DefaultMaxAgeDays
	}

	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		MaxAge:     maxAge,
		Compress:   true,
	})
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return cfg
}

// Error logs an error message.
func Error(msg string, args ...any) {
	Logger.Errorw(msg, args...)
}

// Info logs an informational message.
func Info(msg string, args ...any) {
	Logger.Infow(msg, args...)
}

// Warn logs a warning message.
func Warn(msg string, args ...any) {
	Logger.Warnw(msg, args...)
}

// Debug logs a debug message.
func Debug(msg string, args ...any) {
	Logger.Debugw(msg, args...)
}
