// Package logging provides the structured logger shared by every console
// component. It is a thin layer over zap that keeps call sites short:
// messages take alternating key/value pairs.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level is the severity of a log message.
type Level = zapcore.Level

// Levels accepted by ParseLevel.
const (
	LevelDebug = zapcore.DebugLevel
	LevelInfo  = zapcore.InfoLevel
	LevelWarn  = zapcore.WarnLevel
	LevelError = zapcore.ErrorLevel
)

// ParseLevel parses a level name. Unknown names yield an error and LevelInfo.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("logging: unknown level %q", s)
	}
}

// Config configures a Logger.
type Config struct {
	// Level is the minimum level written.
	Level Level

	// File, when set, receives logs through a rotating writer.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int

	// Output is used when File is empty. Defaults to os.Stderr.
	Output io.Writer
}

// Logger writes structured log entries.
// A nil *Logger discards everything, so components may hold one unconditionally.
type Logger struct {
	sugar  *zap.SugaredLogger
	level  zap.AtomicLevel
	closer io.Closer
}

// New builds a logger from cfg.
func New(cfg Config) *Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var (
		sink   zapcore.WriteSyncer
		closer io.Closer
	)
	switch {
	case cfg.File != "":
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		}
		sink = zapcore.AddSync(rotator)
		closer = rotator
	case cfg.Output != nil:
		sink = zapcore.Lock(zapcore.AddSync(cfg.Output))
	default:
		sink = zapcore.Lock(os.Stderr)
	}

	level := zap.NewAtomicLevelAt(cfg.Level)
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), sink, level)

	return &Logger{
		sugar:  zap.New(core).Sugar(),
		level:  level,
		closer: closer,
	}
}

// Nop returns a logger that discards all output.
func Nop() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar(), level: zap.NewAtomicLevel()}
}

// With returns a child logger carrying the given key/value pairs.
func (l *Logger) With(kv ...any) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{sugar: l.sugar.With(kv...), level: l.level}
}

// WithComponent returns a child logger tagged with the component name.
func (l *Logger) WithComponent(component string) *Logger {
	return l.With("component", component)
}

// SetLevel changes the minimum level for this logger and every child.
func (l *Logger) SetLevel(level Level) {
	if l == nil {
		return
	}
	l.level.SetLevel(level)
}

// Enabled reports whether messages at level are written.
func (l *Logger) Enabled(level Level) bool {
	return l != nil && l.level.Enabled(level)
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, kv ...any) {
	if l != nil {
		l.sugar.Debugw(msg, kv...)
	}
}

// Info logs an informational message.
func (l *Logger) Info(msg string, kv ...any) {
	if l != nil {
		l.sugar.Infow(msg, kv...)
	}
}

// Warn logs a warning.
func (l *Logger) Warn(msg string, kv ...any) {
	if l != nil {
		l.sugar.Warnw(msg, kv...)
	}
}

// Error logs an error.
func (l *Logger) Error(msg string, kv ...any) {
	if l != nil {
		l.sugar.Errorw(msg, kv...)
	}
}

// Zap exposes the underlying zap logger.
func (l *Logger) Zap() *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l.sugar.Desugar()
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	if l == nil {
		return nil
	}
	return l.sugar.Sync()
}

// Close flushes the logger and releases the rotating file, if any.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	_ = l.sugar.Sync()
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}
