// Package logger is the process-wide structured logger. Entries go to the
// console and, optionally, to a size-rotated JSON file. Field values that
// look like personal data (emails, phone numbers) are redacted by default.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the logger outputs.
type Options struct {
	Level              string
	Format             string // "console" or "json"
	FileLoggingEnabled bool
	Directory          string
	Filename           string
	MaxSizeMB          int
	MaxBackups         int
	MaxAgeDays         int
	Compress           bool
	RedactPII          bool
}

var (
	mu        sync.RWMutex
	base      = newStderrLogger()
	redactPII = true
)

func newStderrLogger() *zap.Logger {
	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.Lock(os.Stderr), zapcore.InfoLevel)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2))
}

// Init replaces the default logger. Call once at startup, before any
// goroutines log.
func Init(opts Options) error {
	l, err := build(opts)
	if err != nil {
		return err
	}
	mu.Lock()
	base = l
	redactPII = opts.RedactPII
	mu.Unlock()
	return nil
}

func build(opts Options) (*zap.Logger, error) {
	level, err := parseLevel(opts.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARN: %v, defaulting to INFO level\n", err)
		level = zapcore.InfoLevel
	}

	console := strings.ToLower(opts.Format) != "json"
	cores := []zapcore.Core{
		zapcore.NewCore(buildEncoder(console), zapcore.Lock(os.Stdout), zap.LevelEnablerFunc(func(l zapcore.Level) bool {
			return l >= level && l < zapcore.ErrorLevel
		})),
		zapcore.NewCore(buildEncoder(console), zapcore.Lock(os.Stderr), zap.LevelEnablerFunc(func(l zapcore.Level) bool {
			return l >= level && l >= zapcore.ErrorLevel
		})),
	}

	if opts.FileLoggingEnabled {
		if err := os.MkdirAll(opts.Directory, 0755); err != nil {
			return nil, fmt.Errorf("create log directory %q: %w", opts.Directory, err)
		}
		file := &lumberjack.Logger{
			Filename:   filepath.Join(opts.Directory, opts.Filename),
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		}
		cores = append(cores, zapcore.NewCore(buildEncoder(false), zapcore.AddSync(file), level))
	}

	return zap.New(zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddCallerSkip(2),
		zap.AddStacktrace(zapcore.ErrorLevel),
	), nil
}

func parseLevel(s string) (zapcore.Level, error) {
	if s == "" {
		return zapcore.InfoLevel, nil
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

func buildEncoder(console bool) zapcore.Encoder {
	if console {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(cfg)
	}
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewJSONEncoder(cfg)
}

// Debug emits a DEBUG-level entry. fields are alternating keys and values.
func Debug(msg string, fields ...interface{}) { log(zapcore.DebugLevel, msg, fields) }

// Info emits an INFO-level entry.
func Info(msg string, fields ...interface{}) { log(zapcore.InfoLevel, msg, fields) }

// Warn emits a WARN-level entry.
func Warn(msg string, fields ...interface{}) { log(zapcore.WarnLevel, msg, fields) }

// Error emits an ERROR-level entry.
func Error(msg string, fields ...interface{}) { log(zapcore.ErrorLevel, msg, fields) }

func log(level zapcore.Level, msg string, fields []interface{}) {
	mu.RLock()
	l, redact := base, redactPII
	mu.RUnlock()

	if ce := l.Check(level, msg); ce != nil {
		ce.Write(toZapFields(fields, redact)...)
	}
}

func toZapFields(kv []interface{}, redact bool) []zap.Field {
	out := make([]zap.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key := fmt.Sprintf("%v", kv[i])
		switch v := kv[i+1].(type) {
		case error:
			out = append(out, zap.NamedError(key, v))
		case string:
			if redact {
				v = redactPIIValue(key, v)
			}
			out = append(out, zap.String(key, v))
		default:
			out = append(out, zap.Any(key, v))
		}
	}
	return out
}

// Named returns a component logger sharing the default outputs.
func Named(name string) *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return base.WithOptions(zap.AddCallerSkip(-2)).Named(name).Sugar()
}

// Sync flushes buffered entries.
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	return base.Sync()
}
