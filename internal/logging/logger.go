// Package logging provides structured logging with console and rolling file output.
// It keeps a small printf-style API on top of zap so call sites stay terse.
package logging

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/infra-nli/internal/domain"
)

// Level represents log severity
type Level int8

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case DEBUG:
		return zapcore.DebugLevel
	case WARN:
		return zapcore.WarnLevel
	case ERROR:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// ParseLevel parses a level name. Unknown names map to INFO.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

// Config holds logger configuration
type Config struct {
	Level       Level
	LogDir      string // Directory for log files
	EnableFile  bool   // Write to a rolling file
	EnableColor bool   // Color console output
	EnableJSON  bool   // JSON console output (always on in Lambda)
	ToStderr    bool   // Console output goes to stderr instead of stdout
	Component   string // Added to every entry
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Level:       INFO,
		LogDir:      "logs",
		EnableFile:  false,
		EnableColor: true,
		Component:   "infra-nli",
	}
}

// Logger provides structured logging
type Logger struct {
	sugar *zap.SugaredLogger
	level zap.AtomicLevel
	file  *RollingWriter
}

var (
	_ domain.Logger = (*Logger)(nil)
	_ domain.Logger = (*FieldLogger)(nil)
)

var (
	defaultLogger *Logger
	defaultMu     sync.RWMutex
)

// New creates a new logger with the given config
func New(cfg Config) (*Logger, error) {
	level := zap.NewAtomicLevelAt(cfg.Level.zapLevel())

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeCaller = zapcore.ShortCallerEncoder

	var console zapcore.Encoder
	if cfg.EnableJSON || IsLambda() {
		console = zapcore.NewJSONEncoder(encCfg)
	} else {
		consoleCfg := encCfg
		consoleCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		if cfg.EnableColor {
			consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		console = zapcore.NewConsoleEncoder(consoleCfg)
	}

	out := os.Stdout
	if cfg.ToStderr {
		out = os.Stderr
	}
	cores := []zapcore.Core{zapcore.NewCore(console, zapcore.Lock(out), level)}

	var file *RollingWriter
	if cfg.EnableFile && !IsLambda() {
		rc := DefaultRollingConfig()
		rc.LogDir = cfg.LogDir
		w, err := NewRollingWriter(rc)
		if err != nil {
			return nil, err
		}
		file = w
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), w, level))
	}

	l := newWithCore(zapcore.NewTee(cores...), level, cfg.Component)
	l.file = file
	return l, nil
}

func newWithCore(core zapcore.Core, level zap.AtomicLevel, component string) *Logger {
	z := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	if component != "" {
		z = z.With(zap.String("component", component))
	}
	return &Logger{sugar: z.Sugar(), level: level}
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar(), level: zap.NewAtomicLevel()}
}

// GetDefault returns the default logger, initializing it if needed
func GetDefault() *Logger {
	defaultMu.RLock()
	l := defaultLogger
	defaultMu.RUnlock()
	if l != nil {
		return l
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		var err error
		defaultLogger, err = New(DefaultConfig())
		if err != nil {
			defaultLogger = Nop()
		}
	}
	return defaultLogger
}

// SetDefault sets the default logger
func SetDefault(l *Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}

// Zap exposes the underlying zap logger
func (l *Logger) Zap() *zap.Logger {
	return l.sugar.Desugar()
}

// SetLevel changes the log level
func (l *Logger) SetLevel(level Level) {
	l.level.SetLevel(level.zapLevel())
}

// Close flushes buffered entries and closes the log file
func (l *Logger) Close() error {
	_ = l.sugar.Sync()
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, args ...interface{}) {
	l.sugar.Debugf(msg, args...)
}

// Info logs an info message
func (l *Logger) Info(msg string, args ...interface{}) {
	l.sugar.Infof(msg, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.sugar.Warnf(msg, args...)
}

// Error logs an error message
func (l *Logger) Error(msg string, args ...interface{}) {
	l.sugar.Errorf(msg, args...)
}

// Package-level convenience functions using default logger

// Debug logs a debug message using the default logger
func Debug(msg string, args ...interface{}) {
	GetDefault().sugar.Debugf(msg, args...)
}

// Info logs an info message using the default logger
func Info(msg string, args ...interface{}) {
	GetDefault().sugar.Infof(msg, args...)
}

// Warn logs a warning message using the default logger
func Warn(msg string, args ...interface{}) {
	GetDefault().sugar.Warnf(msg, args...)
}

// Error logs an error message using the default logger
func Error(msg string, args ...interface{}) {
	GetDefault().sugar.Errorf(msg, args...)
}

// Fields are structured key/value pairs attached to entries
type Fields map[string]interface{}

// WithFields returns a logger that adds fields to every entry
func (l *Logger) WithFields(fields Fields) *FieldLogger {
	kv := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		kv = append(kv, k, v)
	}
	return &FieldLogger{sugar: l.sugar.With(kv...)}
}

// FieldLogger provides structured field logging
type FieldLogger struct {
	sugar *zap.SugaredLogger
}

func (fl *FieldLogger) Debug(msg string, args ...interface{}) {
	fl.sugar.Debugf(msg, args...)
}

func (fl *FieldLogger) Info(msg string, args ...interface{}) {
	fl.sugar.Infof(msg, args...)
}

func (fl *FieldLogger) Warn(msg string, args ...interface{}) {
	fl.sugar.Warnf(msg, args...)
}

func (fl *FieldLogger) Error(msg string, args ...interface{}) {
	fl.sugar.Errorf(msg, args...)
}

// IsLambda returns true if running in AWS Lambda
func IsLambda() bool {
	return os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
}
