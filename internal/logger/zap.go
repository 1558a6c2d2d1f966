package logger

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap's SugaredLogger.
type Logger struct {
	*zap.SugaredLogger
}

// Output encodings.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// defaultName names the logger when Options.Name is empty.
const defaultName = "plant-telemetry"

// defaultZapLevel defines the fallback log level when an unknown level string is provided.
const defaultZapLevel = zapcore.DebugLevel

// Options select the level, the encoding and the logger name.
type Options struct {
	Level  string
	Format string
	Name   string
}

// toZapLevel converts a textual level to zapcore.Level, ignoring case and
// surrounding blanks.
func toZapLevel(levelStr string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case InfoLevel:
		return zapcore.InfoLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return defaultZapLevel
	}
}

// newEncoder returns a JSON encoder for log shipping or a console encoder for
// terminals. Both carry an ISO8601 "ts" field.
func newEncoder(format string) zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	if strings.EqualFold(strings.TrimSpace(format), FormatJSON) {
		cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
		return zapcore.NewJSONEncoder(cfg)
	}
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(cfg)
}

func newCore(opts Options, w io.Writer) zapcore.Core {
	ws := zapcore.Lock(zapcore.AddSync(w)) // thread-safe writer
	return zapcore.NewCore(newEncoder(opts.Format), ws, zap.NewAtomicLevelAt(toZapLevel(opts.Level)))
}

// newZapLogger constructs a sugared zap logger writing to w.
func newZapLogger(opts Options, w io.Writer) *Logger {
	name := opts.Name
	if name == "" {
		name = defaultName
	}
	base := zap.New(newCore(opts, w), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	return &Logger{SugaredLogger: base.Sugar().Named(name)}
}

func newStdoutLogger(opts Options) *Logger { return newZapLogger(opts, os.Stdout) }
