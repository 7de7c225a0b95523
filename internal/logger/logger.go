// Package logger is the process-wide leveled logger. Messages are printf
// formatted and written through zap.
package logger

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level is a logging severity. Trace sits below zap's debug level.
type Level int8

const (
	TraceLevel = Level(zapcore.DebugLevel - 1)
	DebugLevel = Level(zapcore.DebugLevel)
	InfoLevel  = Level(zapcore.InfoLevel)
	WarnLevel  = Level(zapcore.WarnLevel)
	ErrorLevel = Level(zapcore.ErrorLevel)
	PanicLevel = Level(zapcore.PanicLevel)
)

func (l Level) String() string {
	switch l {
	case TraceLevel:
		return "trace"
	case DebugLevel:
		return "debug"
	case InfoLevel:
		return "info"
	case WarnLevel:
		return "warn"
	case ErrorLevel:
		return "error"
	case PanicLevel:
		return "panic"
	}
	return fmt.Sprintf("Level(%d)", int8(l))
}

// ParseLevel maps a level name to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return TraceLevel, nil
	case "debug":
		return DebugLevel, nil
	case "info", "":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	case "panic":
		return PanicLevel, nil
	}
	return InfoLevel, fmt.Errorf("unknown log level %q (use trace, debug, info, warn, error, panic)", s)
}

// Config controls where logs go.
type Config struct {
	Level      Level
	File       string
	MaxSizeMB  int
	MaxBackups int
}

var (
	atom = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	base atomic.Pointer[zap.Logger]
)

func init() {
	base.Store(newLogger(consoleCore(zapcore.Lock(os.Stderr))))
}

// Init sets the level and replaces the outputs. Logs always go to stderr;
// when File is set they are also written as JSON lines to a rotated file.
func Init(cfg Config) {
	SetLevel(cfg.Level)
	cores := []zapcore.Core{consoleCore(zapcore.Lock(os.Stderr))}
	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		}
		enc := zapcore.NewJSONEncoder(encoderConfig())
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(rotator), atom))
	}
	base.Store(newLogger(zapcore.NewTee(cores...)))
}

// SetLevel changes the minimum level that is written.
func SetLevel(l Level) {
	atom.SetLevel(zapcore.Level(l))
}

// GetLevel returns the current minimum level.
func GetLevel() Level {
	return Level(atom.Level())
}

// Sync flushes buffered output.
func Sync() error {
	return base.Load().Sync()
}

func Trace(format string, args ...interface{}) { logf(TraceLevel, format, args...) }
func Debug(format string, args ...interface{}) { logf(DebugLevel, format, args...) }
func Info(format string, args ...interface{})  { logf(InfoLevel, format, args...) }
func Warn(format string, args ...interface{})  { logf(WarnLevel, format, args...) }
func Error(format string, args ...interface{}) { logf(ErrorLevel, format, args...) }

func logf(l Level, format string, args ...interface{}) {
	lvl := zapcore.Level(l)
	if !atom.Enabled(lvl) {
		return
	}
	if ce := base.Load().Check(lvl, fmt.Sprintf(format, args...)); ce != nil {
		ce.Write()
	}
}

func newLogger(core zapcore.Core) *zap.Logger {
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2))
}

func consoleCore(ws zapcore.WriteSyncer) zapcore.Core {
	cfg := encoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	return zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), ws, atom)
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = encodeLevel
	return cfg
}

func encodeLevel(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(strings.ToUpper(Level(l).String()))
}
