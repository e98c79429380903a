package logger

import (
	"os"
	"strings"
	"sync"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogConfig controls level and file rotation of the process logger.
type LogConfig struct {
	Level      string `env:"LOG_LEVEL"`
	Filename   string `env:"LOG_FILENAME"`
	MaxSize    int    `env:"LOG_MAX_SIZE"`
	MaxAge     int    `env:"LOG_MAX_AGE"`
	MaxBackups int    `env:"LOG_MAX_BACKUPS"`
}

var (
	mu sync.RWMutex
	lg = zap.NewNop()
)

// Init builds the global logger. mode "production" switches to JSON output.
func Init(cfg LogConfig, mode string) error {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(strings.ToLower(cfg.Level))); err != nil {
			return err
		}
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var encoder zapcore.Encoder
	if mode == "production" {
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	sinks := []zapcore.WriteSyncer{zapcore.AddSync(os.Stdout)}
	if cfg.Filename != "" {
		sinks = append(sinks, zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    withDefault(cfg.MaxSize, 100),
			MaxAge:     withDefault(cfg.MaxAge, 30),
			MaxBackups: withDefault(cfg.MaxBackups, 7),
			Compress:   true,
		}))
	}

	core := zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(sinks...), level)
	l := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))

	mu.Lock()
	lg = l
	mu.Unlock()
	return nil
}

func withDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// Lg returns the process logger.
func Lg() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return lg
}

// Named returns a child logger for one component. The caller skip added for
// the package helpers is undone so caller fields stay accurate.
func Named(name string) *zap.Logger {
	return Lg().WithOptions(zap.AddCallerSkip(-1)).Named(name)
}

func Debug(msg string, fields ...zap.Field) { Lg().Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { Lg().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { Lg().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { Lg().Error(msg, fields...) }

// Sync flushes buffered entries; call before exit.
func Sync() {
	_ = Lg().Sync()
}
