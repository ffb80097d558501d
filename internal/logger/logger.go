package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "bookstore-be"

var (
	mu  sync.RWMutex
	log *zap.Logger
)

// New builds the service logger. Production emits JSON at info level unless
// level overrides it; every other env gets the colored development console.
func New(env, level string) (*zap.Logger, error) {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.MessageKey = "message"
		cfg.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.OutputPaths = []string{"stdout"}
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, err
		}
		cfg.Level = lvl
	}

	return cfg.Build(
		zap.AddCaller(),
		zap.Fields(zap.String("service", serviceName), zap.String("env", env)),
	)
}

// Init installs the global logger. A bad level falls back to the env default.
func Init(env, level string) {
	l, err := New(env, level)
	if err != nil {
		l, err = New(env, "")
		if err != nil {
			panic(err)
		}
		l.Warn("invalid LOG_LEVEL, using default", zap.String("level", level))
	}

	mu.Lock()
	log = l
	mu.Unlock()
}

// L returns the global logger, initializing it from the environment on first use.
func L() *zap.Logger {
	mu.RLock()
	l := log
	mu.RUnlock()
	if l != nil {
		return l
	}

	Init(os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL"))
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// Replace swaps the global logger and returns a func restoring the previous one.
func Replace(l *zap.Logger) func() {
	mu.Lock()
	prev := log
	log = l
	mu.Unlock()
	return func() {
		mu.Lock()
		log = prev
		mu.Unlock()
	}
}

// Sync flushes buffered entries.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	if log != nil {
		_ = log.Sync()
	}
}
