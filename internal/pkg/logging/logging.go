package logging

import (
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger. Development mode gets a colorized console
// encoder; anything else logs JSON to stdout for log collectors.
func New(env string, level zapcore.Level) (*zap.Logger, error) {
	var cfg zap.Config
	if env == "development" {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
		if shouldColor() {
			cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	return cfg.Build()
}

func shouldColor() bool {
	return os.Getenv("NO_COLOR") == ""
}

var (
	startOnce sync.Once
	startTime time.Time
)

// MarkProcessStart records the process start time. Safe to call more than
// once; only the first call counts.
func MarkProcessStart() {
	startOnce.Do(func() {
		startTime = time.Now()
	})
}

// Uptime returns the time elapsed since MarkProcessStart.
func Uptime() time.Duration {
	if startTime.IsZero() {
		return 0
	}
	return time.Since(startTime)
}

func init() {
	MarkProcessStart()
}
