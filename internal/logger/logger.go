package logger

import (
	"os"
	"strings"

	"github.com/cyphera/cyphera-relayer/internal/constants"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the process wide logger. It discards everything until InitLogger
// or Configure runs.
var Log = zap.NewNop()

// Options selects the relayer's log output. Prod writes JSON, every other
// stage writes coloured console lines.
type Options struct {
	Level string
	Stage string
}

// InitLogger configures Log for stage with the level taken from LOG_LEVEL.
func InitLogger(stage string) {
	Configure(Options{Level: os.Getenv("LOG_LEVEL"), Stage: stage})
}

// Configure replaces Log. It panics when zap cannot build the logger.
func Configure(opts Options) {
	level := ParseLevel(opts.Level)
	prod := opts.Stage == constants.ProdEnvironment

	var cfg zap.Config
	if prod {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.MessageKey = "message"
		cfg.InitialFields = map[string]interface{}{
			"service": constants.ServiceName,
			"stage":   opts.Stage,
		}
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	// stack traces stay on for debug runs in prod
	cfg.DisableStacktrace = prod && level > zapcore.DebugLevel

	built, err := cfg.Build()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	Log = built
}

// ParseLevel maps a LOG_LEVEL value to a zap level. Unknown or empty values
// mean info.
func ParseLevel(level string) zapcore.Level {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warning" {
		level = "warn"
	}
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return parsed
}

// Error logs a message at ErrorLevel
func Error(msg string, fields ...zapcore.Field) {
	Log.Error(msg, fields...)
}

// Sync flushes any buffered log entries
func Sync() error {
	return Log.Sync()
}
