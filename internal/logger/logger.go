package logger

import (
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Additional-Code/procurement/internal/config"
)

// Module exposes a configured Zap logger to the Fx container.
var Module = fx.Provide(New)

// New builds the application logger. Until the app stops it also serves as
// zap's global logger and as the sink of the standard library logger.
func New(lc fx.Lifecycle, cfg config.Config) (*zap.Logger, error) {
	logger, err := Build(cfg.Observability)
	if err != nil {
		return nil, err
	}

	restoreGlobals := zap.ReplaceGlobals(logger)
	restoreStdLog := zap.RedirectStdLog(logger)
	lc.Append(fx.StopHook(func() {
		restoreStdLog()
		restoreGlobals()
		_ = logger.Sync()
	}))

	return logger, nil
}

// Build constructs the logger described by obs without touching globals.
// The "console" encoding selects zap's development preset; anything else is
// passed to the production preset as its encoding.
func Build(obs config.Observability) (*zap.Logger, error) {
	zapCfg := productionConfig(obs.LogEncoding)
	if obs.LogEncoding == "console" {
		zapCfg = developmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(parseLevel(obs.LogLevel))

	logger, err := zapCfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, err
	}
	return logger.With(
		zap.String("service", obs.ServiceName),
		zap.String("environment", obs.Environment),
	), nil
}

// parseLevel falls back to info for unknown names.
func parseLevel(name string) zapcore.Level {
	level, err := zapcore.ParseLevel(name)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}

func productionConfig(encoding string) zap.Config {
	cfg := zap.NewProductionConfig()
	if encoding != "" {
		cfg.Encoding = encoding
	}
	enc := &cfg.EncoderConfig
	enc.TimeKey = "ts"
	enc.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339Nano)
	enc.EncodeDuration = zapcore.StringDurationEncoder
	enc.EncodeLevel = zapcore.LowercaseLevelEncoder
	return cfg
}

func developmentConfig() zap.Config {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339)
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return cfg
}
