package observability

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/spec-kit/project-planner/internal/config"
)

const formatConsole = "console"

// NewLogger builds the service logger. Production environments get sampling
// and stack traces on errors only; everything else logs in development mode.
func NewLogger(cfg config.LoggerConfig, app config.AppConfig) (*zap.Logger, error) {
	return newZapConfig(cfg, app).Build()
}

func newZapConfig(cfg config.LoggerConfig, app config.AppConfig) zap.Config {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if app.Env == "production" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.Sampling = nil
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.OutputPaths = []string{"stdout"}
	zapCfg.ErrorOutputPaths = []string{"stderr"}

	zapCfg.Encoding = "json"
	zapCfg.EncoderConfig = zap.NewProductionEncoderConfig()
	zapCfg.EncoderConfig.MessageKey = "message"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if cfg.Format == formatConsole {
		zapCfg.Encoding = formatConsole
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	fields := map[string]interface{}{"service": app.Name}
	if app.Version != "" {
		fields["version"] = app.Version
	}
	if app.Env != "" {
		fields["env"] = app.Env
	}
	zapCfg.InitialFields = fields
	return zapCfg
}
