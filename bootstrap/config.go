package bootstrap

import (
	"fmt"
	"os"

	"github.com/JGorski-cyber/event-sentinel/config"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// InitLogger initializes the zap logger with console output on stderr, which
// keeps stdout free for the summary. Debug records are kept only when verbose.
func InitLogger(verbose, noColor bool) (*zap.Logger, *zap.SugaredLogger, error) {
	logger := newLogger(zapcore.Lock(os.Stderr), verbose, noColor)
	return logger, logger.Sugar(), nil
}

func newLogger(out zapcore.WriteSyncer, verbose, noColor bool) *zap.Logger {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if noColor {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), out, level)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
}

// InitConfig loads the run configuration. Flags must already be bound to v.
func InitConfig(v *viper.Viper, configFile string) (*config.Config, error) {
	cfg, err := config.Load(v, configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// logConfig reports where the configuration came from and its key settings
func logConfig(v *viper.Viper, cfg *config.Config, sugar *zap.SugaredLogger) {
	if v == nil || v.ConfigFileUsed() == "" {
		sugar.Debug("No config file found, using defaults and env vars")
	} else {
		sugar.Debugw("Config file loaded", "path", v.ConfigFileUsed())
	}

	sugar.Debugw("Config loaded",
		"type", cfg.Input.Type,
		"directory", cfg.Input.Directory,
		"files", len(cfg.Input.Files),
		"format", cfg.Output.Format,
		"output_path", cfg.Output.Path,
		"workers", cfg.Engine.Workers,
		"regex_timeout", cfg.GetRegexTimeout(),
		"s3_publish", cfg.Publish.S3.Enabled())
}
