package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a zap logger for the given environment. "dev" gets the
// human-readable development config, anything else the JSON production config.
// A non-empty format ("json" or "console") overrides the encoding only.
func New(env, level, format string) (*zap.Logger, error) {
	cfg, err := buildConfig(env, level, format)
	if err != nil {
		return nil, err
	}
	return cfg.Build()
}

func buildConfig(env, level, format string) (zap.Config, error) {
	var cfg zap.Config
	if env == "dev" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	switch format {
	case "":
	case "json", "console":
		cfg.Encoding = format
	default:
		return zap.Config{}, fmt.Errorf("unknown log format %q", format)
	}

	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return zap.Config{}, fmt.Errorf("parse log level failed: %w", err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	return cfg, nil
}
