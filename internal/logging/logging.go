// Package logging builds the zap logger shared by the pipeline.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Option func(*zap.Config)

// WithLevel sets the minimum level. Unknown names leave the level at info.
func WithLevel(level string) Option {
	return func(cfg *zap.Config) {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			lvl = zapcore.InfoLevel
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
}

// WithJSON switches from the console encoder to JSON lines.
func WithJSON(json bool) Option {
	return func(cfg *zap.Config) {
		if json {
			cfg.Encoding = "json"
			cfg.EncoderConfig = zap.NewProductionEncoderConfig()
		}
	}
}

// WithOutput adds a sink path, for instance the run directory's log file.
func WithOutput(path string) Option {
	return func(cfg *zap.Config) {
		if path != "" {
			cfg.OutputPaths = append(cfg.OutputPaths, path)
		}
	}
}

// New returns a console logger at info level writing to stderr, adjusted by
// opts.
func New(opts ...Option) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.Sampling = nil
	cfg.DisableStacktrace = true

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg.Build()
}
