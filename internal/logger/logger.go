package logger

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Supported encodings
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config holds logger configuration
type Config struct {
	// Level is the minimum enabled level: debug, info, warn or error.
	// Default: "info"
	Level string

	// Format selects the encoder: "json" for machine-readable output,
	// "console" for colored human-readable output.
	// Default: "json"
	Format string

	// OutputPaths lists sinks for log output
	// Default: ["stderr"]
	OutputPaths []string

	// InitialFields are added to every entry
	InitialFields map[string]interface{}
}

type contextKey struct{}

var loggerKey = contextKey{}

// New builds a logger from cfg. A nil cfg yields the defaults.
//
// Output goes to stderr by default so that stdout stays free for query
// results.
func New(cfg *Config) (*zap.Logger, error) {
	c := Config{}
	if cfg != nil {
		c = *cfg
	}
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = FormatJSON
	}
	if len(c.OutputPaths) == 0 {
		c.OutputPaths = []string{"stderr"}
	}

	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.Level, err)
	}

	var encoderConfig zapcore.EncoderConfig
	development := false
	switch c.Format {
	case FormatJSON:
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	case FormatConsole:
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		development = true
	default:
		return nil, fmt.Errorf("invalid log format %q, must be one of: json, console", c.Format)
	}

	zapConfig := zap.Config{
		Level:             level,
		Development:       development,
		Encoding:          c.Format,
		EncoderConfig:     encoderConfig,
		OutputPaths:       c.OutputPaths,
		ErrorOutputPaths:  []string{"stderr"},
		InitialFields:     c.InitialFields,
		DisableStacktrace: !development,
	}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

// WithLogger returns a new context carrying logger
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger stored in ctx, or fallback when there is
// none. A nil fallback becomes a no-op logger.
func FromContext(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok && logger != nil {
			return logger
		}
	}
	if fallback == nil {
		return zap.NewNop()
	}
	return fallback
}

// WithOperation tags logger with a GraphQL operation name
func WithOperation(logger *zap.Logger, operation string) *zap.Logger {
	if operation == "" {
		return logger
	}
	return logger.With(zap.String("operation", operation))
}
