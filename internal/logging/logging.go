package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger: human-readable at debug level when
// verbose or DEBUG is set, JSON at info level otherwise.
func New(verbose bool) (*zap.Logger, error) {
	if verbose || os.Getenv("DEBUG") != "" {
		return zap.NewDevelopmentConfig().Build()
	}

	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}
