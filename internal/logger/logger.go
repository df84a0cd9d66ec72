package logger

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	RequestIDKey = "X-Request-ID"
	contextKey   = "logger"
)

// Init builds the process logger and installs it as the zap global.
func Init(level, env, service string) (*zap.Logger, error) {
	var logConfig zap.Config

	if env == "production" {
		logConfig = zap.NewProductionConfig()
	} else {
		logConfig = zap.NewDevelopmentConfig()
		logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}
	logConfig.Level.SetLevel(lvl)

	log, err := logConfig.Build()
	if err != nil {
		return nil, err
	}
	log = log.With(zap.String("service", service))

	zap.ReplaceGlobals(log)
	log.Info("Logger initialized", zap.String("level", lvl.String()))
	return log, nil
}

// Attach stores a request scoped logger in the gin context.
func Attach(c *gin.Context, log *zap.Logger) {
	c.Set(contextKey, log)
}

// FromGin returns the request logger, falling back to the global one tagged
// with whatever request id is available.
func FromGin(c *gin.Context) *zap.Logger {
	if log, ok := c.Get(contextKey); ok {
		if l, ok := log.(*zap.Logger); ok {
			return l
		}
	}

	requestID := c.GetString(RequestIDKey)
	if requestID == "" {
		requestID = c.GetHeader(RequestIDKey)
	}
	if requestID == "" {
		requestID = "unknown"
	}
	return zap.L().With(zap.String("request_id", requestID))
}
