package logger

import (
	"context"
	"fmt"
	"time"

	"github.com/fluent/fluent-logger-golang/fluent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tutordesk/tutordesk/internal/config"
	"github.com/tutordesk/tutordesk/internal/types"
)

const (
	LevelDebug = "debug"
	LevelInfo  = "info"

	fluentdTag = "tutordesk.logs"
)

// Logger wraps zap.SugaredLogger and optionally mirrors entries to Fluentd
type Logger struct {
	*zap.SugaredLogger
	fluentd *fluent.Fluent
	service string
}

// L is the process default, used by scripts and package-level helpers.
// Server components receive their logger through fx instead.
var L *Logger

func init() {
	L, _ = NewLogger(config.GetDefaultConfig())
}

// NewLogger builds a zap logger from the logging section of cfg
func NewLogger(cfg *config.Configuration) (*Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg.Logging.Level == LevelDebug {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.EncoderConfig.TimeKey = "timestamp"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg.DisableStacktrace = true

	zapLogger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	sugar := zapLogger.Sugar()

	l := &Logger{
		SugaredLogger: sugar,
		service:       cfg.Deployment.Mode,
	}

	if cfg.Logging.FluentdEnabled {
		if cfg.Logging.FluentdHost == "" || cfg.Logging.FluentdPort <= 0 {
			sugar.Warn("fluentd enabled without host/port, logging to stdout only")
			return l, nil
		}
		f, err := fluent.New(fluent.Config{
			FluentHost:   cfg.Logging.FluentdHost,
			FluentPort:   cfg.Logging.FluentdPort,
			Async:        true,
			BufferLimit:  4 * 1024 * 1024,
			WriteTimeout: 3 * time.Second,
			MaxRetry:     5,
		})
		if err != nil {
			sugar.Warnw("failed to initialize fluentd, logging to stdout only", "error", err)
			return l, nil
		}
		l.fluentd = f
	}

	return l, nil
}

// NewNopLogger returns a logger that discards everything, for tests
func NewNopLogger() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func GetLogger() *Logger {
	if L == nil {
		L = NewNopLogger()
	}
	return L
}

// WithContext returns a child logger carrying request and user identifiers
func (l *Logger) WithContext(ctx context.Context) *Logger {
	fields := make([]interface{}, 0, 4)
	if requestID := types.GetRequestID(ctx); requestID != "" {
		fields = append(fields, "request_id", requestID)
	}
	if userID := types.GetUserID(ctx); userID != "" {
		fields = append(fields, "user_id", userID)
	}
	if len(fields) == 0 {
		return l
	}
	return &Logger{
		SugaredLogger: l.SugaredLogger.With(fields...),
		fluentd:       l.fluentd,
		service:       l.service,
	}
}

// Close flushes zap and the fluentd buffer
func (l *Logger) Close() error {
	_ = l.SugaredLogger.Sync()
	if l.fluentd != nil {
		return l.fluentd.Close()
	}
	return nil
}

func (l *Logger) forward(level, msg string, keysAndValues []interface{}) {
	if l.fluentd == nil {
		return
	}
	record := map[string]interface{}{
		"level":     level,
		"message":   msg,
		"service":   l.service,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if key, ok := keysAndValues[i].(string); ok {
			record[key] = keysAndValues[i+1]
		}
	}
	if err := l.fluentd.Post(fluentdTag, record); err != nil {
		l.SugaredLogger.Warnw("failed to forward log to fluentd", "error", err)
	}
}

func (l *Logger) Debugw(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Debugw(msg, keysAndValues...)
	l.forward("debug", msg, keysAndValues)
}

func (l *Logger) Infow(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Infow(msg, keysAndValues...)
	l.forward("info", msg, keysAndValues)
}

func (l *Logger) Warnw(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Warnw(msg, keysAndValues...)
	l.forward("warning", msg, keysAndValues)
}

func (l *Logger) Errorw(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Errorw(msg, keysAndValues...)
	l.forward("error", msg, keysAndValues)
}

func (l *Logger) Infof(template string, args ...interface{}) {
	l.SugaredLogger.Infof(template, args...)
	l.forward("info", fmt.Sprintf(template, args...), nil)
}

func (l *Logger) Errorf(template string, args ...interface{}) {
	l.SugaredLogger.Errorf(template, args...)
	l.forward("error", fmt.Sprintf(template, args...), nil)
}

// retryableHTTPLogger adapts Logger to go-retryablehttp's LeveledLogger
type retryableHTTPLogger struct {
	logger *Logger
}

// GetRetryableHTTPLogger returns a logger usable as retryablehttp.Client.Logger
func (l *Logger) GetRetryableHTTPLogger() *retryableHTTPLogger {
	return &retryableHTTPLogger{logger: l}
}

func (r *retryableHTTPLogger) Error(msg string, keysAndValues ...interface{}) {
	r.logger.Errorw(msg, keysAndValues...)
}

func (r *retryableHTTPLogger) Info(msg string, keysAndValues ...interface{}) {
	r.logger.Debugw(msg, keysAndValues...)
}

func (r *retryableHTTPLogger) Debug(msg string, keysAndValues ...interface{}) {
	r.logger.Debugw(msg, keysAndValues...)
}

func (r *retryableHTTPLogger) Warn(msg string, keysAndValues ...interface{}) {
	r.logger.Warnw(msg, keysAndValues...)
}

// ginLogger adapts Logger to an io.Writer for gin's debug output
type ginLogger struct {
	logger *Logger
}

func (l *Logger) GetGinLogger() *ginLogger {
	return &ginLogger{logger: l}
}

func (g *ginLogger) Write(p []byte) (n int, err error) {
	g.logger.Info(string(p))
	return len(p), nil
}
