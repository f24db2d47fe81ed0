package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutordesk/tutordesk/internal/config"
	"github.com/tutordesk/tutordesk/internal/types"
)

func TestNewLogger(t *testing.T) {
	cfg := config.GetDefaultConfig()

	l, err := NewLogger(cfg)
	require.NoError(t, err)
	assert.Nil(t, l.fluentd)

	cfg.Logging.Level = LevelDebug
	cfg.Logging.FluentdEnabled = true // no host: stays stdout only
	l, err = NewLogger(cfg)
	require.NoError(t, err)
	assert.Nil(t, l.fluentd)
}

func TestLogger_WithContext(t *testing.T) {
	l := NewNopLogger()

	assert.Same(t, l, l.WithContext(context.Background()))

	ctx := context.WithValue(context.Background(), types.CtxRequestID, "req-1")
	child := l.WithContext(ctx)
	assert.NotSame(t, l, child)

	// Must not panic without fluentd
	child.Infow("hello", "key", "value")
	child.GetRetryableHTTPLogger().Warn("retrying", "attempt", 1)
	n, err := child.GetGinLogger().Write([]byte("gin line"))
	require.NoError(t, err)
	assert.Equal(t, len("gin line"), n)
}
