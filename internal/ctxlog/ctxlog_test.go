package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bufferedLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

func TestFromContext_ReturnsEmbeddedLogger(t *testing.T) {
	logger, buf := bufferedLogger()
	ctx := WithLogger(context.Background(), logger)

	FromContext(ctx).Info("hello")
	assert.Contains(t, buf.String(), "hello")
}

func TestFromContext_FallsBackToDefault(t *testing.T) {
	require.NotNil(t, FromContext(context.Background()))
}

func TestWith_AddsAttributes(t *testing.T) {
	logger, buf := bufferedLogger()
	ctx := WithLogger(context.Background(), logger)
	ctx = With(ctx, "flow", 7)

	FromContext(ctx).Info("scoped")
	assert.Contains(t, buf.String(), "flow=7")
}
