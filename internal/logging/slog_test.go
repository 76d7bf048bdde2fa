package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufLogger() (*SlogLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := slog.New(slog.NewJSONHandler(&buf, nil))
	return NewSlogLogger(l), &buf
}

func TestSlogLogger_LevelsAndArgs(t *testing.T) {
	log, buf := newBufLogger()
	ctx := context.Background()

	log.Info(ctx, "sync finished", "collection", "notes", "count", 3)
	out := buf.String()
	require.Contains(t, out, `"msg":"sync finished"`)
	assert.Contains(t, out, `"collection":"notes"`)
	assert.Contains(t, out, `"count":3`)

	buf.Reset()
	log.Error(ctx, "sync failed", "collection", "quizzes")
	assert.Contains(t, buf.String(), `"level":"ERROR"`)
}

func TestSlogLogger_With(t *testing.T) {
	log, buf := newBufLogger()
	child := log.With("module", "repository")
	child.Warn(context.Background(), "stale cache")
	assert.Contains(t, buf.String(), `"module":"repository"`)
}
