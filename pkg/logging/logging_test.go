package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/daanv2/go-webp-alpha/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_ContextAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := logging.Logger(&buf, true, slog.LevelDebug)

	ctx := logging.AppendCtx(context.Background(), slog.String("tool", "webpalpha"))
	ctx = logging.AppendCtx(ctx, slog.Int("frame", 3))
	log.With(slog.String("session", "s1")).DebugContext(ctx, "rows decoded", slog.Int("row", 16))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "rows decoded", rec["msg"])
	assert.Equal(t, "webpalpha", rec["tool"])
	assert.InDelta(t, 3, rec["frame"], 0)
	assert.InDelta(t, 16, rec["row"], 0)
	assert.Equal(t, "s1", rec["session"])
}

func TestLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	log := logging.Logger(&buf, false, slog.LevelWarn)

	log.Info("hidden")
	assert.Empty(t, buf.String())

	log.Warn("shown", slog.String("k", "v"))
	assert.Contains(t, buf.String(), "msg=shown")
	assert.Contains(t, buf.String(), "k=v")
}

func TestAppendCtx_DoesNotLeak(t *testing.T) {
	base := logging.AppendCtx(context.Background(), slog.String("a", "1"))
	_ = logging.AppendCtx(base, slog.String("b", "2"))

	var buf bytes.Buffer
	logging.Logger(&buf, false, slog.LevelInfo).InfoContext(base, "x")
	assert.Contains(t, buf.String(), "a=1")
	assert.NotContains(t, buf.String(), "b=2")
}

func TestFileWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "webpalpha.log")
	w := logging.FileWriter(path, 1, 2)

	logging.Logger(w, false, slog.LevelInfo).Info("to file")
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}
