package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/skydrive/internal/logging"
)

func TestRecorderAndFanout(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	var seen []Level
	f := Fanout{a, b, Func(func(_ context.Context, n Notification) { seen = append(seen, n.Level) })}
	ctx := context.Background()

	Success(ctx, f, "Sharing enabled")
	Error(ctx, f, "Failed to upload a.txt", "Timeout")
	Info(ctx, f, "Synced")

	assert.Equal(t, []string{"Sharing enabled", "Failed to upload a.txt", "Synced"}, a.Messages())
	assert.Equal(t, a.Messages(), b.Messages())
	assert.Equal(t, []Level{LevelSuccess, LevelError, LevelInfo}, seen)
	assert.Equal(t, "Timeout", a.All()[1].Kind)
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(logging.NewJSONLogger(&buf, "info"))

	Error(context.Background(), n, "Failed to upload a.txt", "TransferFailed")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "ERROR", line["level"])
	assert.Equal(t, "Failed to upload a.txt", line["msg"])
	assert.Equal(t, "TransferFailed", line["kind"])
	assert.Equal(t, "notify", line["module"])
}
