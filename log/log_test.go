package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func withWriter(tb testing.TB, w *bytes.Buffer) {
	SetWriter(w)
	tb.Cleanup(func() {
		SetWriter(os.Stdout)
		JSONLog(false)
	})
}

func TestLogLevel(t *testing.T) {
	var buf bytes.Buffer
	withWriter(t, &buf)

	hooked := 0
	logger := NewWithLevel("logtest", zap.NewAtomicLevelAt(zapcore.InfoLevel), func(entry zapcore.Entry) error {
		hooked++
		require.Equal(t, zapcore.InfoLevel, entry.Level)
		return nil
	})

	logger.Zap().Debug("not printed")
	require.Empty(t, buf.String())
	require.Equal(t, 0, hooked)

	logger.Zap().Info("printed")
	require.Contains(t, buf.String(), "printed")
	require.Contains(t, buf.String(), "logtest")
	require.Equal(t, 1, hooked)
	buf.Reset()

	lvl := zap.NewAtomicLevelAt(zapcore.WarnLevel)
	sub := logger.SetLevel(&lvl).Named("sub")
	require.False(t, sub.Check(zapcore.InfoLevel))
	require.True(t, sub.Check(zapcore.WarnLevel))
	sub.Zap().Info("filtered")
	require.Empty(t, buf.String())

	lvl.SetLevel(zapcore.InfoLevel)
	sub.Zap().Info("visible")
	require.Contains(t, buf.String(), "logtest.sub")
}

func TestJSONLog(t *testing.T) {
	var buf bytes.Buffer
	withWriter(t, &buf)
	JSONLog(true)

	logger := NewWithLevel("json", zap.NewAtomicLevelAt(zapcore.DebugLevel))
	logger.Zap().Info("hello", ZVirtual("at", 150010), ZInts("slots", []int{1, 2}))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "hello", entry["M"])
	require.EqualValues(t, 150010, entry["at"])
	require.Equal(t, []any{1.0, 2.0}, entry["slots"])
}

func TestFatalError(t *testing.T) {
	reason := errors.New("boom")
	err := ErrInvalidConfig(reason)
	require.Equal(t, "config failed validation: boom", err.Error())
	require.ErrorIs(t, err, reason)

	err = ErrEnsureDataDir("/tmp/x", "denied")
	require.Equal(t, "could not open/create data dir /tmp/x: denied", err.Error())
}
