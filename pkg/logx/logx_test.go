package logx

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMaskingCoreRedactsFields(t *testing.T) {
	obs, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(newMaskingCore(obs)).Sugar()

	logger.Infow("FOUND",
		"address", "0x00ab",
		"mnemonic", "abandon about",
		"Private_Key", "0xdead",
	)
	logger.With("secret_piece", "0123").Infow("bound")

	entries := logs.All()
	require.Len(t, entries, 2)

	fields := entries[0].ContextMap()
	assert.Equal(t, "0x00ab", fields["address"])
	assert.Equal(t, redacted, fields["mnemonic"])
	assert.Equal(t, redacted, fields["Private_Key"])

	assert.Equal(t, redacted, entries[1].ContextMap()["secret_piece"])
}

func TestMaskingCoreMasksMessage(t *testing.T) {
	obs, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(newMaskingCore(obs))

	addr := "0x" + strings.Repeat("0a", 20)
	logger.Info("saved " + addr)

	require.Len(t, logs.All(), 1)
	assert.Equal(t, "saved "+redacted, logs.All()[0].Message)
}

func TestInitWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app-{pid}.log")
	require.NoError(t, Init(Config{Level: "debug", FilePath: path}))
	t.Cleanup(func() {
		Close()
		global = zap.NewNop()
		sugar = global.Sugar()
	})

	S().Infow("hello", "k", 1)
	Close()

	files, err := filepath.Glob(filepath.Join(filepath.Dir(path), "app-*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	b, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(b), "hello")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(""))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("err"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("bogus"))
}
