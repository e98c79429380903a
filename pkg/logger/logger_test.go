package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInitRejectsUnknownLevel(t *testing.T) {
	err := Init(LogConfig{Level: "loud"}, "development")
	assert.Error(t, err)
}

func TestInitWritesToRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "mediascribe.log")
	require.NoError(t, Init(LogConfig{Level: "debug", Filename: path}, "production"))
	t.Cleanup(func() { lg = zap.NewNop() })

	Info("pipeline started", zap.String("media_id", "m1"))
	Named("orchestrator").Warn("poll failed")
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "pipeline started")
	assert.Contains(t, string(data), `"media_id":"m1"`)
	assert.Contains(t, string(data), "orchestrator")
}
