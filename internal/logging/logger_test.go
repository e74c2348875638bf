package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("WritesToFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "planner.log")

		logger, err := New("debug", path)
		require.NoError(t, err)
		logger.Info("hello")
		_ = logger.Sync()

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"msg":"hello"`)
	})

	t.Run("BadLevel", func(t *testing.T) {
		_, err := New("loud", "")
		assert.Error(t, err)
	})

	t.Run("OrNop", func(t *testing.T) {
		assert.NotNil(t, OrNop(nil))
	})
}
